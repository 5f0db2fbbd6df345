package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/anloi/smarthome/server/domain/repositories"
	"github.com/anloi/smarthome/server/internal/auth"
)

// userProfile handles GET /api/users/me
func (s *Server) userProfile(c echo.Context) error {
	userID, _ := c.Get(contextUserID).(string)

	user, err := s.users.GetByID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "User not found",
			})
		}
		s.logger.Error("Failed to get user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load profile",
		})
	}
	return c.JSON(http.StatusOK, user)
}

// userList handles GET /api/users
func (s *Server) userList(c echo.Context) error {
	users, err := s.users.List(c.Request().Context())
	if err != nil {
		s.logger.Error("Failed to list users", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list users",
		})
	}
	return c.JSON(http.StatusOK, users)
}

// userUpdate handles PUT /api/users/:id
func (s *Server) userUpdate(c echo.Context) error {
	id := c.Param("id")
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid user ID",
		})
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	ctx := c.Request().Context()
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "User not found",
			})
		}
		s.logger.Error("Failed to get user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update user",
		})
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Sex != nil {
		user.Sex = *req.Sex
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Address != nil {
		user.Address = *req.Address
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			s.logger.Error("Failed to hash password", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to update user",
			})
		}
		user.Password = hash
	}

	if err := user.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
		})
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "already_registered",
				Message: "Email or phone number is already registered",
			})
		}
		s.logger.Error("Failed to update user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update user",
		})
	}
	return c.JSON(http.StatusOK, user)
}

// userDelete handles DELETE /api/users/:id
func (s *Server) userDelete(c echo.Context) error {
	id := c.Param("id")
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid user ID",
		})
	}

	if err := s.users.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "User not found",
			})
		}
		s.logger.Error("Failed to delete user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to delete user",
		})
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "User deleted"})
}
