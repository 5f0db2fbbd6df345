package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anloi/smarthome/server/domain/entities"
	"github.com/anloi/smarthome/server/domain/repositories"
	"github.com/anloi/smarthome/server/internal/auth"
)

// userRegister handles POST /api/users/register
func (s *Server) userRegister(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	user := &entities.User{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Sex:       req.Sex,
		Phone:     req.Phone,
		Address:   req.Address,
	}
	if err := user.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
		})
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to register user",
		})
	}
	user.Password = hash

	if err := s.users.Create(c.Request().Context(), user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "already_registered",
				Message: "Email or phone number is already registered",
			})
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to register user",
		})
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID))
	return c.JSON(http.StatusCreated, user)
}

// userLogin handles POST /api/users/login
func (s *Server) userLogin(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	user, err := s.users.GetByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "authentication_failed",
				Message: "Invalid email or password",
			})
		}
		s.logger.Error("Failed to look up user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to log in",
		})
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid email or password",
		})
	}

	token, err := auth.GenerateUserToken(user.ID)
	if err != nil {
		s.logger.Error("Failed to generate token", zap.String("user_id", user.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	return c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(auth.UserTokenTTL),
		User:      user,
	})
}

// forgotPassword handles POST /api/auth/forgot-password
func (s *Server) forgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	ctx := c.Request().Context()
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "unknown_email",
				Message: "Email is not registered",
			})
		}
		s.logger.Error("Failed to look up user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to start password reset",
		})
	}

	token, err := auth.GenerateResetToken(user.ID)
	if err != nil {
		s.logger.Error("Failed to generate reset token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to start password reset",
		})
	}

	// The token and its expiry are stored together and must match the
	// submitted token on reset.
	expires := time.Now().Add(auth.ResetTokenTTL)
	user.ResetPasswordToken = token
	user.ResetPasswordExpires = &expires
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error("Failed to store reset token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to start password reset",
		})
	}

	resetLink := fmt.Sprintf("%s/reset-password/%s", s.frontendURL, token)
	if err := s.mail.SendPasswordReset(user.Email, resetLink); err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "email_failed",
			Message: "Failed to send reset email",
		})
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Password reset email sent"})
}

// resetPassword handles POST /api/auth/reset-password
func (s *Server) resetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.Token == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Token and new password are required",
		})
	}

	claims, err := auth.ValidateToken(req.Token)
	if err != nil || claims.Purpose != auth.RolePurposeReset {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_token",
			Message: "Reset token is invalid or expired",
		})
	}

	ctx := c.Request().Context()
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_token",
			Message: "Reset token is invalid or expired",
		})
	}

	// Cross-check against the stored token: a token that was already
	// used (and therefore cleared) or superseded must be rejected.
	if user.ResetPasswordToken != req.Token ||
		user.ResetPasswordExpires == nil ||
		time.Now().After(*user.ResetPasswordExpires) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_token",
			Message: "Reset token is invalid or expired",
		})
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to reset password",
		})
	}

	user.Password = hash
	user.ClearResetToken()
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to reset password",
		})
	}

	s.logger.Info("Password reset", zap.String("user_id", user.ID))
	return c.JSON(http.StatusOK, MessageResponse{Message: "Password has been reset"})
}
