package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/anloi/smarthome/server/domain/entities"
	"github.com/anloi/smarthome/server/domain/repositories"
)

// deviceList handles GET /api/devices with filter and pagination.
func (s *Server) deviceList(c echo.Context) error {
	filter := repositories.DeviceFilter{
		Search: c.QueryParam("search"),
		Type:   entities.DeviceType(c.QueryParam("type")),
		SortBy: c.QueryParam("sortBy"),
		Order:  c.QueryParam("order"),
		Page:   1,
		Limit:  10,
	}

	if v := c.QueryParam("status"); v != "" {
		status := v == "true"
		filter.Status = &status
	}
	if v := c.QueryParam("isOnline"); v != "" {
		online := v == "true"
		filter.IsOnline = &online
	}
	if v := c.QueryParam("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page > 0 {
			filter.Page = page
		}
	}
	if v := c.QueryParam("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: "Invalid device type filter",
		})
	}

	listing, err := s.devices.List(c.Request().Context(), filter)
	if err != nil {
		s.logger.Error("Failed to list devices", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list devices",
		})
	}
	return c.JSON(http.StatusOK, listing)
}

// deviceListAll handles GET /api/devices/all
func (s *Server) deviceListAll(c echo.Context) error {
	devices, err := s.devices.ListAll(c.Request().Context())
	if err != nil {
		s.logger.Error("Failed to list devices", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list devices",
		})
	}
	return c.JSON(http.StatusOK, devices)
}

// deviceGet handles GET /api/devices/:id
func (s *Server) deviceGet(c echo.Context) error {
	id := c.Param("id")
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid device ID",
		})
	}

	device, err := s.devices.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Device not found",
			})
		}
		s.logger.Error("Failed to get device", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to get device",
		})
	}
	return c.JSON(http.StatusOK, device)
}

// deviceCreate handles POST /api/devices
func (s *Server) deviceCreate(c echo.Context) error {
	var req DeviceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	device := &entities.Device{
		Name:     req.Name,
		Type:     req.Type,
		IsOnline: true,
		Speed:    req.Speed,
	}
	if req.Status != nil {
		device.Status = *req.Status
	}
	if req.IsOnline != nil {
		device.IsOnline = *req.IsOnline
	}
	if req.Power != nil {
		device.Power = *req.Power
	}

	if err := device.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
		})
	}

	if err := s.devices.Create(c.Request().Context(), device); err != nil {
		s.logger.Error("Failed to create device", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create device",
		})
	}

	s.logger.Info("Device created",
		zap.String("device_id", device.ID),
		zap.String("type", string(device.Type)))
	return c.JSON(http.StatusCreated, device)
}

// deviceUpdate handles PUT /api/devices/:id
func (s *Server) deviceUpdate(c echo.Context) error {
	id := c.Param("id")
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid device ID",
		})
	}

	var req DeviceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	ctx := c.Request().Context()
	device, err := s.devices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Device not found",
			})
		}
		s.logger.Error("Failed to get device", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update device",
		})
	}

	if req.Name != "" {
		device.Name = req.Name
	}
	if req.Type != "" {
		device.Type = req.Type
	}
	if req.Status != nil {
		device.Status = *req.Status
	}
	if req.IsOnline != nil {
		device.IsOnline = *req.IsOnline
	}
	if req.Power != nil {
		device.Power = *req.Power
	}
	if req.Speed != nil {
		device.Speed = req.Speed
	}
	if device.Type != entities.DeviceTypeFan {
		// A device that is no longer a fan cannot keep a speed.
		if req.Speed != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "validation_failed",
				Message: "speed is only valid for fan devices",
			})
		}
		device.Speed = nil
	}

	if err := device.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
		})
	}

	if err := s.devices.Update(ctx, device); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Device not found",
			})
		}
		s.logger.Error("Failed to update device", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update device",
		})
	}
	return c.JSON(http.StatusOK, device)
}

// deviceDelete handles DELETE /api/devices/:id
func (s *Server) deviceDelete(c echo.Context) error {
	id := c.Param("id")
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid device ID",
		})
	}

	if err := s.devices.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Device not found",
			})
		}
		s.logger.Error("Failed to delete device", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to delete device",
		})
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Device deleted"})
}
