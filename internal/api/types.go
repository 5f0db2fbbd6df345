package api

import (
	"time"

	"github.com/anloi/smarthome/server/domain/entities"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// RegisterRequest represents the registration payload.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Sex       string `json:"sex"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// LoginRequest represents the login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the signed credential back to the client.
type LoginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      *entities.User `json:"user"`
}

// ForgotPasswordRequest starts the reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest completes the reset flow.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// UpdateUserRequest carries a partial profile update. Nil fields are
// left untouched.
type UpdateUserRequest struct {
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Sex       *string `json:"sex"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
}

// DeviceRequest represents a create or update of a registry device.
// Status and IsOnline are pointers so their defaults (false, true) can
// be applied only when the field is omitted.
type DeviceRequest struct {
	Name     string              `json:"name"`
	Type     entities.DeviceType `json:"type"`
	Status   *bool               `json:"status"`
	IsOnline *bool               `json:"isOnline"`
	Power    *float64            `json:"power"`
	Speed    *int                `json:"speed"`
}

// MessageResponse is a plain confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}
