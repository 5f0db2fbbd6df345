package entities

import (
	"errors"
	"regexp"
	"time"
)

var (
	emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	phonePattern = regexp.MustCompile(`^\d{10,15}$`)
)

// User represents a registered dashboard account. Password always holds
// the bcrypt hash, never the plaintext. ResetPasswordToken and
// ResetPasswordExpires are set together by the forgot-password flow and
// cleared together after a successful reset.
type User struct {
	ID                   string     `json:"id" bson:"_id,omitempty"`
	Email                string     `json:"email" bson:"email"`
	Password             string     `json:"-" bson:"password"`
	FirstName            string     `json:"firstName" bson:"firstName"`
	LastName             string     `json:"lastName" bson:"lastName"`
	Sex                  string     `json:"sex" bson:"sex"`
	Phone                string     `json:"phone" bson:"phone"`
	Address              string     `json:"address" bson:"address"`
	ResetPasswordToken   string     `json:"-" bson:"resetPasswordToken,omitempty"`
	ResetPasswordExpires *time.Time `json:"-" bson:"resetPasswordExpires,omitempty"`
	CreatedAt            time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Validate checks the structural rules for a user account.
func (u *User) Validate() error {
	if !emailPattern.MatchString(u.Email) {
		return errors.New("invalid email address")
	}
	if u.Password == "" {
		return errors.New("password is required")
	}
	if u.Phone != "" && !phonePattern.MatchString(u.Phone) {
		return errors.New("invalid phone number")
	}
	return nil
}

// ClearResetToken drops the stored reset token and its expiry together.
func (u *User) ClearResetToken() {
	u.ResetPasswordToken = ""
	u.ResetPasswordExpires = nil
}
