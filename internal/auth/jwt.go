package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// UserTokenTTL is the validity window for login tokens.
	UserTokenTTL = 7 * 24 * time.Hour
	// ResetTokenTTL is the validity window for password reset tokens.
	ResetTokenTTL = 15 * time.Minute

	// RolePurposeUser marks login tokens, RolePurposeReset marks
	// single-use password reset tokens.
	RolePurposeUser  = "user"
	RolePurposeReset = "password_reset"
)

// JWTClaims represents the claims in our JWT tokens.
type JWTClaims struct {
	UserID  string `json:"user_id"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// secret is loaded once at startup via SetSecret.
var secret []byte

// SetSecret installs the HS256 signing secret.
func SetSecret(s string) {
	secret = []byte(s)
}

// GenerateUserToken generates a login JWT for the user, valid 7 days.
func GenerateUserToken(userID string) (string, error) {
	return generate(userID, RolePurposeUser, UserTokenTTL)
}

// GenerateResetToken generates a password reset JWT, valid 15 minutes.
// The uuid jti makes every issued token distinct so the stored-token
// cross-check can tell reissues apart.
func GenerateResetToken(userID string) (string, error) {
	return generate(userID, RolePurposeReset, ResetTokenTTL)
}

func generate(userID, purpose string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}
	claims := &JWTClaims{
		UserID:  userID,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates a JWT token and returns the claims.
func ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrInvalidKey
}
