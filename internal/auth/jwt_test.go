package auth

import (
	"testing"
	"time"
)

func TestUserToken(t *testing.T) {
	SetSecret("test-secret")

	token, err := GenerateUserToken("user-123")
	if err != nil {
		t.Fatalf("Failed to generate user token: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}

	if claims.UserID != "user-123" {
		t.Errorf("Expected user ID user-123, got %s", claims.UserID)
	}
	if claims.Purpose != RolePurposeUser {
		t.Errorf("Expected purpose %s, got %s", RolePurposeUser, claims.Purpose)
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining < 6*24*time.Hour || remaining > 7*24*time.Hour {
		t.Errorf("Expected roughly 7 day expiry, got %v", remaining)
	}
}

func TestResetToken(t *testing.T) {
	SetSecret("test-secret")

	token, err := GenerateResetToken("user-123")
	if err != nil {
		t.Fatalf("Failed to generate reset token: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if claims.Purpose != RolePurposeReset {
		t.Errorf("Expected purpose %s, got %s", RolePurposeReset, claims.Purpose)
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining > 15*time.Minute {
		t.Errorf("Expected at most 15 minute expiry, got %v", remaining)
	}

	// Every issued reset token must be distinct so the stored-token
	// cross-check can tell reissues apart.
	second, err := GenerateResetToken("user-123")
	if err != nil {
		t.Fatalf("Failed to generate second reset token: %v", err)
	}
	if second == token {
		t.Error("Expected distinct reset tokens for repeated requests")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	SetSecret("test-secret")
	token, err := GenerateUserToken("user-123")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	SetSecret("another-secret")
	defer SetSecret("test-secret")

	if _, err := ValidateToken(token); err == nil {
		t.Error("Expected validation to fail with wrong secret")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	if hash == "hunter2" {
		t.Error("Expected hash to differ from plaintext")
	}

	if !CheckPassword(hash, "hunter2") {
		t.Error("Expected correct password to verify")
	}
	if CheckPassword(hash, "hunter3") {
		t.Error("Expected wrong password to fail")
	}
}
