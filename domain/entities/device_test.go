package entities

import "testing"

func intPtr(n int) *int { return &n }

func TestDeviceValidate(t *testing.T) {
	t.Run("ValidLight", func(t *testing.T) {
		device := &Device{Name: "Living room lamp", Type: DeviceTypeLight}
		if err := device.Validate(); err != nil {
			t.Errorf("Expected valid device, got error: %v", err)
		}
	})

	t.Run("FanRequiresSpeed", func(t *testing.T) {
		device := &Device{Name: "Ceiling fan", Type: DeviceTypeFan}
		if err := device.Validate(); err == nil {
			t.Error("Expected error for fan without speed")
		}

		device.Speed = intPtr(50)
		if err := device.Validate(); err != nil {
			t.Errorf("Expected valid fan, got error: %v", err)
		}
	})

	t.Run("SpeedForbiddenForNonFan", func(t *testing.T) {
		device := &Device{Name: "TV", Type: DeviceTypeTV, Speed: intPtr(10)}
		if err := device.Validate(); err == nil {
			t.Error("Expected error for non-fan with speed")
		}
	})

	t.Run("SpeedRange", func(t *testing.T) {
		device := &Device{Name: "Fan", Type: DeviceTypeFan, Speed: intPtr(101)}
		if err := device.Validate(); err == nil {
			t.Error("Expected error for speed above 100")
		}

		device.Speed = intPtr(-1)
		if err := device.Validate(); err == nil {
			t.Error("Expected error for negative speed")
		}
	})

	t.Run("NameRequired", func(t *testing.T) {
		device := &Device{Type: DeviceTypeLight}
		if err := device.Validate(); err == nil {
			t.Error("Expected error for missing name")
		}
	})

	t.Run("UnknownType", func(t *testing.T) {
		device := &Device{Name: "Mystery", Type: "fridge"}
		if err := device.Validate(); err == nil {
			t.Error("Expected error for unknown type")
		}
	})
}

func TestFeedRegistry(t *testing.T) {
	feed, ok := FeedBySlug("temp")
	if !ok {
		t.Fatal("Expected temp feed to be registered")
	}
	if feed.Key != "bbc-temp" {
		t.Errorf("Expected feed key bbc-temp, got %s", feed.Key)
	}
	if feed.Collection != "bbc_temp" {
		t.Errorf("Expected collection bbc_temp, got %s", feed.Collection)
	}

	if _, ok := FeedBySlug("unknown"); ok {
		t.Error("Expected lookup miss for unknown slug")
	}

	byKey, ok := FeedByKey("bbc-led")
	if !ok || byKey.Slug != "led" {
		t.Errorf("Expected led feed for bbc-led, got %+v ok=%v", byKey, ok)
	}

	if len(Feeds) != 7 {
		t.Errorf("Expected 7 registered feeds, got %d", len(Feeds))
	}
}

func TestUserValidate(t *testing.T) {
	user := &User{Email: "an@example.com", Password: "secret", Phone: "0123456789"}
	if err := user.Validate(); err != nil {
		t.Errorf("Expected valid user, got error: %v", err)
	}

	user.Email = "not-an-email"
	if err := user.Validate(); err == nil {
		t.Error("Expected error for invalid email")
	}

	user.Email = "an@example.com"
	user.Phone = "12ab"
	if err := user.Validate(); err == nil {
		t.Error("Expected error for invalid phone")
	}
}

func TestClearResetToken(t *testing.T) {
	user := &User{Email: "an@example.com", Password: "x"}
	user.ResetPasswordToken = "token"
	expires := user.CreatedAt
	user.ResetPasswordExpires = &expires

	user.ClearResetToken()
	if user.ResetPasswordToken != "" {
		t.Error("Expected reset token to be cleared")
	}
	if user.ResetPasswordExpires != nil {
		t.Error("Expected reset expiry to be cleared")
	}
}
