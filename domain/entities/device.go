package entities

import (
	"errors"
	"fmt"
	"time"
)

// DeviceType enumerates the logical appliance categories a user can register.
type DeviceType string

const (
	DeviceTypeLight DeviceType = "light"
	DeviceTypeAC    DeviceType = "ac"
	DeviceTypeFan   DeviceType = "fan"
	DeviceTypeTV    DeviceType = "tv"
	DeviceTypeOther DeviceType = "other"
	DeviceTypeState DeviceType = "state"
)

// DeviceTypes lists every valid device type.
var DeviceTypes = []DeviceType{
	DeviceTypeLight,
	DeviceTypeAC,
	DeviceTypeFan,
	DeviceTypeTV,
	DeviceTypeOther,
	DeviceTypeState,
}

// Device is a logical appliance the user manages from the dashboard.
// It is independent of the raw feed mirror; the mapping from a device
// type to an upstream feed lives in the dashboard device manager.
type Device struct {
	ID        string     `json:"id" bson:"_id,omitempty"`
	Name      string     `json:"name" bson:"name"`
	Type      DeviceType `json:"type" bson:"type"`
	Status    bool       `json:"status" bson:"status"`
	IsOnline  bool       `json:"isOnline" bson:"isOnline"`
	Power     float64    `json:"power" bson:"power"`
	Speed     *int       `json:"speed,omitempty" bson:"speed,omitempty"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Validate checks the structural rules for a device. Speed is required
// for fans and forbidden for every other type.
func (d *Device) Validate() error {
	if d.Name == "" {
		return errors.New("name is required")
	}
	if !d.Type.Valid() {
		return fmt.Errorf("invalid device type %q", d.Type)
	}
	if d.Type == DeviceTypeFan {
		if d.Speed == nil {
			return errors.New("speed is required for fan devices")
		}
		if *d.Speed < 0 || *d.Speed > 100 {
			return errors.New("speed must be between 0 and 100")
		}
	} else if d.Speed != nil {
		return fmt.Errorf("speed is not valid for %s devices", d.Type)
	}
	return nil
}

// Valid reports whether t is a known device type.
func (t DeviceType) Valid() bool {
	for _, known := range DeviceTypes {
		if t == known {
			return true
		}
	}
	return false
}
