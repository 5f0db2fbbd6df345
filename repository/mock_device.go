package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anloi/smarthome/server/domain/entities"
	"github.com/anloi/smarthome/server/domain/repositories"
)

// MockDeviceRepository is an in-memory implementation of DeviceRepository
// for testing/development.
type MockDeviceRepository struct {
	mu      sync.RWMutex
	devices map[string]*entities.Device
}

// NewMockDeviceRepository creates a new in-memory device repository.
func NewMockDeviceRepository() *MockDeviceRepository {
	return &MockDeviceRepository{
		devices: make(map[string]*entities.Device),
	}
}

// Create implements repositories.DeviceRepository
func (m *MockDeviceRepository) Create(ctx context.Context, device *entities.Device) error {
	if device == nil {
		return errors.New("device cannot be nil")
	}

	now := time.Now()
	if device.CreatedAt.IsZero() {
		device.CreatedAt = now
	}
	device.UpdatedAt = now
	if device.ID == "" {
		device.ID = primitive.NewObjectID().Hex()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *device
	m.devices[device.ID] = &copied
	return nil
}

// GetByID implements repositories.DeviceRepository
func (m *MockDeviceRepository) GetByID(ctx context.Context, id string) (*entities.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	device, exists := m.devices[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	copied := *device
	return &copied, nil
}

// List implements repositories.DeviceRepository
func (m *MockDeviceRepository) List(ctx context.Context, filter repositories.DeviceFilter) (*repositories.DeviceListing, error) {
	m.mu.RLock()
	matched := []*entities.Device{}
	for _, d := range m.devices {
		if filter.Search != "" && !strings.Contains(strings.ToLower(d.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Status != nil && d.Status != *filter.Status {
			continue
		}
		if filter.IsOnline != nil && d.IsOnline != *filter.IsOnline {
			continue
		}
		if filter.Type != "" && d.Type != filter.Type {
			continue
		}
		copied := *d
		matched = append(matched, &copied)
	}
	m.mu.RUnlock()

	asc := filter.Order == "asc"
	byPower := filter.SortBy == "power"
	sort.Slice(matched, func(i, j int) bool {
		var less bool
		if byPower {
			less = matched[i].Power < matched[j].Power
		} else {
			less = matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		if asc {
			return less
		}
		return !less
	})

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		matched = []*entities.Device{}
	} else {
		end := start + limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}

	return &repositories.DeviceListing{
		Total:   total,
		Page:    page,
		Limit:   limit,
		Devices: matched,
	}, nil
}

// ListAll implements repositories.DeviceRepository
func (m *MockDeviceRepository) ListAll(ctx context.Context) ([]*entities.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	devices := make([]*entities.Device, 0, len(m.devices))
	for _, d := range m.devices {
		copied := *d
		devices = append(devices, &copied)
	}
	return devices, nil
}

// Update implements repositories.DeviceRepository
func (m *MockDeviceRepository) Update(ctx context.Context, device *entities.Device) error {
	if device == nil {
		return errors.New("device cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, exists := m.devices[device.ID]
	if !exists {
		return repositories.ErrNotFound
	}
	device.CreatedAt = existing.CreatedAt
	device.UpdatedAt = time.Now()
	copied := *device
	m.devices[device.ID] = &copied
	return nil
}

// Delete implements repositories.DeviceRepository
func (m *MockDeviceRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.devices[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.devices, id)
	return nil
}
