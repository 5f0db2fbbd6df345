// Package dashboard implements the device manager service consumed by
// the dashboard client. It fronts the local device registry and issues
// actuator commands straight to the upstream cloud feed, bypassing the
// backend mirror on the write path.
package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/anloi/smarthome/server/domain/entities"
	"github.com/anloi/smarthome/server/domain/repositories"
)

// deviceFeeds maps a device type to the upstream feed that carries its
// actuator commands. Types without an entry are registry-only.
var deviceFeeds = map[entities.DeviceType]string{
	entities.DeviceTypeLight: "bbc-led",
	entities.DeviceTypeFan:   "bbc-fan",
	entities.DeviceTypeState: "bbc-state",
	entities.DeviceTypeOther: "bbc-state",
}

// FeedForType returns the upstream feed carrying commands for the
// device type, if any.
func FeedForType(t entities.DeviceType) (string, bool) {
	key, ok := deviceFeeds[t]
	return key, ok
}

// FeedPublisher publishes actuator values to an upstream feed.
type FeedPublisher interface {
	CreateData(ctx context.Context, feedKey, value string) error
}

// Manager is the device manager service. All dependencies are injected;
// there is no hidden global state.
type Manager struct {
	httpClient *http.Client
	baseURL    string // local REST API base, e.g. http://localhost:8000/api
	publisher  FeedPublisher
	logger     *zap.Logger
}

// NewManager creates a device manager over the local API and the
// upstream feed publisher.
func NewManager(baseURL string, publisher FeedPublisher, httpClient *http.Client, logger *zap.Logger) *Manager {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Manager{
		httpClient: httpClient,
		baseURL:    baseURL,
		publisher:  publisher,
		logger:     logger,
	}
}

// Devices fetches every registered device.
func (m *Manager) Devices(ctx context.Context) ([]*entities.Device, error) {
	var devices []*entities.Device
	if err := m.do(ctx, http.MethodGet, "/devices/all", nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// Device fetches one device by id.
func (m *Manager) Device(ctx context.Context, id string) (*entities.Device, error) {
	var device entities.Device
	if err := m.do(ctx, http.MethodGet, "/devices/"+id, nil, &device); err != nil {
		return nil, err
	}
	return &device, nil
}

// Search queries the registry with the list filter contract.
func (m *Manager) Search(ctx context.Context, query string) (*repositories.DeviceListing, error) {
	var listing repositories.DeviceListing
	if err := m.do(ctx, http.MethodGet, "/devices?"+query, nil, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// Add registers a new device.
func (m *Manager) Add(ctx context.Context, device *entities.Device) (*entities.Device, error) {
	var created entities.Device
	if err := m.do(ctx, http.MethodPost, "/devices", device, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Remove deletes a device from the registry.
func (m *Manager) Remove(ctx context.Context, id string) error {
	return m.do(ctx, http.MethodDelete, "/devices/"+id, nil, nil)
}

// SetStatus turns a device on or off: the registry is updated and, for
// device types with an upstream feed, the command value is published
// directly to the cloud service.
func (m *Manager) SetStatus(ctx context.Context, device *entities.Device, on bool) (*entities.Device, error) {
	update := map[string]interface{}{"status": on}
	var updated entities.Device
	if err := m.do(ctx, http.MethodPut, "/devices/"+device.ID, update, &updated); err != nil {
		return nil, err
	}

	if feedKey, ok := FeedForType(device.Type); ok {
		value := "0"
		if on {
			value = "1"
		}
		if err := m.publisher.CreateData(ctx, feedKey, value); err != nil {
			// The registry write already landed; report the partial failure.
			return &updated, fmt.Errorf("device updated but feed command failed: %w", err)
		}
	}
	return &updated, nil
}

// SetFanSpeed updates a fan's speed and publishes it upstream.
func (m *Manager) SetFanSpeed(ctx context.Context, device *entities.Device, speed int) (*entities.Device, error) {
	if device.Type != entities.DeviceTypeFan {
		return nil, fmt.Errorf("device %s is not a fan", device.ID)
	}

	update := map[string]interface{}{"speed": speed}
	var updated entities.Device
	if err := m.do(ctx, http.MethodPut, "/devices/"+device.ID, update, &updated); err != nil {
		return nil, err
	}

	if feedKey, ok := FeedForType(device.Type); ok {
		if err := m.publisher.CreateData(ctx, feedKey, strconv.Itoa(speed)); err != nil {
			return &updated, fmt.Errorf("device updated but feed command failed: %w", err)
		}
	}
	return &updated, nil
}

// do performs one local API call, decoding the JSON response into out
// when out is non-nil.
func (m *Manager) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("device api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("device api returned %d: %s", resp.StatusCode, snippet)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode device api response: %w", err)
		}
	}
	return nil
}
