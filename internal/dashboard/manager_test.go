package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/anloi/smarthome/server/domain/entities"
)

// fakePublisher records feed commands instead of calling the cloud.
type fakePublisher struct {
	keys   []string
	values []string
	fail   bool
}

func (f *fakePublisher) CreateData(ctx context.Context, feedKey, value string) error {
	if f.fail {
		return errors.New("upstream unavailable")
	}
	f.keys = append(f.keys, feedKey)
	f.values = append(f.values, value)
	return nil
}

// newDeviceAPI serves a minimal device registry: PUT echoes the merged
// device back, GET /devices/all returns the canned list.
func newDeviceAPI(t *testing.T, devices map[string]*entities.Device) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/devices/all", func(w http.ResponseWriter, r *http.Request) {
		all := make([]*entities.Device, 0, len(devices))
		for _, d := range devices {
			all = append(all, d)
		}
		json.NewEncoder(w).Encode(all)
	})
	mux.HandleFunc("/devices/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/devices/"):]
		device, ok := devices[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method == http.MethodPut {
			var patch struct {
				Status *bool `json:"status"`
				Speed  *int  `json:"speed"`
			}
			if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if patch.Status != nil {
				device.Status = *patch.Status
			}
			if patch.Speed != nil {
				device.Speed = patch.Speed
			}
		}
		json.NewEncoder(w).Encode(device)
	})
	return httptest.NewServer(mux)
}

func TestSetStatusPublishesCommand(t *testing.T) {
	lamp := &entities.Device{ID: "d1", Name: "Lamp", Type: entities.DeviceTypeLight}
	server := newDeviceAPI(t, map[string]*entities.Device{"d1": lamp})
	defer server.Close()

	publisher := &fakePublisher{}
	manager := NewManager(server.URL, publisher, server.Client(), zap.NewNop())

	updated, err := manager.SetStatus(context.Background(), lamp, true)
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if !updated.Status {
		t.Error("Expected registry status true")
	}
	if len(publisher.keys) != 1 || publisher.keys[0] != "bbc-led" || publisher.values[0] != "1" {
		t.Errorf("Expected command 1 on bbc-led, got %v=%v", publisher.keys, publisher.values)
	}

	if _, err := manager.SetStatus(context.Background(), lamp, false); err != nil {
		t.Fatalf("SetStatus off failed: %v", err)
	}
	if publisher.values[1] != "0" {
		t.Errorf("Expected command 0, got %s", publisher.values[1])
	}
}

func TestSetStatusRegistryOnlyTypes(t *testing.T) {
	ac := &entities.Device{ID: "d2", Name: "Bedroom AC", Type: entities.DeviceTypeAC}
	server := newDeviceAPI(t, map[string]*entities.Device{"d2": ac})
	defer server.Close()

	publisher := &fakePublisher{}
	manager := NewManager(server.URL, publisher, server.Client(), zap.NewNop())

	if _, err := manager.SetStatus(context.Background(), ac, true); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	// No feed is mapped for AC units; the registry update is enough.
	if len(publisher.keys) != 0 {
		t.Errorf("Expected no feed commands, got %v", publisher.keys)
	}
}

func TestSetStatusReportsPublishFailure(t *testing.T) {
	lamp := &entities.Device{ID: "d1", Name: "Lamp", Type: entities.DeviceTypeLight}
	server := newDeviceAPI(t, map[string]*entities.Device{"d1": lamp})
	defer server.Close()

	publisher := &fakePublisher{fail: true}
	manager := NewManager(server.URL, publisher, server.Client(), zap.NewNop())

	updated, err := manager.SetStatus(context.Background(), lamp, true)
	if err == nil {
		t.Fatal("Expected error when the feed command fails")
	}
	// The registry write landed before the failure.
	if updated == nil || !updated.Status {
		t.Errorf("Expected the updated device despite publish failure, got %+v", updated)
	}
}

func TestSetFanSpeed(t *testing.T) {
	fan := &entities.Device{ID: "d3", Name: "Ceiling fan", Type: entities.DeviceTypeFan}
	server := newDeviceAPI(t, map[string]*entities.Device{"d3": fan})
	defer server.Close()

	publisher := &fakePublisher{}
	manager := NewManager(server.URL, publisher, server.Client(), zap.NewNop())

	updated, err := manager.SetFanSpeed(context.Background(), fan, 40)
	if err != nil {
		t.Fatalf("SetFanSpeed failed: %v", err)
	}
	if updated.Speed == nil || *updated.Speed != 40 {
		t.Errorf("Expected speed 40, got %+v", updated.Speed)
	}
	if len(publisher.keys) != 1 || publisher.keys[0] != "bbc-fan" || publisher.values[0] != "40" {
		t.Errorf("Expected command 40 on bbc-fan, got %v=%v", publisher.keys, publisher.values)
	}

	lamp := &entities.Device{ID: "d1", Type: entities.DeviceTypeLight}
	if _, err := manager.SetFanSpeed(context.Background(), lamp, 40); err == nil {
		t.Error("Expected error setting speed on a non-fan")
	}
}

func TestDevices(t *testing.T) {
	server := newDeviceAPI(t, map[string]*entities.Device{
		"d1": {ID: "d1", Name: "Lamp", Type: entities.DeviceTypeLight},
		"d2": {ID: "d2", Name: "Fan", Type: entities.DeviceTypeFan},
	})
	defer server.Close()

	manager := NewManager(server.URL, &fakePublisher{}, server.Client(), zap.NewNop())

	devices, err := manager.Devices(context.Background())
	if err != nil {
		t.Fatalf("Devices failed: %v", err)
	}
	if len(devices) != 2 {
		t.Errorf("Expected 2 devices, got %d", len(devices))
	}
}

func TestFeedForType(t *testing.T) {
	if key, ok := FeedForType(entities.DeviceTypeLight); !ok || key != "bbc-led" {
		t.Errorf("Expected bbc-led for lights, got %q %v", key, ok)
	}
	if _, ok := FeedForType(entities.DeviceTypeAC); ok {
		t.Error("Expected no feed mapping for AC units")
	}
}
