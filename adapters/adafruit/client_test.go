package adafruit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func TestFetchData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/testuser/feeds/bbc-temp/data" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "2" {
			t.Errorf("Expected limit=2, got %s", got)
		}
		if got := r.Header.Get("X-AIO-Key"); got != "aio-key" {
			t.Errorf("Expected X-AIO-Key header, got %q", got)
		}
		io.WriteString(w, `[
			{"id": "B", "value": "24.1", "feed_id": 42, "feed_key": "bbc-temp", "created_at": "2024-01-01T00:01:00Z"},
			{"id": "A", "value": "23.9", "feed_id": 42, "feed_key": "bbc-temp", "created_at": "2024-01-01T00:00:00Z"}
		]`)
	}))
	defer server.Close()

	client := NewClient("testuser", "aio-key", zap.NewNop(), WithBaseURL(server.URL))

	points, err := client.FetchData(context.Background(), "bbc-temp", 2, 0)
	if err != nil {
		t.Fatalf("FetchData failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(points))
	}
	if points[0].ID != "B" || points[0].Value != "24.1" || points[0].FeedID != 42 {
		t.Errorf("Unexpected first point: %+v", points[0])
	}
	if points[1].CreatedAt.IsZero() {
		t.Error("Expected created_at to parse")
	}
}

func TestFetchDataRetriesServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, `[]`)
	}))
	defer server.Close()

	client := NewClient("testuser", "aio-key", zap.NewNop(),
		WithBaseURL(server.URL), WithMaxRetries(2))

	points, err := client.FetchData(context.Background(), "bbc-temp", 1, 0)
	if err != nil {
		t.Fatalf("Expected retry to recover, got %v", err)
	}
	if len(points) != 0 {
		t.Errorf("Expected empty response, got %d points", len(points))
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("Expected 2 upstream calls, got %d", got)
	}
}

func TestFetchDataClientErrorIsTerminal(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error": "invalid key"}`)
	}))
	defer server.Close()

	client := NewClient("testuser", "bad-key", zap.NewNop(),
		WithBaseURL(server.URL), WithMaxRetries(3))

	if _, err := client.FetchData(context.Background(), "bbc-temp", 1, 0); err == nil {
		t.Fatal("Expected error for 401 response")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected a single upstream call for 4xx, got %d", got)
	}
}

func TestCreateData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/testuser/feeds/bbc-led/data" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-AIO-Key"); got != "aio-key" {
			t.Errorf("Expected X-AIO-Key header, got %q", got)
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if body["value"] != "1" {
			t.Errorf("Expected value 1, got %q", body["value"])
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient("testuser", "aio-key", zap.NewNop(), WithBaseURL(server.URL))

	if err := client.CreateData(context.Background(), "bbc-led", "1"); err != nil {
		t.Fatalf("CreateData failed: %v", err)
	}
}
