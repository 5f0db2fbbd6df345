package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/anloi/smarthome/server/domain/entities"
)

func TestFeedCreateAndGet(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/api/temp",
		`{"id": "0EJ8A2RA2KJ1M8W5VZ6Q", "value": "24.1", "feed_key": "bbc-temp"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created entities.FeedRecord
	decode(t, rec, &created)
	if created.FeedName != "bbc-temp" {
		t.Errorf("Expected feedName to default to bbc-temp, got %s", created.FeedName)
	}
	if created.CreatedAt.IsZero() {
		t.Error("Expected createdAt to be filled in")
	}
	if created.CreatedEpoch == 0 {
		t.Error("Expected createdEpoch to be derived")
	}

	rec = env.request(t, http.MethodGet, "/api/temp/0EJ8A2RA2KJ1M8W5VZ6Q", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var fetched entities.FeedRecord
	decode(t, rec, &fetched)
	if fetched.Value != "24.1" {
		t.Errorf("Expected value 24.1, got %s", fetched.Value)
	}
}

func TestFeedCreateRequiresID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/api/temp", `{"value": "24.1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without id, got %d", rec.Code)
	}
}

func TestFeedCreateDuplicate(t *testing.T) {
	env := newTestEnv(t)

	body := `{"id": "DUP1", "value": "1"}`
	if rec := env.request(t, http.MethodPost, "/api/humidity", body); rec.Code != http.StatusCreated {
		t.Fatalf("First insert failed: %d", rec.Code)
	}
	rec := env.request(t, http.MethodPost, "/api/humidity", body)
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 for duplicate id, got %d", rec.Code)
	}
}

func TestFeedUpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.request(t, http.MethodPost, "/api/led",
		`{"id": "L1", "value": "0"}`); rec.Code != http.StatusCreated {
		t.Fatalf("Insert failed: %d", rec.Code)
	}

	rec := env.request(t, http.MethodPut, "/api/led/L1", `{"value": "1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated entities.FeedRecord
	decode(t, rec, &updated)
	if updated.Value != "1" {
		t.Errorf("Expected updated value 1, got %s", updated.Value)
	}

	rec = env.request(t, http.MethodDelete, "/api/led/L1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 on delete, got %d", rec.Code)
	}

	rec = env.request(t, http.MethodGet, "/api/led/L1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", rec.Code)
	}
}

func TestFeedUpdateMissing(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPut, "/api/pir/nope", `{"value": "1"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown record, got %d", rec.Code)
	}

	rec = env.request(t, http.MethodDelete, "/api/pir/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 deleting unknown record, got %d", rec.Code)
	}
}

func TestFeedListNewestFirst(t *testing.T) {
	env := newTestEnv(t)

	base, _ := time.Parse(time.RFC3339, "2024-01-01T00:00:00Z")
	for i, id := range []string{"A", "B", "C"} {
		record := &entities.FeedRecord{
			ID:        id,
			Value:     id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := env.feeds["state"].InsertIfAbsent(context.Background(), record); err != nil {
			t.Fatalf("Seed failed: %v", err)
		}
	}

	rec := env.request(t, http.MethodGet, "/api/state?limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var records []entities.FeedRecord
	decode(t, rec, &records)
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].ID != "C" || records[1].ID != "B" {
		t.Errorf("Expected newest-first order C,B, got %s,%s", records[0].ID, records[1].ID)
	}
}

func TestFeedSyncUnavailable(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/api/feeds/sync", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 without a sync runner, got %d", rec.Code)
	}
}
