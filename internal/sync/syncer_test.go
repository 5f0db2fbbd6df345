package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/anloi/smarthome/server/adapters/adafruit"
	"github.com/anloi/smarthome/server/domain/entities"
	"github.com/anloi/smarthome/server/domain/repositories"
	"github.com/anloi/smarthome/server/internal/config"
	"github.com/anloi/smarthome/server/repository"
)

// fakeFetchClient serves canned upstream responses per feed key.
type fakeFetchClient struct {
	data   map[string][]adafruit.DataPoint
	errors map[string]error
	calls  int
}

func (f *fakeFetchClient) FetchData(ctx context.Context, feedKey string, limit, offset int) ([]adafruit.DataPoint, error) {
	f.calls++
	if err, ok := f.errors[feedKey]; ok {
		return nil, err
	}
	points := f.data[feedKey]
	if offset >= len(points) {
		return []adafruit.DataPoint{}, nil
	}
	end := offset + limit
	if end > len(points) {
		end = len(points)
	}
	return points[offset:end], nil
}

func testFeeds() []entities.Feed {
	return []entities.Feed{
		{Slug: "temp", Key: "bbc-temp", Collection: "bbc_temp"},
		{Slug: "humidity", Key: "bbc-humidity", Collection: "bbc_humidity"},
	}
}

func newTestSyncer(client FetchClient, mode config.SyncMode) (*Syncer, map[string]*repository.MockFeedRepository) {
	feeds := testFeeds()
	mocks := map[string]*repository.MockFeedRepository{}
	repos := map[string]repositories.FeedRepository{}
	for _, f := range feeds {
		mock := repository.NewMockFeedRepository()
		mocks[f.Slug] = mock
		repos[f.Slug] = mock
	}
	logger := zap.NewNop()
	return New(client, feeds, repos, mode, time.Hour, 7, logger), mocks
}

func TestSyncLatestIsIdempotent(t *testing.T) {
	created, _ := time.Parse(time.RFC3339, "2024-01-01T00:00:00Z")
	client := &fakeFetchClient{
		data: map[string][]adafruit.DataPoint{
			"bbc-temp": {{
				ID:        "A1",
				Value:     "23.5",
				FeedID:    42,
				FeedKey:   "bbc-temp",
				CreatedAt: created,
			}},
		},
	}

	syncer, mocks := newTestSyncer(client, config.SyncModeLatest)
	ctx := context.Background()

	// First run mirrors the record.
	results := syncer.RunOnce(ctx)
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("Unexpected sync error for %s: %v", r.Feed.Key, r.Err)
		}
	}
	if got := mocks["temp"].Count(); got != 1 {
		t.Fatalf("Expected 1 mirrored record, got %d", got)
	}

	record, err := mocks["temp"].GetByID(ctx, "A1")
	if err != nil {
		t.Fatalf("Failed to fetch mirrored record: %v", err)
	}
	if record.FeedName != "bbc-temp" {
		t.Errorf("Expected feedName bbc-temp, got %s", record.FeedName)
	}
	if record.Value != "23.5" {
		t.Errorf("Expected value 23.5, got %s", record.Value)
	}

	// Second run with the same upstream response inserts nothing and
	// reports no error.
	results = syncer.RunOnce(ctx)
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("Expected duplicate to be swallowed, got error: %v", r.Err)
		}
		if r.Inserted != 0 {
			t.Errorf("Expected zero inserts for %s, got %d", r.Feed.Key, r.Inserted)
		}
	}
	if got := mocks["temp"].Count(); got != 1 {
		t.Errorf("Expected still 1 mirrored record, got %d", got)
	}
}

func TestSyncTimestampAdjustment(t *testing.T) {
	created, _ := time.Parse(time.RFC3339, "2024-01-01T00:00:00Z")
	client := &fakeFetchClient{
		data: map[string][]adafruit.DataPoint{
			"bbc-temp": {{ID: "A1", Value: "1", CreatedAt: created}},
		},
	}

	syncer, mocks := newTestSyncer(client, config.SyncModeLatest)
	syncer.RunOnce(context.Background())

	record, err := mocks["temp"].GetByID(context.Background(), "A1")
	if err != nil {
		t.Fatalf("Failed to fetch mirrored record: %v", err)
	}

	// The instant is unchanged, only the zone representation shifts.
	if record.CreatedEpoch != created.Unix() {
		t.Errorf("Expected epoch %d, got %d", created.Unix(), record.CreatedEpoch)
	}
	_, offset := record.CreatedAt.Zone()
	if offset != 7*3600 {
		t.Errorf("Expected +7h zone offset, got %d seconds", offset)
	}
}

func TestSyncFeedFailureDoesNotAbortOthers(t *testing.T) {
	created := time.Now().UTC()
	client := &fakeFetchClient{
		data: map[string][]adafruit.DataPoint{
			"bbc-humidity": {{ID: "H1", Value: "60", CreatedAt: created}},
		},
		errors: map[string]error{
			"bbc-temp": errors.New("upstream unreachable"),
		},
	}

	syncer, mocks := newTestSyncer(client, config.SyncModeLatest)
	results := syncer.RunOnce(context.Background())

	var tempErr, humidityErr error
	for _, r := range results {
		switch r.Feed.Slug {
		case "temp":
			tempErr = r.Err
		case "humidity":
			humidityErr = r.Err
		}
	}

	if tempErr == nil {
		t.Error("Expected error for bbc-temp")
	}
	if humidityErr != nil {
		t.Errorf("Expected bbc-humidity to sync despite bbc-temp failure, got %v", humidityErr)
	}
	if got := mocks["humidity"].Count(); got != 1 {
		t.Errorf("Expected 1 humidity record, got %d", got)
	}
}

func TestSyncHistoryInsertsAscending(t *testing.T) {
	base, _ := time.Parse(time.RFC3339, "2024-01-01T00:00:00Z")
	// Upstream returns most-recent-first.
	points := []adafruit.DataPoint{
		{ID: "C", Value: "3", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "B", Value: "2", CreatedAt: base.Add(1 * time.Minute)},
		{ID: "A", Value: "1", CreatedAt: base},
	}
	client := &fakeFetchClient{
		data: map[string][]adafruit.DataPoint{"bbc-temp": points},
	}

	syncer, mocks := newTestSyncer(client, config.SyncModeHistory)
	results := syncer.RunOnce(context.Background())
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("Unexpected sync error: %v", r.Err)
		}
		if r.Feed.Slug == "temp" && r.Inserted != 3 {
			t.Errorf("Expected 3 inserts, got %d", r.Inserted)
		}
	}

	latest, err := mocks["temp"].LatestID(context.Background())
	if err != nil {
		t.Fatalf("Failed to read latest id: %v", err)
	}
	if latest != "C" {
		t.Errorf("Expected most recent record C to win, got %s", latest)
	}

	// Re-running the full history sync inserts nothing new.
	results = syncer.RunOnce(context.Background())
	for _, r := range results {
		if r.Feed.Slug == "temp" && r.Inserted != 0 {
			t.Errorf("Expected zero inserts on rerun, got %d", r.Inserted)
		}
	}
}

func TestSyncEmptyFeed(t *testing.T) {
	client := &fakeFetchClient{data: map[string][]adafruit.DataPoint{}}
	syncer, mocks := newTestSyncer(client, config.SyncModeLatest)

	results := syncer.RunOnce(context.Background())
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("Expected empty feed to sync cleanly, got %v", r.Err)
		}
	}
	if got := mocks["temp"].Count(); got != 0 {
		t.Errorf("Expected no records, got %d", got)
	}
}
