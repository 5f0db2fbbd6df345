// Package sync implements the recurring job that mirrors upstream
// cloud feed data into the local collections.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/anloi/smarthome/server/adapters/adafruit"
	"github.com/anloi/smarthome/server/domain/entities"
	"github.com/anloi/smarthome/server/domain/repositories"
	"github.com/anloi/smarthome/server/internal/config"
	"github.com/anloi/smarthome/server/internal/metrics"
	"github.com/anloi/smarthome/server/internal/websocket"
)

const historyPageSize = 100

// Practical bound on history paging so a runaway feed cannot pin the
// job for an entire tick.
const maxHistoryPages = 20

// FetchClient is the slice of the upstream client the syncer needs.
type FetchClient interface {
	FetchData(ctx context.Context, feedKey string, limit, offset int) ([]adafruit.DataPoint, error)
}

// EventSink receives a broadcast for every newly mirrored record.
type EventSink interface {
	Broadcast(event websocket.FeedEvent)
}

// FeedResult reports the outcome of syncing one feed within a tick.
type FeedResult struct {
	Feed     entities.Feed
	Inserted int
	Err      error
}

// Syncer pulls the registered feeds from the upstream service on a
// fixed interval and upserts new records into their collections.
// Inserts are idempotent on the upstream record id, so overlapping
// ticks are benign.
type Syncer struct {
	client   FetchClient
	repos    map[string]repositories.FeedRepository // keyed by feed slug
	feeds    []entities.Feed
	mode     config.SyncMode
	interval time.Duration
	location *time.Location
	sink     EventSink
	metrics  *metrics.SyncMetrics
	logger   *zap.Logger
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithEventSink broadcasts every inserted record to the sink.
func WithEventSink(sink EventSink) Option {
	return func(s *Syncer) { s.sink = sink }
}

// WithMetrics records sync counters.
func WithMetrics(m *metrics.SyncMetrics) Option {
	return func(s *Syncer) { s.metrics = m }
}

// New creates a Syncer over the given feeds. repos maps feed slug to
// its collection repository. utcOffsetHours is the fixed offset applied
// to upstream timestamps at insert time.
func New(
	client FetchClient,
	feeds []entities.Feed,
	repos map[string]repositories.FeedRepository,
	mode config.SyncMode,
	interval time.Duration,
	utcOffsetHours int,
	logger *zap.Logger,
	opts ...Option,
) *Syncer {
	s := &Syncer{
		client:   client,
		repos:    repos,
		feeds:    feeds,
		mode:     mode,
		interval: interval,
		location: time.FixedZone(fmt.Sprintf("UTC%+d", utcOffsetHours), utcOffsetHours*3600),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ticks until ctx is cancelled. Each tick is fire-and-forget: a
// slow or failing run never stops the schedule.
func (s *Syncer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Feed sync job started",
		zap.Duration("interval", s.interval),
		zap.String("mode", string(s.mode)))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Feed sync job stopped")
			return
		case <-ticker.C:
			go s.RunOnce(ctx)
		}
	}
}

// RunOnce syncs every registered feed and returns the per-feed results.
// A failure on one feed never aborts the others.
func (s *Syncer) RunOnce(ctx context.Context) []FeedResult {
	if s.metrics != nil {
		s.metrics.RunsTotal.Inc()
	}

	results := make([]FeedResult, 0, len(s.feeds))
	for _, feed := range s.feeds {
		repo, ok := s.repos[feed.Slug]
		if !ok {
			results = append(results, FeedResult{Feed: feed, Err: fmt.Errorf("no repository for feed %s", feed.Slug)})
			continue
		}

		inserted, err := s.syncFeed(ctx, feed, repo)
		if err != nil {
			if s.metrics != nil {
				s.metrics.FetchErrors.WithLabelValues(feed.Key).Inc()
			}
			s.logger.Error("Feed sync failed",
				zap.String("feed", feed.Key),
				zap.Error(err))
		} else if inserted > 0 {
			s.logger.Info("Feed synced",
				zap.String("feed", feed.Key),
				zap.Int("inserted", inserted))
		}
		results = append(results, FeedResult{Feed: feed, Inserted: inserted, Err: err})
	}
	return results
}

// syncFeed mirrors one feed. In latest mode only the newest upstream
// record is considered; in history mode the full history is paged and
// inserted oldest-first so "most recent wins" ordering holds.
func (s *Syncer) syncFeed(ctx context.Context, feed entities.Feed, repo repositories.FeedRepository) (int, error) {
	switch s.mode {
	case config.SyncModeHistory:
		return s.syncHistory(ctx, feed, repo)
	default:
		return s.syncLatest(ctx, feed, repo)
	}
}

func (s *Syncer) syncLatest(ctx context.Context, feed entities.Feed, repo repositories.FeedRepository) (int, error) {
	points, err := s.client.FetchData(ctx, feed.Key, 1, 0)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", feed.Key, err)
	}
	if len(points) == 0 {
		return 0, nil
	}
	return s.insert(ctx, feed, repo, points[0])
}

func (s *Syncer) syncHistory(ctx context.Context, feed entities.Feed, repo repositories.FeedRepository) (int, error) {
	// Page backwards through the history first; the upstream returns
	// most-recent-first.
	var points []adafruit.DataPoint
	for page := 0; page < maxHistoryPages; page++ {
		batch, err := s.client.FetchData(ctx, feed.Key, historyPageSize, page*historyPageSize)
		if err != nil {
			return 0, fmt.Errorf("fetch %s page %d: %w", feed.Key, page, err)
		}
		points = append(points, batch...)
		if len(batch) < historyPageSize {
			break
		}
	}

	// Insert in ascending chronological order.
	inserted := 0
	for i := len(points) - 1; i >= 0; i-- {
		n, err := s.insert(ctx, feed, repo, points[i])
		if err != nil {
			return inserted, err
		}
		inserted += n
	}
	return inserted, nil
}

// insert mirrors a single upstream point. Duplicate ids are a normal
// "already mirrored" outcome and insert nothing.
func (s *Syncer) insert(ctx context.Context, feed entities.Feed, repo repositories.FeedRepository, point adafruit.DataPoint) (int, error) {
	record := s.toRecord(feed, point)
	err := repo.InsertIfAbsent(ctx, record)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return 0, nil
		}
		return 0, fmt.Errorf("insert %s/%s: %w", feed.Key, point.ID, err)
	}

	if s.metrics != nil {
		s.metrics.RecordsInserted.WithLabelValues(feed.Key).Inc()
	}
	if s.sink != nil {
		s.sink.Broadcast(websocket.FeedEvent{
			Type:   websocket.EventFeedInserted,
			Feed:   feed.Slug,
			Record: record,
		})
	}
	return 1, nil
}

// toRecord converts an upstream point to a mirrored record, shifting
// its timestamp into the configured fixed offset and deriving the
// epoch seconds field.
func (s *Syncer) toRecord(feed entities.Feed, point adafruit.DataPoint) *entities.FeedRecord {
	createdAt := point.CreatedAt.In(s.location)

	record := &entities.FeedRecord{
		ID:           point.ID,
		Value:        point.Value,
		FeedID:       point.FeedID,
		FeedKey:      point.FeedKey,
		CreatedAt:    createdAt,
		CreatedEpoch: createdAt.Unix(),
		FeedName:     feed.Key,
	}
	if point.Expiration != "" {
		if exp, err := time.Parse(time.RFC3339, point.Expiration); err == nil {
			record.Expiration = exp.In(s.location)
		}
	}
	return record
}
