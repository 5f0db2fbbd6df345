package repository

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/anloi/smarthome/server/domain/entities"
	"github.com/anloi/smarthome/server/domain/repositories"
)

// MockFeedRepository is an in-memory implementation of FeedRepository
// for testing/development.
type MockFeedRepository struct {
	mu      sync.RWMutex
	records map[string]*entities.FeedRecord
}

// NewMockFeedRepository creates a new in-memory feed repository.
func NewMockFeedRepository() *MockFeedRepository {
	return &MockFeedRepository{
		records: make(map[string]*entities.FeedRecord),
	}
}

// InsertIfAbsent implements repositories.FeedRepository
func (m *MockFeedRepository) InsertIfAbsent(ctx context.Context, record *entities.FeedRecord) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}
	if record.ID == "" {
		return errors.New("record ID cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[record.ID]; exists {
		return repositories.ErrDuplicate
	}
	copied := *record
	m.records[record.ID] = &copied
	return nil
}

// List implements repositories.FeedRepository
func (m *MockFeedRepository) List(ctx context.Context, page, limit int) ([]*entities.FeedRecord, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 100
	}

	m.mu.RLock()
	all := make([]*entities.FeedRecord, 0, len(m.records))
	for _, r := range m.records {
		copied := *r
		all = append(all, &copied)
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	start := (page - 1) * limit
	if start >= len(all) {
		return []*entities.FeedRecord{}, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

// GetByID implements repositories.FeedRepository
func (m *MockFeedRepository) GetByID(ctx context.Context, id string) (*entities.FeedRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, exists := m.records[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

// Update implements repositories.FeedRepository
func (m *MockFeedRepository) Update(ctx context.Context, record *entities.FeedRecord) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[record.ID]; !exists {
		return repositories.ErrNotFound
	}
	copied := *record
	m.records[record.ID] = &copied
	return nil
}

// Delete implements repositories.FeedRepository
func (m *MockFeedRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

// LatestID implements repositories.FeedRepository
func (m *MockFeedRepository) LatestID(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *entities.FeedRecord
	for _, r := range m.records {
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return "", repositories.ErrNotFound
	}
	return latest.ID, nil
}

// Count returns the number of stored records.
func (m *MockFeedRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
