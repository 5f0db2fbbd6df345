package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anloi/smarthome/server/domain/entities"
	"github.com/anloi/smarthome/server/domain/repositories"
)

// MockUserRepository is an in-memory implementation of UserRepository
// for testing/development. Email and phone uniqueness are enforced the
// same way the Mongo indexes do.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*entities.User
}

// NewMockUserRepository creates a new in-memory user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*entities.User),
	}
}

// Create implements repositories.UserRepository
func (m *MockUserRepository) Create(ctx context.Context, user *entities.User) error {
	if user == nil {
		return errors.New("user cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return repositories.ErrDuplicate
		}
		if user.Phone != "" && existing.Phone == user.Phone {
			return repositories.ErrDuplicate
		}
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.ID == "" {
		user.ID = primitive.NewObjectID().Hex()
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

// GetByID implements repositories.UserRepository
func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, exists := m.users[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

// GetByEmail implements repositories.UserRepository
func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// List implements repositories.UserRepository
func (m *MockUserRepository) List(ctx context.Context) ([]*entities.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make([]*entities.User, 0, len(m.users))
	for _, u := range m.users {
		copied := *u
		users = append(users, &copied)
	}
	return users, nil
}

// Update implements repositories.UserRepository
func (m *MockUserRepository) Update(ctx context.Context, user *entities.User) error {
	if user == nil {
		return errors.New("user cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, exists := m.users[user.ID]
	if !exists {
		return repositories.ErrNotFound
	}
	for id, other := range m.users {
		if id == user.ID {
			continue
		}
		if other.Email == user.Email {
			return repositories.ErrDuplicate
		}
		if user.Phone != "" && other.Phone == user.Phone {
			return repositories.ErrDuplicate
		}
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now()
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

// Delete implements repositories.UserRepository
func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.users, id)
	return nil
}
