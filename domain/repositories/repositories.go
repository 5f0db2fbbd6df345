package repositories

import (
	"context"
	"errors"

	"github.com/anloi/smarthome/server/domain/entities"
)

// Sentinel errors shared by every repository implementation.
var (
	// ErrNotFound is returned when a lookup by identifier misses.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert collides with an existing
	// record on a unique field.
	ErrDuplicate = errors.New("duplicate record")
)

// DeviceFilter narrows and pages a device listing.
type DeviceFilter struct {
	Search   string // case-insensitive substring match on name
	Status   *bool
	IsOnline *bool
	Type     entities.DeviceType
	Page     int
	Limit    int
	SortBy   string // "createdAt" or "power"
	Order    string // "asc" or "desc"
}

// DeviceListing is one page of devices plus the full filtered count.
type DeviceListing struct {
	Total   int64              `json:"total"`
	Page    int                `json:"page"`
	Limit   int                `json:"limit"`
	Devices []*entities.Device `json:"devices"`
}

// UserRepository defines data access methods for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id string) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	List(ctx context.Context) ([]*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	Delete(ctx context.Context, id string) error
}

// DeviceRepository defines data access methods for the device registry.
type DeviceRepository interface {
	Create(ctx context.Context, device *entities.Device) error
	GetByID(ctx context.Context, id string) (*entities.Device, error)
	List(ctx context.Context, filter DeviceFilter) (*DeviceListing, error)
	ListAll(ctx context.Context) ([]*entities.Device, error)
	Update(ctx context.Context, device *entities.Device) error
	Delete(ctx context.Context, id string) error
}

// FeedRepository defines data access methods for one mirrored feed
// collection. Implementations are bound to a single collection; the
// sync job and the CRUD layer hold one per feed descriptor.
type FeedRepository interface {
	// InsertIfAbsent inserts the record unless its id already exists.
	// A duplicate id returns ErrDuplicate; callers treat that as a
	// normal "already mirrored" outcome.
	InsertIfAbsent(ctx context.Context, record *entities.FeedRecord) error
	List(ctx context.Context, page, limit int) ([]*entities.FeedRecord, error)
	GetByID(ctx context.Context, id string) (*entities.FeedRecord, error)
	Update(ctx context.Context, record *entities.FeedRecord) error
	Delete(ctx context.Context, id string) error
	// LatestID returns the id of the most recently created record, or
	// ErrNotFound when the collection is empty.
	LatestID(ctx context.Context) (string, error)
}
