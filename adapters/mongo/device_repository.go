package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anloi/smarthome/server/domain/entities"
	"github.com/anloi/smarthome/server/domain/repositories"
)

// DeviceRepository stores the logical device registry.
type DeviceRepository struct {
	collection *mongo.Collection
}

// NewDeviceRepository creates a new MongoDB device repository
func NewDeviceRepository(db *mongo.Database) repositories.DeviceRepository {
	return &DeviceRepository{
		collection: db.Collection("devices"),
	}
}

// deviceDoc mirrors entities.Device but keeps _id as an ObjectID so the
// driver generates it on insert.
type deviceDoc struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty"`
	Name      string              `bson:"name"`
	Type      entities.DeviceType `bson:"type"`
	Status    bool                `bson:"status"`
	IsOnline  bool                `bson:"isOnline"`
	Power     float64             `bson:"power"`
	Speed     *int                `bson:"speed,omitempty"`
	CreatedAt time.Time           `bson:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt"`
}

func (d *deviceDoc) toEntity() *entities.Device {
	return &entities.Device{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Type:      d.Type,
		Status:    d.Status,
		IsOnline:  d.IsOnline,
		Power:     d.Power,
		Speed:     d.Speed,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// Create implements repositories.DeviceRepository
func (r *DeviceRepository) Create(ctx context.Context, device *entities.Device) error {
	if device == nil {
		return errors.New("device cannot be nil")
	}

	now := time.Now()
	if device.CreatedAt.IsZero() {
		device.CreatedAt = now
	}
	device.UpdatedAt = now

	doc := deviceDoc{
		Name:      device.Name,
		Type:      device.Type,
		Status:    device.Status,
		IsOnline:  device.IsOnline,
		Power:     device.Power,
		Speed:     device.Speed,
		CreatedAt: device.CreatedAt,
		UpdatedAt: device.UpdatedAt,
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		device.ID = oid.Hex()
	}
	return nil
}

// GetByID implements repositories.DeviceRepository
func (r *DeviceRepository) GetByID(ctx context.Context, id string) (*entities.Device, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid device ID format: %w", err)
	}

	var doc deviceDoc
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get device %s: %w", id, err)
	}
	return doc.toEntity(), nil
}

// List implements repositories.DeviceRepository
func (r *DeviceRepository) List(ctx context.Context, filter repositories.DeviceFilter) (*repositories.DeviceListing, error) {
	query := bson.M{}
	if filter.Search != "" {
		query["name"] = bson.M{"$regex": primitive.Regex{
			Pattern: regexp.QuoteMeta(filter.Search),
			Options: "i",
		}}
	}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if filter.IsOnline != nil {
		query["isOnline"] = *filter.IsOnline
	}
	if filter.Type != "" {
		query["type"] = filter.Type
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count devices: %w", err)
	}

	sortField := "createdAt"
	if filter.SortBy == "power" {
		sortField = "power"
	}
	sortOrder := -1
	if filter.Order == "asc" {
		sortOrder = 1
	}

	opts := options.Find().
		SetSort(bson.M{sortField: sortOrder}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer cursor.Close(ctx)

	devices := []*entities.Device{}
	for cursor.Next(ctx) {
		var doc deviceDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode device: %w", err)
		}
		devices = append(devices, doc.toEntity())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("device cursor error: %w", err)
	}

	return &repositories.DeviceListing{
		Total:   total,
		Page:    page,
		Limit:   limit,
		Devices: devices,
	}, nil
}

// ListAll implements repositories.DeviceRepository
func (r *DeviceRepository) ListAll(ctx context.Context) ([]*entities.Device, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer cursor.Close(ctx)

	devices := []*entities.Device{}
	for cursor.Next(ctx) {
		var doc deviceDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode device: %w", err)
		}
		devices = append(devices, doc.toEntity())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("device cursor error: %w", err)
	}
	return devices, nil
}

// Update implements repositories.DeviceRepository
func (r *DeviceRepository) Update(ctx context.Context, device *entities.Device) error {
	if device == nil {
		return errors.New("device cannot be nil")
	}

	objectID, err := primitive.ObjectIDFromHex(device.ID)
	if err != nil {
		return fmt.Errorf("invalid device ID format: %w", err)
	}

	device.UpdatedAt = time.Now()
	set := bson.M{
		"name":      device.Name,
		"type":      device.Type,
		"status":    device.Status,
		"isOnline":  device.IsOnline,
		"power":     device.Power,
		"updatedAt": device.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if device.Speed != nil {
		set["speed"] = device.Speed
	} else {
		update["$unset"] = bson.M{"speed": ""}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update device: %w", err)
	}
	if result.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// Delete implements repositories.DeviceRepository
func (r *DeviceRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid device ID format: %w", err)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	if result.DeletedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
