package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anloi/smarthome/server/domain/entities"
	"github.com/anloi/smarthome/server/domain/repositories"
)

// FeedRepository stores mirrored records for a single feed collection.
type FeedRepository struct {
	collection *mongo.Collection
}

// NewFeedRepository creates a MongoDB feed repository bound to the
// descriptor's collection.
func NewFeedRepository(db *mongo.Database, feed entities.Feed) repositories.FeedRepository {
	return &FeedRepository{
		collection: db.Collection(feed.Collection),
	}
}

// InsertIfAbsent implements repositories.FeedRepository. The upstream id
// is the _id, so a concurrent insert of the same record surfaces as a
// duplicate key error which is mapped to ErrDuplicate.
func (r *FeedRepository) InsertIfAbsent(ctx context.Context, record *entities.FeedRecord) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}
	if record.ID == "" {
		return errors.New("record ID cannot be empty")
	}

	_, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repositories.ErrDuplicate
		}
		return fmt.Errorf("failed to insert feed record: %w", err)
	}
	return nil
}

// List implements repositories.FeedRepository. Records are returned
// newest first, paged by created_at.
func (r *FeedRepository) List(ctx context.Context, page, limit int) ([]*entities.FeedRecord, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed records: %w", err)
	}
	defer cursor.Close(ctx)

	records := []*entities.FeedRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode feed records: %w", err)
	}
	return records, nil
}

// GetByID implements repositories.FeedRepository
func (r *FeedRepository) GetByID(ctx context.Context, id string) (*entities.FeedRecord, error) {
	if id == "" {
		return nil, errors.New("record ID cannot be empty")
	}

	var record entities.FeedRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get feed record %s: %w", id, err)
	}
	return &record, nil
}

// Update implements repositories.FeedRepository
func (r *FeedRepository) Update(ctx context.Context, record *entities.FeedRecord) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}
	if record.ID == "" {
		return errors.New("record ID cannot be empty")
	}

	update := bson.M{
		"$set": bson.M{
			"value":         record.Value,
			"feed_id":       record.FeedID,
			"feed_key":      record.FeedKey,
			"created_at":    record.CreatedAt,
			"created_epoch": record.CreatedEpoch,
			"expiration":    record.Expiration,
			"feedName":      record.FeedName,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": record.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update feed record: %w", err)
	}
	if result.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// Delete implements repositories.FeedRepository
func (r *FeedRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("record ID cannot be empty")
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete feed record: %w", err)
	}
	if result.DeletedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// LatestID implements repositories.FeedRepository
func (r *FeedRepository) LatestID(ctx context.Context) (string, error) {
	opts := options.FindOne().SetSort(bson.M{"created_at": -1})

	var record entities.FeedRecord
	err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", repositories.ErrNotFound
		}
		return "", fmt.Errorf("failed to get latest feed record: %w", err)
	}
	return record.ID, nil
}
