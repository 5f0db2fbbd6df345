package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anloi/smarthome/server/domain/entities"
	"github.com/anloi/smarthome/server/domain/repositories"
)

// UserRepository stores user accounts.
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a new MongoDB user repository. Unique
// indexes on email and phone back the registration collision checks.
func NewUserRepository(ctx context.Context, db *mongo.Database) (repositories.UserRepository, error) {
	collection := db.Collection("users")

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.M{"email": 1},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.M{"phone": 1},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user indexes: %w", err)
	}

	return &UserRepository{collection: collection}, nil
}

type userDoc struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty"`
	Email                string             `bson:"email"`
	Password             string             `bson:"password"`
	FirstName            string             `bson:"firstName"`
	LastName             string             `bson:"lastName"`
	Sex                  string             `bson:"sex"`
	Phone                string             `bson:"phone,omitempty"`
	Address              string             `bson:"address"`
	ResetPasswordToken   string             `bson:"resetPasswordToken,omitempty"`
	ResetPasswordExpires *time.Time         `bson:"resetPasswordExpires,omitempty"`
	CreatedAt            time.Time          `bson:"createdAt"`
	UpdatedAt            time.Time          `bson:"updatedAt"`
}

func (d *userDoc) toEntity() *entities.User {
	return &entities.User{
		ID:                   d.ID.Hex(),
		Email:                d.Email,
		Password:             d.Password,
		FirstName:            d.FirstName,
		LastName:             d.LastName,
		Sex:                  d.Sex,
		Phone:                d.Phone,
		Address:              d.Address,
		ResetPasswordToken:   d.ResetPasswordToken,
		ResetPasswordExpires: d.ResetPasswordExpires,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
}

// Create implements repositories.UserRepository
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	if user == nil {
		return errors.New("user cannot be nil")
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	doc := userDoc{
		Email:     user.Email,
		Password:  user.Password,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Sex:       user.Sex,
		Phone:     user.Phone,
		Address:   user.Address,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repositories.ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid.Hex()
	}
	return nil
}

// GetByID implements repositories.UserRepository
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format: %w", err)
	}

	var doc userDoc
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return doc.toEntity(), nil
}

// GetByEmail implements repositories.UserRepository
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	var doc userDoc
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return doc.toEntity(), nil
}

// List implements repositories.UserRepository
func (r *UserRepository) List(ctx context.Context) ([]*entities.User, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []*entities.User{}
	for cursor.Next(ctx) {
		var doc userDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		users = append(users, doc.toEntity())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("user cursor error: %w", err)
	}
	return users, nil
}

// Update implements repositories.UserRepository
func (r *UserRepository) Update(ctx context.Context, user *entities.User) error {
	if user == nil {
		return errors.New("user cannot be nil")
	}

	objectID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return fmt.Errorf("invalid user ID format: %w", err)
	}

	user.UpdatedAt = time.Now()
	set := bson.M{
		"email":     user.Email,
		"password":  user.Password,
		"firstName": user.FirstName,
		"lastName":  user.LastName,
		"sex":       user.Sex,
		"phone":     user.Phone,
		"address":   user.Address,
		"updatedAt": user.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if user.ResetPasswordToken != "" && user.ResetPasswordExpires != nil {
		set["resetPasswordToken"] = user.ResetPasswordToken
		set["resetPasswordExpires"] = user.ResetPasswordExpires
	} else {
		// Token and expiry are cleared together.
		update["$unset"] = bson.M{
			"resetPasswordToken":   "",
			"resetPasswordExpires": "",
		}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repositories.ErrDuplicate
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// Delete implements repositories.UserRepository
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid user ID format: %w", err)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.DeletedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
