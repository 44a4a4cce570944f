// Package store persists users, listings, favorites and chats.
package store

import (
	"context"
	"errors"

	"github.com/dcode-github/property_dealer/backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
	ErrInvalidID = errors.New("invalid id")
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByMobile(ctx context.Context, mobile string) (*models.User, error)
	FindByAadhaar(ctx context.Context, aadhaar string) (*models.User, error)
	FindByFirebaseUID(ctx context.Context, uid string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context) ([]models.User, error)
}

type PropertyStore interface {
	Create(ctx context.Context, property *models.Property) error
	FindByID(ctx context.Context, id string) (*models.Property, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Property, error)
	Find(ctx context.Context, filter models.PropertyFilter) ([]models.Property, error)
	Update(ctx context.Context, property *models.Property) error
	Delete(ctx context.Context, id string) error
}

type FavoriteStore interface {
	Add(ctx context.Context, userID, propertyID string) error
	Remove(ctx context.Context, userID, propertyID string) error
	PropertyIDs(ctx context.Context, userID string) ([]primitive.ObjectID, error)
}

type ChatStore interface {
	FindOrCreate(ctx context.Context, userA, userB string) (*models.Chat, error)
	FindByID(ctx context.Context, id string) (*models.Chat, error)
	ListForUser(ctx context.Context, userID string) ([]models.Chat, error)
	AddMessage(ctx context.Context, msg *models.Message) error
	Messages(ctx context.Context, chatID string) ([]models.Message, error)
}

// ParseID converts a hex id into an ObjectID, mapping failures to ErrInvalidID.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return err
}

var (
	_ UserStore     = (*MongoUserStore)(nil)
	_ PropertyStore = (*MongoPropertyStore)(nil)
	_ FavoriteStore = (*MongoFavoriteStore)(nil)
	_ ChatStore     = (*MongoChatStore)(nil)
)
