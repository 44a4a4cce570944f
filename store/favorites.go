package store

import (
	"context"
	"time"

	"github.com/dcode-github/property_dealer/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoFavoriteStore keeps one document per (user, property) pair; the
// unique index on {userId, propertyId} rejects duplicates.
type MongoFavoriteStore struct {
	coll *mongo.Collection
}

func NewFavoriteStore(coll *mongo.Collection) *MongoFavoriteStore {
	return &MongoFavoriteStore{coll: coll}
}

func (s *MongoFavoriteStore) Add(ctx context.Context, userID, propertyID string) error {
	uid, err := ParseID(userID)
	if err != nil {
		return err
	}
	pid, err := ParseID(propertyID)
	if err != nil {
		return err
	}
	fav := models.Favorite{
		ID:         primitive.NewObjectID(),
		UserID:     uid,
		PropertyID: pid,
		CreatedAt:  time.Now(),
	}
	_, err = s.coll.InsertOne(ctx, fav)
	return translate(err)
}

func (s *MongoFavoriteStore) Remove(ctx context.Context, userID, propertyID string) error {
	uid, err := ParseID(userID)
	if err != nil {
		return err
	}
	pid, err := ParseID(propertyID)
	if err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"userId": uid, "propertyId": pid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// PropertyIDs returns the user's favorites, newest first.
func (s *MongoFavoriteStore) PropertyIDs(ctx context.Context, userID string) ([]primitive.ObjectID, error) {
	uid, err := ParseID(userID)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.M{"userId": uid}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	ids := []primitive.ObjectID{}
	for cursor.Next(ctx) {
		var fav models.Favorite
		if err := cursor.Decode(&fav); err != nil {
			return nil, err
		}
		ids = append(ids, fav.PropertyID)
	}
	return ids, cursor.Err()
}
