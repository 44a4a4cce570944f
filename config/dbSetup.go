package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	UserCollection     *mongo.Collection
	PropertyCollection *mongo.Collection
	FavoriteCollection *mongo.Collection
	ChatCollection     *mongo.Collection
	MessageCollection  *mongo.Collection
)

func ConnectDB(uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("MONGOURI not set in environment")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("MongoDB ping failed: %w", err)
	}

	log.Println("Connected to MongoDB")
	return client, nil
}

func InitCollections(client *mongo.Client, dbName string) {
	db := client.Database(dbName)
	UserCollection = db.Collection("users")
	PropertyCollection = db.Collection("properties")
	FavoriteCollection = db.Collection("favorites")
	ChatCollection = db.Collection("chats")
	MessageCollection = db.Collection("messages")
}

// EnsureIndexes creates the uniqueness and lookup indexes the handlers rely on.
func EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{UserCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "mobile", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "aadhaar", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "firebaseUid", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		}},
		{PropertyCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "propertyType", Value: 1}, {Key: "price", Value: 1}}},
		}},
		{FavoriteCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "propertyId", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
		{ChatCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "pairKey", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "participants", Value: 1}, {Key: "updatedAt", Value: -1}}},
		}},
		{MessageCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "chatId", Value: 1}, {Key: "createdAt", Value: 1}}},
		}},
	}

	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateMany(ctx, idx.models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

func CloseDBConnection(client *mongo.Client) {
	if err := client.Disconnect(context.TODO()); err != nil {
		log.Printf("Error closing database connection: %v", err)
		return
	}
	log.Println("MongoDB connection closed")
}
