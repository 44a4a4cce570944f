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

type MongoChatStore struct {
	chats    *mongo.Collection
	messages *mongo.Collection
}

func NewChatStore(chats, messages *mongo.Collection) *MongoChatStore {
	return &MongoChatStore{chats: chats, messages: messages}
}

// FindOrCreate upserts the conversation keyed by the unordered pair.
func (s *MongoChatStore) FindOrCreate(ctx context.Context, userA, userB string) (*models.Chat, error) {
	key, pair := models.PairKey(userA, userB)
	now := time.Now()

	update := bson.M{"$setOnInsert": bson.M{
		"pairKey":      key,
		"participants": pair,
		"createdAt":    now,
		"updatedAt":    now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var chat models.Chat
	err := s.chats.FindOneAndUpdate(ctx, bson.M{"pairKey": key}, update, opts).Decode(&chat)
	if err != nil {
		return nil, translate(err)
	}
	return &chat, nil
}

func (s *MongoChatStore) FindByID(ctx context.Context, id string) (*models.Chat, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	var chat models.Chat
	if err := s.chats.FindOne(ctx, bson.M{"_id": oid}).Decode(&chat); err != nil {
		return nil, translate(err)
	}
	return &chat, nil
}

func (s *MongoChatStore) ListForUser(ctx context.Context, userID string) ([]models.Chat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := s.chats.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	chats := []models.Chat{}
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

func (s *MongoChatStore) AddMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if _, err := s.messages.InsertOne(ctx, msg); err != nil {
		return translate(err)
	}
	_, err := s.chats.UpdateOne(ctx, bson.M{"_id": msg.ChatID}, bson.M{"$set": bson.M{"updatedAt": msg.CreatedAt}})
	return err
}

// Messages returns the conversation in creation order.
func (s *MongoChatStore) Messages(ctx context.Context, chatID string) ([]models.Message, error) {
	oid, err := ParseID(chatID)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.messages.Find(ctx, bson.M{"chatId": oid}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	msgs := []models.Message{}
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
