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

type MongoUserStore struct {
	coll *mongo.Collection
}

func NewUserStore(coll *mongo.Collection) *MongoUserStore {
	return &MongoUserStore{coll: coll}
}

func (s *MongoUserStore) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err := s.coll.InsertOne(ctx, user)
	return translate(err)
}

func (s *MongoUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *MongoUserStore) FindByMobile(ctx context.Context, mobile string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"mobile": mobile})
}

func (s *MongoUserStore) FindByAadhaar(ctx context.Context, aadhaar string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"aadhaar": aadhaar})
}

func (s *MongoUserStore) FindByFirebaseUID(ctx context.Context, uid string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"firebaseUid": uid})
}

func (s *MongoUserStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := s.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// Update replaces the stored document; concurrent writers race last-write-wins.
func (s *MongoUserStore) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoUserStore) List(ctx context.Context) ([]models.User, error) {
	return s.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (s *MongoUserStore) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]models.User, error) {
	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
