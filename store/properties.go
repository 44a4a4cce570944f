package store

import (
	"context"
	"regexp"
	"time"

	"github.com/dcode-github/property_dealer/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoPropertyStore struct {
	coll *mongo.Collection
}

func NewPropertyStore(coll *mongo.Collection) *MongoPropertyStore {
	return &MongoPropertyStore{coll: coll}
}

func (s *MongoPropertyStore) Create(ctx context.Context, property *models.Property) error {
	if property.ID.IsZero() {
		property.ID = primitive.NewObjectID()
	}
	now := time.Now()
	property.CreatedAt = now
	property.UpdatedAt = now
	if property.Amenities == nil {
		property.Amenities = []string{}
	}
	if property.Images == nil {
		property.Images = []string{}
	}
	_, err := s.coll.InsertOne(ctx, property)
	return translate(err)
}

func (s *MongoPropertyStore) FindByID(ctx context.Context, id string) (*models.Property, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	var property models.Property
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&property); err != nil {
		return nil, translate(err)
	}
	return &property, nil
}

func (s *MongoPropertyStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Property, error) {
	if len(ids) == 0 {
		return []models.Property{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
}

func (s *MongoPropertyStore) Find(ctx context.Context, filter models.PropertyFilter) ([]models.Property, error) {
	opts := options.Find()
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}
	if filter.Skip > 0 {
		opts.SetSkip(filter.Skip)
	}
	if filter.NewestFirst {
		opts.SetSort(bson.D{{Key: "createdAt", Value: -1}})
	}
	return s.find(ctx, FilterToBSON(filter), opts)
}

func (s *MongoPropertyStore) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]models.Property, error) {
	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	properties := []models.Property{}
	if err := cursor.All(ctx, &properties); err != nil {
		return nil, err
	}
	return properties, nil
}

func (s *MongoPropertyStore) Update(ctx context.Context, property *models.Property) error {
	property.UpdatedAt = time.Now()
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": property.ID}, property)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoPropertyStore) Delete(ctx context.Context, id string) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FilterToBSON builds the Mongo query for a listing filter. Text constraints
// are matched as case-insensitive literal substrings.
func FilterToBSON(f models.PropertyFilter) bson.M {
	var and []bson.M

	if f.PropertyType != "" {
		and = append(and, bson.M{"propertyType": f.PropertyType})
	}
	if f.Status != "" {
		and = append(and, bson.M{"status": f.Status})
	}
	if f.Featured {
		and = append(and, bson.M{"isFeatured": true})
	}
	if f.Owner != "" {
		if oid, err := primitive.ObjectIDFromHex(f.Owner); err == nil {
			and = append(and, bson.M{"user": oid})
		} else {
			and = append(and, bson.M{"user": f.Owner})
		}
	}
	if r := floatRange(f.MinPrice, f.MaxPrice); r != nil {
		and = append(and, bson.M{"price": r})
	}
	if r := floatRange(f.MinArea, f.MaxArea); r != nil {
		and = append(and, bson.M{"area": r})
	}
	if r := intRange(f.MinBedrooms, f.MaxBedrooms); r != nil {
		and = append(and, bson.M{"bedrooms": r})
	}
	if r := intRange(f.MinBathrooms, f.MaxBathrooms); r != nil {
		and = append(and, bson.M{"bathrooms": r})
	}
	if f.Address != "" {
		and = append(and, bson.M{"address": substring(f.Address)})
	}
	if f.Latitude != nil && f.Longitude != nil {
		and = append(and, bson.M{"latitude": *f.Latitude, "longitude": *f.Longitude})
	}
	if f.Keyword != "" {
		re := substring(f.Keyword)
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
			bson.M{"address": re},
		}})
	}
	if len(f.Amenities) > 0 {
		var anyOf bson.A
		for _, a := range f.Amenities {
			anyOf = append(anyOf, bson.M{"amenities": substring(a)})
		}
		and = append(and, bson.M{"$or": anyOf})
	}

	query := bson.M{}
	if len(and) > 0 {
		query["$and"] = and
	}
	return query
}

func substring(s string) bson.M {
	return bson.M{"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}}
}

func floatRange(min, max *float64) bson.M {
	if min == nil && max == nil {
		return nil
	}
	r := bson.M{}
	if min != nil {
		r["$gte"] = *min
	}
	if max != nil {
		r["$lte"] = *max
	}
	return r
}

func intRange(min, max *int) bson.M {
	if min == nil && max == nil {
		return nil
	}
	if min != nil && max != nil && *min == *max {
		return bson.M{"$eq": *min}
	}
	r := bson.M{}
	if min != nil {
		r["$gte"] = *min
	}
	if max != nil {
		r["$lte"] = *max
	}
	return r
}
