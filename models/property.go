package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// PropertyTypes lists the accepted values of Property.PropertyType.
var PropertyTypes = []string{"apartment", "house", "land", "commercial"}

// MaxImagesPerProperty bounds Property.Images.
const MaxImagesPerProperty = 10

type Property struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description" json:"description"`
	Price        float64            `bson:"price" json:"price"`
	Address      string             `bson:"address" json:"address"`
	Latitude     *float64           `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude    *float64           `bson:"longitude,omitempty" json:"longitude,omitempty"`
	PropertyType string             `bson:"propertyType" json:"propertyType"`
	Bedrooms     int                `bson:"bedrooms" json:"bedrooms"`
	Bathrooms    int                `bson:"bathrooms" json:"bathrooms"`
	Area         float64            `bson:"area" json:"area"`
	Amenities    []string           `bson:"amenities" json:"amenities"`
	Images       []string           `bson:"images" json:"images"`
	User         primitive.ObjectID `bson:"user" json:"user"`
	Status       string             `bson:"status" json:"status"`
	IsFeatured   bool               `bson:"isFeatured" json:"isFeatured"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
	IsFavorite   bool               `bson:"-" json:"isFavorite,omitempty"`
}

// OwnedBy reports whether userID (hex) is the creator of the listing.
func (p *Property) OwnedBy(userID string) bool {
	return p.User.Hex() == userID
}

// PropertyFilter is the storage-agnostic form of a listing query.
// Nil pointers and empty strings mean "no constraint".
type PropertyFilter struct {
	PropertyType string
	MinPrice     *float64
	MaxPrice     *float64
	MinBedrooms  *int
	MaxBedrooms  *int
	MinBathrooms *int
	MaxBathrooms *int
	MinArea      *float64
	MaxArea      *float64
	Address      string
	Keyword      string
	Latitude     *float64
	Longitude    *float64
	Amenities    []string
	Status       string
	Featured     bool
	Owner        string
	Limit        int64
	Skip         int64
	NewestFirst  bool
}
