package models

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Chat struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PairKey      string             `bson:"pairKey" json:"-"`
	Participants []string           `bson:"participants" json:"participants"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChatID    primitive.ObjectID `bson:"chatId" json:"chatId"`
	SenderID  string             `bson:"senderId" json:"senderId"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// PairKey returns the order-independent key of a conversation between a and b.
func PairKey(a, b string) (string, []string) {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, ":"), pair
}
