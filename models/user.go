package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name          string             `bson:"name" json:"name"`
	Mobile        string             `bson:"mobile" json:"mobile"`
	Aadhaar       string             `bson:"aadhaar,omitempty" json:"aadhaar,omitempty"`
	Password      string             `bson:"password,omitempty" json:"-"`
	FirebaseUID   string             `bson:"firebaseUid,omitempty" json:"-"`
	OTP           string             `bson:"otp,omitempty" json:"-"`
	OTPExpires    *time.Time         `bson:"otpExpires,omitempty" json:"-"`
	Role          string             `bson:"role" json:"role"`
	LoginAttempts int                `bson:"loginAttempts" json:"-"`
	LockUntil     *time.Time         `bson:"lockUntil,omitempty" json:"-"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsLocked reports whether the account is inside a lockout window at t.
func (u *User) IsLocked(t time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(t)
}

func (u *User) HasPassword() bool {
	return u.Password != ""
}
