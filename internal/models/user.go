package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is owned by the account service; this backend only reads it to
// attribute chat messages and payments.
type User struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Email     string             `json:"email" bson:"email"`
	Username  string             `json:"username" bson:"username"`
	FullName  string             `json:"full_name" bson:"full_name"`
	IsActive  bool               `json:"is_active" bson:"is_active"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return "Unknown"
}
