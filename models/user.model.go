package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a user in the system
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"`
	Password string             `bson:"password,omitempty" json:"-"`
	Role     string             `bson:"role" json:"role"` // "user" or "admin"
}

// OwnerProfile carries the public profile fields attached to an order
// when the owner is resolved alongside it.
type OwnerProfile struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
}
