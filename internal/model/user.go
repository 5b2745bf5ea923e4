package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User represents an account document in the `users` collection.
// Username and Email are each backed by a unique index.  PasswordHash
// holds the bcrypt digest; the plaintext password is never stored.
// The json tags are omitted on purpose: handlers never serialise a
// User directly.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Username     string        `bson:"username"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"password"`
	CreatedAt    time.Time     `bson:"createdAt,omitempty"`
}
