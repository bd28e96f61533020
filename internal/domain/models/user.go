// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Auth methods for User.AuthMethod.
const (
	AuthMethodPassword = "password"
	AuthMethodGoogle   = "google"
)

// User is an account known to the identity layer. Topics reference users by
// email, not by id, so Email is the identity that flows through the topic
// core; the Mongo ObjectID only anchors the account document and sessions.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	EmailCI      string             `bson:"email_ci" json:"-"` // lowercase, diacritics-stripped
	FullName     string             `bson:"full_name,omitempty" json:"full_name,omitempty"`
	AuthMethod   string             `bson:"auth_method" json:"auth_method"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`

	// EmailVerified gates password logins; Google accounts arrive verified.
	EmailVerified bool   `bson:"email_verified" json:"email_verified"`
	Status        string `bson:"status,omitempty" json:"status,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
