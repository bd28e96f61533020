// internal/app/store/emailverify/store.go
package emailverify

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// TokenLength is the length of the verification link token in bytes (32 bytes = 64 hex chars).
	TokenLength = 32
	// DefaultExpiry is how long a verification link is valid.
	DefaultExpiry = 24 * time.Hour
	// MaxResends is the maximum number of verification resends within the rate limit window.
	MaxResends = 3
	// ResendWindow is the time window for tracking resend rate limiting.
	ResendWindow = 10 * time.Minute
)

var (
	// ErrNotFound is returned when a verification record is not found or expired.
	ErrNotFound = errors.New("verification not found or expired")
	// ErrTooManyResends is returned when too many resend requests have been made.
	ErrTooManyResends = errors.New("too many resend requests")
)

// Verification represents a pending email verification.
type Verification struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      primitive.ObjectID `bson:"user_id"`
	Email       string             `bson:"email"`
	Token       string             `bson:"token"`      // hex token for the verification link
	ExpiresAt   time.Time          `bson:"expires_at"` // TTL index field
	CreatedAt   time.Time          `bson:"created_at"`
	ResendCount int                `bson:"resend_count"` // Number of resends in current window
	WindowStart time.Time          `bson:"window_start"` // Start of current resend rate limit window
}

// Store handles email verification persistence.
type Store struct {
	c *mongo.Collection
}

// New creates a new email verification store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("email_verifications")}
}

// EnsureIndexes creates the required indexes for the verification collection.
// The TTL index on expires_at automatically removes expired records.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().
				SetName("idx_emailverify_expires_ttl").
				SetExpireAfterSeconds(0),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_emailverify_user"),
		},
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetName("idx_emailverify_token").SetUnique(true),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, models)
	if err != nil {
		return fmt.Errorf("emailverify: ensure indexes: %w", err)
	}
	return nil
}

// Create generates a new verification token for the user, replacing any
// existing pending verification. Resends within the rate limit window are
// counted; exceeding MaxResends returns ErrTooManyResends.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID, email string) (*Verification, error) {
	now := time.Now().UTC()

	var existing Verification
	err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&existing)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("emailverify: lookup existing: %w", err)
	}

	resendCount := 0
	windowStart := now
	if err == nil {
		if now.Sub(existing.WindowStart) < ResendWindow {
			if existing.ResendCount >= MaxResends {
				return nil, ErrTooManyResends
			}
			resendCount = existing.ResendCount + 1
			windowStart = existing.WindowStart
		}
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	v := &Verification{
		UserID:      userID,
		Email:       email,
		Token:       token,
		ExpiresAt:   now.Add(DefaultExpiry),
		CreatedAt:   now,
		ResendCount: resendCount,
		WindowStart: windowStart,
	}

	res, err := s.c.ReplaceOne(ctx, bson.M{"user_id": userID},
		v, options.Replace().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("emailverify: save verification: %w", err)
	}
	if res.UpsertedID != nil {
		if oid, ok := res.UpsertedID.(primitive.ObjectID); ok {
			v.ID = oid
		}
	}
	return v, nil
}

// VerifyToken validates the link token and consumes the verification record.
// Tokens are single use; a successful verify deletes the record.
func (s *Store) VerifyToken(ctx context.Context, token string) (*Verification, error) {
	if len(token) != TokenLength*2 {
		return nil, ErrNotFound
	}

	var v Verification
	err := s.c.FindOneAndDelete(ctx, bson.M{
		"token":      token,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("emailverify: verify token: %w", err)
	}
	return &v, nil
}

// DeleteForUser removes any pending verification for the user.
func (s *Store) DeleteForUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return fmt.Errorf("emailverify: delete for user: %w", err)
	}
	return nil
}

func newToken() (string, error) {
	b := make([]byte, TokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("emailverify: generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
