// internal/app/store/passwordreset/store.go
package passwordreset

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
	// TokenLength is the length of the reset link token in bytes (32 bytes = 64 hex chars).
	TokenLength = 32
	// DefaultExpiry is how long a reset link is valid. Shorter than email
	// verification since the link grants account takeover.
	DefaultExpiry = 1 * time.Hour
	// MaxRequests is the maximum number of reset requests within the rate limit window.
	MaxRequests = 3
	// RequestWindow is the time window for tracking request rate limiting.
	RequestWindow = 15 * time.Minute
)

var (
	// ErrNotFound is returned when a reset record is not found or expired.
	ErrNotFound = errors.New("password reset not found or expired")
	// ErrTooManyRequests is returned when too many reset requests have been made.
	ErrTooManyRequests = errors.New("too many password reset requests")
)

// Reset represents a pending password reset.
type Reset struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserID       primitive.ObjectID `bson:"user_id"`
	Email        string             `bson:"email"`
	Token        string             `bson:"token"`      // hex token for the reset link
	ExpiresAt    time.Time          `bson:"expires_at"` // TTL index field
	CreatedAt    time.Time          `bson:"created_at"`
	RequestCount int                `bson:"request_count"` // Number of requests in current window
	WindowStart  time.Time          `bson:"window_start"`  // Start of current rate limit window
}

// Store handles password reset persistence.
type Store struct {
	c *mongo.Collection
}

// New creates a new password reset store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("password_resets")}
}

// EnsureIndexes creates the required indexes for the reset collection.
// The TTL index on expires_at automatically removes expired records.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().
				SetName("idx_pwreset_expires_ttl").
				SetExpireAfterSeconds(0),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_pwreset_user"),
		},
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetName("idx_pwreset_token").SetUnique(true),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, models)
	if err != nil {
		return fmt.Errorf("passwordreset: ensure indexes: %w", err)
	}
	return nil
}

// Create generates a new reset token for the user, replacing any pending
// one. Repeat requests within the rate limit window are counted; exceeding
// MaxRequests returns ErrTooManyRequests.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID, email string) (*Reset, error) {
	now := time.Now().UTC()

	var existing Reset
	err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&existing)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("passwordreset: lookup existing: %w", err)
	}

	requestCount := 0
	windowStart := now
	if err == nil {
		if now.Sub(existing.WindowStart) < RequestWindow {
			if existing.RequestCount >= MaxRequests {
				return nil, ErrTooManyRequests
			}
			requestCount = existing.RequestCount + 1
			windowStart = existing.WindowStart
		}
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	rst := &Reset{
		UserID:       userID,
		Email:        email,
		Token:        token,
		ExpiresAt:    now.Add(DefaultExpiry),
		CreatedAt:    now,
		RequestCount: requestCount,
		WindowStart:  windowStart,
	}

	res, err := s.c.ReplaceOne(ctx, bson.M{"user_id": userID},
		rst, options.Replace().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("passwordreset: save reset: %w", err)
	}
	if res.UpsertedID != nil {
		if oid, ok := res.UpsertedID.(primitive.ObjectID); ok {
			rst.ID = oid
		}
	}
	return rst, nil
}

// Consume validates the link token and deletes the reset record. Tokens
// are single use; a successful consume removes the record.
func (s *Store) Consume(ctx context.Context, token string) (*Reset, error) {
	if len(token) != TokenLength*2 {
		return nil, ErrNotFound
	}

	var rst Reset
	err := s.c.FindOneAndDelete(ctx, bson.M{
		"token":      token,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&rst)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("passwordreset: consume token: %w", err)
	}
	return &rst, nil
}

// DeleteForUser removes any pending reset for the user.
func (s *Store) DeleteForUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return fmt.Errorf("passwordreset: delete for user: %w", err)
	}
	return nil
}

func newToken() (string, error) {
	b := make([]byte, TokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("passwordreset: generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
