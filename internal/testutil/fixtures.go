package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/topichub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateTopic inserts a topic with the given owner and member lists.
func (f *Fixtures) CreateTopic(ctx context.Context, name, owner string, readers, writers []string, posts ...models.Post) models.Topic {
	f.t.Helper()

	if readers == nil {
		readers = []string{}
	}
	if writers == nil {
		writers = []string{}
	}
	if posts == nil {
		posts = []models.Post{}
	}
	now := time.Now().UTC()
	topic := models.Topic{
		ID:        uuid.New().String(),
		Name:      name,
		Posts:     posts,
		Owner:     owner,
		Readers:   readers,
		Writers:   writers,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("topics").InsertOne(ctx, topic); err != nil {
		f.t.Fatalf("failed to create test topic: %v", err)
	}
	return topic
}

// CreateUser inserts a verified password user with the given email.
func (f *Fixtures) CreateUser(ctx context.Context, email, password string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		f.t.Fatalf("failed to hash test password: %v", err)
	}

	now := time.Now().UTC()
	user := models.User{
		ID:            primitive.NewObjectID(),
		Email:         email,
		EmailCI:       text.Fold(email),
		AuthMethod:    models.AuthMethodPassword,
		PasswordHash:  string(hash),
		EmailVerified: true,
		Status:        "active",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateUnverifiedUser inserts a password user that has not verified email.
func (f *Fixtures) CreateUnverifiedUser(ctx context.Context, email, password string) models.User {
	f.t.Helper()

	u := f.CreateUser(ctx, email, password)
	_, err := f.db.Collection("users").UpdateByID(ctx, u.ID,
		map[string]any{"$set": map[string]any{"email_verified": false}})
	if err != nil {
		f.t.Fatalf("failed to unverify test user: %v", err)
	}
	u.EmailVerified = false
	return u
}
