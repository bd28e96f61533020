// internal/app/store/topics/topicstore.go
package topicstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/topichub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store is the Mongo-backed topic collection. It implements both the
// service Repository (guarded mutations re-fetch through GetByID) and the
// topicfeed Source (role-scoped queries plus the change signal).
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("topics")}
}

// GetByID returns the topic or nil when no document has the id. Absence is
// a normal outcome here; callers decide whether it is an error.
func (s *Store) GetByID(ctx context.Context, id string) (*models.Topic, error) {
	var t models.Topic
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (s *Store) Insert(ctx context.Context, t models.Topic) error {
	_, err := s.c.InsertOne(ctx, t)
	return err
}

func (s *Store) SetName(ctx context.Context, id, name string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"name":       name,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// SetPosts replaces the entire posts array in one atomic document update.
// Post-level edits never patch individual array elements.
func (s *Store) SetPosts(ctx context.Context, id string, posts []models.Post) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"posts":      posts,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// AddMember adds email to the named list field ($addToSet, so re-adding is
// a no-op rather than a duplicate).
func (s *Store) AddMember(ctx context.Context, id, field, email string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$addToSet": bson.M{field: email},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// RemoveMember removes email from the named list field.
func (s *Store) RemoveMember(ctx context.Context, id, field, email string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$pull": bson.M{field: email},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// VisibleTopics runs the three role-scoped queries for email. Equality on
// an array field is Mongo's array-contains, so the readers/writers filters
// match topics whose lists contain the email.
func (s *Store) VisibleTopics(ctx context.Context, email string) (owned, reading, writing []models.Topic, err error) {
	if owned, err = s.findAll(ctx, bson.M{"owner": email}); err != nil {
		return nil, nil, nil, err
	}
	if reading, err = s.findAll(ctx, bson.M{"readers": email}); err != nil {
		return nil, nil, nil, err
	}
	if writing, err = s.findAll(ctx, bson.M{"writers": email}); err != nil {
		return nil, nil, nil, err
	}
	return owned, reading, writing, nil
}

func (s *Store) findAll(ctx context.Context, filter bson.M) ([]models.Topic, error) {
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	var out []models.Topic
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
