// internal/domain/models/topic.go
package models

import "time"

// Topic is a named, shared collection of posts.
//
// The document id is a client-style UUID string rather than an ObjectID so
// that ids can be generated before the insert and embedded in blob paths.
// Owner is set once at creation and never reassigned. Readers and Writers
// hold the emails of users the owner shared the topic with; the two sets may
// overlap, but writer access subsumes reader access everywhere roles are
// computed.
type Topic struct {
	ID      string   `bson:"_id" json:"id"`
	Name    string   `bson:"name" json:"name"`
	Posts   []Post   `bson:"posts" json:"posts"`
	Owner   string   `bson:"owner" json:"owner"`
	Readers []string `bson:"readers" json:"readers"`
	Writers []string `bson:"writers" json:"writers"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Post is an item embedded in a Topic. Posts have no standalone collection;
// every post mutation is a whole-array replacement on the parent topic
// document.
type Post struct {
	ID          string `bson:"id" json:"id"`
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	ImageURL    string `bson:"image_url,omitempty" json:"image_url,omitempty"`
}

// RoleFlags is the derived role of one user relative to one topic.
// Exactly one flag is true; the flags are computed at read time and never
// persisted.
type RoleFlags struct {
	IsOwner  bool `json:"is_owner"`
	IsReader bool `json:"is_reader"`
	IsWriter bool `json:"is_writer"`
}

// TopicView is a Topic annotated with the requesting user's role flags.
type TopicView struct {
	Topic `bson:",inline"`
	RoleFlags
}
