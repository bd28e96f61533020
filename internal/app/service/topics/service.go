// internal/app/service/topics/service.go

// Package topicsvc enforces authorization on every topic mutation.
//
// Each mutating operation follows the same sequence: require an identity,
// re-fetch the authoritative topic document by id (never a cached copy, so
// stale permission data cannot authorize a write), check the stored
// owner/writers against the caller, then apply the change as a single
// whole-document update. Each call ends in exactly one terminal outcome;
// there is no partially applied mutation and no retry at this layer.
package topicsvc

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/topichub/internal/app/policy/topicpolicy"
	"github.com/dalemusser/topichub/internal/domain/apperror"
	"github.com/dalemusser/topichub/internal/domain/models"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// Repository is the document-store surface the service needs. The mongo
// store in store/topics implements it; tests use an in-memory fake.
type Repository interface {
	// GetByID returns nil (not an error) when the topic does not exist.
	GetByID(ctx context.Context, id string) (*models.Topic, error)
	Insert(ctx context.Context, t models.Topic) error
	SetName(ctx context.Context, id, name string) error
	// SetPosts replaces the entire posts array of the topic document.
	SetPosts(ctx context.Context, id string, posts []models.Post) error
	AddMember(ctx context.Context, id, field, email string) error
	RemoveMember(ctx context.Context, id, field, email string) error
	Delete(ctx context.Context, id string) error
}

// BlobDeleter removes a stored blob by its public URL. Deletion is
// best-effort: failures are logged by the service and never propagated,
// because the parent document has already been updated by the time cleanup
// runs.
type BlobDeleter interface {
	DeleteURL(ctx context.Context, url string) error
}

// Member list fields, matching the topic document.
const (
	FieldReaders = "readers"
	FieldWriters = "writers"
)

// Service is the mutation guard plus single-topic reads.
type Service struct {
	repo      Repository
	blobs     BlobDeleter // may be nil; then no image cleanup happens
	log       *zap.Logger
	sanitizer *bluemonday.Policy

	// strictMemberACL restricts reader/writer list mutations to the owner.
	// Off by default, preserving the upstream behavior where any
	// authenticated user could change the lists.
	strictMemberACL bool
}

// New creates a Service. blobs may be nil when no blob store is configured.
func New(repo Repository, blobs BlobDeleter, strictMemberACL bool, logger *zap.Logger) *Service {
	return &Service{
		repo:            repo,
		blobs:           blobs,
		log:             logger,
		sanitizer:       bluemonday.StrictPolicy(),
		strictMemberACL: strictMemberACL,
	}
}

// clean strips markup from user-supplied text fields.
func (s *Service) clean(text string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(text))
}

// fetch runs the shared front half of every guarded operation: identity
// check, then an authoritative re-fetch by id.
func (s *Service) fetch(ctx context.Context, email, topicID string) (*models.Topic, error) {
	if email == "" {
		return nil, apperror.Unauthenticated()
	}
	t, err := s.repo.GetByID(ctx, topicID)
	if err != nil {
		return nil, apperror.Upstream("topic fetch failed", err)
	}
	if t == nil {
		return nil, apperror.NotFound("topic", topicID)
	}
	return t, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Topics                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// CreateTopic inserts a new topic owned by email, with a generated id and
// empty member lists.
func (s *Service) CreateTopic(ctx context.Context, email, name string) (models.Topic, error) {
	if email == "" {
		return models.Topic{}, apperror.Unauthenticated()
	}
	now := time.Now().UTC()
	t := models.Topic{
		ID:        uuid.New().String(),
		Name:      s.clean(name),
		Posts:     []models.Post{},
		Owner:     email,
		Readers:   []string{},
		Writers:   []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, t); err != nil {
		return models.Topic{}, apperror.Upstream("topic insert failed", err)
	}
	return t, nil
}

// GetTopic resolves one topic together with email's role flags. A missing
// topic is a normal outcome and returns (nil, nil), not an error.
func (s *Service) GetTopic(ctx context.Context, email, topicID string) (*models.TopicView, error) {
	if email == "" {
		return nil, apperror.Unauthenticated()
	}
	t, err := s.repo.GetByID(ctx, topicID)
	if err != nil {
		return nil, apperror.Upstream("topic fetch failed", err)
	}
	if t == nil {
		return nil, nil
	}
	return &models.TopicView{Topic: *t, RoleFlags: topicpolicy.Flags(*t, email)}, nil
}

// EditTopic renames a topic. Allowed for the stored owner or any writer.
func (s *Service) EditTopic(ctx context.Context, email, topicID, name string) error {
	t, err := s.fetch(ctx, email, topicID)
	if err != nil {
		return err
	}
	if !topicpolicy.CanEdit(*t, email) {
		return apperror.PermissionDenied("only the owner or a writer can edit this topic")
	}
	if err := s.repo.SetName(ctx, topicID, s.clean(name)); err != nil {
		return apperror.Upstream("topic update failed", err)
	}
	return nil
}

// RemoveTopic deletes a topic. Only the stored owner may; writers are
// refused. Post images are cleaned up best-effort after the document is
// gone.
func (s *Service) RemoveTopic(ctx context.Context, email, topicID string) error {
	t, err := s.fetch(ctx, email, topicID)
	if err != nil {
		return err
	}
	if !topicpolicy.CanDelete(*t, email) {
		return apperror.PermissionDenied("only the owner can delete this topic")
	}
	if err := s.repo.Delete(ctx, topicID); err != nil {
		return apperror.Upstream("topic delete failed", err)
	}
	for _, p := range t.Posts {
		s.deleteImage(ctx, p.ImageURL)
	}
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Posts (whole-array replacement on the parent topic)                         |
*─────────────────────────────────────────────────────────────────────────────*/

// PostInput is the caller-supplied part of a post.
type PostInput struct {
	Name        string
	Description string
	ImageURL    string
}

// AddPost appends a post with a fresh id to the topic's posts array.
func (s *Service) AddPost(ctx context.Context, email, topicID string, in PostInput) (models.Post, error) {
	t, err := s.fetch(ctx, email, topicID)
	if err != nil {
		return models.Post{}, err
	}
	if !topicpolicy.CanEdit(*t, email) {
		return models.Post{}, apperror.PermissionDenied("only the owner or a writer can add posts")
	}
	p := models.Post{
		ID:          uuid.New().String(),
		Name:        s.clean(in.Name),
		Description: s.clean(in.Description),
		ImageURL:    in.ImageURL,
	}
	if err := s.repo.SetPosts(ctx, topicID, append(t.Posts, p)); err != nil {
		return models.Post{}, apperror.Upstream("post insert failed", err)
	}
	return p, nil
}

// GetPost resolves one post within a topic. (nil, nil) when either the
// topic or the post is absent.
func (s *Service) GetPost(ctx context.Context, email, topicID, postID string) (*models.Post, error) {
	tv, err := s.GetTopic(ctx, email, topicID)
	if err != nil || tv == nil {
		return nil, err
	}
	for _, p := range tv.Posts {
		if p.ID == postID {
			return &p, nil
		}
	}
	return nil, nil
}

// EditPost replaces the post with post.ID inside the topic, keeping every
// other post untouched. The previous image URL is returned so callers that
// replaced the image can clean up the old blob after the update landed.
func (s *Service) EditPost(ctx context.Context, email, topicID string, post models.Post) (prevImageURL string, err error) {
	t, err := s.fetch(ctx, email, topicID)
	if err != nil {
		return "", err
	}
	if !topicpolicy.CanEdit(*t, email) {
		return "", apperror.PermissionDenied("only the owner or a writer can edit posts")
	}

	found := false
	posts := make([]models.Post, len(t.Posts))
	for i, p := range t.Posts {
		if p.ID == post.ID {
			found = true
			prevImageURL = p.ImageURL
			posts[i] = models.Post{
				ID:          p.ID,
				Name:        s.clean(post.Name),
				Description: s.clean(post.Description),
				ImageURL:    post.ImageURL,
			}
			continue
		}
		posts[i] = p
	}
	if !found {
		return "", apperror.NotFound("post", post.ID)
	}
	if err := s.repo.SetPosts(ctx, topicID, posts); err != nil {
		return "", apperror.Upstream("post update failed", err)
	}
	return prevImageURL, nil
}

// RemovePost drops one post from the topic's array and cleans up its image
// best-effort once the document update succeeded.
func (s *Service) RemovePost(ctx context.Context, email, topicID, postID string) error {
	t, err := s.fetch(ctx, email, topicID)
	if err != nil {
		return err
	}
	if !topicpolicy.CanEdit(*t, email) {
		return apperror.PermissionDenied("only the owner or a writer can remove posts")
	}

	var removed *models.Post
	posts := make([]models.Post, 0, len(t.Posts))
	for _, p := range t.Posts {
		if p.ID == postID {
			removed = &p
			continue
		}
		posts = append(posts, p)
	}
	if removed == nil {
		return apperror.NotFound("post", postID)
	}
	if err := s.repo.SetPosts(ctx, topicID, posts); err != nil {
		return apperror.Upstream("post removal failed", err)
	}
	s.deleteImage(ctx, removed.ImageURL)
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Reader / writer membership                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (s *Service) mutateMember(ctx context.Context, email, topicID, field, member string, add bool) error {
	t, err := s.fetch(ctx, email, topicID)
	if err != nil {
		return err
	}
	if !topicpolicy.CanManageMembers(*t, email, s.strictMemberACL) {
		return apperror.PermissionDenied("only the owner can manage sharing")
	}
	if add {
		err = s.repo.AddMember(ctx, topicID, field, member)
	} else {
		err = s.repo.RemoveMember(ctx, topicID, field, member)
	}
	if err != nil {
		return apperror.Upstream("membership update failed", err)
	}
	return nil
}

// AddReader grants member read-only visibility of the topic.
func (s *Service) AddReader(ctx context.Context, email, topicID, member string) error {
	return s.mutateMember(ctx, email, topicID, FieldReaders, member, true)
}

// RemoveReader revokes member's read-only visibility.
func (s *Service) RemoveReader(ctx context.Context, email, topicID, member string) error {
	return s.mutateMember(ctx, email, topicID, FieldReaders, member, false)
}

// AddWriter grants member edit rights on the topic.
func (s *Service) AddWriter(ctx context.Context, email, topicID, member string) error {
	return s.mutateMember(ctx, email, topicID, FieldWriters, member, true)
}

// RemoveWriter revokes member's edit rights.
func (s *Service) RemoveWriter(ctx context.Context, email, topicID, member string) error {
	return s.mutateMember(ctx, email, topicID, FieldWriters, member, false)
}

// deleteImage removes a post image best-effort. Runs only after the parent
// document was updated, so a failure leaves an orphaned blob, never a post
// pointing at a deleted one.
func (s *Service) deleteImage(ctx context.Context, url string) {
	if url == "" || s.blobs == nil {
		return
	}
	if err := s.blobs.DeleteURL(ctx, url); err != nil {
		s.log.Warn("post image cleanup failed",
			zap.String("url", url),
			zap.Error(err))
	}
}
