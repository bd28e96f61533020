// internal/app/features/posts/handler_test.go
package posts

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	topicsvc "github.com/dalemusser/topichub/internal/app/service/topics"
	"github.com/dalemusser/topichub/internal/app/system/auth"
	"github.com/dalemusser/topichub/internal/app/system/blobstore"
	"github.com/dalemusser/topichub/internal/domain/models"
)

type memRepo struct {
	mu     sync.Mutex
	topics map[string]models.Topic
}

func newMemRepo(topics ...models.Topic) *memRepo {
	r := &memRepo{topics: make(map[string]models.Topic)}
	for _, t := range topics {
		r.topics[t.ID] = t
	}
	return r
}

func (r *memRepo) GetByID(_ context.Context, id string) (*models.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.topics[id]
	if !ok {
		return nil, nil
	}
	cp := t
	cp.Posts = append([]models.Post(nil), t.Posts...)
	return &cp, nil
}

func (r *memRepo) Insert(_ context.Context, t models.Topic) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics[t.ID] = t
	return nil
}

func (r *memRepo) SetName(_ context.Context, id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.topics[id]
	t.Name = name
	r.topics[id] = t
	return nil
}

func (r *memRepo) SetPosts(_ context.Context, id string, posts []models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.topics[id]
	t.Posts = posts
	r.topics[id] = t
	return nil
}

func (r *memRepo) AddMember(_ context.Context, id, field, email string) error { return nil }

func (r *memRepo) RemoveMember(_ context.Context, id, field, email string) error { return nil }

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.topics, id)
	return nil
}

func (r *memRepo) posts(id string) []models.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.topics[id].Posts
}

func seedTopic(owner string, writers []string, posts ...models.Post) models.Topic {
	if posts == nil {
		posts = []models.Post{}
	}
	now := time.Now().UTC()
	return models.Topic{
		ID:        "topic-1",
		Name:      "Holidays",
		Posts:     posts,
		Owner:     owner,
		Readers:   []string{},
		Writers:   writers,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newTestRouter(t *testing.T, repo *memRepo, blobs blobstore.Store) http.Handler {
	t.Helper()
	var deleter topicsvc.BlobDeleter
	if blobs != nil {
		deleter = blobstore.Deleter{Store: blobs}
	}
	svc := topicsvc.New(repo, deleter, false, zap.NewNop())
	h := NewHandler(svc, blobs, nil, zap.NewNop())

	sm, err := auth.NewSessionManager(
		"0123456789abcdef0123456789abcdef", "topichub_session", "", time.Hour, false, zap.NewNop())
	require.NoError(t, err)

	root := chi.NewRouter()
	root.Mount("/topics/{topicID}/posts", Routes(h, sm))
	return root
}

func doJSON(router http.Handler, method, path, body, email string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		req = auth.WithTestUser(req, &auth.SessionUser{ID: "uid", Name: email, Email: email})
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func uploadImage(t *testing.T, router http.Handler, path, email, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "uid", Name: email, Email: email})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndGetPost(t *testing.T) {
	repo := newMemRepo(seedTopic("a@x.com", nil))
	router := newTestRouter(t, repo, nil)

	rec := doJSON(router, http.MethodPost, "/topics/topic-1/posts", `{"name":"Beach","description":"Sand"}`, "a@x.com")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Beach", created.Name)

	rec = doJSON(router, http.MethodGet, "/topics/topic-1/posts/"+created.ID, "", "a@x.com")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreatePostDeniedForReader(t *testing.T) {
	topic := seedTopic("a@x.com", nil)
	topic.Readers = []string{"reader@x.com"}
	router := newTestRouter(t, newMemRepo(topic), nil)

	rec := doJSON(router, http.MethodPost, "/topics/topic-1/posts", `{"name":"Nope"}`, "reader@x.com")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEditPostKeepsImage(t *testing.T) {
	post := models.Post{ID: "p1", Name: "Old", ImageURL: "/media/topics/topic-1/p1_1_pic.jpg"}
	repo := newMemRepo(seedTopic("a@x.com", nil, post))
	router := newTestRouter(t, repo, nil)

	rec := doJSON(router, http.MethodPut, "/topics/topic-1/posts/p1", `{"name":"New","description":"text"}`, "a@x.com")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := repo.posts("topic-1")
	require.Len(t, got, 1)
	assert.Equal(t, "New", got[0].Name)
	assert.Equal(t, post.ImageURL, got[0].ImageURL)
}

func TestDeletePost(t *testing.T) {
	post := models.Post{ID: "p1", Name: "Beach"}
	repo := newMemRepo(seedTopic("a@x.com", nil, post))
	router := newTestRouter(t, repo, nil)

	rec := doJSON(router, http.MethodDelete, "/topics/topic-1/posts/p1", "", "a@x.com")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, repo.posts("topic-1"))

	rec = doJSON(router, http.MethodDelete, "/topics/topic-1/posts/p1", "", "a@x.com")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadImageReplacesPrevious(t *testing.T) {
	root := t.TempDir()
	blobs, err := blobstore.NewLocal(root, "/media", zap.NewNop())
	require.NoError(t, err)

	post := models.Post{ID: "p1", Name: "Beach"}
	repo := newMemRepo(seedTopic("a@x.com", nil, post))
	router := newTestRouter(t, repo, blobs)

	rec := uploadImage(t, router, "/topics/topic-1/posts/p1/image", "a@x.com", "first.jpg", "first-bytes")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		ImageURL string `json:"image_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, strings.HasPrefix(resp.ImageURL, "/media/topics/topic-1/p1_"), resp.ImageURL)
	firstURL := resp.ImageURL

	got := repo.posts("topic-1")
	require.Len(t, got, 1)
	assert.Equal(t, firstURL, got[0].ImageURL)

	// Replacing the image deletes the old blob.
	rec = uploadImage(t, router, "/topics/topic-1/posts/p1/image", "a@x.com", "second.jpg", "second-bytes")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEqual(t, firstURL, resp.ImageURL)

	path, ok := blobs.PathFromURL(firstURL)
	require.True(t, ok)
	if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(path))); !os.IsNotExist(err) {
		t.Fatalf("expected old image to be deleted, stat err = %v", err)
	}

	got = repo.posts("topic-1")
	assert.Equal(t, resp.ImageURL, got[0].ImageURL)
}

func TestUploadImageMissingFile(t *testing.T) {
	post := models.Post{ID: "p1", Name: "Beach"}
	repo := newMemRepo(seedTopic("a@x.com", nil, post))
	blobs, err := blobstore.NewLocal(t.TempDir(), "/media", zap.NewNop())
	require.NoError(t, err)
	router := newTestRouter(t, repo, blobs)

	req := httptest.NewRequest(http.MethodPost, "/topics/topic-1/posts/p1/image", strings.NewReader("not-multipart"))
	req.Header.Set("Content-Type", "application/json")
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "uid", Name: "a", Email: "a@x.com"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"photo.jpg", "photo.jpg"},
		{"../../etc/passwd", "passwd"},
		{"my photo (1).png", "my_photo__1_.png"},
		{"", "file"},
		{".", "file"},
		{"/", "file"},
	}
	for _, c := range cases {
		if got := sanitizeFilename(c.in); got != c.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestImagePath(t *testing.T) {
	p := imagePath("t1", "p1", "pic.jpg")
	assert.True(t, strings.HasPrefix(p, "topics/t1/p1_"), p)
	assert.True(t, strings.HasSuffix(p, "_pic.jpg"), p)
}
