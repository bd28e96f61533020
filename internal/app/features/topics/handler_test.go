// internal/app/features/topics/handler_test.go
package topics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	topicsvc "github.com/dalemusser/topichub/internal/app/service/topics"
	"github.com/dalemusser/topichub/internal/app/system/auth"
	"github.com/dalemusser/topichub/internal/app/topicfeed"
	"github.com/dalemusser/topichub/internal/domain/models"
)

// memRepo is an in-memory topic repository shared by the service and the
// feed source.
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

func (r *memRepo) AddMember(_ context.Context, id, field, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.topics[id]
	if field == topicsvc.FieldReaders {
		t.Readers = append(t.Readers, email)
	} else {
		t.Writers = append(t.Writers, email)
	}
	r.topics[id] = t
	return nil
}

func (r *memRepo) RemoveMember(_ context.Context, id, field, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.topics[id]
	drop := func(list []string) []string {
		out := []string{}
		for _, e := range list {
			if e != email {
				out = append(out, e)
			}
		}
		return out
	}
	if field == topicsvc.FieldReaders {
		t.Readers = drop(t.Readers)
	} else {
		t.Writers = drop(t.Writers)
	}
	r.topics[id] = t
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.topics, id)
	return nil
}

// VisibleTopics makes memRepo double as a feed source.
func (r *memRepo) VisibleTopics(_ context.Context, email string) (owned, reading, writing []models.Topic, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.topics {
		if t.Owner == email {
			owned = append(owned, t)
		}
		for _, e := range t.Readers {
			if e == email {
				reading = append(reading, t)
			}
		}
		for _, e := range t.Writers {
			if e == email {
				writing = append(writing, t)
			}
		}
	}
	return owned, reading, writing, nil
}

func (r *memRepo) Changes(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func seedTopic(name, owner string, readers, writers []string) models.Topic {
	now := time.Now().UTC()
	return models.Topic{
		ID:        name + "-id",
		Name:      name,
		Posts:     []models.Post{},
		Owner:     owner,
		Readers:   readers,
		Writers:   writers,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newTestRouter(t *testing.T, repo *memRepo) http.Handler {
	t.Helper()
	svc := topicsvc.New(repo, nil, false, zap.NewNop())
	feed := topicfeed.NewEngine(repo, zap.NewNop())
	h := NewHandler(svc, feed, nil, zap.NewNop())

	sm, err := auth.NewSessionManager(
		"0123456789abcdef0123456789abcdef", "topichub_session", "", time.Hour, false, zap.NewNop())
	require.NoError(t, err)
	return Routes(h, sm)
}

func doJSON(router http.Handler, method, path, body, email string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		req = auth.WithTestUser(req, &auth.SessionUser{ID: "uid-" + email, Name: email, Email: email})
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListMergesRoles(t *testing.T) {
	repo := newMemRepo(
		seedTopic("mine", "a@x.com", nil, nil),
		seedTopic("shared-read", "b@x.com", []string{"a@x.com"}, nil),
		seedTopic("shared-write", "b@x.com", nil, []string{"a@x.com"}),
		seedTopic("unrelated", "c@x.com", nil, nil),
	)
	router := newTestRouter(t, repo)

	rec := doJSON(router, http.MethodGet, "/", "", "a@x.com")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Topics []models.TopicView `json:"topics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Topics, 3)

	byName := map[string]models.TopicView{}
	for _, tv := range resp.Topics {
		byName[tv.Name] = tv
	}
	assert.True(t, byName["mine"].IsOwner)
	assert.True(t, byName["shared-read"].IsReader)
	assert.True(t, byName["shared-write"].IsWriter)
}

func TestListRequiresAuth(t *testing.T) {
	router := newTestRouter(t, newMemRepo())

	rec := doJSON(router, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateTopic(t *testing.T) {
	repo := newMemRepo()
	router := newTestRouter(t, repo)

	rec := doJSON(router, http.MethodPost, "/", `{"name":"Holidays"}`, "a@x.com")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.Topic
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Holidays", created.Name)
	assert.Equal(t, "a@x.com", created.Owner)
}

func TestCreateTopicRequiresName(t *testing.T) {
	router := newTestRouter(t, newMemRepo())

	rec := doJSON(router, http.MethodPost, "/", `{}`, "a@x.com")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTopic(t *testing.T) {
	topic := seedTopic("mine", "a@x.com", nil, nil)
	router := newTestRouter(t, newMemRepo(topic))

	rec := doJSON(router, http.MethodGet, "/"+topic.ID, "", "a@x.com")
	require.Equal(t, http.StatusOK, rec.Code)

	var tv models.TopicView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tv))
	assert.True(t, tv.IsOwner)

	rec = doJSON(router, http.MethodGet, "/nope", "", "a@x.com")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEditTopicPermissions(t *testing.T) {
	topic := seedTopic("mine", "a@x.com", []string{"reader@x.com"}, []string{"writer@x.com"})
	repo := newMemRepo(topic)
	router := newTestRouter(t, repo)

	// A writer may rename.
	rec := doJSON(router, http.MethodPut, "/"+topic.ID, `{"name":"Renamed"}`, "writer@x.com")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// A reader may not.
	rec = doJSON(router, http.MethodPut, "/"+topic.ID, `{"name":"Nope"}`, "reader@x.com")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteTopicOwnerOnly(t *testing.T) {
	topic := seedTopic("mine", "a@x.com", nil, []string{"writer@x.com"})
	repo := newMemRepo(topic)
	router := newTestRouter(t, repo)

	rec := doJSON(router, http.MethodDelete, "/"+topic.ID, "", "writer@x.com")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(router, http.MethodDelete, "/"+topic.ID, "", "a@x.com")
	assert.Equal(t, http.StatusOK, rec.Code)

	got, _ := repo.GetByID(context.Background(), topic.ID)
	assert.Nil(t, got)
}

func TestMemberRoutes(t *testing.T) {
	topic := seedTopic("mine", "a@x.com", nil, nil)
	repo := newMemRepo(topic)
	router := newTestRouter(t, repo)

	rec := doJSON(router, http.MethodPost, "/"+topic.ID+"/readers", `{"email":"r@x.com"}`, "a@x.com")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(router, http.MethodPost, "/"+topic.ID+"/writers", `{"email":"w@x.com"}`, "a@x.com")
	require.Equal(t, http.StatusOK, rec.Code)

	got, _ := repo.GetByID(context.Background(), topic.ID)
	assert.Equal(t, []string{"r@x.com"}, got.Readers)
	assert.Equal(t, []string{"w@x.com"}, got.Writers)

	rec = doJSON(router, http.MethodDelete, "/"+topic.ID+"/readers/r@x.com", "", "a@x.com")
	require.Equal(t, http.StatusOK, rec.Code)

	got, _ = repo.GetByID(context.Background(), topic.ID)
	assert.Empty(t, got.Readers)
}
