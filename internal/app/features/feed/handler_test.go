// internal/app/features/feed/handler_test.go
package feed

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dalemusser/topichub/internal/app/system/auth"
	"github.com/dalemusser/topichub/internal/app/topicfeed"
	"github.com/dalemusser/topichub/internal/domain/models"
)

// fakeSource serves canned snapshots and a controllable change signal.
type fakeSource struct {
	mu      sync.Mutex
	topics  []models.Topic
	changes chan struct{}
}

func newFakeSource(topics ...models.Topic) *fakeSource {
	return &fakeSource{topics: topics, changes: make(chan struct{}, 4)}
}

func (f *fakeSource) VisibleTopics(_ context.Context, email string) (owned, reading, writing []models.Topic, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.topics {
		if t.Owner == email {
			owned = append(owned, t)
		}
	}
	return owned, nil, nil, nil
}

func (f *fakeSource) Changes(ctx context.Context) (<-chan struct{}, error) {
	out := make(chan struct{})
	go func() {
		defer close(out)
		for {
			select {
			case _, ok := <-f.changes:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (f *fakeSource) rename(name string) {
	f.mu.Lock()
	f.topics[0].Name = name
	f.mu.Unlock()
	f.changes <- struct{}{}
}

func topic(name, owner string) models.Topic {
	return models.Topic{ID: name + "-id", Name: name, Owner: owner, Posts: []models.Post{}}
}

func TestStreamEmitsSnapshots(t *testing.T) {
	source := newFakeSource(topic("first", "a@x.com"))
	engine := topicfeed.NewEngine(source, zap.NewNop())
	h := NewHandler(engine, zap.NewNop())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = auth.WithTestUser(r, &auth.SessionUser{ID: "u1", Name: "Ada", Email: "a@x.com"})
		h.ServeStream(w, r)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() string {
		var data string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			if strings.HasPrefix(line, "data: ") {
				data = strings.TrimPrefix(line, "data: ")
			}
			if line == "" && data != "" {
				return data
			}
		}
	}

	// Initial snapshot arrives without any change.
	first := readEvent()
	assert.Contains(t, first, `"first"`)

	// A change produces a fresh snapshot.
	source.rename("renamed")
	second := readEvent()
	assert.Contains(t, second, `"renamed"`)
}

func TestStreamRequiresIdentity(t *testing.T) {
	engine := topicfeed.NewEngine(newFakeSource(), zap.NewNop())
	h := NewHandler(engine, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "", Name: "", Email: ""})
	rec := httptest.NewRecorder()
	h.ServeStream(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
