package topicfeed_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/topichub/internal/app/topicfeed"
	"github.com/dalemusser/topichub/internal/domain/apperror"
	"github.com/dalemusser/topichub/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSource is an in-memory Source with a manual change trigger.
type fakeSource struct {
	mu      sync.Mutex
	topics  []models.Topic
	changes chan struct{}
	err     error
}

func newFakeSource(topics ...models.Topic) *fakeSource {
	return &fakeSource{topics: topics, changes: make(chan struct{}, 8)}
}

func (f *fakeSource) VisibleTopics(ctx context.Context, email string) (owned, reading, writing []models.Topic, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, nil, nil, f.err
	}
	for _, t := range f.topics {
		switch {
		case t.Owner == email:
			owned = append(owned, t)
		default:
			for _, w := range t.Writers {
				if w == email {
					writing = append(writing, t)
				}
			}
			for _, r := range t.Readers {
				if r == email {
					reading = append(reading, t)
				}
			}
		}
	}
	return owned, reading, writing, nil
}

func (f *fakeSource) Changes(ctx context.Context) (<-chan struct{}, error) {
	return f.changes, nil
}

func (f *fakeSource) setTopics(topics ...models.Topic) {
	f.mu.Lock()
	f.topics = topics
	f.mu.Unlock()
	f.changes <- struct{}{}
}

func recv(t *testing.T, c <-chan []models.TopicView) []models.TopicView {
	t.Helper()
	select {
	case snap, ok := <-c:
		require.True(t, ok, "subscription channel closed early")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestSnapshot_RequiresIdentity(t *testing.T) {
	eng := topicfeed.NewEngine(newFakeSource(), zap.NewNop())

	_, err := eng.Snapshot(context.Background(), "")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	_, err = eng.Subscribe(context.Background(), "")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestSnapshot_WrapsSourceFailure(t *testing.T) {
	src := newFakeSource()
	src.err = errors.New("query exploded")
	eng := topicfeed.NewEngine(src, zap.NewNop())

	_, err := eng.Snapshot(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, apperror.ErrUpstream)
}

func TestSubscribe_EmitsInitialSnapshot(t *testing.T) {
	src := newFakeSource(
		models.Topic{ID: "t1", Name: "Mine", Owner: "a@x.com"},
		models.Topic{ID: "t2", Name: "Shared", Owner: "b@x.com", Readers: []string{"a@x.com"}},
	)
	eng := topicfeed.NewEngine(src, zap.NewNop())

	sub, err := eng.Subscribe(context.Background(), "a@x.com")
	require.NoError(t, err)
	defer sub.Cancel()

	snap := recv(t, sub.C)
	require.Len(t, snap, 2)
	assert.True(t, snap[0].IsOwner)
	assert.True(t, snap[1].IsReader)
}

func TestSubscribe_ReEmitsOnChange(t *testing.T) {
	src := newFakeSource(models.Topic{ID: "t1", Name: "Mine", Owner: "a@x.com"})
	eng := topicfeed.NewEngine(src, zap.NewNop())

	sub, err := eng.Subscribe(context.Background(), "a@x.com")
	require.NoError(t, err)
	defer sub.Cancel()

	first := recv(t, sub.C)
	require.Len(t, first, 1)

	// Another user shares a topic with a@x.com as writer.
	src.setTopics(
		models.Topic{ID: "t1", Name: "Mine", Owner: "a@x.com"},
		models.Topic{ID: "t2", Name: "Theirs", Owner: "b@x.com", Writers: []string{"a@x.com"}},
	)

	second := recv(t, sub.C)
	require.Len(t, second, 2)
	assert.True(t, second[1].IsWriter)
}

func TestSubscribe_CancelClosesChannel(t *testing.T) {
	src := newFakeSource()
	eng := topicfeed.NewEngine(src, zap.NewNop())

	sub, err := eng.Subscribe(context.Background(), "a@x.com")
	require.NoError(t, err)

	recv(t, sub.C) // initial empty snapshot
	sub.Cancel()

	select {
	case _, ok := <-sub.C:
		assert.False(t, ok, "channel should be closed after Cancel")
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after Cancel")
	}
}

func TestSubscribe_IndependentSubscriptions(t *testing.T) {
	src := newFakeSource(models.Topic{ID: "t1", Name: "Mine", Owner: "a@x.com"})
	eng := topicfeed.NewEngine(src, zap.NewNop())

	subA, err := eng.Subscribe(context.Background(), "a@x.com")
	require.NoError(t, err)
	defer subA.Cancel()

	subB, err := eng.Subscribe(context.Background(), "b@x.com")
	require.NoError(t, err)
	defer subB.Cancel()

	assert.Len(t, recv(t, subA.C), 1)
	assert.Empty(t, recv(t, subB.C))
}
