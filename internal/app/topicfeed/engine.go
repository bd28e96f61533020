// internal/app/topicfeed/engine.go

// Package topicfeed produces the live, deduplicated listing of topics
// visible to one user, annotated with that user's role per topic.
//
// The engine runs the three role-scoped queries through a Source, merges
// their snapshots with Merge, and re-emits the merged listing whenever the
// source signals a change to the underlying collection. Re-querying on every
// change gives join-on-latest semantics: whichever of the three result sets
// changed, subscribers see one fresh merged snapshot. Snapshots are
// idempotent, so a notification that did not affect this user's listing just
// produces a duplicate emission.
package topicfeed

import (
	"context"

	"github.com/dalemusser/topichub/internal/domain/apperror"
	"github.com/dalemusser/topichub/internal/domain/models"
	"go.uber.org/zap"
)

// Source supplies the role-scoped snapshots and the change signal. The
// mongo-backed topic store implements it; tests use an in-memory fake.
type Source interface {
	// VisibleTopics returns the latest snapshot triple for email:
	// topics owned, topics shared read-only, topics shared writable.
	VisibleTopics(ctx context.Context, email string) (owned, reading, writing []models.Topic, err error)

	// Changes returns a channel that receives a signal after any change to
	// the topics collection. The channel closes when ctx is done or the
	// underlying watch fails.
	Changes(ctx context.Context) (<-chan struct{}, error)
}

// Engine fans live merged snapshots out to subscribers.
type Engine struct {
	source Source
	log    *zap.Logger
}

// NewEngine creates an Engine over the given source.
func NewEngine(source Source, logger *zap.Logger) *Engine {
	return &Engine{source: source, log: logger}
}

// Subscription is one live feed of merged snapshots. C carries the initial
// snapshot followed by one snapshot per change signal; it closes after
// Cancel, context cancellation, or a source failure. Subscriptions are
// independent; re-subscribing is the refresh story and needs no coordination
// with previous subscriptions.
type Subscription struct {
	C      <-chan []models.TopicView
	cancel context.CancelFunc
}

// Cancel stops the subscription and releases its watch.
func (s *Subscription) Cancel() {
	s.cancel()
}

// Snapshot runs the three queries once and merges them. It fails with
// ErrUnauthenticated when email is empty rather than returning an empty
// listing.
func (e *Engine) Snapshot(ctx context.Context, email string) ([]models.TopicView, error) {
	if email == "" {
		return nil, apperror.Unauthenticated()
	}
	owned, reading, writing, err := e.source.VisibleTopics(ctx, email)
	if err != nil {
		return nil, apperror.Upstream("topic queries failed", err)
	}
	return Merge(owned, reading, writing), nil
}

// Subscribe opens a live feed for email. The first merged snapshot is
// emitted eagerly so subscribers render without waiting for a change.
func (e *Engine) Subscribe(ctx context.Context, email string) (*Subscription, error) {
	if email == "" {
		return nil, apperror.Unauthenticated()
	}

	ctx, cancel := context.WithCancel(ctx)

	changes, err := e.source.Changes(ctx)
	if err != nil {
		cancel()
		return nil, apperror.Upstream("topic watch failed", err)
	}

	out := make(chan []models.TopicView, 1)
	sub := &Subscription{C: out, cancel: cancel}

	go func() {
		defer close(out)

		emit := func() bool {
			snap, err := e.Snapshot(ctx, email)
			if err != nil {
				if ctx.Err() == nil {
					e.log.Warn("topic feed snapshot failed",
						zap.String("email", email),
						zap.Error(err))
				}
				return false
			}
			select {
			case out <- snap:
			case <-ctx.Done():
				return false
			}
			return true
		}

		if !emit() {
			return
		}
		for {
			select {
			case _, ok := <-changes:
				if !ok {
					return
				}
				if !emit() {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return sub, nil
}
