// internal/app/store/topics/watch.go
package topicstore

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Changes opens a change stream on the topics collection and coalesces its
// events into bare signals. Subscribers re-query on a signal, so event
// payloads are irrelevant; only "something changed" matters. The channel
// closes when ctx is done or the stream fails.
//
// Change streams require a replica set. Standalone deployments get the
// error back from Watch and callers fall back to one-shot snapshots.
func (s *Store) Changes(ctx context.Context) (<-chan struct{}, error) {
	stream, err := s.c.Watch(ctx, mongo.Pipeline{},
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, err
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer stream.Close(ctx)

		for stream.Next(ctx) {
			select {
			case out <- struct{}{}:
			default:
				// A signal is already pending; the re-query it triggers
				// will observe this event too.
			}
		}
	}()
	return out, nil
}
