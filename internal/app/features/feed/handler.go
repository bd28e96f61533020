// internal/app/features/feed/handler.go

// Package feed streams live topic listings over server-sent events. Each
// subscriber gets the current merged listing immediately, then a fresh one
// whenever the topics collection changes. Clients refresh by reconnecting;
// subscriptions carry no state between connections.
package feed

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/dalemusser/topichub/internal/app/features/shared"
	"github.com/dalemusser/topichub/internal/app/system/auth"
	"github.com/dalemusser/topichub/internal/app/topicfeed"
)

type Handler struct {
	Log  *zap.Logger
	Feed *topicfeed.Engine
}

func NewHandler(feed *topicfeed.Engine, logger *zap.Logger) *Handler {
	return &Handler{Log: logger, Feed: feed}
}

// ServeStream handles GET /feed. Each event's data is the full merged topic
// listing as a JSON array.
func (h *Handler) ServeStream(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	flusher, ok := w.(http.Flusher)
	if !ok {
		shared.Error(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	sub, err := h.Feed.Subscribe(r.Context(), u.Email)
	if err != nil {
		shared.AppError(w, h.Log, err)
		return
	}
	defer sub.Cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case snap, open := <-sub.C:
			if !open {
				return
			}
			data, err := json.Marshal(snap)
			if err != nil {
				h.Log.Error("feed: encode snapshot", zap.Error(err))
				return
			}
			if _, err := w.Write([]byte("event: topics\ndata: ")); err != nil {
				return
			}
			if _, err := w.Write(data); err != nil {
				return
			}
			if _, err := w.Write([]byte("\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
