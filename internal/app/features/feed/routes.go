// internal/app/features/feed/routes.go
package feed

import (
	"github.com/go-chi/chi/v5"

	"github.com/dalemusser/topichub/internal/app/system/auth"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeStream)
	})

	return r
}
