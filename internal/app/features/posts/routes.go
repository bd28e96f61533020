// internal/app/features/posts/routes.go
package posts

import (
	"github.com/go-chi/chi/v5"

	"github.com/dalemusser/topichub/internal/app/system/auth"
)

// Routes returns the post router, intended to be mounted at
// /topics/{topicID}/posts so handlers can read both URL params.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Post("/", h.ServeCreate)

		pr.Route("/{postID}", func(sr chi.Router) {
			sr.Get("/", h.ServeGet)
			sr.Put("/", h.ServeEdit)
			sr.Delete("/", h.ServeDelete)
			sr.Post("/image", h.ServeUploadImage)
		})
	})

	return r
}
