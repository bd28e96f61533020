// internal/app/features/passwordreset/routes.go
package passwordreset

import (
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ServeRequest)
	r.Post("/confirm", h.ServeConfirm)
	return r
}
