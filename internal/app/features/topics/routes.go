// internal/app/features/topics/routes.go
package topics

import (
	"github.com/go-chi/chi/v5"

	topicsvc "github.com/dalemusser/topichub/internal/app/service/topics"
	"github.com/dalemusser/topichub/internal/app/system/auth"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Post("/", h.ServeCreate)

		pr.Route("/{topicID}", func(tr chi.Router) {
			tr.Get("/", h.ServeGet)
			tr.Put("/", h.ServeEdit)
			tr.Delete("/", h.ServeDelete)

			tr.Post("/readers", h.ServeAddMember(topicsvc.FieldReaders))
			tr.Delete("/readers/{email}", h.ServeRemoveMember(topicsvc.FieldReaders))
			tr.Post("/writers", h.ServeAddMember(topicsvc.FieldWriters))
			tr.Delete("/writers/{email}", h.ServeRemoveMember(topicsvc.FieldWriters))
		})
	})

	return r
}
