// internal/app/features/topics/handler.go
package topics

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dalemusser/topichub/internal/app/features/shared"
	topicsvc "github.com/dalemusser/topichub/internal/app/service/topics"
	"github.com/dalemusser/topichub/internal/app/store/audit"
	"github.com/dalemusser/topichub/internal/app/system/auditlog"
	"github.com/dalemusser/topichub/internal/app/system/auth"
	"github.com/dalemusser/topichub/internal/app/topicfeed"
	"github.com/dalemusser/topichub/internal/domain/apperror"
)

type Handler struct {
	Log     *zap.Logger
	Service *topicsvc.Service
	Feed    *topicfeed.Engine
	Audit   *auditlog.Logger
}

func NewHandler(service *topicsvc.Service, feed *topicfeed.Engine, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:     logger,
		Service: service,
		Feed:    feed,
		Audit:   audit,
	}
}

type topicRequest struct {
	Name string `json:"name"`
}

type memberRequest struct {
	Email string `json:"email"`
}

// ServeList handles GET /topics. The listing merges owned, reading and
// writing topics, deduplicated with owner access winning over writer over
// reader.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	views, err := h.Feed.Snapshot(r.Context(), u.Email)
	if err != nil {
		shared.AppError(w, h.Log, err)
		return
	}
	shared.JSON(w, http.StatusOK, map[string]any{"topics": views})
}

// ServeCreate handles POST /topics.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var req topicRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		shared.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	t, err := h.Service.CreateTopic(r.Context(), u.Email, req.Name)
	if err != nil {
		shared.AppError(w, h.Log, err)
		return
	}

	h.Audit.TopicCreated(r.Context(), r, u.Email, t.ID, t.Name)
	shared.JSON(w, http.StatusCreated, t)
}

// ServeGet handles GET /topics/{topicID}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	topicID := chi.URLParam(r, "topicID")

	tv, err := h.Service.GetTopic(r.Context(), u.Email, topicID)
	if err != nil {
		shared.AppError(w, h.Log, err)
		return
	}
	if tv == nil {
		shared.Error(w, http.StatusNotFound, "topic not found")
		return
	}
	shared.JSON(w, http.StatusOK, tv)
}

// ServeEdit handles PUT /topics/{topicID}.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	topicID := chi.URLParam(r, "topicID")

	var req topicRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		shared.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := h.Service.EditTopic(r.Context(), u.Email, topicID, req.Name); err != nil {
		h.denied(r, u.Email, topicID, "edit_topic", err)
		shared.AppError(w, h.Log, err)
		return
	}

	h.Audit.TopicUpdated(r.Context(), r, u.Email, topicID, req.Name)
	shared.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// ServeDelete handles DELETE /topics/{topicID}. Only the owner may delete;
// post images are cleaned up after the document is gone.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	topicID := chi.URLParam(r, "topicID")

	if err := h.Service.RemoveTopic(r.Context(), u.Email, topicID); err != nil {
		h.denied(r, u.Email, topicID, "delete_topic", err)
		shared.AppError(w, h.Log, err)
		return
	}

	h.Audit.TopicDeleted(r.Context(), r, u.Email, topicID)
	shared.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ServeAddMember handles POST /topics/{topicID}/readers and .../writers.
func (h *Handler) ServeAddMember(field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, _ := auth.CurrentUser(r)
		topicID := chi.URLParam(r, "topicID")

		var req memberRequest
		if err := shared.Decode(r, &req); err != nil {
			shared.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Email == "" {
			shared.Error(w, http.StatusBadRequest, "email is required")
			return
		}

		var err error
		if field == topicsvc.FieldReaders {
			err = h.Service.AddReader(r.Context(), u.Email, topicID, req.Email)
		} else {
			err = h.Service.AddWriter(r.Context(), u.Email, topicID, req.Email)
		}
		if err != nil {
			h.denied(r, u.Email, topicID, "add_"+field, err)
			shared.AppError(w, h.Log, err)
			return
		}

		h.Audit.MemberChanged(r.Context(), r, audit.EventMemberAdded, u.Email, topicID, field, req.Email)
		shared.JSON(w, http.StatusOK, map[string]string{"status": "added"})
	}
}

// ServeRemoveMember handles DELETE /topics/{topicID}/readers/{email} and
// .../writers/{email}.
func (h *Handler) ServeRemoveMember(field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, _ := auth.CurrentUser(r)
		topicID := chi.URLParam(r, "topicID")
		member := chi.URLParam(r, "email")

		var err error
		if field == topicsvc.FieldReaders {
			err = h.Service.RemoveReader(r.Context(), u.Email, topicID, member)
		} else {
			err = h.Service.RemoveWriter(r.Context(), u.Email, topicID, member)
		}
		if err != nil {
			h.denied(r, u.Email, topicID, "remove_"+field, err)
			shared.AppError(w, h.Log, err)
			return
		}

		h.Audit.MemberChanged(r.Context(), r, audit.EventMemberRemoved, u.Email, topicID, field, member)
		shared.JSON(w, http.StatusOK, map[string]string{"status": "removed"})
	}
}

// denied records an access-denied audit event when the service refused the
// caller. Other failures are left to the response mapper.
func (h *Handler) denied(r *http.Request, email, topicID, operation string, err error) {
	if errors.Is(err, apperror.ErrPermissionDenied) {
		h.Audit.AccessDenied(r.Context(), r, email, topicID, operation)
	}
}
