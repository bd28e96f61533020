// internal/app/features/posts/handler.go
package posts

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dalemusser/topichub/internal/app/features/shared"
	topicsvc "github.com/dalemusser/topichub/internal/app/service/topics"
	"github.com/dalemusser/topichub/internal/app/store/audit"
	"github.com/dalemusser/topichub/internal/app/system/auditlog"
	"github.com/dalemusser/topichub/internal/app/system/auth"
	"github.com/dalemusser/topichub/internal/app/system/blobstore"
	"github.com/dalemusser/topichub/internal/app/system/timeouts"
	"github.com/dalemusser/topichub/internal/domain/models"
)

type Handler struct {
	Log     *zap.Logger
	Service *topicsvc.Service
	Blobs   blobstore.Store // may be nil; image endpoints then return 503
	Audit   *auditlog.Logger
}

func NewHandler(service *topicsvc.Service, blobs blobstore.Store, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:     logger,
		Service: service,
		Blobs:   blobs,
		Audit:   auditLog,
	}
}

type postRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ServeCreate handles POST /topics/{topicID}/posts.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	topicID := chi.URLParam(r, "topicID")

	var req postRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		shared.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	p, err := h.Service.AddPost(r.Context(), u.Email, topicID, topicsvc.PostInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		shared.AppError(w, h.Log, err)
		return
	}

	h.Audit.PostChanged(r.Context(), r, audit.EventPostAdded, u.Email, topicID, p.ID)
	shared.JSON(w, http.StatusCreated, p)
}

// ServeGet handles GET /topics/{topicID}/posts/{postID}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	topicID := chi.URLParam(r, "topicID")
	postID := chi.URLParam(r, "postID")

	p, err := h.Service.GetPost(r.Context(), u.Email, topicID, postID)
	if err != nil {
		shared.AppError(w, h.Log, err)
		return
	}
	if p == nil {
		shared.Error(w, http.StatusNotFound, "post not found")
		return
	}
	shared.JSON(w, http.StatusOK, p)
}

// ServeEdit handles PUT /topics/{topicID}/posts/{postID}. Text fields only;
// the image is changed through the image endpoint.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	topicID := chi.URLParam(r, "topicID")
	postID := chi.URLParam(r, "postID")

	var req postRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		shared.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	current, err := h.Service.GetPost(r.Context(), u.Email, topicID, postID)
	if err != nil {
		shared.AppError(w, h.Log, err)
		return
	}
	if current == nil {
		shared.Error(w, http.StatusNotFound, "post not found")
		return
	}

	_, err = h.Service.EditPost(r.Context(), u.Email, topicID, models.Post{
		ID:          postID,
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    current.ImageURL,
	})
	if err != nil {
		shared.AppError(w, h.Log, err)
		return
	}

	h.Audit.PostChanged(r.Context(), r, audit.EventPostUpdated, u.Email, topicID, postID)
	shared.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// ServeDelete handles DELETE /topics/{topicID}/posts/{postID}. The post's
// image is cleaned up by the service after the document update.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	topicID := chi.URLParam(r, "topicID")
	postID := chi.URLParam(r, "postID")

	if err := h.Service.RemovePost(r.Context(), u.Email, topicID, postID); err != nil {
		shared.AppError(w, h.Log, err)
		return
	}

	h.Audit.PostChanged(r.Context(), r, audit.EventPostRemoved, u.Email, topicID, postID)
	shared.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ServeUploadImage handles POST /topics/{topicID}/posts/{postID}/image with
// a multipart "image" field. The new blob is uploaded first, then the post
// document is updated, and only then is the previous image deleted
// best-effort. A failed cleanup leaves an orphaned blob, never a post
// pointing at a missing one.
func (h *Handler) ServeUploadImage(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	topicID := chi.URLParam(r, "topicID")
	postID := chi.URLParam(r, "postID")

	if h.Blobs == nil {
		shared.Error(w, http.StatusServiceUnavailable, "image storage not configured")
		return
	}

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil || header == nil || header.Size == 0 {
		shared.Error(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	current, err := h.Service.GetPost(r.Context(), u.Email, topicID, postID)
	if err != nil {
		shared.AppError(w, h.Log, err)
		return
	}
	if current == nil {
		shared.Error(w, http.StatusNotFound, "post not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long)
	defer cancel()

	path := imagePath(topicID, postID, header.Filename)
	url, err := h.Blobs.Put(ctx, path, file, contentType)
	if err != nil {
		h.Log.Error("post image upload failed",
			zap.String("path", path),
			zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "image upload failed")
		return
	}

	prevURL, err := h.Service.EditPost(ctx, u.Email, topicID, models.Post{
		ID:          postID,
		Name:        current.Name,
		Description: current.Description,
		ImageURL:    url,
	})
	if err != nil {
		// The document update failed after the upload; drop the new blob so
		// it does not leak.
		if delErr := blobstore.DeleteURL(ctx, h.Blobs, url); delErr != nil {
			h.Log.Warn("orphaned image cleanup failed",
				zap.String("url", url),
				zap.Error(delErr))
		}
		shared.AppError(w, h.Log, err)
		return
	}

	if prevURL != "" && prevURL != url {
		if err := blobstore.DeleteURL(ctx, h.Blobs, prevURL); err != nil {
			h.Log.Warn("previous image cleanup failed",
				zap.String("url", prevURL),
				zap.Error(err))
		}
	}

	h.Audit.PostChanged(ctx, r, audit.EventPostUpdated, u.Email, topicID, postID)
	shared.JSON(w, http.StatusOK, map[string]string{"image_url": url})
}
