// internal/app/features/passwordreset/handler.go
package passwordreset

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dalemusser/topichub/internal/app/features/shared"
	"github.com/dalemusser/topichub/internal/app/store/passwordreset"
	users "github.com/dalemusser/topichub/internal/app/store/users"
	"github.com/dalemusser/topichub/internal/app/system/auditlog"
	"github.com/dalemusser/topichub/internal/app/system/mailer"
	"github.com/dalemusser/topichub/internal/domain/models"
)

const siteName = "TopicHub"

type Handler struct {
	Log     *zap.Logger
	Users   *users.Store
	Resets  *passwordreset.Store
	Mailer  *mailer.Mailer
	Audit   *auditlog.Logger
	BaseURL string // base URL for reset links, e.g. "https://topichub.example.com"
}

func NewHandler(userStore *users.Store, resetStore *passwordreset.Store, m *mailer.Mailer, audit *auditlog.Logger, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		Log:     logger,
		Users:   userStore,
		Resets:  resetStore,
		Mailer:  m,
		Audit:   audit,
		BaseURL: baseURL,
	}
}

type requestRequest struct {
	Email string `json:"email"`
}

type confirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ServeRequest handles POST /password-reset. It emails a reset link to the
// account, if one exists. The response is the same whether or not the account
// exists, so the endpoint does not reveal which emails have accounts.
func (h *Handler) ServeRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req requestRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		shared.Error(w, http.StatusBadRequest, "email is required")
		return
	}

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		h.Log.Error("password reset: user lookup", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "password reset failed")
		return
	}

	// Only password accounts can reset; OAuth accounts have no password to
	// reset and get the same opaque response as unknown emails.
	if u != nil && u.AuthMethod == models.AuthMethodPassword {
		if err := h.sendReset(r, *u); err != nil {
			if errors.Is(err, passwordreset.ErrTooManyRequests) {
				shared.Error(w, http.StatusTooManyRequests, "too many reset requests; try again later")
				return
			}
			h.Log.Error("password reset: send link",
				zap.String("email", u.Email),
				zap.Error(err))
			shared.Error(w, http.StatusInternalServerError, "password reset failed")
			return
		}
		h.Audit.PasswordResetRequested(ctx, r, u.Email)
	}

	shared.JSON(w, http.StatusOK, map[string]string{"status": "reset_sent"})
}

// ServeConfirm handles POST /password-reset/confirm. The token comes from the
// emailed link; a valid one replaces the account's password and is consumed.
func (h *Handler) ServeConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req confirmRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Token == "" || req.Password == "" {
		shared.Error(w, http.StatusBadRequest, "token and password are required")
		return
	}
	if len(req.Password) < 8 {
		shared.Error(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	reset, err := h.Resets.Consume(ctx, req.Token)
	if errors.Is(err, passwordreset.ErrNotFound) {
		shared.Error(w, http.StatusBadRequest, "invalid or expired reset link")
		return
	}
	if err != nil {
		h.Log.Error("password reset: token lookup", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "password reset failed")
		return
	}

	if err := h.Users.SetPassword(ctx, reset.UserID, req.Password); err != nil {
		if errors.Is(err, users.ErrWeakPassword) {
			shared.Error(w, http.StatusBadRequest, "password must be at least 8 characters")
			return
		}
		h.Log.Error("password reset: set password",
			zap.String("email", reset.Email),
			zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "password reset failed")
		return
	}

	h.Audit.PasswordReset(ctx, r, reset.Email)

	shared.JSON(w, http.StatusOK, map[string]string{
		"status": "password_reset",
		"email":  reset.Email,
	})
}

func (h *Handler) sendReset(r *http.Request, u models.User) error {
	reset, err := h.Resets.Create(r.Context(), u.ID, u.Email)
	if err != nil {
		return err
	}

	email := mailer.BuildPasswordResetEmail(mailer.PasswordResetEmailData{
		SiteName:  siteName,
		ResetLink: h.BaseURL + "/password-reset/confirm?token=" + reset.Token,
		ExpiresIn: "1 hour",
	})
	email.To = u.Email
	return h.Mailer.Send(email)
}
