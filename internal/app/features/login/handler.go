// internal/app/features/login/handler.go
package login

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/dalemusser/topichub/internal/app/features/shared"
	"github.com/dalemusser/topichub/internal/app/system/auditlog"
	"github.com/dalemusser/topichub/internal/app/system/auth"
	"github.com/dalemusser/topichub/internal/app/system/ratelimit"
	"github.com/dalemusser/topichub/internal/domain/models"
)

// UserStore is the account lookup surface the login flow needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	CheckPassword(u *models.User, password string) bool
}

type Handler struct {
	Log        *zap.Logger
	Users      UserStore
	SessionMgr *auth.SessionManager
	Tokens     *auth.TokenService
	Limiter    *ratelimit.LoginLimiter
	Audit      *auditlog.Logger
}

func NewHandler(users UserStore, sessionMgr *auth.SessionManager, tokens *auth.TokenService, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		Users:      users,
		SessionMgr: sessionMgr,
		Tokens:     tokens,
		Limiter:    limiter,
		Audit:      audit,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
}

// ServeLogin handles POST /login. Successful logins get both a session
// cookie and a bearer token, so browser and API clients use the same
// endpoint.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		shared.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	if allowed, _ := h.Limiter.Check(r, req.Email); !allowed {
		h.Audit.LoginFailedRateLimit(ctx, r, req.Email)
		shared.Error(w, http.StatusTooManyRequests, "too many login attempts; try again later")
		return
	}

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		h.Log.Error("login: user lookup", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "login failed")
		return
	}
	if u == nil {
		h.Audit.LoginFailedUserNotFound(ctx, r, req.Email)
		shared.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if !h.Users.CheckPassword(u, req.Password) {
		h.Audit.LoginFailedWrongPassword(ctx, r, u.Email)
		shared.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if !u.EmailVerified {
		h.Audit.LoginFailedUnverified(ctx, r, u.Email)
		shared.Error(w, http.StatusForbidden, "email address not verified")
		return
	}

	su := &auth.SessionUser{ID: u.ID.Hex(), Name: u.FullName, Email: u.Email}
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.Log.Error("login: save session", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "login failed")
		return
	}

	// Token auth is optional; without a configured secret the session
	// cookie is the only credential.
	var token string
	if h.Tokens != nil {
		t, err := h.Tokens.Generate(su.ID)
		if err != nil {
			h.Log.Error("login: generate token", zap.Error(err))
			shared.Error(w, http.StatusInternalServerError, "login failed")
			return
		}
		token = t
	}

	h.Limiter.ResetEmail(u.Email)
	h.Audit.LoginSuccess(ctx, r, u.Email, u.AuthMethod)

	shared.JSON(w, http.StatusOK, loginResponse{
		Token: token,
		User:  userResponse{ID: su.ID, Email: u.Email, FullName: u.FullName},
	})
}
