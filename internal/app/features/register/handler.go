// internal/app/features/register/handler.go
package register

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dalemusser/topichub/internal/app/features/shared"
	"github.com/dalemusser/topichub/internal/app/store/emailverify"
	users "github.com/dalemusser/topichub/internal/app/store/users"
	"github.com/dalemusser/topichub/internal/app/system/auditlog"
	"github.com/dalemusser/topichub/internal/app/system/mailer"
	"github.com/dalemusser/topichub/internal/domain/models"
)

const siteName = "TopicHub"

type Handler struct {
	Log         *zap.Logger
	Users       *users.Store
	EmailVerify *emailverify.Store
	Mailer      *mailer.Mailer
	Audit       *auditlog.Logger
	BaseURL     string // base URL for verification links, e.g. "https://topichub.example.com"
}

func NewHandler(userStore *users.Store, verifyStore *emailverify.Store, m *mailer.Mailer, audit *auditlog.Logger, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{
		Log:         logger,
		Users:       userStore,
		EmailVerify: verifyStore,
		Mailer:      m,
		Audit:       audit,
		BaseURL:     baseURL,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resendRequest struct {
	Email string `json:"email"`
}

// ServeRegister handles POST /register. It creates an unverified password
// account and emails a verification link.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		shared.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	u, err := h.Users.CreatePassword(ctx, req.Email, req.Password)
	if errors.Is(err, users.ErrWeakPassword) {
		shared.Error(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if errors.Is(err, users.ErrDuplicateEmail) {
		shared.Error(w, http.StatusConflict, "an account with this email already exists")
		return
	}
	if err != nil {
		h.Log.Error("register: create account", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "registration failed")
		return
	}

	if err := h.sendVerification(r, u); err != nil {
		h.Log.Error("register: send verification",
			zap.String("email", u.Email),
			zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not send verification email")
		return
	}

	h.Audit.Registered(ctx, r, u.Email, models.AuthMethodPassword)

	shared.JSON(w, http.StatusCreated, map[string]string{
		"status": "verification_sent",
		"email":  u.Email,
	})
}

// ServeResend handles POST /register/resend. It mints a fresh verification
// link for an unverified account. The response is the same whether or not
// the account exists, so the endpoint does not reveal which emails have accounts.
func (h *Handler) ServeResend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req resendRequest
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
		h.Log.Error("resend: user lookup", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "resend failed")
		return
	}

	if u != nil && !u.EmailVerified {
		if err := h.sendVerification(r, *u); err != nil {
			if errors.Is(err, emailverify.ErrTooManyResends) {
				shared.Error(w, http.StatusTooManyRequests, "too many resend requests; try again later")
				return
			}
			h.Log.Error("resend: send verification",
				zap.String("email", u.Email),
				zap.Error(err))
			shared.Error(w, http.StatusInternalServerError, "resend failed")
			return
		}
	}

	shared.JSON(w, http.StatusOK, map[string]string{"status": "verification_sent"})
}

// ServeVerify handles GET /register/verify?token=. The token comes from the
// emailed link; a valid one marks the account verified and is consumed.
func (h *Handler) ServeVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := r.URL.Query().Get("token")
	if token == "" {
		shared.Error(w, http.StatusBadRequest, "missing verification token")
		return
	}

	v, err := h.EmailVerify.VerifyToken(ctx, token)
	if errors.Is(err, emailverify.ErrNotFound) {
		shared.Error(w, http.StatusBadRequest, "invalid or expired verification link")
		return
	}
	if err != nil {
		h.Log.Error("verify: token lookup", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "verification failed")
		return
	}

	if err := h.Users.VerifyEmail(ctx, v.UserID); err != nil {
		h.Log.Error("verify: mark verified",
			zap.String("email", v.Email),
			zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "verification failed")
		return
	}

	h.Audit.EmailVerified(ctx, r, v.Email)

	shared.JSON(w, http.StatusOK, map[string]string{
		"status": "verified",
		"email":  v.Email,
	})
}

func (h *Handler) sendVerification(r *http.Request, u models.User) error {
	v, err := h.EmailVerify.Create(r.Context(), u.ID, u.Email)
	if err != nil {
		return err
	}

	email := mailer.BuildVerificationEmail(mailer.VerificationEmailData{
		SiteName:   siteName,
		VerifyLink: h.BaseURL + "/register/verify?token=" + v.Token,
		ExpiresIn:  "24 hours",
	})
	email.To = u.Email
	return h.Mailer.Send(email)
}
