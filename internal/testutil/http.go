package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/dalemusser/topichub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID    string
	Email string
	Name  string
}

// UserA returns a TestUser for the canonical first identity.
func UserA() TestUser {
	return TestUser{ID: primitive.NewObjectID().Hex(), Email: "a@x.com", Name: "User A"}
}

// UserB returns a TestUser for the canonical second identity.
func UserB() TestUser {
	return TestUser{ID: primitive.NewObjectID().Hex(), Email: "b@x.com", Name: "User B"}
}

// WithUser adds a user to the request context for testing authenticated
// handlers, bypassing the session middleware.
func WithUser(r *http.Request, user TestUser) *http.Request {
	su := &auth.SessionUser{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}
	return auth.WithTestUser(r, su)
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return WithUser(req, user)
}
