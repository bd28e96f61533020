// internal/app/features/passwordreset/handler_test.go
package passwordreset

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/dalemusser/topichub/internal/app/store/passwordreset"
	users "github.com/dalemusser/topichub/internal/app/store/users"
	"github.com/dalemusser/topichub/internal/app/system/mailer"
	"github.com/dalemusser/topichub/internal/testutil"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := NewHandler(
		users.New(db),
		passwordreset.New(db),
		mailer.New(mailer.Config{}, zap.NewNop()), // log-only mode
		nil,
		"http://localhost:8080",
		zap.NewNop(),
	)
	return h
}

func postJSON(router http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequestAndConfirm(t *testing.T) {
	h := newTestHandler(t)
	router := Routes(h)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := h.Users.CreatePassword(ctx, "ada@example.com", "oldpassword")
	if err != nil {
		t.Fatalf("CreatePassword: %v", err)
	}

	rec := postJSON(router, "/", `{"email":"ada@example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("request status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Replace the pending reset so we know the token, then confirm.
	reset, err := h.Resets.Create(ctx, u.ID, u.Email)
	if err != nil {
		t.Fatalf("Create reset: %v", err)
	}

	rec = postJSON(router, "/confirm", `{"token":"`+reset.Token+`","password":"newpassword"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm status = %d, body = %s", rec.Code, rec.Body.String())
	}

	got, err := h.Users.GetByEmail(ctx, "ada@example.com")
	if err != nil || got == nil {
		t.Fatalf("GetByEmail: %v, %v", got, err)
	}
	if !h.Users.CheckPassword(got, "newpassword") {
		t.Fatal("new password should check out")
	}
	if h.Users.CheckPassword(got, "oldpassword") {
		t.Fatal("old password should no longer work")
	}

	// Tokens are single use.
	rec = postJSON(router, "/confirm", `{"token":"`+reset.Token+`","password":"anotherpass"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("reused token status = %d, want 400", rec.Code)
	}
}

func TestRequestDoesNotRevealAccounts(t *testing.T) {
	h := newTestHandler(t)
	router := Routes(h)

	// Unknown accounts get the same response as real ones.
	rec := postJSON(router, "/", `{"email":"ghost@example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestConfirmBadToken(t *testing.T) {
	h := newTestHandler(t)
	router := Routes(h)

	rec := postJSON(router, "/confirm", `{"token":"bogus","password":"longenough"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestConfirmWeakPassword(t *testing.T) {
	h := newTestHandler(t)
	router := Routes(h)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := h.Users.CreatePassword(ctx, "ada@example.com", "oldpassword")
	if err != nil {
		t.Fatalf("CreatePassword: %v", err)
	}
	reset, err := h.Resets.Create(ctx, u.ID, u.Email)
	if err != nil {
		t.Fatalf("Create reset: %v", err)
	}

	rec := postJSON(router, "/confirm", `{"token":"`+reset.Token+`","password":"short"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	// A rejected password must not consume the token.
	rec = postJSON(router, "/confirm", `{"token":"`+reset.Token+`","password":"longenough"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}
