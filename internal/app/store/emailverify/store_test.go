// internal/app/store/emailverify/store_test.go
package emailverify

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/topichub/internal/testutil"
)

func TestCreateAndVerifyToken(t *testing.T) {
	db := testutil.SetupTestDB(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := New(db)
	userID := primitive.NewObjectID()

	v, err := store.Create(ctx, userID, "ada@example.com")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(v.Token) != TokenLength*2 {
		t.Fatalf("token length = %d, want %d", len(v.Token), TokenLength*2)
	}

	got, err := store.VerifyToken(ctx, v.Token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if got.UserID != userID || got.Email != "ada@example.com" {
		t.Fatalf("verified record = %+v", got)
	}

	// Tokens are single use.
	if _, err := store.VerifyToken(ctx, v.Token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second verify err = %v, want ErrNotFound", err)
	}
}

func TestVerifyTokenUnknown(t *testing.T) {
	db := testutil.SetupTestDB(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := New(db)

	if _, err := store.VerifyToken(ctx, "deadbeef"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("short token err = %v, want ErrNotFound", err)
	}

	fake := make([]byte, TokenLength*2)
	for i := range fake {
		fake[i] = 'a'
	}
	if _, err := store.VerifyToken(ctx, string(fake)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown token err = %v, want ErrNotFound", err)
	}
}

func TestResendReplacesToken(t *testing.T) {
	db := testutil.SetupTestDB(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := New(db)
	userID := primitive.NewObjectID()

	first, err := store.Create(ctx, userID, "ada@example.com")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := store.Create(ctx, userID, "ada@example.com")
	if err != nil {
		t.Fatalf("resend Create: %v", err)
	}
	if first.Token == second.Token {
		t.Fatal("resend should mint a new token")
	}
	if second.ResendCount != 1 {
		t.Fatalf("resend count = %d, want 1", second.ResendCount)
	}

	// Old token is invalidated by the replacement.
	if _, err := store.VerifyToken(ctx, first.Token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old token err = %v, want ErrNotFound", err)
	}
	if _, err := store.VerifyToken(ctx, second.Token); err != nil {
		t.Fatalf("new token verify: %v", err)
	}
}

func TestResendRateLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := New(db)
	userID := primitive.NewObjectID()

	for i := 0; i <= MaxResends; i++ {
		if _, err := store.Create(ctx, userID, "ada@example.com"); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}
	if _, err := store.Create(ctx, userID, "ada@example.com"); !errors.Is(err, ErrTooManyResends) {
		t.Fatalf("err = %v, want ErrTooManyResends", err)
	}
}
