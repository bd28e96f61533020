// internal/app/store/passwordreset/store_test.go
package passwordreset

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/topichub/internal/testutil"
)

func TestCreateAndConsume(t *testing.T) {
	db := testutil.SetupTestDB(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := New(db)
	userID := primitive.NewObjectID()

	rst, err := store.Create(ctx, userID, "ada@example.com")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(rst.Token) != TokenLength*2 {
		t.Fatalf("token length = %d, want %d", len(rst.Token), TokenLength*2)
	}

	got, err := store.Consume(ctx, rst.Token)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if got.UserID != userID || got.Email != "ada@example.com" {
		t.Fatalf("consumed record = %+v", got)
	}

	// Tokens are single use.
	if _, err := store.Consume(ctx, rst.Token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second consume err = %v, want ErrNotFound", err)
	}
}

func TestConsumeUnknown(t *testing.T) {
	db := testutil.SetupTestDB(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := New(db)

	if _, err := store.Consume(ctx, "deadbeef"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("short token err = %v, want ErrNotFound", err)
	}

	fake := make([]byte, TokenLength*2)
	for i := range fake {
		fake[i] = 'a'
	}
	if _, err := store.Consume(ctx, string(fake)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown token err = %v, want ErrNotFound", err)
	}
}

func TestRepeatRequestReplacesToken(t *testing.T) {
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
		t.Fatalf("repeat Create: %v", err)
	}
	if first.Token == second.Token {
		t.Fatal("repeat request should mint a new token")
	}
	if second.RequestCount != 1 {
		t.Fatalf("request count = %d, want 1", second.RequestCount)
	}

	// Old token is invalidated by the replacement.
	if _, err := store.Consume(ctx, first.Token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old token err = %v, want ErrNotFound", err)
	}
	if _, err := store.Consume(ctx, second.Token); err != nil {
		t.Fatalf("new token consume: %v", err)
	}
}

func TestRequestRateLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := New(db)
	userID := primitive.NewObjectID()

	for i := 0; i <= MaxRequests; i++ {
		if _, err := store.Create(ctx, userID, "ada@example.com"); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}
	if _, err := store.Create(ctx, userID, "ada@example.com"); !errors.Is(err, ErrTooManyRequests) {
		t.Fatalf("err = %v, want ErrTooManyRequests", err)
	}
}
