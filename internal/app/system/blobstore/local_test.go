package blobstore_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dalemusser/topichub/internal/app/system/blobstore"
	"go.uber.org/zap"
)

func newLocal(t *testing.T) *blobstore.Local {
	t.Helper()
	l, err := blobstore.NewLocal(t.TempDir(), "/media", zap.NewNop())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	return l
}

func TestLocal_PutDeleteRoundTrip(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	url, err := l.Put(ctx, "topics/t1/p1_123_photo.jpg", strings.NewReader("jpegbytes"), "image/jpeg")
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if url != "/media/topics/t1/p1_123_photo.jpg" {
		t.Errorf("unexpected url %q", url)
	}

	path, ok := l.PathFromURL(url)
	if !ok {
		t.Fatal("expected PathFromURL to recognize the url")
	}
	if path != "topics/t1/p1_123_photo.jpg" {
		t.Errorf("unexpected path %q", path)
	}

	if err := l.Delete(ctx, path); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	// Deleting again is not an error.
	if err := l.Delete(ctx, path); err != nil {
		t.Errorf("second Delete failed: %v", err)
	}
}

func TestLocal_PutWritesFile(t *testing.T) {
	dir := t.TempDir()
	l, err := blobstore.NewLocal(dir, "/media", zap.NewNop())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	if _, err := l.Put(context.Background(), "topics/t1/a.png", strings.NewReader("png"), "image/png"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "topics", "t1", "a.png"))
	if err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}
	if string(data) != "png" {
		t.Errorf("unexpected file contents %q", data)
	}
}

func TestLocal_PathFromURL_ForeignURL(t *testing.T) {
	l := newLocal(t)

	if _, ok := l.PathFromURL("https://other.example.com/img.png"); ok {
		t.Error("expected foreign URL to be rejected")
	}
	if _, ok := l.PathFromURL(""); ok {
		t.Error("expected empty URL to be rejected")
	}
}

func TestLocal_PathTraversalConfined(t *testing.T) {
	l := newLocal(t)

	// Traversal segments are cleaned away, never escaping the root.
	url, err := l.Put(context.Background(), "../../etc/passwd", strings.NewReader("x"), "text/plain")
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if !strings.HasPrefix(url, "/media/") {
		t.Errorf("unexpected url %q", url)
	}
}

func TestDeleteURL_IgnoresForeignURLs(t *testing.T) {
	l := newLocal(t)

	if err := blobstore.DeleteURL(context.Background(), l, "https://other.example.com/img.png"); err != nil {
		t.Errorf("expected foreign URL delete to be a no-op, got %v", err)
	}
	if err := blobstore.DeleteURL(context.Background(), l, ""); err != nil {
		t.Errorf("expected empty URL delete to be a no-op, got %v", err)
	}
}
