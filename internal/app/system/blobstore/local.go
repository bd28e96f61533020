// internal/app/system/blobstore/local.go
package blobstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dalemusser/waffle/pantry/fileserver"
	"go.uber.org/zap"
)

// Local stores blobs on the filesystem and serves them from a URL
// prefix mounted on the router. Good for dev and single-node deploys.
type Local struct {
	root    string // filesystem directory
	baseURL string // e.g. "/media" or "https://host/media"
	log     *zap.Logger
}

func NewLocal(root, baseURL string, logger *zap.Logger) (*Local, error) {
	if root == "" {
		return nil, fmt.Errorf("blobstore: local root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: create root: %w", err)
	}
	return &Local{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     logger,
	}, nil
}

// cleanPath confines a key to the root, stripping any traversal.
func cleanPath(path string) (string, error) {
	clean := strings.TrimLeft(filepath.ToSlash(filepath.Clean("/"+path)), "/")
	if clean == "" {
		return "", fmt.Errorf("blobstore: empty path")
	}
	return clean, nil
}

func (l *Local) fullPath(path string) (string, error) {
	clean, err := cleanPath(path)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}

func (l *Local) Put(ctx context.Context, path string, r io.Reader, contentType string) (string, error) {
	clean, err := cleanPath(path)
	if err != nil {
		return "", err
	}
	full := filepath.Join(l.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("blobstore: mkdir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("blobstore: create: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("blobstore: write: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("blobstore: close: %w", err)
	}

	l.log.Debug("blob stored",
		zap.String("path", clean),
		zap.String("content_type", contentType))
	return l.baseURL + "/" + clean, nil
}

func (l *Local) Delete(ctx context.Context, path string) error {
	full, err := l.fullPath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("blobstore: remove: %w", err)
	}
	return nil
}

func (l *Local) PathFromURL(url string) (string, bool) {
	rest, ok := strings.CutPrefix(url, l.baseURL+"/")
	if !ok || rest == "" {
		return "", false
	}
	return rest, true
}

// Handler serves the stored blobs. Mount it at the path component of
// the base URL.
func (l *Local) Handler(prefix string) http.Handler {
	return fileserver.Handler(prefix, l.root)
}
