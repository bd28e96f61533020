// Package blobstore abstracts where post images live. The store hands
// back a public URL on upload and can map that URL back to a storage
// path, which is what the delete-after-replace flow needs.
package blobstore

import (
	"context"
	"io"
)

// Store is a blob backend. Paths are slash-separated keys like
// "topics/<topic>/<post>_<ts>_<name>".
type Store interface {
	// Put uploads the blob and returns the URL it is served from.
	Put(ctx context.Context, path string, r io.Reader, contentType string) (string, error)
	// Delete removes the blob at the given path.
	Delete(ctx context.Context, path string) error
	// PathFromURL maps a URL previously returned by Put back to its
	// storage path. Returns false for URLs this store did not issue.
	PathFromURL(url string) (string, bool)
}

// DeleteURL resolves a URL to its path and deletes the blob. URLs from
// a different store (or an older deployment) are ignored.
func DeleteURL(ctx context.Context, s Store, url string) error {
	if url == "" {
		return nil
	}
	path, ok := s.PathFromURL(url)
	if !ok {
		return nil
	}
	return s.Delete(ctx, path)
}

// Deleter adapts a Store for callers that only delete by URL.
type Deleter struct {
	Store Store
}

func (d Deleter) DeleteURL(ctx context.Context, url string) error {
	return DeleteURL(ctx, d.Store, url)
}
