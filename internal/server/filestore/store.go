// Package filestore keeps ebook binaries in an S3-compatible bucket.
// Only metadata lives in Postgres; the object key is the ebook's remote
// file id.
package filestore

import (
	"context"
	"io"
	"path"
	"strings"
	"time"
)

// Object describes one stored file.
type Object struct {
	Key          string
	Name         string
	Size         int64
	LastModified time.Time
}

// Store is the part of the object store the services depend on.
type Store interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]Object, error)
	Presign(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// LibraryPrefix is the folder holding one user's books.
func LibraryPrefix(root, userID string) string {
	if root != "" && !strings.HasSuffix(root, "/") {
		root += "/"
	}
	return root + userID + "/"
}

// IsEbookKey reports whether key names a pdf or epub file.
func IsEbookKey(key string) bool {
	if strings.HasSuffix(key, "/") {
		return false
	}
	switch strings.ToLower(path.Ext(key)) {
	case ".pdf", ".epub":
		return true
	}
	return false
}
