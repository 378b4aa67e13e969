// Package storage adapts object storage backends for product images.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrEmptyKey is returned when an object key is blank.
var ErrEmptyKey = errors.New("storage: empty object key")

// Object describes an upload.
type Object struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
}

// Store is the object storage surface the catalog relies on. Keys are
// bucket-relative paths such as "product-images/<id>-<millis>.jpg".
type Store interface {
	Upload(ctx context.Context, obj Object) error
	PublicURL(key string) (string, error)
	Remove(ctx context.Context, key string) error
	// KeyFromURL maps a URL previously returned by PublicURL back to its key.
	KeyFromURL(rawURL string) (string, bool)
}
