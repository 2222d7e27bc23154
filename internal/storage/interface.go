package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned by Open when the key has no object.
var ErrNotExist = errors.New("object does not exist")

// Storage is the receipt archive. Keys are slash separated paths such as
// "receipts/42.pdf".
type Storage interface {
	// Exists reports whether an object is stored under key and its size
	Exists(ctx context.Context, key string) (bool, int64, error)

	// Save writes the object, replacing any previous content
	Save(ctx context.Context, key, contentType string, r io.Reader) error

	// Open returns a reader for the object or ErrNotExist
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	Delete(ctx context.Context, key string) error
}
