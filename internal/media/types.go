package media

import (
	"context"
	"io"
)

// Image is a stored image loaded into memory.
type Image struct {
	Key  string
	Body []byte
}

// StorageProvider abstracts the object store holding captured images.
type StorageProvider interface {
	// List returns every key in the store, in no particular order.
	List(ctx context.Context) ([]string, error)
	// Open returns a reader for the given storage key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// AccessPath returns a consumer-accessible reference for a storage key.
	// The format depends on the backend (e.g. public URL, file path).
	AccessPath(key string) string
}
