// Package blob abstracts the object store holding audio masters and artwork.
// The engine's contract with it is deliberately narrow: upload a file, delete
// everything under a prefix.
package blob

import (
	"context"
	"io"
)

// Store is the object storage contract.
type Store interface {
	// Upload stores the object under key and returns its public URL.
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	// DeletePrefix removes every object whose key starts with prefix and
	// returns how many objects were deleted.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}
