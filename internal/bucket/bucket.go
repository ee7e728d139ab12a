package bucket

import (
	"context"
	"errors"
)

var (
	// ErrUpload reports a failed object upload: transport failure or a
	// non-2xx response. Each call is a single best-effort round trip;
	// retrying is the caller's decision.
	ErrUpload = errors.New("bucket upload failure")

	// ErrDelete reports a failed object delete, analogously.
	ErrDelete = errors.New("bucket delete failure")
)

// Store is a single-object blob store keyed by filename. It has no
// transactional semantics: success is strictly binary per call.
type Store interface {
	// Upload writes data under key and returns the object's
	// fully-qualified location.
	Upload(ctx context.Context, key string, data []byte) (string, error)

	// Delete removes the object under key.
	Delete(ctx context.Context, key string) error
}

// Lister is implemented by backends that can enumerate their keys.
// The reconcile janitor uses it to find blobs with no matching asset row.
type Lister interface {
	ListKeys(ctx context.Context) ([]string, error)
}
