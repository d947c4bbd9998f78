package archive

import (
	"context"
	"io"
)

const snapshotContentType = "application/json"

// Store holds dashboard result-set snapshots for retention. Backends are
// object stores; keys are opaque snapshot paths.
type Store interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Bucket() string
}
