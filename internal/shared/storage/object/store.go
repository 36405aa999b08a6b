package object

import (
	"context"
	"io"
)

// Replicator copies a placed file to secondary storage under key.
type Replicator interface {
	Replicate(ctx context.Context, key string, contentType string, r io.Reader) (sizeBytes int64, err error)
}
