// Package storage places normalized photos into durable remote storage
// under deterministic, collision-safe paths.
package storage

import "context"

// Provider is the opaque durable object store. Given bytes and a desired
// path it persists them and returns the canonical stored name, renaming
// rather than overwriting on any residual path collision.
type Provider interface {
	Upload(ctx context.Context, path string, contents []byte) (string, error)
}

// StoredSubmission is the result artifact for one accepted photo.
type StoredSubmission struct {
	Path               string
	StoredName         string
	PerformanceDisplay string
}
