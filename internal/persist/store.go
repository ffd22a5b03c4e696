// Package persist snapshots room logs into a keyed blob store and reloads
// them at boot. Failures are logged; memory stays authoritative.
package persist

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNotFound   = errors.New("blob not found")
	ErrInvalidKey = errors.New("invalid blob key")
)

// BlobStore keeps opaque bytes by key.
type BlobStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Close() error
}

func checkKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return ErrInvalidKey
	}
	return nil
}
