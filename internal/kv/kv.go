// Package kv defines the key-value persistence port the ledger saves through.
package kv

import "context"

// Store is the outbound persistence port. The ledger stores its whole
// serialized collection under one fixed key; implementations only need to
// round-trip opaque bytes.
type Store interface {
	// Load returns the value stored under key. ok is false when the key is
	// absent; err reports storage-level failures only.
	Load(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Save writes value under key, replacing any previous value atomically.
	Save(ctx context.Context, key string, value []byte) error
}
