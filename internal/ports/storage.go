package ports

import "context"

// Storage is the persisted key/value capability. Values are opaque bytes and there
// are no transactional guarantees across keys.
type Storage interface {
	// Get returns nil, nil when the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Remove is idempotent; removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}
