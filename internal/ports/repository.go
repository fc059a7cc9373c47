package ports

import "context"

// KeyValueStore is the persistence medium behind the trade store. Values are
// UTF-8 text (JSON arrays of trades, or a bare username string).
type KeyValueStore interface {
	// Get returns the value stored at key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set stores value at key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists stored keys that start with prefix, in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Close releases the underlying resources.
	Close() error
}
