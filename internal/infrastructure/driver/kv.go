package driver

import "context"

// KeyValueDB define a key-value storage interface with list values
type KeyValueDB interface {
	// Push append values to the list stored at key
	Push(ctx context.Context, key string, values ...string) error
	// Range all values of the list stored at key, in insertion order
	Range(ctx context.Context, key string) ([]string, error)
	// RemoveValues remove one occurrence of each value atomically
	RemoveValues(ctx context.Context, key string, values ...string) error
	Len(ctx context.Context, key string) (int64, error)
	Ping() error
}
