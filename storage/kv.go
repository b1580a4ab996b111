package storage

import "context"

// KV is the persistent key-value substrate both services sit on. Values are
// opaque strings; a missing key is reported through ok == false, not an
// error.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
