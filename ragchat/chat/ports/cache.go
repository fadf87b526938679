package chatports

import "context"

// Cache stores rendered predictions, such as condensed questions, keyed by a hash of the
// template and its variables. Entries expire after ttlSeconds; zero keeps them until evicted.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
