package chatports

import "context"

// RateLimiter gates gateway calls per key, e.g. "completion". Engines built by one factory
// share a limiter, so the budget spans conversations. Callers invoke release when done.
type RateLimiter interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
