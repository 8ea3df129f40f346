package cache

import (
	"context"
	"time"
)

// Cache is a freshness-checked key/value store. Get reports a hit only when an
// entry exists and was stored less than maxAge ago.
type Cache[V any] interface {
	Get(ctx context.Context, key string, maxAge time.Duration) (V, bool)
	Set(ctx context.Context, key string, value V)
}

// fresh reports whether an entry stored at storedAt is still usable at now.
// The boundary is exclusive: an entry exactly maxAge old is stale.
func fresh(storedAt, now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return now.Sub(storedAt) < maxAge
}
