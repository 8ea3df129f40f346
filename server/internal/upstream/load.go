package upstream

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/taoscope/taoscope/server/internal/cache"
	"github.com/taoscope/taoscope/server/internal/metrics"
)

// loader couples a typed cache with miss collapsing and instrumentation.
type loader[T any] struct {
	source  string // metrics label for the upstream
	cache   cache.Cache[T]
	group   singleflight.Group
	metrics *metrics.Metrics
}

// load returns the cached value for key when it is younger than maxAge.
// Otherwise it runs fetch once for all concurrent callers of the same key and
// caches a successful result. fetch runs detached from the first caller's
// cancellation so one aborted request does not fail the others; the HTTP
// client timeout still bounds it.
func (l *loader[T]) load(ctx context.Context, key string, maxAge time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	family, _, _ := strings.Cut(key, ":")
	if v, ok := l.cache.Get(ctx, key, maxAge); ok {
		l.metrics.ObserveCache(family, true)
		return v, nil
	}
	l.metrics.ObserveCache(family, false)

	v, err, _ := l.group.Do(key, func() (any, error) {
		fctx := context.WithoutCancel(ctx)
		start := time.Now()
		v, err := fetch(fctx)
		if err != nil {
			l.metrics.ObserveUpstream(l.source, metrics.OutcomeError, time.Since(start))
			return v, err
		}
		l.metrics.ObserveUpstream(l.source, metrics.OutcomeOK, time.Since(start))
		l.cache.Set(fctx, key, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
