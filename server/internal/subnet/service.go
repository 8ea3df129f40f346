package subnet

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/taoscope/taoscope/pkg/types"
	"github.com/taoscope/taoscope/server/internal/upstream"
)

// PriceSource yields the base-asset snapshot. It never fails.
type PriceSource interface {
	Snapshot(ctx context.Context) types.PriceSnapshot
}

// TokenSource yields the ecosystem tokens keyed by subnet id.
type TokenSource interface {
	Tokens(ctx context.Context) upstream.Result[map[int]types.EcosystemToken]
}

// MetricSource yields network metrics keyed by subnet id.
type MetricSource interface {
	Metrics(ctx context.Context) upstream.Result[map[int]types.NetworkMetric]
}

// Service assembles listings and stats from the baseline and live sources.
type Service struct {
	baseline []types.Subnet
	price    PriceSource
	tokens   TokenSource
	metrics  MetricSource
}

// NewService returns a Service over baseline. The baseline slice is not
// modified.
func NewService(baseline []types.Subnet, price PriceSource, tokens TokenSource, metrics MetricSource) *Service {
	return &Service{baseline: baseline, price: price, tokens: tokens, metrics: metrics}
}

// Listing fetches all three sources concurrently and merges them.
func (s *Service) Listing(ctx context.Context, authenticated bool) []types.Subnet {
	var (
		price   types.PriceSnapshot
		tokens  upstream.Result[map[int]types.EcosystemToken]
		metrics upstream.Result[map[int]types.NetworkMetric]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { price = s.price.Snapshot(gctx); return nil })
	g.Go(func() error { tokens = s.tokens.Tokens(gctx); return nil })
	g.Go(func() error { metrics = s.metrics.Metrics(gctx); return nil })
	_ = g.Wait() // sources absorb their own failures

	return BuildListing(s.baseline, price, tokens, metrics, authenticated)
}

// Stats fetches the price and token sources concurrently and totals them.
func (s *Service) Stats(ctx context.Context) types.Stats {
	var (
		price  types.PriceSnapshot
		tokens upstream.Result[map[int]types.EcosystemToken]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { price = s.price.Snapshot(gctx); return nil })
	g.Go(func() error { tokens = s.tokens.Tokens(gctx); return nil })
	_ = g.Wait()

	return ComputeStats(s.baseline, price, tokens)
}
