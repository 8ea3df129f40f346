package upstream

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/taoscope/taoscope/pkg/types"
	"github.com/taoscope/taoscope/server/internal/cache"
	"github.com/taoscope/taoscope/server/internal/metrics"
)

const (
	priceCacheKey = "price"
	baseAssetID   = "bittensor"

	// DefaultPriceTTL is the freshness window for the base-asset snapshot.
	DefaultPriceTTL = 60 * time.Second
)

// FallbackSnapshot is served when the price provider cannot be reached.
func FallbackSnapshot() types.PriceSnapshot {
	return types.PriceSnapshot{
		PriceUSD:     180.80,
		PriceBTC:     0,
		Change24hPct: 0,
		MarketCapUSD: 847_200_000,
		Volume24hUSD: 8_400_000,
		Live:         false,
	}
}

// simplePrice is one coin entry of /simple/price.
type simplePrice struct {
	USD          float64 `json:"usd"`
	BTC          float64 `json:"btc"`
	USD24hChange float64 `json:"usd_24h_change"`
	USDMarketCap float64 `json:"usd_market_cap"`
	USD24hVol    float64 `json:"usd_24h_vol"`
}

// PriceClient fetches the base asset's market snapshot.
type PriceClient struct {
	gecko  *CoinGecko
	ttl    time.Duration
	loader loader[types.PriceSnapshot]
}

// NewPriceClient returns a client caching successful snapshots for ttl.
func NewPriceClient(gecko *CoinGecko, c cache.Cache[types.PriceSnapshot], ttl time.Duration, m *metrics.Metrics) *PriceClient {
	if ttl <= 0 {
		ttl = DefaultPriceTTL
	}
	return &PriceClient{
		gecko:  gecko,
		ttl:    ttl,
		loader: loader[types.PriceSnapshot]{source: "coingecko_price", cache: c, metrics: m},
	}
}

// Snapshot returns the current snapshot. It never fails: on any upstream
// problem the uncached fallback is returned with Live=false.
func (p *PriceClient) Snapshot(ctx context.Context) types.PriceSnapshot {
	snap, err := p.loader.load(ctx, priceCacheKey, p.ttl, p.fetch)
	if err != nil {
		slog.Warn("upstream: price fetch failed, using fallback", "err", err)
		return FallbackSnapshot()
	}
	return snap
}

func (p *PriceClient) fetch(ctx context.Context) (types.PriceSnapshot, error) {
	q := url.Values{}
	q.Set("ids", baseAssetID)
	q.Set("vs_currencies", "usd,btc")
	q.Set("include_24hr_change", "true")
	q.Set("include_market_cap", "true")
	q.Set("include_24hr_vol", "true")

	var body map[string]simplePrice
	if err := getJSON(ctx, p.gecko.client, p.gecko.url("/simple/price", q), &body); err != nil {
		return types.PriceSnapshot{}, err
	}
	coin, ok := body[baseAssetID]
	if !ok {
		return types.PriceSnapshot{}, errors.New("response has no " + baseAssetID + " entry")
	}
	if coin.USD <= 0 {
		return types.PriceSnapshot{}, errors.New("response has no usd price")
	}
	return types.PriceSnapshot{
		PriceUSD:     coin.USD,
		PriceBTC:     coin.BTC,
		Change24hPct: Round(coin.USD24hChange, 2),
		MarketCapUSD: coin.USDMarketCap,
		Volume24hUSD: coin.USD24hVol,
		Live:         true,
	}, nil
}
