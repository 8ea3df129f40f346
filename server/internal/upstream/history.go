package upstream

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/taoscope/taoscope/pkg/types"
	"github.com/taoscope/taoscope/server/internal/cache"
	"github.com/taoscope/taoscope/server/internal/metrics"
)

const (
	// DefaultHistoryDays is used when the caller gives no window.
	DefaultHistoryDays = 30
	// MaxHistoryDays caps the lookback window.
	MaxHistoryDays = 365

	// DefaultHistoryTTL is the freshness window for a history series.
	DefaultHistoryTTL = 300 * time.Second
)

// historyAssets maps the public asset name to its CoinGecko coin id and the
// price the synthetic walk is anchored at.
var historyAssets = map[string]struct {
	coinID string
	anchor float64
}{
	"tao": {coinID: "bittensor", anchor: 180.80},
	"btc": {coinID: "bitcoin", anchor: 67_000},
}

// ClampDays bounds a requested window to [1, MaxHistoryDays].
func ClampDays(days int) int {
	switch {
	case days < 1:
		return 1
	case days > MaxHistoryDays:
		return MaxHistoryDays
	}
	return days
}

// HistoryClient serves daily USD price series for the supported assets.
type HistoryClient struct {
	gecko  *CoinGecko
	ttl    time.Duration
	loader loader[[]types.HistoryPoint]
	now    func() time.Time // injectable for deterministic tests
}

// NewHistoryClient returns a client caching fetched series for ttl.
func NewHistoryClient(gecko *CoinGecko, c cache.Cache[[]types.HistoryPoint], ttl time.Duration, m *metrics.Metrics) *HistoryClient {
	if ttl <= 0 {
		ttl = DefaultHistoryTTL
	}
	return &HistoryClient{
		gecko:  gecko,
		ttl:    ttl,
		loader: loader[[]types.HistoryPoint]{source: "coingecko_history", cache: c, metrics: m},
		now:    time.Now,
	}
}

// Supports reports whether asset has a history source.
func (h *HistoryClient) Supports(asset string) bool {
	_, ok := historyAssets[asset]
	return ok
}

// History returns one point per UTC day for the last days days. On upstream
// failure it returns a deterministic synthetic walk, which is not cached.
// The caller must check Supports first; unknown assets yield nil.
func (h *HistoryClient) History(ctx context.Context, asset string, days int) []types.HistoryPoint {
	a, ok := historyAssets[asset]
	if !ok {
		return nil
	}
	days = ClampDays(days)
	key := fmt.Sprintf("history:%s:%d", asset, days)
	points, err := h.loader.load(ctx, key, h.ttl, func(ctx context.Context) ([]types.HistoryPoint, error) {
		return h.fetch(ctx, a.coinID, days)
	})
	if err != nil {
		slog.Warn("upstream: history fetch failed, using synthetic series", "asset", asset, "days", days, "err", err)
		return syntheticWalk(asset, days, a.anchor, h.now())
	}
	return points
}

func (h *HistoryClient) fetch(ctx context.Context, coinID string, days int) ([]types.HistoryPoint, error) {
	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("days", strconv.Itoa(days))

	var body struct {
		Prices [][]float64 `json:"prices"`
	}
	if err := getJSON(ctx, h.gecko.client, h.gecko.url("/coins/"+coinID+"/market_chart", q), &body); err != nil {
		return nil, err
	}
	points := dailyClose(body.Prices)
	if len(points) == 0 {
		return nil, fmt.Errorf("no price samples for %s", coinID)
	}
	return points, nil
}

// dailyClose reduces [ts_ms, price] samples to the last sample of each UTC
// day, ordered by date.
func dailyClose(samples [][]float64) []types.HistoryPoint {
	type last struct {
		ts    float64
		price float64
	}
	byDay := make(map[string]last)
	for _, s := range samples {
		if len(s) < 2 {
			continue
		}
		day := time.UnixMilli(int64(s[0])).UTC().Format(time.DateOnly)
		if prev, ok := byDay[day]; !ok || s[0] >= prev.ts {
			byDay[day] = last{ts: s[0], price: s[1]}
		}
	}
	out := make([]types.HistoryPoint, 0, len(byDay))
	for day, l := range byDay {
		out = append(out, types.HistoryPoint{Date: day, Value: Round(l.price, 2)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// syntheticWalk produces days daily points ending today, each within ±3% of
// the previous one. The sequence depends only on asset and days.
func syntheticWalk(asset string, days int, anchor float64, now time.Time) []types.HistoryPoint {
	hf := fnv.New64a()
	hf.Write([]byte(asset))
	r := rand.New(rand.NewPCG(hf.Sum64(), uint64(days)))

	today := now.UTC().Truncate(24 * time.Hour)
	out := make([]types.HistoryPoint, 0, days)
	price := anchor
	for i := days - 1; i >= 0; i-- {
		price *= 1 + (r.Float64()-0.5)*0.06
		out = append(out, types.HistoryPoint{
			Date:  today.AddDate(0, 0, -i).Format(time.DateOnly),
			Value: Round(price, 2),
		})
	}
	return out
}
