package upstream

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/taoscope/taoscope/pkg/types"
	"github.com/taoscope/taoscope/server/internal/cache"
	"github.com/taoscope/taoscope/server/internal/metrics"
)

const (
	tokensCacheKey = "ecosystem_tokens"
	tokensCategory = "bittensor-ecosystem"
	tokensPageSize = 100
	tokensMaxPages = 3

	// DefaultListTTL is the freshness window for the token and metric maps.
	DefaultListTTL = 300 * time.Second
)

var subnetSymbol = regexp.MustCompile(`(?i)^sn(\d+)$`)

// marketCoin is one entry of /coins/markets. Numeric fields are pointers
// because the provider sends null for coins it has no data on.
type marketCoin struct {
	Symbol         string   `json:"symbol"`
	Name           string   `json:"name"`
	Image          string   `json:"image"`
	CurrentPrice   *float64 `json:"current_price"`
	MarketCap      *float64 `json:"market_cap"`
	TotalVolume    *float64 `json:"total_volume"`
	Change24h      *float64 `json:"price_change_percentage_24h"`
	Change24hInCcy *float64 `json:"price_change_percentage_24h_in_currency"`
	Change7dInCcy  *float64 `json:"price_change_percentage_7d_in_currency"`
}

// TokenClient lists the subnet tokens in the provider's ecosystem category.
type TokenClient struct {
	gecko  *CoinGecko
	ttl    time.Duration
	loader loader[map[int]types.EcosystemToken]
}

// NewTokenClient returns a client caching successful listings for ttl.
func NewTokenClient(gecko *CoinGecko, c cache.Cache[map[int]types.EcosystemToken], ttl time.Duration, m *metrics.Metrics) *TokenClient {
	if ttl <= 0 {
		ttl = DefaultListTTL
	}
	return &TokenClient{
		gecko:  gecko,
		ttl:    ttl,
		loader: loader[map[int]types.EcosystemToken]{source: "coingecko_tokens", cache: c, metrics: m},
	}
}

// Tokens returns the subnet tokens keyed by subnet id. A failure on any page
// discards the pages already read and yields an empty, Unavailable result.
func (t *TokenClient) Tokens(ctx context.Context) Result[map[int]types.EcosystemToken] {
	tokens, err := t.loader.load(ctx, tokensCacheKey, t.ttl, t.fetch)
	if err != nil {
		slog.Warn("upstream: ecosystem token fetch failed", "err", err)
		return Failure(map[int]types.EcosystemToken{}, err)
	}
	return Success(tokens)
}

func (t *TokenClient) fetch(ctx context.Context) (map[int]types.EcosystemToken, error) {
	out := make(map[int]types.EcosystemToken)
	for page := 1; page <= tokensMaxPages; page++ {
		q := url.Values{}
		q.Set("vs_currency", "usd")
		q.Set("category", tokensCategory)
		q.Set("order", "market_cap_desc")
		q.Set("per_page", strconv.Itoa(tokensPageSize))
		q.Set("page", strconv.Itoa(page))
		q.Set("price_change_percentage", "24h,7d")

		var coins []marketCoin
		if err := getJSON(ctx, t.gecko.client, t.gecko.url("/coins/markets", q), &coins); err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		for _, c := range coins {
			id, ok := parseSubnetSymbol(c.Symbol)
			if !ok {
				continue
			}
			out[id] = c.token()
		}
		if len(coins) < tokensPageSize {
			break
		}
	}
	return out, nil
}

// parseSubnetSymbol extracts the subnet id from symbols like "SN19".
func parseSubnetSymbol(symbol string) (int, bool) {
	m := subnetSymbol.FindStringSubmatch(symbol)
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return id, true
}

func (c marketCoin) token() types.EcosystemToken {
	change24h := c.Change24hInCcy
	if change24h == nil {
		change24h = c.Change24h
	}
	return types.EcosystemToken{
		PriceUSD:     num(c.CurrentPrice),
		MarketCapM:   Round(num(c.MarketCap)/1e6, 2),
		Change24hPct: Round(num(change24h), 2),
		Change7dPct:  Round(num(c.Change7dInCcy), 2),
		Volume24hUSD: num(c.TotalVolume),
		Name:         c.Name,
		Image:        c.Image,
	}
}

func num(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
