package upstream

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// Base URLs for the CoinGecko API.
	FreeAPIBaseURL = "https://api.coingecko.com/api/v3"
	ProAPIBaseURL  = "https://pro-api.coingecko.com/api/v3"

	proKeyHeader = "x-cg-pro-api-key"
)

// CoinGeckoConfig selects the CoinGecko tier. With an APIKey the pro host is
// used and the key is sent as a header; without one the free host is used.
type CoinGeckoConfig struct {
	BaseURL    string
	ProBaseURL string
	APIKey     string
	Timeout    time.Duration
}

// CoinGecko is the HTTP transport shared by the price, token and history
// clients.
type CoinGecko struct {
	client *http.Client
	base   string
	keyed  bool
}

// NewCoinGecko builds the shared transport.
func NewCoinGecko(cfg CoinGeckoConfig) *CoinGecko {
	base := cfg.BaseURL
	if base == "" {
		base = FreeAPIBaseURL
	}
	headers := http.Header{}
	if cfg.APIKey != "" {
		base = cfg.ProBaseURL
		if base == "" {
			base = ProAPIBaseURL
		}
		headers.Set(proKeyHeader, cfg.APIKey)
	}
	return &CoinGecko{
		client: newHTTPClient(cfg.Timeout, headers),
		base:   strings.TrimRight(base, "/"),
		keyed:  cfg.APIKey != "",
	}
}

// KeyConfigured reports whether requests go to the pro tier.
func (g *CoinGecko) KeyConfigured() bool { return g.keyed }

func (g *CoinGecko) url(path string, q url.Values) string {
	u := g.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}
