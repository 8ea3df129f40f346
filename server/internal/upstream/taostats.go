package upstream

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/taoscope/taoscope/pkg/types"
	"github.com/taoscope/taoscope/server/internal/cache"
	"github.com/taoscope/taoscope/server/internal/metrics"
)

const (
	metricsCacheKey = "network_metrics"
	metricsSource   = "taostats"

	// TaoStatsBaseURL is the public TaoStats API host.
	TaoStatsBaseURL = "https://api.taostats.io"

	raoPerTao = 1e9
)

// TaoStatsConfig configures the network-metrics client.
type TaoStatsConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// MetricsClient fetches per-subnet operational metrics from TaoStats.
type MetricsClient struct {
	client *http.Client
	base   string
	keyed  bool
	ttl    time.Duration
	loader loader[map[int]types.NetworkMetric]
}

// NewMetricsClient returns a client caching successful responses for ttl.
// Without an API key every call is Unavailable and no request is made.
func NewMetricsClient(cfg TaoStatsConfig, c cache.Cache[map[int]types.NetworkMetric], ttl time.Duration, m *metrics.Metrics) *MetricsClient {
	if ttl <= 0 {
		ttl = DefaultListTTL
	}
	base := cfg.BaseURL
	if base == "" {
		base = TaoStatsBaseURL
	}
	headers := http.Header{}
	if cfg.APIKey != "" {
		headers.Set("Authorization", cfg.APIKey)
	}
	return &MetricsClient{
		client: newHTTPClient(cfg.Timeout, headers),
		base:   strings.TrimRight(base, "/"),
		keyed:  cfg.APIKey != "",
		ttl:    ttl,
		loader: loader[map[int]types.NetworkMetric]{source: metricsSource, cache: c, metrics: m},
	}
}

// KeyConfigured reports whether an API key was supplied.
func (c *MetricsClient) KeyConfigured() bool { return c.keyed }

// Metrics returns network metrics keyed by subnet id, or an Unavailable
// result when the key is missing or the request fails.
func (c *MetricsClient) Metrics(ctx context.Context) Result[map[int]types.NetworkMetric] {
	if !c.keyed {
		c.loader.metrics.ObserveUpstream(metricsSource, metrics.OutcomeSkipped, 0)
		return Failure[map[int]types.NetworkMetric](nil, ErrNoCredential)
	}
	m, err := c.loader.load(ctx, metricsCacheKey, c.ttl, c.fetch)
	if err != nil {
		slog.Warn("upstream: network metrics fetch failed", "err", err)
		return Failure[map[int]types.NetworkMetric](nil, err)
	}
	return Success(m)
}

func (c *MetricsClient) fetch(ctx context.Context) (map[int]types.NetworkMetric, error) {
	q := url.Values{}
	q.Set("limit", "256")
	q.Set("order", "emission_desc")
	body, err := getBody(ctx, c.client, c.base+"/api/subnet/latest/v1?"+q.Encode())
	if err != nil {
		return nil, err
	}
	return parseNetworkMetrics(body)
}

// parseNetworkMetrics reads the data[] array of a subnet/latest response.
// The subnet id may arrive as netuid or subnet_id; records with neither are
// skipped. Numeric fields may be JSON numbers or numeric strings.
func parseNetworkMetrics(body []byte) (map[int]types.NetworkMetric, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("invalid json body")
	}
	data := gjson.GetBytes(body, "data")
	if !data.IsArray() {
		return nil, errors.New("response has no data array")
	}
	out := make(map[int]types.NetworkMetric)
	data.ForEach(func(_, rec gjson.Result) bool {
		id := rec.Get("netuid")
		if !id.Exists() || id.Type == gjson.Null {
			id = rec.Get("subnet_id")
		}
		if !id.Exists() || id.Type == gjson.Null {
			return true
		}
		out[int(id.Int())] = types.NetworkMetric{
			Emission:   Round(rec.Get("emission").Float()/raoPerTao, 2),
			SharePct:   Round(rec.Get("emission_share").Float()*100, 2),
			Validators: int(rec.Get("active_validators").Int()),
			Miners:     int(rec.Get("active_miners").Int()),
			AlphaPrice: rec.Get("price").Float(),
		}
		return true
	})
	return out, nil
}
