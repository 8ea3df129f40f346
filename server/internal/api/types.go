package api

import (
	"github.com/taoscope/taoscope/pkg/types"
	"github.com/taoscope/taoscope/server/internal/metrics"
)

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status       string                           `json:"status"`
	CoinGeckoKey bool                             `json:"coingecko_key"`
	TaoStatsKey  bool                             `json:"taostats_key"`
	IdentityKey  bool                             `json:"identity_key"`
	CacheBackend string                           `json:"cache_backend"`
	Upstream     map[string]metrics.UpstreamCount `json:"upstream"`
}

// HistoryResponse is the body of GET /api/historical/{asset}.
type HistoryResponse struct {
	Asset string               `json:"asset"`
	Days  int                  `json:"days"`
	Data  []types.HistoryPoint `json:"data"`
}

// ApproveRequest is the body of POST /api/admin/approve.
type ApproveRequest struct {
	Email string `json:"email"`
}

// ApproveResponse is returned once the invite has been sent.
type ApproveResponse struct {
	Status string `json:"status"`
	Email  string `json:"email"`
}
