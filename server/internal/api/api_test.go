package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/taoscope/taoscope/pkg/types"
	"github.com/taoscope/taoscope/server/internal/api"
	"github.com/taoscope/taoscope/server/internal/auth"
	"github.com/taoscope/taoscope/server/internal/catalog"
	"github.com/taoscope/taoscope/server/internal/metrics"
)

// --- test helpers -----------------------------------------------------------

type fakeSubnets struct{}

func (fakeSubnets) Listing(_ context.Context, authenticated bool) []types.Subnet {
	return []types.Subnet{
		{ID: 1, Name: "Text Prompting", MarketCapM: 127.3, Authenticated: authenticated},
		{ID: 5, Name: "Open Kaito", MarketCapM: 40, Authenticated: authenticated},
	}
}

func (fakeSubnets) Stats(context.Context) types.Stats {
	return types.Stats{TaoPriceUSD: 180.8, ActiveSubnets: 57, TotalEcosystemMarketCapM: 1200.5}
}

type fakeHistory struct{ lastDays int }

func (f *fakeHistory) Supports(asset string) bool { return asset == "tao" || asset == "btc" }

func (f *fakeHistory) History(_ context.Context, asset string, days int) []types.HistoryPoint {
	f.lastDays = days
	out := make([]types.HistoryPoint, days)
	for i := range out {
		out[i] = types.HistoryPoint{Date: "2024-01-01", Value: 1}
	}
	return out
}

type fakeVerifier struct {
	ids map[string]auth.Identity
	err error // returned for every call when set
}

func (f fakeVerifier) Verify(_ context.Context, token string) (auth.Identity, error) {
	if f.err != nil {
		return auth.Identity{}, f.err
	}
	id, ok := f.ids[token]
	if !ok {
		return auth.Identity{}, auth.ErrUnauthenticated
	}
	return id, nil
}

type fakeProvisioner struct {
	invited []string
	err     error
}

func (f *fakeProvisioner) Invite(_ context.Context, email string) error {
	if f.err != nil {
		return f.err
	}
	f.invited = append(f.invited, email)
	return nil
}

var verifier = fakeVerifier{ids: map[string]auth.Identity{
	"admin-token": {UID: "a", Email: "ops@taoscope.io"},
	"user-token":  {UID: "u", Email: "someone@gmail.com"},
}}

func newOptions(t *testing.T) api.Options {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}
	return api.Options{
		Subnets:      fakeSubnets{},
		Catalog:      cat,
		History:      &fakeHistory{},
		Verifier:     verifier,
		Provisioner:  &fakeProvisioner{},
		AdminDomain:  "taoscope.io",
		Metrics:      metrics.New(),
		Credentials:  api.Credentials{CoinGecko: true},
		CacheBackend: "memory",
	}
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, h, http.MethodGet, path, "", "")
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

func wantDetail(t *testing.T, rr *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rr.Code != code {
		t.Fatalf("status: got %d, want %d (body: %s)", rr.Code, code, rr.Body.String())
	}
	var body map[string]string
	decode(t, rr, &body)
	if body["detail"] == "" {
		t.Errorf("detail: missing in %v", body)
	}
}

// --- read endpoints ---------------------------------------------------------

func TestStats(t *testing.T) {
	rr := get(t, api.New(newOptions(t)), "/api/stats")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp map[string]interface{}
	decode(t, rr, &resp)
	if resp["tao_price"] != 180.8 || resp["active_subnets"] != float64(57) {
		t.Errorf("body: got %v", resp)
	}
}

func TestSubnets_AuthenticatedFlag(t *testing.T) {
	h := api.New(newOptions(t))
	cases := []struct {
		name  string
		token string
		want  bool
	}{
		{"anonymous", "", false},
		{"valid token", "user-token", true},
		{"invalid token is anonymous", "garbage", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, h, http.MethodGet, "/api/subnets", tc.token, "")
			if rr.Code != http.StatusOK {
				t.Fatalf("status: got %d, want 200", rr.Code)
			}
			var recs []types.Subnet
			decode(t, rr, &recs)
			if len(recs) != 2 {
				t.Fatalf("records: got %d, want 2", len(recs))
			}
			for _, rec := range recs {
				if rec.Authenticated != tc.want {
					t.Errorf("id %d authenticated: got %v, want %v", rec.ID, rec.Authenticated, tc.want)
				}
			}
		})
	}
}

func TestStaticContent(t *testing.T) {
	h := api.New(newOptions(t))

	var news []types.NewsItem
	rr := get(t, h, "/api/news")
	decode(t, rr, &news)
	if len(news) == 0 || news[0].Title == "" {
		t.Errorf("news: got %v", news)
	}

	var research []types.ResearchItem
	rr = get(t, h, "/api/research")
	decode(t, rr, &research)
	if len(research) == 0 {
		t.Error("research: empty")
	}

	var academy map[string]types.Lesson
	rr = get(t, h, "/api/academy")
	decode(t, rr, &academy)
	if _, ok := academy["intro"]; !ok {
		t.Errorf("academy: intro missing from %d lessons", len(academy))
	}
}

func TestHistorical(t *testing.T) {
	opts := newOptions(t)
	hist := &fakeHistory{}
	opts.History = hist
	h := api.New(opts)

	cases := []struct {
		path     string
		wantDays int
	}{
		{"/api/historical/tao", 30},
		{"/api/historical/BTC?days=7", 7},
		{"/api/historical/tao?days=0", 1},
		{"/api/historical/tao?days=9999", 365},
	}
	for _, tc := range cases {
		rr := get(t, h, tc.path)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: status %d, want 200", tc.path, rr.Code)
		}
		var resp api.HistoryResponse
		decode(t, rr, &resp)
		if resp.Days != tc.wantDays || len(resp.Data) != tc.wantDays || hist.lastDays != tc.wantDays {
			t.Errorf("%s: days=%d points=%d source=%d, want %d", tc.path, resp.Days, len(resp.Data), hist.lastDays, tc.wantDays)
		}
	}
}

func TestHistorical_Errors(t *testing.T) {
	h := api.New(newOptions(t))
	wantDetail(t, get(t, h, "/api/historical/doge"), http.StatusNotFound)
	wantDetail(t, get(t, h, "/api/historical/tao?days=week"), http.StatusBadRequest)
}

func TestHealth(t *testing.T) {
	opts := newOptions(t)
	opts.Metrics.ObserveUpstream("coingecko_price", metrics.OutcomeOK, 0)
	opts.Metrics.ObserveUpstream("taostats", metrics.OutcomeError, 0)
	rr := get(t, api.New(opts), "/api/health")

	var resp api.HealthResponse
	decode(t, rr, &resp)
	if resp.Status != "ok" || !resp.CoinGeckoKey || resp.TaoStatsKey || resp.CacheBackend != "memory" {
		t.Errorf("health: got %+v", resp)
	}
	if resp.Upstream["coingecko_price"].OK != 1 || resp.Upstream["taostats"].Failed != 1 {
		t.Errorf("upstream: got %+v", resp.Upstream)
	}
}

// --- admin approve ----------------------------------------------------------

func TestApprove_Success(t *testing.T) {
	opts := newOptions(t)
	prov := &fakeProvisioner{}
	opts.Provisioner = prov

	rr := do(t, api.New(opts), http.MethodPost, "/api/admin/approve", "admin-token", `{"email":"new@partner.io"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
	var resp api.ApproveResponse
	decode(t, rr, &resp)
	if resp.Status != "approved" || resp.Email != "new@partner.io" {
		t.Errorf("body: got %+v", resp)
	}
	if len(prov.invited) != 1 || prov.invited[0] != "new@partner.io" {
		t.Errorf("invited: got %v", prov.invited)
	}
}

func TestApprove_Errors(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*api.Options)
		token string
		body  string
		want  int
	}{
		{"missing token", nil, "", `{"email":"a@b.io"}`, http.StatusUnauthorized},
		{"invalid token", nil, "forged", `{"email":"a@b.io"}`, http.StatusUnauthorized},
		{"wrong domain", nil, "user-token", `{"email":"a@b.io"}`, http.StatusForbidden},
		{"bad json", nil, "admin-token", `{"email":`, http.StatusBadRequest},
		{"bad email", nil, "admin-token", `{"email":"not-an-email"}`, http.StatusBadRequest},
		{"empty email", nil, "admin-token", `{}`, http.StatusBadRequest},
		{"provider down", func(o *api.Options) {
			o.Verifier = fakeVerifier{err: errors.New("connection refused")}
		}, "admin-token", `{"email":"a@b.io"}`, http.StatusBadGateway},
		{"invite fails", func(o *api.Options) {
			o.Provisioner = &fakeProvisioner{err: errors.New("quota")}
		}, "admin-token", `{"email":"a@b.io"}`, http.StatusBadGateway},
		{"not configured", func(o *api.Options) {
			o.Verifier, o.Provisioner = nil, nil
		}, "admin-token", `{"email":"a@b.io"}`, http.StatusServiceUnavailable},
		{"no admin domain", func(o *api.Options) {
			o.AdminDomain = ""
		}, "admin-token", `{"email":"a@b.io"}`, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := newOptions(t)
			if tc.edit != nil {
				tc.edit(&opts)
			}
			rr := do(t, api.New(opts), http.MethodPost, "/api/admin/approve", tc.token, tc.body)
			wantDetail(t, rr, tc.want)
		})
	}
}

// --- plumbing ---------------------------------------------------------------

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := api.New(newOptions(t))
	wantDetail(t, get(t, h, "/api/nope"), http.StatusNotFound)
	wantDetail(t, do(t, h, http.MethodPost, "/api/stats", "", ""), http.StatusMethodNotAllowed)
	wantDetail(t, get(t, h, "/api/admin/approve"), http.StatusMethodNotAllowed)
}

func TestContentTypeJSON(t *testing.T) {
	h := api.New(newOptions(t))
	for _, path := range []string{"/api/stats", "/api/subnets", "/api/news", "/api/health", "/api/nope"} {
		rr := get(t, h, path)
		if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
			t.Errorf("%s: Content-Type %q, want application/json", path, ct)
		}
	}
}

func TestCORS(t *testing.T) {
	opts := newOptions(t)
	opts.AllowedOrigins = []string{"https://taoscope.io"}
	h := api.New(opts)

	req := httptest.NewRequest(http.MethodOptions, "/api/subnets", nil)
	req.Header.Set("Origin", "https://taoscope.io")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Errorf("preflight status: got %d, want 204", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://taoscope.io" {
		t.Errorf("allow-origin: got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got allow-origin %q", got)
	}
}

func TestRateLimit(t *testing.T) {
	opts := newOptions(t)
	opts.RateLimit = api.RateLimit{RPS: 0.001, Burst: 2}
	h := api.New(opts)

	for i := 0; i < 2; i++ {
		if rr := get(t, h, "/api/stats"); rr.Code != http.StatusOK {
			t.Fatalf("request %d: status %d, want 200", i, rr.Code)
		}
	}
	rr := get(t, h, "/api/stats")
	wantDetail(t, rr, http.StatusTooManyRequests)

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("second client: status %d, want 200", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := api.New(newOptions(t))
	get(t, h, "/api/stats")
	rr := get(t, h, "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `taoscope_http_requests_total{code="200",route="/api/stats"}`) {
		t.Errorf("http counter for /api/stats missing from exposition")
	}
}
