package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/taoscope/taoscope/pkg/types"
	"github.com/taoscope/taoscope/server/internal/auth"
	"github.com/taoscope/taoscope/server/internal/catalog"
	"github.com/taoscope/taoscope/server/internal/metrics"
)

// SubnetService produces the merged listing and the ecosystem stats.
type SubnetService interface {
	Listing(ctx context.Context, authenticated bool) []types.Subnet
	Stats(ctx context.Context) types.Stats
}

// HistorySource serves daily price series.
type HistorySource interface {
	Supports(asset string) bool
	History(ctx context.Context, asset string, days int) []types.HistoryPoint
}

// Credentials reports which upstream keys are configured.
type Credentials struct {
	CoinGecko bool
	TaoStats  bool
	Identity  bool
}

// RateLimit is the per-client-IP budget for /api routes. RPS 0 disables it.
type RateLimit struct {
	RPS   float64
	Burst int
}

// Options wires the router to its collaborators. Verifier, Provisioner,
// Metrics and Stream may be nil.
type Options struct {
	Subnets SubnetService
	Catalog *catalog.Catalog
	History HistorySource

	Verifier    auth.Verifier
	Provisioner auth.Provisioner
	AdminDomain string

	Metrics      *metrics.Metrics
	Credentials  Credentials
	CacheBackend string

	AllowedOrigins []string
	RateLimit      RateLimit

	// Stream is mounted at /ws/stream when set.
	Stream http.Handler
}

// Server holds the handler dependencies.
type Server struct {
	opts Options
}

// New builds the router.
func New(opts Options) http.Handler {
	s := &Server{opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(instrument(opts.Metrics))
	r.Use(cors(opts.AllowedOrigins))

	r.NotFound(handler(func(http.ResponseWriter, *http.Request) error { return errNotFound }))
	r.MethodNotAllowed(handler(func(http.ResponseWriter, *http.Request) error { return errMethodNotAllowed }))

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	if opts.Stream != nil {
		r.Method(http.MethodGet, "/ws/stream", opts.Stream)
	}

	r.Route("/api", func(r chi.Router) {
		if opts.RateLimit.RPS > 0 {
			r.Use(rateLimit(opts.RateLimit.RPS, opts.RateLimit.Burst))
		}
		r.Get("/stats", handler(s.stats))
		r.With(auth.Optional(opts.Verifier)).Get("/subnets", handler(s.subnets))
		r.Get("/news", handler(s.news))
		r.Get("/research", handler(s.research))
		r.Get("/academy", handler(s.academy))
		r.Get("/historical/{asset}", handler(s.historical))
		r.Get("/health", handler(s.health))
		r.Post("/admin/approve", handler(s.approve))
	})

	return r
}
