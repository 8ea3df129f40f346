package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/taoscope/taoscope/pkg/types"
	"github.com/taoscope/taoscope/server/internal/api"
	"github.com/taoscope/taoscope/server/internal/auth"
	"github.com/taoscope/taoscope/server/internal/cache"
	"github.com/taoscope/taoscope/server/internal/catalog"
	"github.com/taoscope/taoscope/server/internal/config"
	"github.com/taoscope/taoscope/server/internal/logging"
	"github.com/taoscope/taoscope/server/internal/metrics"
	"github.com/taoscope/taoscope/server/internal/subnet"
	"github.com/taoscope/taoscope/server/internal/upstream"
	"github.com/taoscope/taoscope/server/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	envFile := flag.String("env-file", ".env", "load environment variables from this file when it exists")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "taoscope: load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = config.Default()
	case err != nil:
		fmt.Fprintf(os.Stderr, "taoscope: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "taoscope: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close() //nolint:errcheck
	slog.SetDefault(logger.Logger)

	slog.Info("taoscope-server starting",
		"config", *configPath,
		"http_port", cfg.Server.HTTPPort,
		"cache_backend", cfg.Cache.Backend,
		"log_level", cfg.Log.Level,
	)

	if err := run(cfg, *configPath, logger); err != nil {
		slog.Error("taoscope-server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, configPath string, logger *logging.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cat, err := catalog.Load()
	if err != nil {
		return err
	}
	m := metrics.New()

	var rdb *redis.Client
	if cfg.Cache.Backend == "redis" {
		dialCtx, dialCancel := context.WithTimeout(ctx, cfg.Upstream.Timeout)
		rdb, err = cache.Dial(dialCtx, cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password(), cfg.Cache.Redis.DB)
		dialCancel()
		if err != nil {
			return err
		}
		defer rdb.Close() //nolint:errcheck
		slog.Info("cache: connected to redis", "addr", cfg.Cache.Redis.Addr, "db", cfg.Cache.Redis.DB)
	}
	prefix := cfg.Cache.Redis.KeyPrefix

	// Upstream providers.
	gecko := upstream.NewCoinGecko(upstream.CoinGeckoConfig{
		BaseURL:    cfg.Upstream.CoinGecko.BaseURL,
		ProBaseURL: cfg.Upstream.CoinGecko.ProBaseURL,
		APIKey:     cfg.Upstream.CoinGecko.Key(),
		Timeout:    cfg.Upstream.Timeout,
	})
	prices := upstream.NewPriceClient(gecko, newCache[types.PriceSnapshot](rdb, prefix), cfg.Cache.PriceTTL, m)
	tokens := upstream.NewTokenClient(gecko, newCache[map[int]types.EcosystemToken](rdb, prefix), cfg.Cache.ListTTL, m)
	history := upstream.NewHistoryClient(gecko, newCache[[]types.HistoryPoint](rdb, prefix), cfg.Cache.HistoryTTL, m)
	netMetrics := upstream.NewMetricsClient(upstream.TaoStatsConfig{
		BaseURL: cfg.Upstream.TaoStats.BaseURL,
		APIKey:  cfg.Upstream.TaoStats.Key(),
		Timeout: cfg.Upstream.Timeout,
	}, newCache[map[int]types.NetworkMetric](rdb, prefix), cfg.Cache.ListTTL, m)

	if !gecko.KeyConfigured() {
		slog.Info("coingecko: no API key, using the free tier")
	}
	if !netMetrics.KeyConfigured() {
		slog.Warn("taostats: no API key, network metrics disabled")
	}

	svc := subnet.NewService(cat.Baseline(), prices, tokens, netMetrics)

	// Identity provider. Without a key every caller is anonymous and the
	// admin endpoint answers 503.
	opts := api.Options{
		Subnets:     svc,
		Catalog:     cat,
		History:     history,
		AdminDomain: cfg.Auth.AdminDomain,
		Metrics:     m,
		Credentials: api.Credentials{
			CoinGecko: gecko.KeyConfigured(),
			TaoStats:  netMetrics.KeyConfigured(),
		},
		CacheBackend:   cfg.Cache.Backend,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit: api.RateLimit{
			RPS:   cfg.Server.RateLimit.RPS,
			Burst: cfg.Server.RateLimit.Burst,
		},
	}
	if key := cfg.Auth.Key(); key != "" {
		idp, err := auth.NewIdentityToolkit(ctx, key, cfg.Auth.Endpoint, cfg.Upstream.Timeout)
		if err != nil {
			return err
		}
		opts.Verifier, opts.Provisioner = idp, idp
		opts.Credentials.Identity = true
		if cfg.Auth.AdminDomain == "" {
			slog.Warn("auth: admin_domain is empty, account approval disabled")
		}
	} else {
		slog.Warn("auth: no identity provider key, all requests are anonymous")
	}

	// WebSocket hub pushes ecosystem stats on every interval.
	hub := ws.New(svc, cfg.Stream.Interval, cfg.Server.AllowedOrigins)
	go hub.Run(ctx)
	opts.Stream = hub

	// Only the log level is hot-reloadable; everything else needs a restart.
	if _, err := os.Stat(configPath); err == nil {
		go func() {
			err := config.Watch(ctx, configPath, func(next *config.Config) {
				if err := logger.SetLevel(next.Log.Level); err != nil {
					slog.Error("config: apply log level", "err", err)
					return
				}
				slog.Info("config: log level applied", "level", next.Log.Level)
			})
			if err != nil {
				slog.Error("config: watcher stopped", "err", err)
			}
		}()
	}

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           api.New(opts),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	errc := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	slog.Info("taoscope-server shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// newCache returns the redis-backed cache when a client is given, otherwise
// an in-process one.
func newCache[V any](rdb *redis.Client, prefix string) cache.Cache[V] {
	if rdb != nil {
		return cache.NewRedis[V](rdb, prefix)
	}
	return cache.NewMemory[V]()
}
