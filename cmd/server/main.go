package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/nameha1/synergyhr/internal/audit"
	"github.com/nameha1/synergyhr/internal/gate/asn"
	"github.com/nameha1/synergyhr/internal/gate/handler"
	"github.com/nameha1/synergyhr/internal/gate/metrics"
	"github.com/nameha1/synergyhr/internal/gate/middleware"
	"github.com/nameha1/synergyhr/internal/gate/pass"
	"github.com/nameha1/synergyhr/internal/gate/resolver"
	"github.com/nameha1/synergyhr/internal/gate/service"
	"github.com/nameha1/synergyhr/internal/gate/settings"
	"github.com/nameha1/synergyhr/internal/platform/config"
	"github.com/nameha1/synergyhr/internal/platform/httpserver"
	"github.com/nameha1/synergyhr/internal/platform/logger"
	platformredis "github.com/nameha1/synergyhr/internal/platform/redis"
)

// main wires the dependencies and owns the server lifecycle. Gate
// logic lives in internal/gate.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		log.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	trust := resolver.TrustAll
	if len(cfg.TrustedProxyCIDRs) > 0 {
		trust = resolver.TrustProxyCIDRs(cfg.TrustedProxyCIDRs)
	}
	rv := resolver.New(trust)

	cache := settings.NewCache(settings.NewPostgresSource(pool), settings.WithTTL(cfg.SettingsTTL))

	// A missing secret is not fatal: the server comes up and every
	// check-in answers with a server error until it is configured.
	var signer *pass.Signer
	if signer, err = pass.NewSigner(cfg.PassSecret); err != nil {
		log.Warn("office pass signing disabled", "error", err)
		signer = nil
	}
	if cfg.GateKey == "" {
		log.Warn("gate access key not configured, check-ins will be refused")
	}

	svcOpts := []service.Option{
		service.WithPassTTL(cfg.PassTTL),
		service.WithMetrics(m),
		service.WithAudit(audit.NewPostgresStore(pool, log)),
	}
	if lookup := buildASNLookup(cfg, log); lookup != nil {
		svcOpts = append(svcOpts, service.WithASNLookup(lookup))
	}
	svc := service.New(rv, cache, signer, cfg.GateKey, log, svcOpts...)

	var limitStore middleware.Store = middleware.NewMemoryStore()
	if redisClient != nil {
		limitStore = middleware.NewRedisStore(redisClient)
	}
	limiter := middleware.NewRateLimiter(limitStore, log,
		middleware.WithLimit(cfg.RateLimit, cfg.RateLimitWindow),
		middleware.WithLimiterMetrics(m),
		middleware.WithDisabled(cfg.RateLimitDisabled),
	)

	router := chi.NewRouter()
	handler.RegisterHealth(router, pingers(pool, redisClient)...)
	router.Handle("/metrics", promhttp.Handler())
	handler.New(svc, log,
		handler.WithCORS(cfg.CORSOrigins),
		handler.WithMiddleware(limiter.Limit),
	).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("gate server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	if err := httpserver.Shutdown(srv, 10*time.Second); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// buildASNLookup picks the ASN backend. A local MMDB wins over the
// HTTP service; with neither configured ASN rules simply never match.
func buildASNLookup(cfg config.Config, log *slog.Logger) asn.Lookup {
	if cfg.ASNMMDBPath != "" {
		db, err := asn.OpenMaxMindDB(cfg.ASNMMDBPath)
		if err != nil {
			log.Error("open ASN database", "error", err, "path", cfg.ASNMMDBPath)
			os.Exit(1)
		}
		return db
	}
	if cfg.ASNLookupURL != "" {
		client := asn.NewHTTPClient(cfg.ASNLookupURL, cfg.ASNLookupToken, log)
		return asn.NewBreakerLookup(client, log)
	}
	return nil
}

// redisPinger adapts the go-redis client to the readiness probe.
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func pingers(pool *pgxpool.Pool, redisClient *redis.Client) []handler.Pinger {
	deps := []handler.Pinger{pool}
	if redisClient != nil {
		deps = append(deps, redisPinger{redisClient})
	}
	return deps
}
