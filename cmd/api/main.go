package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/guruhub/internal/auth"
	"github.com/geocoder89/guruhub/internal/cache"
	"github.com/geocoder89/guruhub/internal/config"
	"github.com/geocoder89/guruhub/internal/db"
	httpx "github.com/geocoder89/guruhub/internal/http"
	"github.com/geocoder89/guruhub/internal/http/handlers"
	"github.com/geocoder89/guruhub/internal/observability"
	"github.com/geocoder89/guruhub/internal/redisclient"
	"github.com/geocoder89/guruhub/internal/repo/memory"
	"github.com/geocoder89/guruhub/internal/repo/postgres"
	"github.com/geocoder89/guruhub/internal/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/crypto/bcrypt"
)

type userStore interface {
	auth.UserStore
	db.AdminStore
}

type stores struct {
	users      userStore
	categories handlers.CategoriesRepo
	gurus      httpx.GurusStore
	checks     map[string]handlers.Check
	close      func()
}

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	if cfg.AllowSelfAdmin {
		log.Warn("AUTH_ALLOW_SELF_ADMIN is on: anyone can register as admin")
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	tracing := false
	var shutdownTracer func(context.Context) error
	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(startCtx, observability.TracerConfig{
			ServiceName: "guruhub-api",
			Env:         cfg.Env,
			Endpoint:    cfg.OTLPEndpoint,
			SampleRatio: cfg.TraceSampleRatio,
		})
		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}
		shutdownTracer = shutdown
		tracing = true
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	s, err := openStores(startCtx, cfg, prom, log)
	if err != nil {
		log.Error("store init failed", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer s.close()

	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)

	if err := db.EnsureAdminUser(startCtx, s.users, hasher, cfg); err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}

	contentCache, closeCache := openCache(cfg, s.checks, log)
	defer closeCache()

	tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())
	svc := auth.NewService(s.users, hasher, tokens, auth.Options{
		AllowSelfAdmin: cfg.AllowSelfAdmin,
		Logger:         log,
		Observer:       prom,
	})

	var draining atomic.Bool

	// set up routers with the log
	router := httpx.NewRouter(log, httpx.Deps{
		Config:       cfg,
		Auth:         svc,
		Tokens:       tokens,
		Categories:   s.categories,
		Gurus:        s.gurus,
		Cache:        cache.Instrument(contentCache, "content", prom),
		Prom:         prom,
		Gatherer:     reg,
		Checks:       s.checks,
		Tracing:      tracing,
		ShuttingDown: draining.Load,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")
	draining.Store(true)

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if shutdownTracer != nil {
			if err := shutdownTracer(ctx); err != nil {
				log.Error("tracer shutdown failed", "err", err)
			}
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

func openStores(ctx context.Context, cfg config.Config, prom *observability.Prom, log *slog.Logger) (stores, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Warn("using in-memory store; data is lost on restart")

		categories := memory.NewCategoriesRepo()
		return stores{
			users:      memory.NewUsersRepo(),
			categories: categories,
			gurus:      memory.NewGurusRepo(categories),
			checks:     map[string]handlers.Check{},
			close:      func() {},
		}, nil

	case config.StorePostgres:
		if err := db.Migrate(ctx, cfg.DBURL); err != nil {
			return stores{}, err
		}

		pool, err := db.NewPool(ctx, cfg.DBURL, int32(cfg.DBMaxConns))
		if err != nil {
			return stores{}, err
		}

		return stores{
			users:      postgres.NewUsersRepo(pool, prom),
			categories: postgres.NewCategoriesRepo(pool, prom),
			gurus:      postgres.NewGurusRepo(pool, prom),
			checks: map[string]handlers.Check{
				"postgres": pool.Ping,
			},
			close: pool.Close,
		}, nil

	default:
		return stores{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

// openCache picks Redis when REDIS_ADDR is set and registers its readiness check.
func openCache(cfg config.Config, checks map[string]handlers.Check, log *slog.Logger) (cache.Store, func()) {
	if cfg.RedisAddr == "" {
		return cache.New(cfg.CacheTTL()), func() {}
	}

	rc := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	checks["redis"] = rc.Ping

	log.Info("content cache backed by redis", "addr", cfg.RedisAddr)

	return cache.NewRedis(rc.Raw(), cfg.CacheTTL(), log), func() {
		if err := rc.Close(); err != nil {
			log.Warn("redis close failed", "err", err)
		}
	}
}
