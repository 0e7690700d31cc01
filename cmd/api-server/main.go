package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/turnoflow/scheduling/internal/api"
	"github.com/turnoflow/scheduling/internal/booking"
	"github.com/turnoflow/scheduling/internal/cache"
	"github.com/turnoflow/scheduling/internal/config"
	"github.com/turnoflow/scheduling/internal/db"
	"github.com/turnoflow/scheduling/internal/logger"
	"github.com/turnoflow/scheduling/internal/notify"
	redisclient "github.com/turnoflow/scheduling/internal/redis"
)

const version = "1.2.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load error: " + err.Error())
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic("logger init error: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("api-server starting",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("cache_backend", string(cfg.CacheBackend)))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.Connect(pgCtx, cfg.PostgresDSN, cfg.PgMaxConns)
	cancelPg()
	if err != nil {
		log.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	log.Info("connected to postgres")

	rdb, err := redisclient.New(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal("redis connection error", zap.Error(err))
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn("closing redis", zap.Error(err))
		}
	}()
	log.Info("connected to redis")

	repo := booking.NewPgRepository(pgPool)

	var store cache.Store
	if cfg.CacheBackend == config.CacheMemory {
		memStore := cache.NewMemoryStore()
		go memStore.RunSweeper(rootCtx, cfg.SweepInterval)
		store = memStore
	} else {
		store = cache.NewRedisStore(rdb)
	}
	availCache := cache.New(store, cfg.CacheTTL, log)

	notifier := notify.NewRedisNotifier(rdb, log)
	locker := redisclient.NewDayLocker(rdb, cfg.LockTTL, cfg.LockMaxWait)

	resolver := booking.NewResolver(repo, repo, repo)
	coordinator := booking.NewCoordinator(repo, repo, repo, repo, locker, availCache, notifier, log)

	router := api.NewRouter(api.RouterConfig{
		Coordinator: coordinator,
		Resolver:    resolver,
		Repo:        repo,
		Configs:     repo,
		Treatments:  repo,
		Cache:       availCache,
		Subscriber:  notifier,
		PgPool:      pgPool,
		Redis:       rdb,
		Logger:      log,
		Env:         cfg.Env,
		Version:     version,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	log.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}

	log.Info("api-server stopped")
}
