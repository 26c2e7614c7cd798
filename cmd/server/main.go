package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"arefa/internal/assets"
	"arefa/internal/export/archive"
	"arefa/internal/export/cache"
	"arefa/internal/export/document"
	exportmetrics "arefa/internal/export/metrics"
	"arefa/internal/platform/config"
	"arefa/internal/platform/database"
	"arefa/internal/platform/health"
	"arefa/internal/platform/logger"
	"arefa/internal/platform/redis"
	"arefa/internal/platform/tracer"
	"arefa/internal/registry/handler"
	regmetrics "arefa/internal/registry/metrics"
	"arefa/internal/registry/models"
	"arefa/internal/registry/service"
	"arefa/internal/registry/sheets"
	"arefa/internal/registry/store"
	httptransport "arefa/internal/transport/http"
	"arefa/pkg/platform/circuit"
	request "arefa/pkg/platform/middleware/request"
)

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("initializing arefa",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
	)

	hc := health.New(cfg.Environment)

	traderStore, operatorStore, closeDB, err := openStores(ctx, cfg.Database, hc, log)
	if err != nil {
		return err
	}
	defer closeDB()

	docCache, redisClient, err := openCache(cfg.Redis, hc, log)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck // process exit
	}

	photos, err := assets.New(cfg.Assets)
	if err != nil {
		return fmt.Errorf("init assets: %w", err)
	}
	hc.SetBackend("assets", photos.Backend())

	exportMetrics := exportmetrics.New()
	renderer := document.New(photos,
		document.WithPhotoWait(cfg.Export.PhotoWait),
		document.WithLogger(log),
		document.WithMetrics(exportMetrics),
	)
	cached := cache.NewCachingRenderer(renderer, docCache, cfg.Export.DocumentCacheTTL, log, exportMetrics,
		cache.WithBreaker(circuit.New("document-cache", circuit.WithCooldown(30*time.Second))),
	)
	builder := archive.NewBuilder(cached, photos,
		archive.WithLogger(log),
		archive.WithMetrics(exportMetrics),
		archive.WithTracer(tracer.NewOTel(nil)),
	)

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(regmetrics.New()),
		service.WithBatchSize(cfg.Export.BatchSize),
	}
	traders := service.NewRecords[*models.Trader](sheets.Trader, traderStore, photos, renderer, builder, opts...)
	operators := service.NewRecords[*models.Operator](sheets.Operator, operatorStore, photos, renderer, builder, opts...)
	stats := service.NewStats(traderStore, operatorStore, opts...)

	router := httptransport.NewRouter(httptransport.Config{
		Logger:  log,
		Metrics: request.NewMetrics(),
		Health:  hc,
		Assets:  photos.Handler(),
		Records: []httptransport.RecordRoutes{
			handler.New[models.Trader, *models.Trader](handler.TraderRoute, traders, log),
			handler.New[models.Operator, *models.Operator](handler.OperatorRoute, operators, log),
		},
		Stats:          handler.NewStats(stats, log),
		AllowedOrigins: cfg.AllowedOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	if redisClient != nil {
		g.Go(func() error {
			redisClient.WatchPoolStats(gctx, 15*time.Second)
			return nil
		})
	}
	return g.Wait()
}

// openStores picks the record store from DATABASE_URL: PostgreSQL or SQLite
// when set, in memory otherwise.
func openStores(ctx context.Context, cfg config.DatabaseConfig, hc *health.Handler, log *slog.Logger) (store.TraderStore, store.OperatorStore, func(), error) {
	pool, err := database.New(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init database: %w", err)
	}
	if pool == nil {
		log.Warn("DATABASE_URL not set, records are kept in memory")
		hc.SetBackend("records", "memory")
		return store.NewInMemory[*models.Trader](), store.NewInMemory[*models.Operator](), func() {}, nil
	}

	if err := pool.Migrate(ctx); err != nil {
		pool.Close() //nolint:errcheck // best-effort cleanup on init failure
		return nil, nil, nil, err
	}
	hc.SetBackend("records", string(pool.Dialect()))
	hc.RegisterCheck("database", pool.Health)
	log.Info("database ready", "dialect", pool.Dialect())

	closeFn := func() {
		if err := pool.Close(); err != nil {
			log.Warn("closing database", "error", err)
		}
	}
	return store.NewTraderSQL(pool.DB(), pool.Dialect()), store.NewOperatorSQL(pool.DB(), pool.Dialect()), closeFn, nil
}

// openCache connects the rendered-document cache when REDIS_URL is set.
func openCache(cfg config.RedisConfig, hc *health.Handler, log *slog.Logger) (cache.Store, *redis.Client, error) {
	client, err := redis.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init redis: %w", err)
	}
	if client == nil {
		hc.SetBackend("cache", "none")
		return nil, nil, nil
	}
	hc.SetBackend("cache", "redis")
	hc.RegisterOptionalCheck("redis", client.Health)
	log.Info("document cache enabled")
	return cache.NewRedis(client.Client), client, nil
}
