package main

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/davidleathers/normative-engine/internal/api/rest"
	"github.com/davidleathers/normative-engine/internal/domain/normative"
	"github.com/davidleathers/normative-engine/internal/infrastructure/cache"
	"github.com/davidleathers/normative-engine/internal/infrastructure/config"
	"github.com/davidleathers/normative-engine/internal/infrastructure/repository"
	"github.com/davidleathers/normative-engine/internal/infrastructure/telemetry"
	"github.com/davidleathers/normative-engine/internal/infrastructure/validation"
	"github.com/davidleathers/normative-engine/internal/metrics"
	"github.com/davidleathers/normative-engine/internal/service/conflict"
	engine "github.com/davidleathers/normative-engine/internal/service/normative"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := telemetry.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to setup logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	provider, err := telemetry.InitializeOpenTelemetry(ctx, &telemetry.Config{
		ServiceName:    "nce-api",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SamplingRate:   cfg.Telemetry.SamplingRate,
		ExportTimeout:  cfg.Telemetry.ExportTimeout,
		BatchTimeout:   cfg.Telemetry.BatchTimeout,
	})
	if err != nil {
		logger.Fatal("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := provider.Shutdown(ctx); err != nil {
			logger.Error("failed to shutdown telemetry", zap.Error(err))
		}
	}()

	repo, cleanup, err := buildRepository(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize repository", zap.Error(err))
	}
	defer cleanup()

	var frameworkCache engine.FrameworkCache
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewFrameworkCache(&cfg.Redis, logger.Named("cache"))
		if err != nil {
			logger.Fatal("failed to initialize framework cache", zap.Error(err))
		}
		defer redisCache.Close()
		frameworkCache = redisCache
	}

	registry, err := metrics.NewRegistry("nce.engine")
	if err != nil {
		logger.Fatal("failed to initialize metrics registry", zap.Error(err))
	}

	detector := conflict.NewDetector(logger, conflict.Config{
		SimilarityThreshold:   cfg.Detector.SimilarityThreshold,
		ScopeOverlapThreshold: cfg.Detector.ScopeOverlapThreshold,
		Workers:               cfg.Detector.Workers,
	})

	service := engine.NewService(
		logger,
		repo,
		validation.NewFrameworkValidator(),
		detector,
		frameworkCache,
		registry,
		engine.ServiceConfig{
			DirectConflictThreshold: cfg.Engine.DirectConflictThreshold,
			CompliantReviewDays:     cfg.Engine.CompliantReviewDays,
			NonCompliantReviewDays:  cfg.Engine.NonCompliantReviewDays,
		},
	)

	go serveMetrics(cfg, logger)

	server := rest.NewServer(cfg, logger, service, registry)
	if err := server.Start(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// buildRepository picks PostgreSQL when a database URL is configured and an
// in-memory store otherwise.
func buildRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (normative.Repository, func(), error) {
	if cfg.Database.URL == "" {
		logger.Info("no database configured, using in-memory framework store")
		return repository.NewMemoryFrameworkRepository(), func() {}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	logger.Info("connected to PostgreSQL",
		zap.Int("max_conns", cfg.Database.MaxOpenConns))

	return repository.NewFrameworkRepository(pool), pool.Close, nil
}
