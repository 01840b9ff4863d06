package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/shardkeeper/shardkeeper/internal/config"
	"github.com/shardkeeper/shardkeeper/internal/handler"
	"github.com/shardkeeper/shardkeeper/internal/health"
	"github.com/shardkeeper/shardkeeper/internal/metrics"
	"github.com/shardkeeper/shardkeeper/internal/service"
	"github.com/shardkeeper/shardkeeper/internal/store"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	// Initialize logger
	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting shardkeeper daemon",
		zap.String("directory_host", cfg.Directory.Host),
		zap.Int("directory_port", cfg.Directory.Port),
		zap.String("directory_name", cfg.Directory.Database),
		zap.Int("shards", len(cfg.Shards.DSNs)),
		zap.Int("port", cfg.Server.Port))

	// Initialize metrics
	m := metrics.NewMetrics()
	logger.Info("Metrics initialized")

	// Initialize the directory store (PostgreSQL)
	directory, err := store.NewPostgresDirectoryStore(
		cfg.Directory.Host,
		cfg.Directory.Port,
		cfg.Directory.Database,
		cfg.Directory.User,
		cfg.Directory.Password,
		cfg.Directory.MaxConnections,
		cfg.Directory.MinConnections,
		logger,
	)
	if err != nil {
		logger.Fatal("Failed to initialize directory store", zap.Error(err))
	}
	defer directory.Close()
	logger.Info("Directory store initialized")

	// Initialize per-shard connection pools and the schema store
	shardDSNs, err := cfg.Shards.ShardDSNs()
	if err != nil {
		logger.Fatal("Failed to parse shard DSNs", zap.Error(err))
	}
	pools := store.NewShardPools(shardDSNs, cfg.Shards.MaxConnsPerShard, logger)
	defer pools.Close()
	schemas := store.NewPostgresSchemaStore(pools, logger)
	logger.Info("Schema store initialized")

	// Initialize the tenant record cache
	var cache store.TenantCache
	if cfg.Redis.Enabled {
		cache, err = store.NewRedisTenantCache(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			logger,
		)
		if err != nil {
			logger.Fatal("Failed to initialize Redis tenant cache", zap.Error(err))
		}
		logger.Info("Redis tenant cache initialized")
	} else {
		cache = store.NewInMemoryTenantCache(cfg.Cache.MaxSize, logger)
		logger.Info("In-memory tenant cache initialized")
	}
	defer cache.Close()

	// Initialize services
	pipeline := service.NewPipeline(
		directory,
		schemas,
		cfg.Pipeline.FailOnMissing,
		cfg.Pipeline.GroupWorkers,
		cfg.Pipeline.LoadTimeout,
		m,
		logger,
	)
	tenantService := service.NewTenantService(directory, pipeline, cache, cfg.Cache.TenantRecordTTL, m, logger)
	placementService := service.NewPlacementService(directory, cfg.Placement.SchemaPrefix, m, logger)
	logger.Info("Services initialized")

	// Wire up the HTTP surface
	mux := http.NewServeMux()

	adminHandler := handler.NewAdminHandler(tenantService, placementService, logger)
	adminHandler.Register(mux)

	healthChecker := health.NewHealthChecker(directory, pools, cache, logger)
	mux.HandleFunc("/healthz", healthChecker.LivenessHandler)
	mux.HandleFunc("/readyz", healthChecker.ReadinessHandler)

	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, promhttp.Handler())
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Admin server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Admin server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}

	logger.Info("Shardkeeper daemon stopped")
}

// buildLogger constructs the zap logger per the logging configuration.
func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
