package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TerraMA2/terrama2-sub002/internal/cache"
	"github.com/TerraMA2/terrama2-sub002/internal/config"
	"github.com/TerraMA2/terrama2-sub002/internal/exportation"
	"github.com/TerraMA2/terrama2-sub002/internal/health"
	"github.com/TerraMA2/terrama2-sub002/internal/observability"
	"github.com/TerraMA2/terrama2-sub002/internal/rest"
	"github.com/TerraMA2/terrama2-sub002/internal/semantics"
	"github.com/TerraMA2/terrama2-sub002/internal/service"
	"github.com/TerraMA2/terrama2-sub002/internal/storage/postgres"
	redisadapter "github.com/TerraMA2/terrama2-sub002/internal/storage/redis"
	s3adapter "github.com/TerraMA2/terrama2-sub002/internal/storage/s3"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", os.Getenv(config.EnvPrefix+"CONFIG"), "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Observability ---
	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
		Output: "stdout",
	})
	logger.WithField("version", observability.Version).Info("Starting TerraMA2 model server")

	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:      cfg.Observability.TracingEnabled,
		ServiceName:  "terrama2",
		Exporter:     cfg.Observability.TraceExporter,
		OTLPEndpoint: cfg.Observability.OTLPEndpoint,
		SampleRatio:  cfg.Observability.SampleRatio,
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to init tracing, continuing without")
	} else if tp != nil {
		defer func() { _ = tp.Shutdown(context.Background()) }()
		logger.Info("OpenTelemetry tracing enabled")
	}

	// --- Semantics ---
	registry, err := semantics.Load(cfg.Semantics.Dir, logger.ForComponent("semantics"))
	if err != nil {
		log.Fatalf("Failed to load semantics from %s: %v", cfg.Semantics.Dir, err)
	}
	logger.WithField("count", registry.Len()).Info("Semantics loaded")

	// --- Infrastructure adapters ---

	// PostgreSQL
	pgAdapter, err := postgres.NewAdapter(postgres.Config{
		DSN:             cfg.Storage.Postgres.DSN,
		MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer pgAdapter.Close()
	pgAdapter.SetQueryObserver(func(name string, d time.Duration, rows int, err error) {
		metrics.PGQueryLatency.WithLabelValues(name).Observe(d.Seconds())
	})
	loader := postgres.NewLoader(pgAdapter, registry, logger, metrics)

	// Redis
	redisAdapter, err := redisadapter.NewAdapter(redisadapter.Config{
		Address:  cfg.Storage.Redis.Address,
		Password: cfg.Storage.Redis.Password,
		DB:       cfg.Storage.Redis.DB,
		PoolSize: cfg.Storage.Redis.PoolSize,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisAdapter.Close()
	redisAdapter.SetLatencyObserver(func(command string, d time.Duration) {
		metrics.RedisLatency.WithLabelValues(command).Observe(d.Seconds())
	})

	// S3
	s3Adapter, err := s3adapter.NewAdapter(ctx, s3adapter.Config{
		Endpoint:        cfg.Storage.S3.Endpoint,
		Bucket:          cfg.Storage.S3.Bucket,
		Region:          cfg.Storage.S3.Region,
		AccessKeyID:     cfg.Storage.S3.AccessKeyID,
		SecretAccessKey: cfg.Storage.S3.SecretAccessKey,
		UsePathStyle:    cfg.Storage.S3.UsePathStyle,
	})
	if err != nil {
		log.Fatalf("Failed to create S3 adapter: %v", err)
	}
	s3Adapter.SetOperationObserver(func(op string, d time.Duration, bytes int, err error) {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.S3OperationsTotal.WithLabelValues(op, status).Inc()
		metrics.S3Latency.WithLabelValues(op).Observe(d.Seconds())
		if bytes > 0 {
			metrics.S3BytesTotal.WithLabelValues(op).Add(float64(bytes))
		}
	})

	// --- Model services ---

	snapshots := cache.NewSnapshotStore(cache.Config{
		L1Capacity: cfg.Cache.L1Capacity,
		L1TTL:      cfg.Cache.L1TTL,
		L2TTL:      cfg.Cache.L2TTL,
	}, redisAdapter, logger, metrics)
	go watchInvalidations(ctx, redisAdapter, snapshots, logger)

	exporter := exportation.NewExporter(s3Adapter, cfg.Export.Prefix, registry, logger, metrics)

	dispatcher := service.NewDispatcher(logger)
	for _, svc := range cfg.Services {
		dispatcher.Register(service.NewClient(service.Config{
			ID:      svc.ID,
			Name:    svc.Name,
			Type:    service.Type(svc.Type),
			Address: svc.Address(),
			Timeout: svc.Timeout,
		}, logger, metrics))
	}
	logger.WithField("instances", len(cfg.Services)).Info("Native services registered")

	// --- Health tracking ---
	healthTracker := health.NewTracker(logger.ForComponent("health"))
	healthTracker.RegisterPostgres(pgAdapter)
	healthTracker.RegisterRedis(redisAdapter)
	healthTracker.RegisterS3(s3Adapter, cfg.Export.Prefix+"/")
	healthTracker.RegisterServices(dispatcher)
	go healthTracker.RunLoop(ctx, cfg.Server.HealthInterval)
	go func() {
		ticker := time.NewTicker(cfg.Server.HealthInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.PGConnectionsOpen.Set(float64(pgAdapter.OpenConnections()))
			}
		}
	}()

	// --- REST server ---
	restSrv := rest.NewServer(cfg.Server.RESTAddress, nil)
	restSrv.SetHealthSource(healthTracker)
	restSrv.Register(
		rest.NewAPIHandler(registry, logger, metrics),
		rest.NewQueryHandler(loader, snapshots, registry, logger, metrics),
		rest.NewAdminHandler(loader, dispatcher, exporter, logger),
	)
	if cfg.Observability.MetricsEnabled {
		restSrv.SetMetricsRecorder(func(endpoint, method string, statusCode int, duration time.Duration) {
			status := fmt.Sprintf("%d", statusCode)
			metrics.RequestsTotal.WithLabelValues(endpoint, method, status).Inc()
			metrics.RequestDuration.WithLabelValues(endpoint, method).Observe(duration.Seconds())
		})
	}

	go func() {
		logger.ForComponent("rest").Infof("REST server listening on %s", cfg.Server.RESTAddress)
		if err := restSrv.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("REST server error: %v", err)
		}
	}()

	logger.Info("TerraMA2 model server started")

	// Wait for shutdown signal or SIGHUP for log level reload
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				logger.Info("Received SIGHUP, reloading configuration...")
				newCfg, err := config.Load(*configPath)
				if err != nil {
					logger.WithError(err).Error("Configuration reload failed, keeping current settings")
					continue
				}
				if err := logger.SetLevelString(newCfg.Observability.LogLevel); err != nil {
					logger.WithError(err).Warn("Invalid log level, keeping current one")
				}
				metrics.ConfigReloadsTotal.Inc()
				logger.WithField("log_level", logger.GetLevel().String()).Info("Configuration reloaded")
				continue
			}
			logger.Infof("Received signal %v, shutting down...", sig)
			cancel()
		case <-ctx.Done():
		}
		break
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := restSrv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("REST server shutdown error")
	}

	logger.Info("Server stopped")
}

// watchInvalidations evicts snapshots dropped by peer servers from the local
// L1.
func watchInvalidations(ctx context.Context, redis *redisadapter.Adapter, snapshots *cache.SnapshotStore, logger *observability.Logger) {
	sub := redis.Subscribe(ctx, cache.InvalidationChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			snapshots.Evict(msg.Payload)
			logger.ForComponent("cache").WithField("key", msg.Payload).Debug("Snapshot evicted by peer")
		}
	}
}
