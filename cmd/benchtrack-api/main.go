package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Application
	applicationPort "github.com/mangalakulal105/benchtrack/internal/application/port"
	"github.com/mangalakulal105/benchtrack/internal/application/usecase"

	// Domain
	"github.com/mangalakulal105/benchtrack/internal/domain/service"

	// Infrastructure
	redisCache "github.com/mangalakulal105/benchtrack/internal/infrastructure/cache/redis"
	"github.com/mangalakulal105/benchtrack/internal/infrastructure/envprobe"
	natsInfra "github.com/mangalakulal105/benchtrack/internal/infrastructure/messaging/nats"
	wsInfra "github.com/mangalakulal105/benchtrack/internal/infrastructure/notification/websocket"
	"github.com/mangalakulal105/benchtrack/internal/infrastructure/observability/cloudwatch"
	dynamodbRepo "github.com/mangalakulal105/benchtrack/internal/infrastructure/persistence/dynamodb"
	"github.com/mangalakulal105/benchtrack/internal/infrastructure/persistence/postgres"
	s3storage "github.com/mangalakulal105/benchtrack/internal/infrastructure/storage/s3"

	// Interfaces
	httpInterface "github.com/mangalakulal105/benchtrack/internal/interfaces/http"
	"github.com/mangalakulal105/benchtrack/internal/interfaces/http/handler"
	"github.com/mangalakulal105/benchtrack/internal/interfaces/http/middleware"

	// Shared
	"github.com/mangalakulal105/benchtrack/pkg/config"
	"github.com/mangalakulal105/benchtrack/pkg/logger"

	_ "github.com/lib/pq"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger
	log := logger.New(os.Getenv("LOG_LEVEL"))
	log.Info("Starting Benchtrack API")

	// 3. Connect to the database
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Error("Failed to connect to database", err)
		os.Exit(1)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		log.Error("Failed to ping database", err)
		os.Exit(1)
	}
	log.Info("Database connected successfully")

	// 4. Dependency Injection - Infrastructure Layer

	runRepository := postgres.NewPostgresRunRepository(db)

	hub := wsInfra.NewHub(log)

	environmentProbe := envprobe.NewHostProbe()

	// 5. Dependency Injection - Domain Layer

	runValidator := service.NewRunValidator()
	trendAnalyzer := service.NewTrendAnalyzerWith(cfg.Benchmarks.RegressionThreshold, 0)

	// 5.5. CloudWatch Integration

	var measurementPublisher applicationPort.MeasurementPublisher
	var cloudwatchMeasurements *cloudwatch.MeasurementPublisher
	if cfg.CloudWatch.MetricsEnabled {
		publisherImpl, initErr := cloudwatch.NewMeasurementPublisher(context.Background(),
			cloudwatch.MeasurementPublisherConfig{
				Namespace:         cfg.CloudWatch.MetricsNamespace,
				Region:            cfg.CloudWatch.Region,
				Endpoint:          cfg.CloudWatch.Endpoint,
				AccessKeyID:       cfg.CloudWatch.AccessKeyID,
				SecretAccessKey:   cfg.CloudWatch.SecretAccessKey,
				DefaultDimensions: cfg.CloudWatch.MetricsDimensions,
				BufferSize:        cfg.CloudWatch.MetricsBufferSize,
				FlushInterval:     cfg.CloudWatch.MetricsFlushInterval,
				StorageResolution: cfg.CloudWatch.MetricsStorageResolution,
			})
		if initErr != nil {
			log.Error("Failed to initialize CloudWatch measurement publisher", initErr)
			os.Exit(1)
		}
		measurementPublisher = publisherImpl
		cloudwatchMeasurements = publisherImpl
		log.Info("CloudWatch measurement publisher initialized")
	} else {
		log.Warn("CloudWatch measurement publishing is disabled")
	}

	var logsPublisher applicationPort.LogPublisher
	if cfg.CloudWatch.LogsEnabled {
		publisherImpl, initErr := cloudwatch.NewLogsPublisher(context.Background(),
			cloudwatch.LogsPublisherConfig{
				LogGroupName:    cfg.CloudWatch.LogGroupName,
				LogStreamName:   cfg.CloudWatch.LogStreamName,
				Region:          cfg.CloudWatch.Region,
				Endpoint:        cfg.CloudWatch.Endpoint,
				AccessKeyID:     cfg.CloudWatch.AccessKeyID,
				SecretAccessKey: cfg.CloudWatch.SecretAccessKey,
				BufferSize:      cfg.CloudWatch.LogsBufferSize,
				FlushInterval:   cfg.CloudWatch.LogsFlushInterval,
				AutoCreate:      true,
			})
		if initErr != nil {
			log.Error("Failed to initialize CloudWatch logs publisher", initErr)
			os.Exit(1)
		}
		logsPublisher = publisherImpl
		log.SetLogPublisher(logsPublisher)
		log.Info("CloudWatch logs publisher initialized")
	} else {
		log.Warn("CloudWatch logs publishing is disabled")
	}

	// 5.6. NATS Event Publisher
	var eventPublisher applicationPort.EventPublisher
	if cfg.NATS.Enabled {
		publisherImpl, initErr := natsInfra.NewRunEventPublisher(cfg.NATS.URL, log)
		if initErr != nil {
			log.Warn("Failed to connect to NATS, continuing without event publishing", "error", initErr.Error())
		} else {
			eventPublisher = publisherImpl
			defer eventPublisher.Close()
			log.Info("NATS event publisher initialized", "url", cfg.NATS.URL)
		}
	} else {
		log.Warn("NATS event publishing is disabled")
	}

	// 5.7. Redis cache
	var cache applicationPort.Cache
	if cfg.Redis.Enabled {
		cacheImpl, initErr := redisCache.NewHistoryCache(redisCache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			TTL:          cfg.Redis.TTL,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if initErr != nil {
			log.Warn("Failed to connect to Redis, continuing without cache", "error", initErr.Error())
		} else {
			cache = cacheImpl
			defer cache.Close()
			log.Info("Redis cache initialized")
		}
	} else {
		log.Warn("Redis cache is disabled")
	}

	// 5.8. DynamoDB run index
	var runIndex applicationPort.RunIndex
	if cfg.Dynamo.Enabled {
		indexImpl, initErr := dynamodbRepo.NewRunIndexRepository(context.Background(), dynamodbRepo.Config{
			TableName:       cfg.Dynamo.TableRunIndex,
			Region:          cfg.Dynamo.Region,
			Endpoint:        cfg.Dynamo.Endpoint,
			AccessKeyID:     cfg.Dynamo.AccessKeyID,
			SecretAccessKey: cfg.Dynamo.SecretAccessKey,
			StrongReads:     cfg.Dynamo.StrongReads,
		})
		if initErr != nil {
			log.Error("Failed to initialize run index", initErr)
			os.Exit(1)
		}
		runIndex = indexImpl
		log.Info("Run index initialized", "provider", "dynamodb")
	} else {
		log.Warn("DynamoDB run index is disabled, listing will use the database")
	}

	// 5.9. S3 history store
	var historyStore applicationPort.HistoryStore
	if cfg.S3.Enabled {
		storeImpl, initErr := s3storage.NewHistoryStore(context.Background(), s3storage.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
			URLMode:         s3storage.URLMode(cfg.S3.URLMode),
			PresignedTTL:    cfg.S3.PresignedTTL,
		})
		if initErr != nil {
			log.Error("Failed to initialize history store", initErr)
			os.Exit(1)
		}
		historyStore = storeImpl
	} else {
		log.Warn("S3 history store is disabled, document publication will fail")
	}

	// 6. Dependency Injection - Application Layer (Use Cases)

	ingestRunUC := usecase.NewIngestRunUseCase(
		runRepository,
		runIndex,             // Can be nil if DynamoDB disabled
		cache,                // Can be nil if Redis disabled
		hub,
		runValidator,
		trendAnalyzer,
		measurementPublisher, // Can be nil if CloudWatch disabled
		eventPublisher,       // Can be nil if NATS disabled
		environmentProbe,
		log,
	)

	getSuiteHistoryUC := usecase.NewGetSuiteHistoryUseCase(
		runRepository,
		trendAnalyzer,
		log,
	)

	getSuiteHistoryCachedUC := usecase.NewGetSuiteHistoryCachedUseCase(
		getSuiteHistoryUC,
		cache,
		log,
	)

	getLatestRunsUC := usecase.NewGetLatestRunsUseCase(runRepository, log)

	listRunsUC := usecase.NewListRunsUseCase(
		runIndex,
		runRepository,
		usecase.ListRunsConfig{FallbackToRepository: cfg.Dynamo.FallbackToDB},
		log,
	)

	publishHistoryUC := usecase.NewPublishHistoryUseCase(
		runRepository,
		historyStore,
		usecase.PublishHistoryConfig{
			KeyPrefix: cfg.Benchmarks.KeyPrefix,
			RepoURL:   cfg.Benchmarks.RepoURL,
		},
		log,
	)

	pruneHistoryUC := usecase.NewPruneHistoryUseCase(
		runRepository,
		usecase.PruneHistoryConfig{MaxRunsPerSuite: cfg.Benchmarks.MaxRunsPerSuite},
		log,
	)

	// 7. Dependency Injection - Interfaces Layer (HTTP Handlers)

	authConfig := middleware.AuthConfig{
		Enabled:     cfg.Security.AuthEnabled,
		BearerToken: cfg.Security.AuthToken,
	}

	dashboardHandler := handler.NewDashboardHandler(getLatestRunsUC, log)
	websocketHandler := handler.NewWebSocketHandler(hub, cfg.Security.AllowedOrigins, authConfig, log)
	runsAPIHandler := handler.NewRunsAPIHandler(
		ingestRunUC,
		listRunsUC,
		authConfig,
		cfg.Ingest.MaxPayloadBytes,
		cfg.Ingest.RateLimitPerMinute,
		cfg.Ingest.AllowBackfill,
		log,
	)
	historyAPIHandler := handler.NewHistoryAPIHandler(
		getSuiteHistoryCachedUC,
		getLatestRunsUC,
		cfg.Benchmarks.MaxHistoryDuration,
		log,
	)
	documentAPIHandler := handler.NewDocumentAPIHandler(publishHistoryUC, authConfig, log)
	authAPIHandler := handler.NewAuthAPIHandler(authConfig, log)

	router := httpInterface.NewRouter(
		dashboardHandler,
		websocketHandler,
		runsAPIHandler,
		historyAPIHandler,
		documentAPIHandler,
		authAPIHandler,
		cfg.Security,
		log,
	)

	// 8. Start background processes

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run()
	log.Info("WebSocket hub started")

	// Republish the dashboard document after ingestion settles
	if cfg.Benchmarks.AutoPublish {
		go runAutoPublisher(ctx, publishHistoryUC, eventPublisher == nil, cfg.Benchmarks.PublishDebounce, log)
	}

	// Prune oversized suites once a day
	if cfg.Benchmarks.MaxRunsPerSuite > 0 {
		go func() {
			ticker := time.NewTicker(24 * time.Hour)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					deleted, err := pruneHistoryUC.Execute(ctx)
					if err != nil {
						log.Error("Failed to prune history", err)
						continue
					}
					if deleted > 0 {
						log.Info("History pruned", "deleted_runs", deleted)
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// 9. Configure the HTTP server

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("HTTP server starting", "port", cfg.Server.Port)
		log.Info("Dashboard available at http://localhost:" + cfg.Server.Port)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", err)
			os.Exit(1)
		}
	}()

	// 10. Wait for the shutdown signal

	<-sigChan
	log.Info("Shutdown signal received, starting graceful shutdown...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Flush CloudWatch buffers before shutdown
	if cloudwatchMeasurements != nil {
		log.Info("Flushing CloudWatch measurement buffer...")
		if err := cloudwatchMeasurements.Flush(shutdownCtx); err != nil {
			log.Error("Failed to flush CloudWatch measurements", err)
		}
	}

	if logsPublisher != nil {
		log.Info("Flushing CloudWatch logs buffer...")
		if err := logsPublisher.Flush(shutdownCtx); err != nil {
			log.Error("Failed to flush CloudWatch logs", err)
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", err)
	}

	log.Info("Server stopped gracefully")
}

// runAutoPublisher republishes the history document on a debounce timer.
// When no event stream is available it falls back to fixed-interval
// republication.
func runAutoPublisher(
	ctx context.Context,
	publishHistoryUC *usecase.PublishHistoryUseCase,
	fixedInterval bool,
	debounce time.Duration,
	log *logger.Logger,
) {
	if debounce <= 0 {
		debounce = 10 * time.Second
	}

	interval := debounce
	if fixedInterval {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastPublished int64

	for {
		select {
		case <-ticker.C:
			doc, err := publishHistoryUC.Render(ctx)
			if err != nil {
				log.Error("Failed to render history document for auto-publish", err)
				continue
			}
			if doc.LastUpdate == lastPublished {
				continue
			}

			if _, err := publishHistoryUC.Execute(ctx); err != nil {
				log.Error("Failed to auto-publish history document", err)
				continue
			}
			lastPublished = doc.LastUpdate
		case <-ctx.Done():
			return
		}
	}
}
