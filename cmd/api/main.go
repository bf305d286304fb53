package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/persistence"
	voteUseCase "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/usecase/vote"
	walletUseCase "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/usecase/wallet"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/api/middleware"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/api/routes"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/cache"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/database"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/memory"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/metrics"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/notification"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/retry"
	timeProvider "github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/adapter/time"
	"github.com/amirhossein-jamali/gamestore-ledger/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const serviceName = "gamestore-ledger"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate essential configuration
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	appLogger := logger.NewZapLogger(cfg.Environment == config.Production, coreport.ParseLogLevel(cfg.Logger.Level), serviceName)
	defer func() { _ = appLogger.Flush() }()

	tp := timeProvider.NewRealTimeProvider()

	// Background workers stop when rootCtx is cancelled
	rootCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	var background sync.WaitGroup

	var recorder *metrics.Recorder
	var usecaseMetrics coreport.MetricsRecorder = metrics.NoopRecorder{}
	if cfg.Server.MetricsEnabled {
		recorder = metrics.NewRecorder("gamestore_ledger")
		usecaseMetrics = recorder
	}

	healthHandler := handler.NewHealthHandler(appLogger)

	// Storage
	uow, closeStorage, err := setupStorage(rootCtx, cfg, appLogger, tp, recorder, healthHandler)
	if err != nil {
		appLogger.Error("Failed to initialize storage", map[string]any{
			"driver": cfg.Database.Driver,
			"error":  err.Error(),
		})
		os.Exit(1)
	}
	defer closeStorage()

	// Redis backs both the read cache and the email queue
	var redisClient *redis.Client
	if cfg.Cache.Enabled || cfg.Email.Enabled {
		redisClient, err = cache.NewRedisClient(rootCtx, cache.RedisSettings{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			ClientName:   serviceName,
		})
		if err != nil {
			appLogger.Error("Failed to connect to Redis", map[string]any{
				"host":  cfg.Redis.Host,
				"port":  cfg.Redis.Port,
				"error": err.Error(),
			})
			os.Exit(1)
		}
		defer redisClient.Close()

		healthHandler.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	var readCache coreport.Cache = cache.NewNoopCache()
	if cfg.Cache.Enabled {
		readCache = cache.NewRedisCache(redisClient, cfg.Cache.Prefix, appLogger)
	}

	var notifier coreport.Notifier = notification.NewNoopNotifier(appLogger)
	if cfg.Email.Enabled {
		queueNotifier := notification.NewQueueNotifier(redisClient, cfg.Email.Queue, cfg.Ledger.Currency, cfg.Email.Signature, tp, appLogger)
		notifier = queueNotifier

		worker := notification.NewWorker(redisClient, &notification.SMTPSender{
			From:     cfg.Email.From,
			FromName: cfg.Email.FromName,
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			User:     cfg.Email.SMTPUser,
			Password: cfg.Email.SMTPPassword,
		}, notification.WorkerConfig{
			Queue:       cfg.Email.Queue,
			MaxAttempts: cfg.Email.MaxAttempts,
			RetryDelay:  coreport.Duration(cfg.Email.RetryDelay),
		}, tp, appLogger)
		background.Add(1)
		go func() {
			defer background.Done()
			worker.Run(rootCtx)
		}()

		if recorder != nil {
			background.Add(1)
			go func() {
				defer background.Done()
				sampleQueueLength(rootCtx, queueNotifier, recorder, appLogger)
			}()
		}
	}

	// Initialize use cases
	cacheTTL := coreport.Duration(cfg.Cache.TTL)
	votes := voteUseCase.NewVoteUseCase(uow, readCache, usecaseMetrics, tp, appLogger, cacheTTL)
	wallets := walletUseCase.NewWalletUseCase(uow, readCache, notifier, usecaseMetrics, tp, appLogger, cacheTTL).
		WithPageSize(cfg.Ledger.DefaultPageSize, cfg.Ledger.MaxPageSize).
		WithCurrency(cfg.Ledger.Currency)

	// Initialize API handlers
	options := handler.Options{
		Retry: retry.Config{
			MaxAttempts:   cfg.Ledger.RetryAttempts,
			RetryInterval: cfg.Ledger.RetryBaseDelay,
			MaxInterval:   cfg.Ledger.RetryMaxDelay,
			JitterFactor:  0.2,
		},
		RequestTimeout: cfg.Ledger.RequestTimeout,
		Currency:       cfg.Ledger.Currency,
	}

	handlers := routes.Handlers{
		Vote:        handler.NewVoteHandler(votes, options, appLogger),
		Wallet:      handler.NewWalletHandler(wallets, options, appLogger),
		Transaction: handler.NewTransactionHandler(wallets, options, appLogger),
		Health:      healthHandler,
	}

	router := gin.New()

	if recorder != nil {
		handlers.Metrics = recorder.Handler()
		routes.SetupMiddlewares(router, appLogger, tp, recorder, cfg.Server.AllowedOrigins)
	} else {
		routes.SetupMiddlewares(router, appLogger, tp, nil, cfg.Server.AllowedOrigins)
	}

	if cfg.Server.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, 3*time.Minute, tp)
		router.Use(middleware.RateLimit(limiter, appLogger))
	}

	if cfg.Server.InternalToken == "" {
		appLogger.Warn("No internal token configured, internal routes will reject every request", nil)
	}
	routes.SetupRoutes(router, handlers, cfg.Server.InternalToken, appLogger)

	// Create HTTP server with configurable timeout values
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		appLogger.Info("Starting server", map[string]any{
			"addr":    server.Addr,
			"env":     cfg.Environment,
			"driver":  cfg.Database.Driver,
			"cache":   cfg.Cache.Enabled,
			"email":   cfg.Email.Enabled,
			"metrics": cfg.Server.MetricsEnabled,
		})

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Failed to start server", map[string]any{
				"error": err.Error(),
			})
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", map[string]any{
			"error": err.Error(),
		})
	}

	stopWorkers()
	if !waitGroupDone(&background, cfg.Server.ShutdownTimeout) {
		appLogger.Warn("Background workers did not stop in time", map[string]any{
			"timeout": cfg.Server.ShutdownTimeout.String(),
		})
	}
	appLogger.Info("Server exited gracefully", nil)
}

// waitGroupDone waits for wg up to timeout and reports whether it finished
func waitGroupDone(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// setupStorage builds the unit of work for the configured driver and returns
// a function releasing its resources
func setupStorage(
	ctx context.Context,
	cfg *config.Config,
	appLogger coreport.Logger,
	tp coreport.TimeProvider,
	recorder *metrics.Recorder,
	health *handler.HealthHandler,
) (persistence.UnitOfWork, func(), error) {
	if cfg.Database.Driver == database.DriverMemory {
		store := memory.NewStore(tp)
		seedMemoryTargets(store)
		appLogger.Warn("Using in-memory storage, data is lost on restart", nil)
		return memory.NewUnitOfWork(store, appLogger), func() {}, nil
	}

	port, err := strconv.Atoi(cfg.Database.Port)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid database port %q: %w", cfg.Database.Port, err)
	}

	dbConfig := &database.Config{
		Driver:          database.DriverPostgres,
		Host:            cfg.Database.Host,
		Port:            port,
		Username:        cfg.Database.Username,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		QueryTimeout:    cfg.Database.QueryTimeout,
		LockTimeout:     cfg.Database.LockTimeout,
		LogLevel:        cfg.Logger.Level,
		SlowThreshold:   200 * time.Millisecond,
		RetryAttempts:   cfg.Database.RetryAttempts,
		RetryDelay:      cfg.Database.RetryDelay,
	}

	dbManager := database.NewManager(dbConfig, appLogger, tp)
	if _, err := dbManager.Connect(ctx); err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := dbManager.Close(); err != nil {
			appLogger.Error("Failed to close database", map[string]any{"error": err.Error()})
		}
	}

	if err := dbManager.Migrate(ctx, cfg.Database.Seed); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if recorder != nil {
		if err := dbManager.StartMonitoring(recorder, 30*time.Second); err != nil {
			appLogger.Warn("Connection pool monitoring disabled", map[string]any{"error": err.Error()})
		}
	}

	health.Register("database", dbManager.Ping)
	return dbManager.CreateUnitOfWork(), closeDB, nil
}

// seedMemoryTargets mirrors the development seed data so the in-memory driver
// has something to vote on
func seedMemoryTargets(store *memory.Store) {
	seed := map[entity.TargetType][]uint64{
		entity.TargetPost:    {1, 2, 3},
		entity.TargetComment: {1, 2},
		entity.TargetReview:  {1, 2},
	}
	for kind, ids := range seed {
		for _, id := range ids {
			store.AddTarget(entity.VoteTarget{Type: kind, ID: id}, entity.VoteCounters{})
		}
	}
}

// sampleQueueLength publishes the email backlog until ctx is cancelled
func sampleQueueLength(ctx context.Context, queue *notification.QueueNotifier, recorder *metrics.Recorder, appLogger coreport.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := queue.QueueLength(ctx)
			if err != nil {
				appLogger.Debug("Failed to sample email queue length", map[string]any{"error": err.Error()})
				continue
			}
			recorder.SetEmailQueueLength(n)
		}
	}
}

// validateConfig ensures all required configuration values are present
func validateConfig(cfg *config.Config) error {
	var missingConfigs []string

	// Validate server configuration
	if cfg.Server.Port == 0 {
		missingConfigs = append(missingConfigs, "server.port")
	}

	if cfg.Server.ReadTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.readTimeout")
	}

	if cfg.Server.WriteTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.writeTimeout")
	}

	if cfg.Server.ShutdownTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.shutdownTimeout")
	}

	// Validate database configuration
	switch cfg.Database.Driver {
	case database.DriverMemory:
		if cfg.Environment == config.Production {
			return fmt.Errorf("database.driver %q is not allowed in production", database.DriverMemory)
		}
	case database.DriverPostgres:
		if cfg.Database.Host == "" {
			missingConfigs = append(missingConfigs, "database.host (or GSL_DB_HOST environment variable)")
		}
		if cfg.Database.Port == "" {
			missingConfigs = append(missingConfigs, "database.port (or GSL_DB_PORT environment variable)")
		}
		if cfg.Database.Username == "" {
			missingConfigs = append(missingConfigs, "database.username (or GSL_DB_USERNAME environment variable)")
		}
		if cfg.Database.Database == "" {
			missingConfigs = append(missingConfigs, "database.database (or GSL_DB_NAME environment variable)")
		}
		if cfg.Database.QueryTimeout == 0 {
			missingConfigs = append(missingConfigs, "database.queryTimeout")
		}
		if cfg.Database.LockTimeout == 0 {
			missingConfigs = append(missingConfigs, "database.lockTimeout")
		}
	default:
		return fmt.Errorf("invalid database.driver value: %s, must be %s or %s",
			cfg.Database.Driver, database.DriverPostgres, database.DriverMemory)
	}

	// Validate ledger configuration
	if cfg.Ledger.Currency == "" {
		missingConfigs = append(missingConfigs, "ledger.currency")
	}

	if cfg.Ledger.RetryAttempts == 0 {
		missingConfigs = append(missingConfigs, "ledger.retryAttempts")
	}

	if cfg.Ledger.RequestTimeout == 0 {
		missingConfigs = append(missingConfigs, "ledger.requestTimeout")
	}

	if cfg.Email.Enabled && cfg.Email.SMTPHost == "" {
		missingConfigs = append(missingConfigs, "email.smtpHost (or GSL_SMTP_HOST environment variable)")
	}

	// Environment should be set with a valid value
	if cfg.Environment == "" {
		missingConfigs = append(missingConfigs, "environment")
	} else if cfg.Environment != config.Development &&
		cfg.Environment != config.Production &&
		cfg.Environment != config.Test {
		return fmt.Errorf("invalid environment value: %s, must be one of: %s, %s, or %s",
			cfg.Environment, config.Development, config.Production, config.Test)
	}

	// Logger configuration
	if cfg.Logger.Level == "" {
		missingConfigs = append(missingConfigs, "logger.level")
	}

	// Return error with list of missing configurations
	if len(missingConfigs) > 0 {
		return fmt.Errorf("missing required configurations: %v", missingConfigs)
	}

	// If we're in production, do additional validation for sensitive settings
	if cfg.Environment == config.Production {
		var warnings []string

		// Check database security settings
		sslMode := strings.ToLower(cfg.Database.SSLMode)
		if sslMode != "require" && sslMode != "verify-ca" && sslMode != "verify-full" {
			warnings = append(warnings, "database.sslMode should be set to 'require', 'verify-ca', or 'verify-full' in production")
		}

		if cfg.Server.InternalToken == "" {
			warnings = append(warnings, "server.internalToken is empty, internal routes are disabled")
		}

		for _, origin := range cfg.Server.AllowedOrigins {
			if origin == "*" {
				warnings = append(warnings, "server.allowedOrigins allows every origin in production")
				break
			}
		}

		// Check timeout settings
		if cfg.Server.ReadTimeout < 5*time.Second {
			warnings = append(warnings, "server.readTimeout is too low for production")
		}

		if cfg.Server.WriteTimeout < 5*time.Second {
			warnings = append(warnings, "server.writeTimeout is too low for production")
		}

		if len(warnings) > 0 {
			log.Printf("Warning: potential security issues in production configuration: %v", warnings)
		}
	}

	return nil
}
