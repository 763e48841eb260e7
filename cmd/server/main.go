package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evyataryagoni/cepcache/internal/config"
	"github.com/evyataryagoni/cepcache/internal/handler"
	"github.com/evyataryagoni/cepcache/internal/limiter"
	"github.com/evyataryagoni/cepcache/internal/logger"
	"github.com/evyataryagoni/cepcache/internal/metrics"
	"github.com/evyataryagoni/cepcache/internal/router"
	"github.com/evyataryagoni/cepcache/internal/service"
	"github.com/evyataryagoni/cepcache/internal/store"
	"github.com/evyataryagoni/cepcache/internal/viacep"
)

// @title           CEP Cache API
// @version         1.0
// @description     Brazilian postal code (CEP) resolver backed by ViaCEP with a persistent cache
// @termsOfService  http://swagger.io/terms/

// @contact.name   Evyatar Yagoni
// @contact.email  evyatar@example.com

// @license.name  MIT
// @license.url   http://opensource.org/licenses/MIT

// @host      localhost:3000
// @BasePath  /
func main() {
	// Load configuration
	appConfig := config.Load()

	// Initialize components
	appLogger := setupLogger(appConfig)
	metricsCollector := setupMetrics(appLogger)

	dataStore := setupDataStore(appConfig, metricsCollector, appLogger)

	rateLimiter := setupRateLimiter(appConfig, appLogger)
	defer rateLimiter.Close()

	addressClient := viacep.New(viacep.Config{
		BaseURL:           appConfig.ViaCEPBaseURL,
		Timeout:           appConfig.ViaCEPTimeout,
		RequestsPerSecond: appConfig.ViaCEPRPS,
	}, viacep.WithMetrics(metricsCollector), viacep.WithLogger(appLogger))

	// Build application layers
	cepService := service.NewCEPService(dataStore, addressClient, metricsCollector, appLogger)
	defer cepService.Close()

	cepHandler := handler.NewCEPHandler(cepService)
	appRouter := router.SetupRouter(router.Options{
		Handler: cepHandler,
		Limiter: rateLimiter,
		Metrics: metricsCollector,
		Logger:  appLogger,
	})

	// Start server
	startServer(appConfig, appRouter, appLogger)
}

// setupLogger initializes the structured logger
func setupLogger(appConfig *config.Config) *logger.Logger {
	appLogger := logger.New(logger.Config{
		Level:  appConfig.LogLevel,
		Pretty: appConfig.LogPretty,
	})

	appLogger.Info().Msg("Starting CEP Cache Server...")
	appLogger.Info().
		Str("port", appConfig.Port).
		Str("rate_limiter_type", appConfig.RateLimitType).
		Int("rate_limit", appConfig.RateLimit).
		Int("rate_limit_window", appConfig.RateLimitWindow).
		Str("datastore_type", appConfig.DatastoreType).
		Str("datastore_path", appConfig.DatastorePath).
		Str("viacep_base_url", appConfig.ViaCEPBaseURL).
		Dur("viacep_timeout", appConfig.ViaCEPTimeout).
		Float64("viacep_rps", appConfig.ViaCEPRPS).
		Msg("Configuration loaded")

	return appLogger
}

// setupDataStore initializes the data store based on configuration
// Supports MySQL, Redis and in-memory backends
func setupDataStore(appConfig *config.Config, m *metrics.Metrics, log *logger.Logger) store.Store {
	var dataStore store.Store

	switch appConfig.DatastoreType {
	case "mysql":
		mysqlStore, err := store.NewMySQLStore(appConfig.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize MySQL store")
		}
		dataStore = mysqlStore

	case "redis":
		redisStore, err := store.NewRedisStore(appConfig.RedisAddr, appConfig.RedisPassword, appConfig.RedisDB)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Redis store")
		}

		// Auto-load seed data if Redis is empty
		loadRedisDataIfEmpty(redisStore, appConfig.DatastorePath, log)

		dataStore = redisStore

	case "memory":
		memoryStore := store.NewMemoryStore()
		if _, err := os.Stat(appConfig.DatastorePath); err == nil {
			result, err := store.SeedFromCSV(context.Background(), memoryStore, appConfig.DatastorePath)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to seed memory store")
			}
			log.Info().Int("inserted", result.Inserted).Str("path", appConfig.DatastorePath).Msg("Memory store seeded")
		}
		dataStore = memoryStore

	default:
		log.Fatal().Str("type", appConfig.DatastoreType).Msg("Unknown datastore type")
	}

	log.Info().Str("type", appConfig.DatastoreType).Msg("Datastore initialized")
	return store.Instrumented(dataStore, m, appConfig.DatastoreType)
}

// loadRedisDataIfEmpty checks if Redis is empty and loads sample data from CSV
func loadRedisDataIfEmpty(redisStore *store.RedisStore, csvPath string, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	isEmpty, err := redisStore.IsEmpty(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to check if Redis is empty")
		return
	}
	if !isEmpty {
		return
	}

	log.Info().Str("path", csvPath).Msg("Redis is empty, loading sample data from CSV")
	result, err := store.SeedFromCSV(ctx, redisStore, csvPath)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load sample data")
		return
	}
	log.Info().Int("inserted", result.Inserted).Msg("Sample data loaded")
}

// setupRateLimiter initializes the rate limiter
// Supports in-memory and Redis-based rate limiting
func setupRateLimiter(appConfig *config.Config, log *logger.Logger) limiter.Limiter {
	window := time.Duration(appConfig.RateLimitWindow) * time.Second

	rateLimiter, err := limiter.NewLimiter(limiter.LimiterConfig{
		Type:          appConfig.RateLimitType,
		Requests:      appConfig.RateLimit,
		Window:        window,
		RedisAddr:     appConfig.RedisAddr,
		RedisPassword: appConfig.RedisPassword,
		RedisDB:       appConfig.RedisDB,
		Logger:        log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize rate limiter")
	}

	log.Info().
		Str("type", appConfig.RateLimitType).
		Int("limit", appConfig.RateLimit).
		Dur("window", window).
		Msg("Rate limiter initialized")

	return rateLimiter
}

// setupMetrics initializes the Prometheus metrics collector
func setupMetrics(log *logger.Logger) *metrics.Metrics {
	metricsCollector := metrics.New()
	log.Info().Msg("Metrics initialized")
	return metricsCollector
}

// startServer serves HTTP until SIGINT/SIGTERM, then drains in-flight requests
func startServer(appConfig *config.Config, appRouter http.Handler, log *logger.Logger) {
	server := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           appRouter,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().
			Str("port", appConfig.Port).
			Str("api_endpoint", "http://localhost:"+appConfig.Port+"/api/cep").
			Str("health_check", "http://localhost:"+appConfig.Port+"/health").
			Str("metrics", "http://localhost:"+appConfig.Port+"/metrics").
			Msg("Server is running")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
