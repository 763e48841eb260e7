package router

import (
	"net/http"

	"github.com/evyataryagoni/cepcache/internal/handler"
	"github.com/evyataryagoni/cepcache/internal/limiter"
	"github.com/evyataryagoni/cepcache/internal/logger"
	"github.com/evyataryagoni/cepcache/internal/metrics"
	custommiddleware "github.com/evyataryagoni/cepcache/internal/middleware"
	"github.com/evyataryagoni/cepcache/internal/router/api"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options carries the dependencies of the router
type Options struct {
	Handler  *handler.CEPHandler
	Limiter  limiter.Limiter
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // source for /metrics, defaults to the global registry
	Logger   *logger.Logger
}

// SetupRouter creates and configures the Chi router with all middleware and routes
func SetupRouter(opts Options) chi.Router {
	r := chi.NewRouter()

	// Order matters! RequestID should be first, then logging, then rate limiting
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.LoggingMiddleware(opts.Logger))
	r.Use(middleware.Recoverer)
	if opts.Limiter != nil {
		r.Use(custommiddleware.RateLimitMiddleware(opts.Limiter))
	}
	if opts.Metrics != nil {
		r.Use(custommiddleware.MetricsMiddleware(opts.Metrics))
	}

	r.Mount("/api", api.SetupRoutes(opts.Handler))

	// Root-level routes, used by load balancers and monitoring
	r.Get("/health", healthCheckHandler)

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}

// healthCheckHandler returns 200 OK if the service is running
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
