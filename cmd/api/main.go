package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/asomstudio/asomstudio-api/config"
	"github.com/asomstudio/asomstudio-api/internal/handlers"
	"github.com/asomstudio/asomstudio-api/internal/middleware"
	"github.com/asomstudio/asomstudio-api/internal/ratelimit"
	"github.com/asomstudio/asomstudio-api/internal/services"
	"github.com/asomstudio/asomstudio-api/pkg/logger"
	"github.com/asomstudio/asomstudio-api/pkg/mailer"
	"github.com/asomstudio/asomstudio-api/pkg/metrics"
	"github.com/asomstudio/asomstudio-api/pkg/profiling"
	"github.com/asomstudio/asomstudio-api/pkg/token"
	"github.com/asomstudio/asomstudio-api/pkg/tracing"
)

// newSubmissionLimiter builds the submission rate limiter from config: a
// shared redis sorted-set window when a redis backend is configured,
// otherwise an in-process store.
func newSubmissionLimiter(cfg *config.Config) (ratelimit.Limiter, error) {
	window := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second

	if cfg.RateLimit.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis unreachable at %s: %w", cfg.Redis.Addr, err)
		}

		logger.Info("Submission rate limiter using redis backend", zap.String("addr", cfg.Redis.Addr))
		return ratelimit.NewRedisLimiter(client, cfg.RateLimit.MaxAttempts, window), nil
	}

	logger.Info("Submission rate limiter using in-memory backend")
	return ratelimit.NewSlidingWindow(ratelimit.NewMemoryStore(), cfg.RateLimit.MaxAttempts, window), nil
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting ASOM Studio API",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
	)

	// Initialize distributed tracing
	tracerShutdown, err := tracing.InitTracer(
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceNamespace,
		cfg.Observability.ServiceVersion,
		cfg.Observability.ServiceInstanceID,
		cfg.Server.AppEnv,
		cfg.Observability.ExporterEndpoint,
	)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	// Initialize continuous profiling
	profilerStop, err := profiling.InitProfiler(
		cfg.Profiling,
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceNamespace,
		cfg.Observability.ServiceVersion,
		cfg.Observability.ServiceInstanceID,
		cfg.Server.AppEnv,
	)
	if err != nil {
		logger.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer profilerStop()

	// Start infrastructure metrics collection
	metrics.RecordInfrastructureMetrics()

	// Submission rate limiter (sliding window per client, shared across the
	// JSON and plain-text endpoints)
	submissionLimiter, err := newSubmissionLimiter(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize submission rate limiter", zap.Error(err))
	}

	// Outbound email via AWS SES
	sender, err := mailer.NewSESSender(context.Background(), cfg.SES)
	if err != nil {
		logger.Fatal("Failed to initialize SES sender", zap.Error(err))
	}

	// Anti-forgery form tokens
	tokenManager := token.NewManager(cfg.Token.Secret, cfg.Observability.ServiceName, cfg.Token.TTLMinutes)

	// Initialize services
	contactService, err := services.NewContactService(cfg, submissionLimiter, sender, tokenManager)
	if err != nil {
		logger.Fatal("Failed to initialize contact service", zap.Error(err))
	}

	// Initialize handlers
	contactHandler := handlers.NewContactHandler(contactService)
	formsHandler := handlers.NewFormsHandler(contactService)
	healthHandler := handlers.NewHealthHandler()

	// Set up Gin router
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName)) // OpenTelemetry tracing
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// CORS configuration - SECURITY: Only allow specific origins
	allowedOrigins := cfg.Server.AllowedOrigins
	// Allow localhost in development
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:  allowedOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-CSRF-Token", "traceparent", "tracestate"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	// SECURITY: Transport-level rate limiters to prevent abuse and DoS attacks
	generalRateLimiter := middleware.NewRateLimiter(100, 200) // 100 req/sec, burst of 200
	contactRateLimiter := middleware.NewRateLimiter(5, 10)    // 5 req/sec, burst of 10 (prevent spam)

	// API routes
	api := router.Group("/api")
	// Utility endpoints (not versioned - operational endpoints)
	api.GET("/healthcheck", generalRateLimiter.Middleware(), healthHandler.Healthcheck)
	api.GET("/metrics", generalRateLimiter.Middleware(), gin.WrapH(promhttp.Handler()))

	// API v1 routes
	// SECURITY: Apply body size limits to prevent DoS attacks
	v1 := router.Group("/api/v1")
	v1.GET("/contact", contactRateLimiter.Middleware(), contactHandler.GetToken)
	v1.POST("/contact", contactRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(100*1024), contactHandler.Submit)

	// Legacy plain-text endpoint used by the landing page's validate.js
	router.GET("/forms/contact", contactRateLimiter.Middleware(), formsHandler.Submit)
	router.POST("/forms/contact", contactRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(100*1024), formsHandler.Submit)

	// Serve the landing page when the API fronts the static site directly
	if cfg.Server.StaticDir != "" {
		logger.Info("Serving static assets", zap.String("dir", cfg.Server.StaticDir))
		router.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.Server.StaticDir))))
	}

	// Create HTTP server
	// SECURITY: Bind to all interfaces for Docker Compose networking
	// Network isolation is enforced by Docker Compose (backend has no public ports)
	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // SECURITY: 1 MB max header size
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
