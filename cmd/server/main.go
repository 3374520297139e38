package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/ksred/klear-recon/internal/auth"
	"github.com/ksred/klear-recon/internal/cache"
	"github.com/ksred/klear-recon/internal/config"
	"github.com/ksred/klear-recon/internal/custody"
	"github.com/ksred/klear-recon/internal/database"
	"github.com/ksred/klear-recon/internal/events"
	"github.com/ksred/klear-recon/internal/reconciliation"
	"github.com/ksred/klear-recon/internal/registry"
	"github.com/ksred/klear-recon/pkg/middleware"
)

// setupLogging configures pretty console output outside production and
// raises the level to debug when requested
func setupLogging(cfg config.Config) {
	if !cfg.Production() {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main wires the registry, custody providers and reconciliation service
// and serves the API with graceful shutdown
func main() {
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogging(cfg)

	thresholds := cfg.ReconciliationThresholds()
	if err := thresholds.Validate(); err != nil {
		zlog.Fatal().Err(err).Msg("Invalid threshold configuration")
	}

	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	authService := auth.NewService(cfg.JWTSecret)
	authService.RegisterAPICredentials(cfg.APIKey, cfg.APISecret)
	authHandlers := auth.NewGinHandlers(authService)

	registryService := registry.NewService(db)
	registryHandlers := registry.NewGinHandlers(registryService)

	var custodyAPI reconciliation.CustodyProvider
	if cfg.BankAPIURL != "" {
		custodyAPI = custody.NewAPIClient(custody.APIConfig{
			BaseURL:           cfg.BankAPIURL,
			ClientID:          cfg.BankClientID,
			ClientSecret:      cfg.BankClientSecret,
			RequestsPerSecond: cfg.BankRateLimit,
			MaxRetries:        cfg.BankMaxRetries,
			Timeout:           cfg.BankTimeout,
		}, registryService)
	} else {
		zlog.Warn().Msg("BANK_API_URL not set, API-sourced reconciliation disabled")
	}

	var documents reconciliation.DocumentSource
	if cfg.ExtractionURL != "" {
		documents = custody.NewDocuments(custody.NewHTTPExtractor(cfg.ExtractionURL, cfg.ExtractionTimeout))
	} else {
		zlog.Warn().Msg("EXTRACTION_URL not set, document-sourced reconciliation disabled")
	}

	resultCache, err := cache.New(1<<24, cfg.CacheTTL)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize cache")
	}
	defer resultCache.Close()

	opts := []reconciliation.Option{
		reconciliation.WithCache(resultCache),
		reconciliation.WithThresholds(thresholds),
	}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		publisher := events.NewKafkaPublisher(brokers, cfg.KafkaTopic)
		defer publisher.Close()
		opts = append(opts, reconciliation.WithPublisher(publisher))
	}

	reconciliationService := reconciliation.NewService(
		registryService,
		custodyAPI,
		documents,
		reconciliation.NewDatabase(db),
		opts...,
	)
	reconciliationHandlers := reconciliation.NewGinHandlers(reconciliationService)

	processorCtx, processorCancel := context.WithCancel(context.Background())
	defer processorCancel()

	if cfg.ScheduleInterval > 0 && custodyAPI != nil {
		processor := reconciliation.NewProcessor(reconciliationService, registryService, cfg.ScheduleInterval)
		go processor.Start(processorCtx)
	}

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	limiter := middleware.NewRateLimiter(middleware.DefaultLimits())
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-processorCtx.Done():
				return
			case <-ticker.C:
				limiter.Cleanup(3 * time.Minute)
			}
		}
	}()

	setupRoutes(router, limiter, authService, authHandlers, registryHandlers, reconciliationHandlers)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		zlog.Info().Str("port", cfg.Port).Msg("Reconciliation API listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	processorCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes registers the API:
//   - Auth routes: public token issuance, limited per client IP
//   - Reconciliation routes: JWT with the reconcile permission
//   - Fund routes: registry maintenance and sourced reconciliations
//
// Authenticated groups rate limit after JWTAuth so each API client gets its
// own budget.
func setupRoutes(
	router *gin.Engine,
	limiter *middleware.RateLimiter,
	authService *auth.Service,
	authHandlers *auth.GinHandlers,
	registryHandlers *registry.GinHandlers,
	reconciliationHandlers *reconciliation.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		authRoutes := v1.Group("/auth")
		authRoutes.Use(limiter.Middleware())
		{
			authRoutes.POST("/token", authHandlers.GenerateTokenHandler())
		}

		reconciliations := v1.Group("/reconciliations")
		reconciliations.Use(middleware.JWTAuth(authService, auth.PermissionReconcile), limiter.Middleware())
		{
			reconciliations.POST("", reconciliationHandlers.ReconcileSnapshotsHandler())
			reconciliations.GET("/:reconciliation_id", reconciliationHandlers.GetResultHandler())
		}

		funds := v1.Group("/funds/:fund_id")
		{
			registryRoutes := funds.Group("")
			registryRoutes.Use(middleware.JWTAuth(authService, auth.PermissionRegistry), limiter.Middleware())
			registryRoutes.PUT("", registryHandlers.UpsertFundHandler())
			registryRoutes.PUT("/holdings", registryHandlers.RecordSnapshotHandler())
			registryRoutes.GET("/snapshot", registryHandlers.GetSnapshotHandler())

			fundRecs := funds.Group("/reconciliations")
			fundRecs.Use(middleware.JWTAuth(authService, auth.PermissionReconcile), limiter.Middleware())
			fundRecs.GET("", reconciliationHandlers.ListResultsHandler())
			fundRecs.POST("/api", reconciliationHandlers.ReconcileFromAPIHandler())
			fundRecs.POST("/document", reconciliationHandlers.ReconcileFromDocumentHandler())
		}
	}
}
