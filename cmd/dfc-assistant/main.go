package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vertice-ops/dfc-assistant-go/internal/config"
	"github.com/vertice-ops/dfc-assistant-go/internal/domain"
	"github.com/vertice-ops/dfc-assistant-go/internal/handler"
	"github.com/vertice-ops/dfc-assistant-go/internal/infra/cache"
	"github.com/vertice-ops/dfc-assistant-go/internal/infra/client"
	"github.com/vertice-ops/dfc-assistant-go/internal/infra/observability"
	"github.com/vertice-ops/dfc-assistant-go/internal/infra/postgres"
	"github.com/vertice-ops/dfc-assistant-go/internal/infra/resilience"
	"github.com/vertice-ops/dfc-assistant-go/internal/infra/sqlgate"
	"github.com/vertice-ops/dfc-assistant-go/internal/maintenance"
	"github.com/vertice-ops/dfc-assistant-go/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = godotenv.Load()

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("skip_maintenance_window", cfg.SkipMaintenanceWindow),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "dfc-assistant")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Database ---
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to create database pool", zap.Error(err))
	}
	defer pool.Close()

	store := postgres.NewDfcStore(pool)
	gate := sqlgate.New(store)

	// --- Cache ---
	dfcCache := cache.New[*domain.DfcTree](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	llmBreaker := resilience.NewCircuitBreaker("openai")
	webhookBreaker := resilience.NewCircuitBreaker("cases-webhook")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	llmClient := client.NewOpenAIClient(httpClient, cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, llmBreaker, resilienceCfg)
	casesClient := client.NewCasesWebhookClient(httpClient, cfg.CasesWebhookURL, webhookBreaker, resilienceCfg)

	// --- Maintenance window ---
	eval := maintenance.NewEvaluator(cfg.SkipMaintenanceWindow)

	// --- Services ---
	assistantSvc := service.NewAssistant(
		logger,
		metrics,
		llmClient,
		casesClient,
		store,
		gate,
		dfcCache,
		cfg.OpenAIMaxTokens,
	)

	// --- Post-window cache flush ---
	// Cached trees predate the nightly sync that ends with the maintenance
	// window, so everything cached is stale the moment the window closes.
	scheduler := startCacheFlush(dfcCache, logger)
	if scheduler != nil {
		defer scheduler.Stop()
	}

	// --- Router ---
	router := handler.NewRouter(assistantSvc, eval, pool, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

// startCacheFlush schedules a daily cache flush at the end of the
// maintenance window, in the window's own timezone.
func startCacheFlush(dfcCache *cache.InMemory[*domain.DfcTree], logger *zap.Logger) *cron.Cron {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		logger.Warn("cache flush scheduler disabled: timezone unavailable", zap.Error(err))
		return nil
	}

	scheduler := cron.New(cron.WithLocation(loc))
	_, err = scheduler.AddFunc("30 14 * * *", func() {
		dfcCache.Flush()
		logger.Info("dfc cache flushed after maintenance window")
	})
	if err != nil {
		logger.Warn("cache flush scheduler disabled", zap.Error(err))
		return nil
	}

	scheduler.Start()
	return scheduler
}
