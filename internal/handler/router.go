package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/vertice-ops/dfc-assistant-go/internal/domain"
	"github.com/vertice-ops/dfc-assistant-go/internal/infra/observability"
	"github.com/vertice-ops/dfc-assistant-go/internal/maintenance"
	"github.com/vertice-ops/dfc-assistant-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Pinger checks database connectivity for the health endpoints.
// Satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract of the ops-console frontend.
func NewRouter(svc *service.Assistant, eval *maintenance.Evaluator, db Pinger, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(db, logger))
	r.Get("/readyz", readyzHandler(db))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API ---
	r.Route("/api", func(r chi.Router) {

		// The status endpoint stays outside the gate so the frontend can
		// keep polling for the resume time during the window.
		r.Get("/maintenance/status", maintenanceStatusHandler(eval))

		r.Group(func(r chi.Router) {
			r.Use(maintenance.Gate(eval, metrics, logger))

			r.Post("/assistants/chat", chatHandler(svc, metrics, logger))
			r.Get("/assistants/usage", usageHandler(metrics))
			r.Get("/dfc/analysis", dfcAnalysisHandler(svc, logger))
		})
	})

	return r
}

// ============================================================
// Assistente — POST /api/assistants/chat
// ============================================================

func chatHandler(svc *service.Assistant, metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/assistants/chat")
		defer span.End()

		var req domain.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}
		span.SetAttributes(attribute.String("chat.context", string(req.Context)))

		start := time.Now()
		resp := svc.Chat(ctx, &req)
		metrics.RecordRequestDuration("chat", time.Since(start))

		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// DFC — GET /api/dfc/analysis?dataInicio=&dataFim=
// ============================================================

func dfcAnalysisHandler(svc *service.Assistant, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/dfc/analysis")
		defer span.End()

		dataInicio := r.URL.Query().Get("dataInicio")
		dataFim := r.URL.Query().Get("dataFim")
		if dataInicio == "" || dataFim == "" {
			handleServiceError(w, &domain.ErrValidation{
				Field: "period", Message: "dataInicio and dataFim are required",
			}, logger)
			return
		}
		for _, d := range []string{dataInicio, dataFim} {
			if _, err := time.Parse("2006-01-02", d); err != nil {
				handleServiceError(w, &domain.ErrValidation{
					Field: "period", Message: "dates must be in YYYY-MM-DD format",
				}, logger)
				return
			}
		}

		analysis, err := svc.AnalyzeDfc(ctx, dataInicio, dataFim)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, analysis)
	}
}

// ============================================================
// Manutenção — GET /api/maintenance/status
// ============================================================

func maintenanceStatusHandler(eval *maintenance.Evaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, eval.Status())
	}
}

// ============================================================
// Uso — GET /api/assistants/usage
// ============================================================

func usageHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetUsageSnapshot())
	}
}

// ============================================================
// Health
// ============================================================

func healthzHandler(db Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "ops-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if db != nil {
			start := time.Now()
			err := db.Ping(ctx)
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "unhealthy"
				logger.Warn("database health check failed", zap.Error(err))
			}
			services = append(services, domain.ServiceHealth{
				Name: "postgres", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overall := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overall = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overall = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overall,
			Services: services,
		})
	}
}

func readyzHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				writeError(w, http.StatusServiceUnavailable, "database not reachable")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
