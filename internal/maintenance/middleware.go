package maintenance

import (
	"encoding/json"
	"net/http"

	"github.com/vertice-ops/dfc-assistant-go/internal/domain"
	"github.com/vertice-ops/dfc-assistant-go/internal/infra/observability"

	"go.uber.org/zap"
)

// Gate blocks API traffic with HTTP 503 while the maintenance window is
// active. The status endpoint itself must be mounted outside this gate so
// the frontend can keep polling for the resume time.
func Gate(eval *Evaluator, metrics *observability.Metrics, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			status := eval.Status()
			if !status.IsInMaintenance {
				next.ServeHTTP(w, r)
				return
			}

			metrics.IncrMaintenanceBlocked()
			logger.Info("request blocked by maintenance window",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(domain.MaintenanceBlockedResponse{
				Error:   "maintenance",
				Message: status.Message,
				Details: domain.MaintenanceDetails{
					WindowStart:      status.WindowStart,
					WindowEnd:        status.WindowEnd,
					ResumesAt:        status.ResumesAt,
					RemainingMinutes: status.RemainingMinutes,
				},
			})
		})
	}
}
