package observability_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vertice-ops/dfc-assistant-go/internal/infra/observability"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func serveWithLogger(t *testing.T, path string, status int) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)

	handler := observability.RequestLogger(zap.New(core))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	return logs
}

func TestRequestLogger_QuietPathSuppressed(t *testing.T) {
	logs := serveWithLogger(t, "/healthz", http.StatusOK)

	if logs.Len() != 0 {
		t.Errorf("expected no log entries for healthy probe, got %d", logs.Len())
	}
}

func TestRequestLogger_QuietPathFailureStillLogged(t *testing.T) {
	logs := serveWithLogger(t, "/readyz", http.StatusServiceUnavailable)

	if logs.Len() != 1 {
		t.Fatalf("expected 1 log entry for failing probe, got %d", logs.Len())
	}
}

func TestRequestLogger_LevelPolicy(t *testing.T) {
	tests := []struct {
		status int
		want   zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusBadRequest, zapcore.WarnLevel},
		{http.StatusInternalServerError, zapcore.ErrorLevel},
		// Maintenance-window 503s are expected traffic, not incidents.
		{http.StatusServiceUnavailable, zapcore.InfoLevel},
	}

	for _, tc := range tests {
		logs := serveWithLogger(t, "/api/assistants/chat", tc.status)
		if logs.Len() != 1 {
			t.Fatalf("status %d: expected 1 entry, got %d", tc.status, logs.Len())
		}
		entry := logs.All()[0]
		if entry.Level != tc.want {
			t.Errorf("status %d: expected level %s, got %s", tc.status, tc.want, entry.Level)
		}
	}
}

func TestRequestLogger_RecordsRequestFields(t *testing.T) {
	logs := serveWithLogger(t, "/api/dfc/analysis", http.StatusOK)

	if logs.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", logs.Len())
	}
	fields := logs.All()[0].ContextMap()
	if fields["path"] != "/api/dfc/analysis" {
		t.Errorf("expected path field, got %v", fields["path"])
	}
	if fields["status"] != int64(http.StatusOK) {
		t.Errorf("expected status field 200, got %v", fields["status"])
	}
	if fields["method"] != http.MethodGet {
		t.Errorf("expected method field GET, got %v", fields["method"])
	}
}
