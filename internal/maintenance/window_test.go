package maintenance_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vertice-ops/dfc-assistant-go/internal/infra/observability"
	"github.com/vertice-ops/dfc-assistant-go/internal/maintenance"

	"go.uber.org/zap"
)

// clockAt pins the evaluator clock to the given civil time in São Paulo,
// expressed from a deliberately different server timezone (UTC) to prove
// the server's local zone is irrelevant.
func clockAt(t *testing.T, hour, minute int) func() time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	civil := time.Date(2024, 6, 10, hour, minute, 0, 0, loc)
	utc := civil.UTC()
	return func() time.Time { return utc }
}

func TestInWindow_HalfOpenBoundaries(t *testing.T) {
	tests := []struct {
		hour, minute int
		want         bool
	}{
		{12, 59, false},
		{13, 0, true}, // inclusive start
		{13, 45, true},
		{14, 29, true},
		{14, 30, false}, // exclusive end
		{0, 0, false},
		{23, 59, false},
	}

	for _, tc := range tests {
		eval := maintenance.NewEvaluator(false, maintenance.WithClock(clockAt(t, tc.hour, tc.minute)))
		if got := eval.InWindow(); got != tc.want {
			t.Errorf("%02d:%02d: expected InWindow=%v, got %v", tc.hour, tc.minute, tc.want, got)
		}
	}
}

func TestInWindow_SkipFlagAlwaysFalse(t *testing.T) {
	for _, tc := range []struct{ hour, minute int }{{13, 30}, {13, 0}, {14, 29}} {
		eval := maintenance.NewEvaluator(true, maintenance.WithClock(clockAt(t, tc.hour, tc.minute)))
		if eval.InWindow() {
			t.Errorf("%02d:%02d: skip flag set, expected InWindow=false", tc.hour, tc.minute)
		}
	}
}

func TestStatus_InsideWindow(t *testing.T) {
	eval := maintenance.NewEvaluator(false, maintenance.WithClock(clockAt(t, 13, 30)))

	status := eval.Status()
	if !status.IsInMaintenance {
		t.Fatal("expected in maintenance at 13:30")
	}
	if status.WindowStart != "13:00" || status.WindowEnd != "14:30" {
		t.Errorf("unexpected window bounds: %s-%s", status.WindowStart, status.WindowEnd)
	}
	if status.RemainingMinutes == nil || *status.RemainingMinutes != 60 {
		t.Errorf("expected 60 remaining minutes, got %v", status.RemainingMinutes)
	}
	if status.ResumesAt == nil {
		t.Fatal("expected resumesAt inside the window")
	}
	loc, _ := time.LoadLocation("America/Sao_Paulo")
	resume := status.ResumesAt.In(loc)
	if resume.Hour() != 14 || resume.Minute() != 30 {
		t.Errorf("expected resume at 14:30, got %02d:%02d", resume.Hour(), resume.Minute())
	}
}

func TestStatus_OutsideWindow(t *testing.T) {
	eval := maintenance.NewEvaluator(false, maintenance.WithClock(clockAt(t, 9, 0)))

	status := eval.Status()
	if status.IsInMaintenance {
		t.Fatal("expected not in maintenance at 09:00")
	}
	if status.ResumesAt != nil || status.RemainingMinutes != nil {
		t.Error("resumesAt/remainingMinutes must be nil outside the window")
	}
	// Window bounds are always reported for the status endpoint.
	if status.WindowStart != "13:00" || status.WindowEnd != "14:30" {
		t.Errorf("unexpected window bounds: %s-%s", status.WindowStart, status.WindowEnd)
	}
}

func TestGate_Returns503Contract(t *testing.T) {
	eval := maintenance.NewEvaluator(false, maintenance.WithClock(clockAt(t, 14, 0)))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not run during maintenance")
	})

	rec := httptest.NewRecorder()
	maintenance.Gate(eval, observability.NewMetrics(), zap.NewNop())(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/assistants/chat", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Details struct {
			WindowStart      string `json:"windowStart"`
			WindowEnd        string `json:"windowEnd"`
			RemainingMinutes *int   `json:"remainingMinutes"`
		} `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body.Error != "maintenance" {
		t.Errorf("expected error 'maintenance', got %q", body.Error)
	}
	if body.Details.WindowStart != "13:00" || body.Details.WindowEnd != "14:30" {
		t.Errorf("unexpected details window: %s-%s", body.Details.WindowStart, body.Details.WindowEnd)
	}
	if body.Details.RemainingMinutes == nil || *body.Details.RemainingMinutes != 30 {
		t.Errorf("expected 30 remaining minutes, got %v", body.Details.RemainingMinutes)
	}
}

func TestGate_PassesThroughOutsideWindow(t *testing.T) {
	eval := maintenance.NewEvaluator(false, maintenance.WithClock(clockAt(t, 10, 0)))
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	maintenance.Gate(eval, observability.NewMetrics(), zap.NewNop())(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dfc/analysis", nil))

	if !called {
		t.Fatal("expected next handler to run outside the window")
	}
}
