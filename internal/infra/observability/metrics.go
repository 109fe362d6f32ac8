package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the ops-console BFF.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration    *prometheus.HistogramVec
	externalErrors     *prometheus.CounterVec
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
	tokensUsed         *prometheus.CounterVec
	chatRequests       *prometheus.CounterVec
	maintenanceBlocked prometheus.Counter
	queriesRejected    prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ops_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ops_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ops_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ops_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		tokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ops_llm_tokens_total",
				Help: "Total LLM tokens consumed.",
			},
			[]string{"type"},
		),
		chatRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ops_chat_requests_total",
				Help: "Total assistant chat requests by context and status.",
			},
			[]string{"context", "status"},
		),
		maintenanceBlocked: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ops_maintenance_blocked_total",
				Help: "Total requests rejected by the maintenance window gate.",
			},
		),
		queriesRejected: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ops_secure_queries_rejected_total",
				Help: "Total SQL queries rejected by the secure query gate.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordTokens records prompt and completion token usage.
func (m *Metrics) RecordTokens(prompt, completion int) {
	m.tokensUsed.WithLabelValues("prompt").Add(float64(prompt))
	m.tokensUsed.WithLabelValues("completion").Add(float64(completion))
}

// IncrChatRequest increments the chat counter for a context/status pair.
func (m *Metrics) IncrChatRequest(chatContext, status string) {
	m.chatRequests.WithLabelValues(chatContext, status).Inc()
}

// IncrMaintenanceBlocked counts a request rejected by the window gate.
func (m *Metrics) IncrMaintenanceBlocked() {
	m.maintenanceBlocked.Inc()
}

// IncrQueryRejected counts a SQL query refused by the secure gate.
func (m *Metrics) IncrQueryRejected() {
	m.queriesRejected.Inc()
}

// UsageSnapshot summarizes assistant usage for GET /api/assistants/usage.
type UsageSnapshot struct {
	TotalRequests       int64   `json:"totalRequests"`
	ErrorRate           float64 `json:"errorRate"`
	AvgTokensPerRequest float64 `json:"avgTokensPerRequest"`
	EstimatedCostUsd    float64 `json:"estimatedCostUsd"`
	CacheHitRate        float64 `json:"cacheHitRate"`
	Period              string  `json:"period"`
}

// GetUsageSnapshot reads the current counter values into a snapshot.
// Prometheus counters are cumulative, so the period is always all_time.
func (m *Metrics) GetUsageSnapshot() *UsageSnapshot {
	promptTokens := counterValue(m.tokensUsed, "prompt")
	completionTokens := counterValue(m.tokensUsed, "completion")

	var total, errored float64
	for _, c := range []string{"geral", "financeiro", "cases", "clientes"} {
		total += counterValue(m.chatRequests, c, "success") + counterValue(m.chatRequests, c, "error")
		errored += counterValue(m.chatRequests, c, "error")
	}

	cacheHits := counterValue(m.cacheHits, "dfc_tree")
	cacheMisses := counterValue(m.cacheMisses, "dfc_tree")

	snapshot := &UsageSnapshot{
		TotalRequests: int64(total),
		Period:        "all_time",
	}
	if total > 0 {
		snapshot.ErrorRate = errored / total
		snapshot.AvgTokensPerRequest = (promptTokens + completionTokens) / total
	}
	if cacheHits+cacheMisses > 0 {
		snapshot.CacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}
	// Rough gpt-4o-mini pricing: $0.15/1M prompt, $0.60/1M completion.
	snapshot.EstimatedCostUsd = promptTokens/1_000_000*0.15 + completionTokens/1_000_000*0.60

	return snapshot
}

// counterValue extracts the current float64 value from a CounterVec for the given labels.
func counterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	counter := cv.WithLabelValues(labels...)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
