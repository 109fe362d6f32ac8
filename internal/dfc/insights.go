package dfc

import (
	"sort"

	"github.com/vertice-ops/dfc-assistant-go/internal/domain"
)

// defaultTopLimit bounds the category ranking handed to the LLM prompt.
const defaultTopLimit = 10

// TopCategories returns the metrics ranked descending by total, truncated
// to limit. The sort is stable: ties keep their original relative order.
func TopCategories(metrics []domain.CategoryMetrics, limit int) []domain.CategoryMetrics {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	ranked := make([]domain.CategoryMetrics, len(metrics))
	copy(ranked, metrics)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Total > ranked[j].Total
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Synthesize assembles the structured analysis the LLM narrates: average
// margin, the qualitative direction of receitas and despesas, the single
// best and worst resultado months and the top categories.
func Synthesize(series []domain.MonthlyData, metrics []domain.CategoryMetrics, meses []string) *domain.DfcAnalysis {
	analysis := &domain.DfcAnalysis{
		Meses:         meses,
		Series:        series,
		ReceitasTrend: domain.TendenciaEstavel,
		DespesasTrend: domain.TendenciaEstavel,
		TopCategorias: TopCategories(metrics, defaultTopLimit),
	}

	if len(series) > 0 {
		margemSum := 0.0
		receitas := make([]float64, 0, len(series))
		despesas := make([]float64, 0, len(series))
		best, worst := 0, 0
		for i, m := range series {
			margemSum += m.Margem
			receitas = append(receitas, m.Receitas)
			despesas = append(despesas, m.Despesas)
			if m.Resultado > series[best].Resultado {
				best = i
			}
			if m.Resultado < series[worst].Resultado {
				worst = i
			}
		}
		analysis.MargemMedia = margemSum / float64(len(series))
		analysis.ReceitasTrend = edgeTrend(receitas)
		analysis.DespesasTrend = edgeTrend(despesas)

		bestCopy, worstCopy := series[best], series[worst]
		analysis.MelhorMes = &bestCopy
		analysis.PiorMes = &worstCopy
	}

	for _, m := range metrics {
		analysis.TotalAnomalias += len(m.Anomalias)
	}
	return analysis
}

// edgeTrend compares the average of the first few months against the last
// few, using the same 15% convention as the per-category classifier.
// Window is min(3, n/2) so short periods still get a direction.
func edgeTrend(values []float64) domain.Tendencia {
	if len(values) < 2 {
		return domain.TendenciaEstavel
	}
	window := 3
	if half := len(values) / 2; half < window {
		window = half
	}
	if window == 0 {
		window = 1
	}

	avgFirst := mean(values[:window])
	avgLast := mean(values[len(values)-window:])
	if avgFirst == 0 {
		return domain.TendenciaEstavel
	}

	changePercent := (avgLast - avgFirst) / avgFirst * 100
	switch {
	case changePercent > trendThresholdPercent:
		return domain.TendenciaCrescente
	case changePercent < -trendThresholdPercent:
		return domain.TendenciaDecrescente
	default:
		return domain.TendenciaEstavel
	}
}
