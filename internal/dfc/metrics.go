package dfc

import (
	"math"

	"github.com/vertice-ops/dfc-assistant-go/internal/domain"
)

const (
	// minLeafLevel excludes the top two aggregate levels from per-category
	// analysis. Only leaves at depth >= 2 carry business-meaningful totals.
	minLeafLevel = 2

	// trendMinPoints is the minimum number of non-zero months required
	// before a trend can be classified at all.
	trendMinPoints = 3

	// trendThresholdPercent is the half-over-half change (in percent) beyond
	// which a category is classified crescente/decrescente.
	// TODO(finance): threshold inherited from the original dashboard with no
	// documented justification; revisit with the finance team.
	trendThresholdPercent = 15.0

	// anomalyZScoreThreshold is the |z-score| above which (strictly) a month
	// is flagged as anomalous. Same caveat as trendThresholdPercent.
	anomalyZScoreThreshold = 1.5
)

// ComputeCategoryMetrics computes total/mean/variance, trend classification
// and anomaly flags for every leaf category at level >= 2. Categories whose
// every month is zero are dropped from the result.
//
// Mean and variance are taken over non-zero months only: a zero month means
// "no activity", not "an anomalously low result", so it must not drag the
// statistics down. Anomaly detection still walks the full month-aligned
// series so the reported Mes keys line up with meses.
func ComputeCategoryMetrics(nodes []domain.DfcNode, meses []string) []domain.CategoryMetrics {
	result := make([]domain.CategoryMetrics, 0, len(nodes))

	for i := range nodes {
		node := &nodes[i]
		if !node.IsLeaf || node.Nivel < minLeafLevel {
			continue
		}

		values := make([]float64, len(meses))
		nonZero := make([]float64, 0, len(meses))
		for j, mes := range meses {
			v := math.Abs(node.ValuesByMonth[mes])
			values[j] = v
			if v > 0 {
				nonZero = append(nonZero, v)
			}
		}
		if len(nonZero) == 0 {
			continue
		}

		total := 0.0
		for _, v := range nonZero {
			total += v
		}
		media := total / float64(len(nonZero))

		variancia := 0.0
		for _, v := range nonZero {
			d := v - media
			variancia += d * d
		}
		variancia /= float64(len(nonZero))
		desvioPadrao := math.Sqrt(variancia)

		metrics := domain.CategoryMetrics{
			CategoriaID:   node.CategoriaID,
			CategoriaNome: node.CategoriaNome,
			Total:         total,
			MediaByMonth:  media,
			Variancia:     variancia,
			Tendencia:     classifyTrend(nonZero),
			Anomalias:     []domain.Anomalia{},
		}

		if desvioPadrao > 0 {
			for j, v := range values {
				if v <= 0 {
					continue
				}
				z := (v - media) / desvioPadrao
				if math.Abs(z) > anomalyZScoreThreshold {
					metrics.Anomalias = append(metrics.Anomalias, domain.Anomalia{
						Mes:    meses[j],
						Valor:  v,
						Desvio: z,
					})
				}
			}
		}

		result = append(result, metrics)
	}
	return result
}

// classifyTrend compares the first-half average against the second-half
// average of the non-zero series. The floor split puts the midpoint element
// of odd-length series in the second half.
func classifyTrend(nonZero []float64) domain.Tendencia {
	if len(nonZero) < trendMinPoints {
		return domain.TendenciaEstavel
	}

	mid := len(nonZero) / 2
	avgFirst := mean(nonZero[:mid])
	avgSecond := mean(nonZero[mid:])
	if avgFirst == 0 {
		return domain.TendenciaEstavel
	}

	changePercent := (avgSecond - avgFirst) / avgFirst * 100
	switch {
	case changePercent > trendThresholdPercent:
		return domain.TendenciaCrescente
	case changePercent < -trendThresholdPercent:
		return domain.TendenciaDecrescente
	default:
		return domain.TendenciaEstavel
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
