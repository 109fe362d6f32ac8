// Package dfc implements the cash-flow (DFC) aggregation engine:
// the monthly series builder, the per-category metrics engine and the
// insight synthesizer consumed by the financial assistant handler.
//
// Everything here is pure computation over an in-memory tree. The tree is
// materialized by the store layer; these functions never touch I/O.
package dfc

import (
	"math"

	"github.com/vertice-ops/dfc-assistant-go/internal/domain"
)

// BuildMonthlySeries extracts the flat receitas/despesas series from the
// RECEITAS and DESPESAS root nodes. A missing root counts as all-zero.
// The output has exactly one entry per month in tree.Meses, in order.
func BuildMonthlySeries(tree *domain.DfcTree) []domain.MonthlyData {
	var receitasNode, despesasNode *domain.DfcNode
	for i := range tree.Nodes {
		switch tree.Nodes[i].CategoriaID {
		case domain.RootReceitas:
			receitasNode = &tree.Nodes[i]
		case domain.RootDespesas:
			despesasNode = &tree.Nodes[i]
		}
	}

	series := make([]domain.MonthlyData, 0, len(tree.Meses))
	for _, mes := range tree.Meses {
		var receitas, despesas float64
		if receitasNode != nil {
			receitas = receitasNode.ValuesByMonth[mes]
		}
		if despesasNode != nil {
			// Despesas are stored signed depending on the source root;
			// the series always reports magnitude.
			despesas = math.Abs(despesasNode.ValuesByMonth[mes])
		}

		resultado := receitas - despesas
		margem := 0.0
		if receitas > 0 {
			margem = resultado / receitas * 100
		}

		series = append(series, domain.MonthlyData{
			Mes:       mes,
			Receitas:  receitas,
			Despesas:  despesas,
			Resultado: resultado,
			Margem:    margem,
		})
	}
	return series
}
