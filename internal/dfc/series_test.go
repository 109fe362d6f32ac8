package dfc_test

import (
	"testing"

	"github.com/vertice-ops/dfc-assistant-go/internal/dfc"
	"github.com/vertice-ops/dfc-assistant-go/internal/domain"
)

func TestBuildMonthlySeries_LengthAndOrder(t *testing.T) {
	tree := &domain.DfcTree{
		Meses: []string{"2024-01", "2024-02", "2024-03"},
		Nodes: []domain.DfcNode{
			{CategoriaID: "RECEITAS", Nivel: 0, ValuesByMonth: map[string]float64{
				"2024-01": 1000, "2024-03": 3000,
			}},
			{CategoriaID: "DESPESAS", Nivel: 0, ValuesByMonth: map[string]float64{
				"2024-01": -600, "2024-02": 200,
			}},
		},
	}

	series := dfc.BuildMonthlySeries(tree)
	if len(series) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(series))
	}
	for i, mes := range tree.Meses {
		if series[i].Mes != mes {
			t.Errorf("entry %d: expected mes %s, got %s", i, mes, series[i].Mes)
		}
	}

	// Despesas magnitude regardless of stored sign
	if series[0].Despesas != 600 {
		t.Errorf("expected despesas 600, got %f", series[0].Despesas)
	}
	if series[1].Despesas != 200 {
		t.Errorf("expected despesas 200, got %f", series[1].Despesas)
	}
	// Missing months fall back to zero
	if series[2].Despesas != 0 {
		t.Errorf("expected despesas 0 for 2024-03, got %f", series[2].Despesas)
	}
}

func TestBuildMonthlySeries_MargemDefinition(t *testing.T) {
	tree := &domain.DfcTree{
		Meses: []string{"2024-01", "2024-02"},
		Nodes: []domain.DfcNode{
			{CategoriaID: "RECEITAS", ValuesByMonth: map[string]float64{"2024-01": 1000}},
			{CategoriaID: "DESPESAS", ValuesByMonth: map[string]float64{"2024-01": 600, "2024-02": 500}},
		},
	}

	series := dfc.BuildMonthlySeries(tree)

	if series[0].Resultado != 400 {
		t.Errorf("expected resultado 400, got %f", series[0].Resultado)
	}
	if series[0].Margem != 40 {
		t.Errorf("expected margem exactly 40, got %f", series[0].Margem)
	}

	// Zero receitas ⇒ margem 0 even with despesas present
	if series[1].Margem != 0 {
		t.Errorf("expected margem 0 for zero receitas, got %f", series[1].Margem)
	}
	if series[1].Resultado != -500 {
		t.Errorf("expected resultado -500, got %f", series[1].Resultado)
	}
}

func TestBuildMonthlySeries_MissingRoots(t *testing.T) {
	tree := &domain.DfcTree{
		Meses: []string{"2024-01", "2024-02"},
		Nodes: []domain.DfcNode{
			{CategoriaID: "1", CategoriaNome: "Marketing", Nivel: 1},
		},
	}

	series := dfc.BuildMonthlySeries(tree)
	if len(series) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(series))
	}
	for _, m := range series {
		if m.Receitas != 0 || m.Despesas != 0 || m.Resultado != 0 || m.Margem != 0 {
			t.Errorf("expected all-zero entry for %s, got %+v", m.Mes, m)
		}
	}
}

func TestBuildMonthlySeries_EmptyMeses(t *testing.T) {
	series := dfc.BuildMonthlySeries(&domain.DfcTree{})
	if len(series) != 0 {
		t.Fatalf("expected empty series, got %d entries", len(series))
	}
}
