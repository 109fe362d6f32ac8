// Package postgres implements the data access layer on pgx.
package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vertice-ops/dfc-assistant-go/internal/domain"
)

var tracer = otel.Tracer("infra/postgres")

// DfcStore reads the cash-flow hierarchy from the dfc tables.
type DfcStore struct {
	pool *pgxpool.Pool
}

// NewDfcStore wraps the shared connection pool.
func NewDfcStore(pool *pgxpool.Pool) *DfcStore {
	return &DfcStore{pool: pool}
}

const fetchTreeQuery = `
SELECT c.id,
       c.nome,
       c.nivel,
       NOT EXISTS (SELECT 1 FROM dfc_categorias f WHERE f.parent_id = c.id) AS is_leaf,
       to_char(l.data, 'YYYY-MM') AS mes,
       COALESCE(SUM(l.valor), 0) AS total
FROM dfc_categorias c
LEFT JOIN dfc_lancamentos l
       ON l.categoria_id = c.id
      AND l.data >= $1::date
      AND l.data <= $2::date
GROUP BY c.id, c.nome, c.nivel, mes
ORDER BY c.nivel, c.id, mes`

// FetchTree loads every category with its monthly totals inside the period.
// DfcTree.Meses is sorted lexicographically, which for the "YYYY-MM" format
// is chronological order.
func (s *DfcStore) FetchTree(ctx context.Context, dataInicio, dataFim string) (*domain.DfcTree, error) {
	ctx, span := tracer.Start(ctx, "DfcStore.FetchTree")
	defer span.End()
	span.SetAttributes(
		attribute.String("dfc.data_inicio", dataInicio),
		attribute.String("dfc.data_fim", dataFim),
	)

	rows, err := s.pool.Query(ctx, fetchTreeQuery, dataInicio, dataFim)
	if err != nil {
		return nil, fmt.Errorf("querying dfc tree: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*domain.DfcNode)
	var order []string
	var meses []string
	seenMes := make(map[string]bool)

	for rows.Next() {
		var (
			id, nome string
			nivel    int
			isLeaf   bool
			mes      *string
			total    float64
		)
		if err := rows.Scan(&id, &nome, &nivel, &isLeaf, &mes, &total); err != nil {
			return nil, fmt.Errorf("scanning dfc row: %w", err)
		}

		node, ok := byID[id]
		if !ok {
			node = &domain.DfcNode{
				CategoriaID:   id,
				CategoriaNome: nome,
				Nivel:         nivel,
				IsLeaf:        isLeaf,
				ValuesByMonth: make(map[string]float64),
			}
			byID[id] = node
			order = append(order, id)
		}

		// Categories with no entries in the period join with mes NULL.
		if mes != nil {
			node.ValuesByMonth[*mes] = total
			if !seenMes[*mes] {
				seenMes[*mes] = true
				meses = append(meses, *mes)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading dfc rows: %w", err)
	}
	sort.Strings(meses)

	tree := &domain.DfcTree{Meses: meses}
	for _, id := range order {
		tree.Nodes = append(tree.Nodes, *byID[id])
	}
	return tree, nil
}

// QueryRows executes a raw query and returns rows keyed by column name.
// Only the sql gate calls this, after validation.
func (s *DfcStore) QueryRows(ctx context.Context, query string) ([]map[string]any, error) {
	ctx, span := tracer.Start(ctx, "DfcStore.QueryRows")
	defer span.End()

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []map[string]any

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			row[string(fd.Name)] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
