// Package sqlgate is the whitelist-only SQL executor guarding the queries
// the assistant generates on the user's behalf.
//
// The gate fails closed: a query runs only if it starts with SELECT and
// contains none of the mutating keywords. The keyword check is a plain
// substring match on the uppercased query, so the keywords are also
// forbidden inside string literals or comments. That is a documented
// limitation kept on purpose — the check is defense-in-depth around an
// LLM-generated string, not a SQL parser, and it is not a substitute for
// running the pool under a read-only database role.
package sqlgate

import (
	"context"
	"strings"
)

// denylist of mutating keywords, matched as substrings of the
// uppercased query.
var denylist = []string{
	"DROP", "DELETE", "UPDATE", "INSERT", "ALTER",
	"TRUNCATE", "CREATE", "GRANT", "REVOKE",
}

// RowQuerier executes a raw query and returns the rows as column-name maps.
// Implemented by the postgres store; tests plug in fakes.
type RowQuerier interface {
	QueryRows(ctx context.Context, query string) ([]map[string]any, error)
}

// Result is the outcome of a gated query. Validation rejections and driver
// errors both land in Error — the gate never panics or propagates.
type Result struct {
	Success  bool             `json:"success"`
	Data     []map[string]any `json:"data,omitempty"`
	Error    string           `json:"error,omitempty"`
	RowCount int              `json:"rowCount,omitempty"`
}

// Gate validates and executes SELECT-only queries.
type Gate struct {
	querier RowQuerier
}

// New creates a gate over the given querier.
func New(querier RowQuerier) *Gate {
	return &Gate{querier: querier}
}

// Execute runs the query if it passes validation. Rejections and database
// errors are reported in the Result, never returned as Go errors: the
// caller (the financial chat handler) always gets something it can narrate.
func (g *Gate) Execute(ctx context.Context, query string) Result {
	normalized := strings.ToUpper(strings.TrimSpace(query))

	if !strings.HasPrefix(normalized, "SELECT") {
		return Result{
			Success: false,
			Error:   "apenas consultas SELECT são permitidas",
		}
	}

	for _, keyword := range denylist {
		if strings.Contains(normalized, keyword) {
			return Result{
				Success: false,
				Error:   "consulta contém palavra-chave não permitida: " + keyword,
			}
		}
	}

	rows, err := g.querier.QueryRows(ctx, query)
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	return Result{Success: true, Data: rows, RowCount: len(rows)}
}
