// Package port declares the interfaces between the service layer and its
// collaborators. Services depend on these, never on concrete clients, so
// tests can swap in fakes.
package port

import (
	"context"

	"github.com/vertice-ops/dfc-assistant-go/internal/domain"
	"github.com/vertice-ops/dfc-assistant-go/internal/infra/sqlgate"
)

// CompletionCaller is the LLM completion API.
type CompletionCaller interface {
	Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error)
}

// CasesWebhookCaller is the n8n workflow behind the cases context.
type CasesWebhookCaller interface {
	Send(ctx context.Context, message string, historico []domain.ChatTurn) (string, error)
}

// DfcStore loads the cash-flow category tree for a period.
type DfcStore interface {
	FetchTree(ctx context.Context, dataInicio, dataFim string) (*domain.DfcTree, error)
}

// QueryGate validates and executes assistant-generated SQL.
type QueryGate interface {
	Execute(ctx context.Context, query string) sqlgate.Result
}

// Cache is a typed TTL cache for expensive reads.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	Flush()
}
