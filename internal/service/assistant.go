// Package service implements the assistant use cases: the chat context
// router and the DFC analysis pipeline behind it.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/vertice-ops/dfc-assistant-go/internal/domain"
	"github.com/vertice-ops/dfc-assistant-go/internal/infra/observability"
	"github.com/vertice-ops/dfc-assistant-go/internal/port"
)

var tracer = otel.Tracer("service")

// apologyMessage is the fixed fallback when a handler fails. The frontend
// renders it as a normal assistant turn, so it must read like one.
const apologyMessage = "Desculpe, não consegui processar sua mensagem agora. Por favor, tente novamente em alguns instantes."

const geralSystemPrompt = "Você é o assistente da agência. Responda de forma clara e objetiva, " +
	"em português, sobre a operação da agência: clientes, cases, financeiro e rotinas internas. " +
	"Se a pergunta exigir dados que você não tem, diga isso explicitamente."

const clientesSystemPrompt = "Você é o assistente de carteira de clientes da agência. Ajude com " +
	"informações sobre relacionamento, histórico e status de clientes. Responda em português, " +
	"de forma direta. Não invente dados de clientes que não foram fornecidos."

// Assistant routes chat messages to the per-context handlers.
type Assistant struct {
	logger    *zap.Logger
	metrics   *observability.Metrics
	llm       port.CompletionCaller
	cases     port.CasesWebhookCaller
	store     port.DfcStore
	gate      port.QueryGate
	dfcCache  port.Cache[*domain.DfcTree]
	maxTokens int
	now       func() time.Time
}

// Option configures optional Assistant behavior.
type Option func(*Assistant)

// WithClock overrides the clock used for default period resolution.
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) {
		a.now = now
	}
}

// NewAssistant wires the router with its collaborators.
func NewAssistant(
	logger *zap.Logger,
	metrics *observability.Metrics,
	llm port.CompletionCaller,
	cases port.CasesWebhookCaller,
	store port.DfcStore,
	gate port.QueryGate,
	dfcCache port.Cache[*domain.DfcTree],
	maxTokens int,
	opts ...Option,
) *Assistant {
	a := &Assistant{
		logger:    logger,
		metrics:   metrics,
		llm:       llm,
		cases:     cases,
		store:     store,
		gate:      gate,
		dfcCache:  dfcCache,
		maxTokens: maxTokens,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Chat resolves the context and dispatches to its handler.
//
// Handler failures never surface as HTTP errors: the user gets the fixed
// apology as a normal assistant turn, with the resolved context echoed so
// the frontend keeps the conversation in the right tab. The real error
// goes to the log and the error counter.
func (a *Assistant) Chat(ctx context.Context, req *domain.ChatRequest) *domain.ChatResponse {
	ctx, span := tracer.Start(ctx, "Assistant.Chat")
	defer span.End()

	// Interaction id correlates the log lines and spans of one chat turn
	// across the handler chain and the outbound calls.
	interactionID := uuid.New().String()

	resolved := a.resolveContext(req)
	span.SetAttributes(
		attribute.String("chat.interaction_id", interactionID),
		attribute.String("chat.context_requested", string(req.Context)),
		attribute.String("chat.context_resolved", string(resolved)),
	)

	var (
		resp *domain.ChatResponse
		err  error
	)

	switch resolved {
	case domain.ContextFinanceiro:
		resp, err = a.handleFinanceiro(ctx, req)
	case domain.ContextCases:
		resp, err = a.handleCases(ctx, req)
	case domain.ContextClientes:
		resp, err = a.handleCompletion(ctx, req, domain.ContextClientes, clientesSystemPrompt)
	default:
		resp, err = a.handleCompletion(ctx, req, domain.ContextGeral, geralSystemPrompt)
	}

	if err != nil {
		a.logger.Error("chat handler failed",
			zap.String("interaction_id", interactionID),
			zap.String("context", string(resolved)),
			zap.Error(err),
		)
		a.metrics.IncrChatRequest(string(resolved), "error")
		var external *domain.ErrExternalService
		if errors.As(err, &external) {
			a.metrics.IncrExternalError(external.Service)
		}
		return &domain.ChatResponse{
			Resposta: apologyMessage,
			Context:  resolved,
		}
	}

	a.metrics.IncrChatRequest(string(resolved), "success")
	return resp
}

// resolveContext picks the handler. An explicit context wins; "auto" (or
// absent) falls back to keyword matching on the page context the frontend
// sent, and finally to geral.
func (a *Assistant) resolveContext(req *domain.ChatRequest) domain.ChatContext {
	switch req.Context {
	case domain.ContextGeral, domain.ContextFinanceiro, domain.ContextCases, domain.ContextClientes:
		return req.Context
	}

	page := strings.ToLower(req.Metadata.PageContext)
	switch {
	case strings.Contains(page, "financeiro"), strings.Contains(page, "dfc"), strings.Contains(page, "fluxo"):
		return domain.ContextFinanceiro
	case strings.Contains(page, "case"):
		return domain.ContextCases
	case strings.Contains(page, "cliente"), strings.Contains(page, "crm"):
		return domain.ContextClientes
	}
	return domain.ContextGeral
}

// handleCompletion is the plain LLM path shared by geral and clientes:
// system prompt, rolling history, then the new message.
func (a *Assistant) handleCompletion(ctx context.Context, req *domain.ChatRequest, chatContext domain.ChatContext, systemPrompt string) (*domain.ChatResponse, error) {
	ctx, span := tracer.Start(ctx, "Assistant.handleCompletion")
	defer span.End()

	messages := buildMessages(systemPrompt, req.Historico, req.Message)

	completion, err := a.llm.Complete(ctx, &domain.CompletionRequest{
		Messages:  messages,
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		return nil, err
	}
	a.metrics.RecordTokens(completion.PromptTokens, completion.CompletionTokens)

	return &domain.ChatResponse{
		Resposta: completion.Content,
		Context:  chatContext,
	}, nil
}

// handleCases forwards the message to the n8n workflow. The workflow owns
// the whole conversation for this context; no LLM call happens here.
func (a *Assistant) handleCases(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	ctx, span := tracer.Start(ctx, "Assistant.handleCases")
	defer span.End()

	answer, err := a.cases.Send(ctx, req.Message, req.Historico)
	if err != nil {
		return nil, err
	}

	return &domain.ChatResponse{
		Resposta: answer,
		Context:  domain.ContextCases,
	}, nil
}

// buildMessages assembles the completion payload: system prompt first,
// then the rolling history in order, then the new user message.
func buildMessages(systemPrompt string, historico []domain.ChatTurn, message string) []domain.CompletionMessage {
	messages := make([]domain.CompletionMessage, 0, len(historico)+2)
	messages = append(messages, domain.CompletionMessage{Role: "system", Content: systemPrompt})
	for _, turn := range historico {
		messages = append(messages, domain.CompletionMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, domain.CompletionMessage{Role: "user", Content: message})
	return messages
}
