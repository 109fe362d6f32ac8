package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/vertice-ops/dfc-assistant-go/internal/dfc"
	"github.com/vertice-ops/dfc-assistant-go/internal/domain"
)

// sqlDirective marks a first-pass LLM reply that asks for a database
// lookup before answering. Everything after the marker is the query.
const sqlDirective = "CONSULTAR_SQL:"

const financeiroSystemPrompt = "Você é o analista financeiro da agência. Responda em português sobre " +
	"o fluxo de caixa (DFC) usando APENAS os dados da análise fornecida abaixo. Cite meses e valores " +
	"concretos. Se precisar de um dado que não está na análise, responda exatamente com " +
	"'CONSULTAR_SQL: <consulta SELECT>' em uma única linha, sem mais nada, e a consulta será " +
	"executada para você.\n\nAnálise do período:\n%s"

// handleFinanceiro answers with the DFC analysis in the prompt. When the
// model replies with the SQL directive, the query runs through the gate and
// a second completion narrates the rows (or the gate's rejection).
func (a *Assistant) handleFinanceiro(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	ctx, span := tracer.Start(ctx, "Assistant.handleFinanceiro")
	defer span.End()

	dataInicio, dataFim := resolvePeriod(req.Metadata, a.now())
	span.SetAttributes(
		attribute.String("dfc.data_inicio", dataInicio),
		attribute.String("dfc.data_fim", dataFim),
	)

	analysis, err := a.AnalyzeDfc(ctx, dataInicio, dataFim)
	if err != nil {
		return nil, err
	}

	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return nil, err
	}

	systemPrompt := fmt.Sprintf(financeiroSystemPrompt, analysisJSON)
	messages := buildMessages(systemPrompt, req.Historico, req.Message)

	completion, err := a.llm.Complete(ctx, &domain.CompletionRequest{
		Messages:  messages,
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		return nil, err
	}
	a.metrics.RecordTokens(completion.PromptTokens, completion.CompletionTokens)

	content := completion.Content
	if query, ok := extractSQLDirective(content); ok {
		content, err = a.answerWithQuery(ctx, messages, query)
		if err != nil {
			return nil, err
		}
	}

	return &domain.ChatResponse{
		Resposta:           content,
		Context:            domain.ContextFinanceiro,
		DadosReferenciados: referencedData(analysis),
	}, nil
}

// answerWithQuery runs the gated query and asks for a second completion
// grounded on the result. Gate rejections and driver errors also go back
// to the model, so the final answer can explain what went wrong.
func (a *Assistant) answerWithQuery(ctx context.Context, messages []domain.CompletionMessage, query string) (string, error) {
	ctx, span := tracer.Start(ctx, "Assistant.answerWithQuery")
	defer span.End()

	result := a.gate.Execute(ctx, query)
	if !result.Success {
		a.metrics.IncrQueryRejected()
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return "", err
	}

	followUp := append(messages,
		domain.CompletionMessage{Role: "assistant", Content: sqlDirective + " " + query},
		domain.CompletionMessage{
			Role: "user",
			Content: "Resultado da consulta:\n" + string(resultJSON) +
				"\n\nResponda à pergunta original usando esse resultado. Se a consulta falhou, explique o que não foi possível obter.",
		},
	)

	completion, err := a.llm.Complete(ctx, &domain.CompletionRequest{
		Messages:  followUp,
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		return "", err
	}
	a.metrics.RecordTokens(completion.PromptTokens, completion.CompletionTokens)

	return completion.Content, nil
}

// AnalyzeDfc loads the category tree (through the cache) and derives the
// full analysis. The monthly series and the per-category metrics are
// independent reductions over the tree, so they run concurrently.
func (a *Assistant) AnalyzeDfc(ctx context.Context, dataInicio, dataFim string) (*domain.DfcAnalysis, error) {
	ctx, span := tracer.Start(ctx, "Assistant.AnalyzeDfc")
	defer span.End()

	cacheKey := "dfc_tree:" + dataInicio + ":" + dataFim

	tree, ok := a.dfcCache.Get(cacheKey)
	if ok {
		a.metrics.IncrCacheHit("dfc_tree")
	} else {
		a.metrics.IncrCacheMiss("dfc_tree")
		var err error
		tree, err = a.store.FetchTree(ctx, dataInicio, dataFim)
		if err != nil {
			return nil, err
		}
		a.dfcCache.Set(cacheKey, tree)
	}

	var (
		series  []domain.MonthlyData
		metrics []domain.CategoryMetrics
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		series = dfc.BuildMonthlySeries(tree)
		return nil
	})
	g.Go(func() error {
		metrics = dfc.ComputeCategoryMetrics(tree.Nodes, tree.Meses)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return dfc.Synthesize(series, metrics, tree.Meses), nil
}

// resolvePeriod fills missing period bounds with the trailing 12 months
// relative to now.
func resolvePeriod(meta domain.ChatMetadata, now time.Time) (string, string) {
	dataInicio, dataFim := meta.DataInicio, meta.DataFim
	if dataInicio == "" {
		dataInicio = now.AddDate(-1, 0, 0).Format("2006-01-02")
	}
	if dataFim == "" {
		dataFim = now.Format("2006-01-02")
	}
	return dataInicio, dataFim
}

// extractSQLDirective recognizes a first-pass reply that is a query request.
// The marker must open the reply; a directive buried in prose is treated as
// a normal answer.
func extractSQLDirective(content string) (string, bool) {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, sqlDirective) {
		return "", false
	}
	query := strings.TrimSpace(strings.TrimPrefix(trimmed, sqlDirective))
	if query == "" {
		return "", false
	}
	return query, true
}

// referencedData surfaces what the answer is grounded on so the frontend
// can highlight the matching cards.
func referencedData(analysis *domain.DfcAnalysis) *domain.ReferencedData {
	ref := &domain.ReferencedData{Meses: analysis.Meses}
	for _, c := range analysis.TopCategorias {
		ref.Categorias = append(ref.Categorias, c.CategoriaNome)
	}
	for _, m := range analysis.Series {
		ref.Valores = append(ref.Valores, m.Resultado)
	}
	if len(ref.Categorias) == 0 && len(ref.Meses) == 0 && len(ref.Valores) == 0 {
		return nil
	}
	return ref
}
