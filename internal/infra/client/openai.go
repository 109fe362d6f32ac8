// Package client holds the HTTP clients for the outbound collaborators:
// the OpenAI completion API and the n8n cases webhook.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vertice-ops/dfc-assistant-go/internal/domain"
	"github.com/vertice-ops/dfc-assistant-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("infra/client")

// OpenAIClient calls the chat-completions API.
type OpenAIClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
}

// NewOpenAIClient creates the completion client. The bulkhead bounds
// concurrent in-flight completions across all chat requests.
func NewOpenAIClient(httpClient *http.Client, baseURL, apiKey, model string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *OpenAIClient {
	return &OpenAIClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		cb:         cb,
		cfg:        cfg,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
	}
}

type openAIRequest struct {
	Model     string                     `json:"model"`
	Messages  []domain.CompletionMessage `json:"messages"`
	MaxTokens int                        `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the message list and returns the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	ctx, span := tracer.Start(ctx, "OpenAIClient.Complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", c.model),
		attribute.Int("llm.messages", len(req.Messages)),
	)

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, wrapOutboundErr("openai", err)
	}
	defer c.bulkhead.Release()

	var completion domain.CompletionResponse

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(openAIRequest{
				Model:     c.model,
				Messages:  req.Messages,
				MaxTokens: req.MaxTokens,
			})
			if err != nil {
				return err
			}

			url := fmt.Sprintf("%s/v1/chat/completions", c.baseURL)
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", "application/json")
			httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			var parsed openAIResponse
			if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				statusErr := fmt.Errorf("openai status %d", resp.StatusCode)
				if parsed.Error != nil {
					statusErr = fmt.Errorf("openai status %d: %s", resp.StatusCode, parsed.Error.Message)
				}
				if permanentStatus(resp.StatusCode) {
					return resilience.Permanent(statusErr)
				}
				return statusErr
			}
			if len(parsed.Choices) == 0 {
				return fmt.Errorf("openai returned no choices")
			}

			completion = domain.CompletionResponse{
				Content:          parsed.Choices[0].Message.Content,
				PromptTokens:     parsed.Usage.PromptTokens,
				CompletionTokens: parsed.Usage.CompletionTokens,
			}
			return nil
		})
	})

	if err != nil {
		return nil, wrapOutboundErr("openai", err)
	}
	return &completion, nil
}
