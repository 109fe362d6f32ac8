package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/vertice-ops/dfc-assistant-go/internal/domain"
	"github.com/vertice-ops/dfc-assistant-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
)

// CasesWebhookClient proxies chat messages to the n8n cases workflow.
type CasesWebhookClient struct {
	httpClient *http.Client
	webhookURL string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewCasesWebhookClient creates the webhook client.
func NewCasesWebhookClient(httpClient *http.Client, webhookURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *CasesWebhookClient {
	return &CasesWebhookClient{
		httpClient: httpClient,
		webhookURL: webhookURL,
		cb:         cb,
		cfg:        cfg,
	}
}

type casesWebhookRequest struct {
	Message   string            `json:"message"`
	Historico []domain.ChatTurn `json:"historico,omitempty"`
}

// Send posts the message to the workflow and extracts the answer from
// whichever response shape the workflow happens to return.
func (c *CasesWebhookClient) Send(ctx context.Context, message string, historico []domain.ChatTurn) (string, error) {
	ctx, span := tracer.Start(ctx, "CasesWebhookClient.Send")
	defer span.End()

	var answer string

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(casesWebhookRequest{Message: message, Historico: historico})
			if err != nil {
				return err
			}

			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				statusErr := fmt.Errorf("cases webhook returned status %d", resp.StatusCode)
				if permanentStatus(resp.StatusCode) {
					return resilience.Permanent(statusErr)
				}
				return statusErr
			}

			raw, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}

			answer, err = ExtractWebhookAnswer(raw)
			return err
		})
	})

	if err != nil {
		return "", wrapOutboundErr("cases-webhook", err)
	}
	return answer, nil
}

// ExtractWebhookAnswer decodes the loosely-typed workflow response.
//
// n8n workflows return different shapes depending on how the final node is
// configured, so extraction is an explicit prioritized rule list instead of
// ad hoc optional chaining. Rules are tried in order; the first hit wins:
//
//  1. array-wrapped object: [{"output": "..."}]
//  2. flat "output" field
//  3. flat "response" field
//  4. flat "message" field
func ExtractWebhookAnswer(raw []byte) (string, error) {
	// Rule 1: array wrapper
	var arr []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) > 0 {
		if s, ok := stringField(arr[0], "output"); ok {
			return s, nil
		}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		// Rules 2-4, in priority order
		for _, field := range []string{"output", "response", "message"} {
			if s, ok := stringField(obj, field); ok {
				return s, nil
			}
		}
	}

	return "", fmt.Errorf("unrecognized webhook response shape")
}

func stringField(obj map[string]json.RawMessage, field string) (string, bool) {
	rawField, ok := obj[field]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(rawField, &s); err != nil {
		return "", false
	}
	return s, true
}
