package client_test

import (
	"testing"

	"github.com/vertice-ops/dfc-assistant-go/internal/infra/client"
)

func TestExtractWebhookAnswer_ArrayWrappedOutput(t *testing.T) {
	raw := []byte(`[{"output": "resposta do fluxo"}]`)

	got, err := client.ExtractWebhookAnswer(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "resposta do fluxo" {
		t.Errorf("expected array-wrapped output, got %q", got)
	}
}

func TestExtractWebhookAnswer_FlatOutput(t *testing.T) {
	raw := []byte(`{"output": "texto"}`)

	got, err := client.ExtractWebhookAnswer(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "texto" {
		t.Errorf("expected flat output, got %q", got)
	}
}

func TestExtractWebhookAnswer_PriorityOrder(t *testing.T) {
	// output beats response beats message when several are present.
	raw := []byte(`{"message": "terceiro", "response": "segundo", "output": "primeiro"}`)

	got, err := client.ExtractWebhookAnswer(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "primeiro" {
		t.Errorf("expected output field to win, got %q", got)
	}
}

func TestExtractWebhookAnswer_ResponseFallback(t *testing.T) {
	raw := []byte(`{"response": "via response"}`)

	got, err := client.ExtractWebhookAnswer(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "via response" {
		t.Errorf("got %q", got)
	}
}

func TestExtractWebhookAnswer_MessageFallback(t *testing.T) {
	raw := []byte(`{"message": "via message"}`)

	got, err := client.ExtractWebhookAnswer(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "via message" {
		t.Errorf("got %q", got)
	}
}

func TestExtractWebhookAnswer_NonStringFieldSkipped(t *testing.T) {
	// An output field holding an object falls through to the next rule.
	raw := []byte(`{"output": {"nested": true}, "response": "usável"}`)

	got, err := client.ExtractWebhookAnswer(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "usável" {
		t.Errorf("expected fallback past non-string output, got %q", got)
	}
}

func TestExtractWebhookAnswer_UnknownShape(t *testing.T) {
	raw := []byte(`{"data": [1, 2, 3]}`)

	if _, err := client.ExtractWebhookAnswer(raw); err == nil {
		t.Fatal("expected error for unrecognized shape")
	}
}
