package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lexitect/lexitect/internal/model"
)

func TestAnthropicProvider_Classify_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Expected path /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("Expected x-api-key header test-key, got %s", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Errorf("Expected anthropic-version header 2023-06-01, got %s", r.Header.Get("anthropic-version"))
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Temperature != 0 {
			t.Errorf("classification must run at temperature 0, got %v", req.Temperature)
		}

		resp := anthropicResponse{
			Model: "claude-3-5-haiku-latest",
			Content: []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			}{
				{Type: "text", Text: "minor_drift"},
			},
		}
		resp.Usage.InputTokens = 40
		resp.Usage.OutputTokens = 5
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "claude-3-5-haiku-latest",
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Classify(context.Background(), ClassifyRequest{
		Term:               "Alpha",
		CanonicalStatement: "Alpha is the first letter.",
		Snippet:            "Alpha is used loosely here.",
	})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if resp.Severity != model.SeverityMinorDrift {
		t.Errorf("Expected minor_drift, got %s", resp.Severity)
	}
	if resp.TokensUsed != 45 {
		t.Errorf("Expected 45 tokens, got %d", resp.TokensUsed)
	}
}

func TestAnthropicProvider_Classify_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{
				"type":    "authentication_error",
				"message": "invalid x-api-key",
			},
		})
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "bad-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Classify(context.Background(), ClassifyRequest{Term: "Alpha"})
	if err == nil {
		t.Fatal("Expected an error from the API error response")
	}
}

func TestAnthropicProvider_Classify_UnparseableVerdict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := anthropicResponse{
			Content: []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			}{
				{Type: "text", Text: "I cannot judge this."},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Classify(context.Background(), ClassifyRequest{Term: "Alpha"})
	if err == nil {
		t.Fatal("An out-of-vocabulary verdict must be an error, not a guess")
	}
}

func TestNewAnthropicProvider_RequiresKey(t *testing.T) {
	if _, err := NewAnthropicProvider(Config{}); err == nil {
		t.Fatal("Expected error when API key is missing")
	}
}
