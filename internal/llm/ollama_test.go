package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lexitect/lexitect/internal/model"
)

func TestOllamaProvider_Classify_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected path /api/generate, got %s", r.URL.Path)
		}

		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("Expected stream=false")
		}
		if req.Options.Temperature != 0 {
			t.Errorf("classification must run at temperature 0, got %v", req.Options.Temperature)
		}
		if req.Options.Seed != classifySeed {
			t.Errorf("Expected fixed seed %d, got %d", classifySeed, req.Options.Seed)
		}

		_ = json.NewEncoder(w).Encode(ollamaResponse{
			Model:           "llama3.2",
			Response:        "contradiction",
			Done:            true,
			PromptEvalCount: 30,
			EvalCount:       4,
		})
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3.2", Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Classify(context.Background(), ClassifyRequest{
		Term:               "Alpha",
		CanonicalStatement: "Alpha is the first letter.",
		Snippet:            "Alpha is not a letter at all.",
	})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if resp.Severity != model.SeverityContradiction {
		t.Errorf("Expected contradiction, got %s", resp.Severity)
	}
	if resp.TokensUsed != 34 {
		t.Errorf("Expected 34 tokens, got %d", resp.TokensUsed)
	}
}

func TestOllamaProvider_Classify_RequiresModel(t *testing.T) {
	provider, err := NewOllamaProvider(Config{BaseURL: "http://localhost:1"})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	if _, err := provider.Classify(context.Background(), ClassifyRequest{Term: "Alpha"}); err == nil {
		t.Fatal("Expected error when no model is configured")
	}
}

func TestOllamaProvider_Classify_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(ollamaError{Error: "model not found"})
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "missing"})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	if _, err := provider.Classify(context.Background(), ClassifyRequest{Term: "Alpha"}); err == nil {
		t.Fatal("Expected error from non-OK status")
	}
}

func TestOllamaProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected provider to be available")
	}

	server.Close()
	if provider.IsAvailable(context.Background()) {
		t.Error("Expected provider to be unavailable after server shutdown")
	}
}
