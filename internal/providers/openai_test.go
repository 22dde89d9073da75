package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestEmbedSuccess(t *testing.T) {
	var gotAuth string
	var gotReq embeddingRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": []float64{0.1, 0.2, 0.3}},
			},
		})
	}))
	defer server.Close()

	client := NewEmbeddingClient(Options{APIKey: "test-key", BaseURL: server.URL})
	vector, err := client.Embed(context.Background(), "cannot log in")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(vector) != 3 || vector[1] != 0.2 {
		t.Errorf("unexpected vector: %v", vector)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("unexpected auth header: %q", gotAuth)
	}
	if gotReq.Input != "cannot log in" {
		t.Errorf("unexpected input: %q", gotReq.Input)
	}
	if gotReq.Model != "text-embedding-3-small" {
		t.Errorf("expected the default model, got %q", gotReq.Model)
	}
}

func TestEmbedProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "rate limited", "type": "rate_limit"},
		})
	}))
	defer server.Close()

	client := NewEmbeddingClient(Options{APIKey: "test-key", BaseURL: server.URL})
	_, err := client.Embed(context.Background(), "text")
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected the provider message to surface, got %v", err)
	}
}

func TestEmbedEmptyData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{}})
	}))
	defer server.Close()

	client := NewEmbeddingClient(Options{APIKey: "test-key", BaseURL: server.URL})
	if _, err := client.Embed(context.Background(), "text"); err == nil {
		t.Fatal("expected an error for an empty data array")
	}
}

func TestEmbedMissingAPIKey(t *testing.T) {
	client := NewEmbeddingClient(Options{})
	if _, err := client.Embed(context.Background(), "text"); err == nil {
		t.Fatal("expected an error without an API key")
	}
}

func TestCompleteSuccess(t *testing.T) {
	var gotReq chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "generated report"}, "finish_reason": "stop"},
			},
		})
	}))
	defer server.Close()

	client := NewCompletionClient(Options{APIKey: "test-key", BaseURL: server.URL, ChatModel: "gpt-4o"})
	content, err := client.Complete(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if content != "generated report" {
		t.Errorf("unexpected content: %q", content)
	}
	if gotReq.Model != "gpt-4o" {
		t.Errorf("expected the configured model, got %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Content != "user prompt" {
		t.Errorf("unexpected messages: %+v", gotReq.Messages)
	}
}

func TestCompleteProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "context length exceeded", "type": "invalid_request"},
		})
	}))
	defer server.Close()

	client := NewCompletionClient(Options{APIKey: "test-key", BaseURL: server.URL})
	_, err := client.Complete(context.Background(), "system", "user")
	if err == nil || !strings.Contains(err.Error(), "context length exceeded") {
		t.Fatalf("expected the provider message to surface, got %v", err)
	}
}

func TestCompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer server.Close()

	client := NewCompletionClient(Options{APIKey: "test-key", BaseURL: server.URL})
	if _, err := client.Complete(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected an error for an empty choices array")
	}
}

func TestCompleteMissingAPIKey(t *testing.T) {
	client := NewCompletionClient(Options{})
	if _, err := client.Complete(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected an error without an API key")
	}
}
