// Package providers holds clients for the external embedding and generative
// content providers. Both speak the OpenAI-compatible HTTP API and are
// consumed through small interfaces so tests can substitute fakes.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Options configures the provider clients
type Options struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	ChatModel      string
	Timeout        time.Duration
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.BaseURL == "" {
		out.BaseURL = defaultBaseURL
	}
	if out.EmbeddingModel == "" {
		out.EmbeddingModel = "text-embedding-3-small"
	}
	if out.ChatModel == "" {
		out.ChatModel = "gpt-4o-mini"
	}
	if out.Timeout == 0 {
		out.Timeout = 30 * time.Second
	}
	return out
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ========== Embedding Client ==========

// EmbeddingClient calls the embeddings endpoint
type EmbeddingClient struct {
	httpClient *http.Client
	opts       Options
}

// NewEmbeddingClient creates an embedding client
func NewEmbeddingClient(opts Options) *EmbeddingClient {
	opts = opts.withDefaults()
	return &EmbeddingClient{
		httpClient: &http.Client{Timeout: opts.Timeout},
		opts:       opts,
	}
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Error *apiError `json:"error"`
}

// Embed converts text to a fixed-length numeric vector
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float64, error) {
	if c.opts.APIKey == "" {
		return nil, fmt.Errorf("embedding provider not configured")
	}

	reqBody, err := json.Marshal(embeddingRequest{Model: c.opts.EmbeddingModel, Input: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding response: %w", err)
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, fmt.Errorf("failed to parse embedding response: %w", err)
	}
	if embResp.Error != nil {
		return nil, fmt.Errorf("embedding provider error: %s", embResp.Error.Message)
	}
	if len(embResp.Data) == 0 || len(embResp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding provider returned no data")
	}

	return embResp.Data[0].Embedding, nil
}

// ========== Chat Completion Client ==========

// CompletionClient calls the chat completions endpoint
type CompletionClient struct {
	httpClient *http.Client
	opts       Options
}

// NewCompletionClient creates a chat completion client
func NewCompletionClient(opts Options) *CompletionClient {
	opts = opts.withDefaults()
	return &CompletionClient{
		httpClient: &http.Client{Timeout: opts.Timeout},
		opts:       opts,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error"`
}

// Complete sends a system and user prompt and returns the raw completion text
func (c *CompletionClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.opts.APIKey == "" {
		return "", fmt.Errorf("generative provider not configured")
	}

	reqBody, err := json.Marshal(chatRequest{
		Model: c.opts.ChatModel,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   2000,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse completion response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("generative provider error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("generative provider returned no choices")
	}

	return chatResp.Choices[0].Message.Content, nil
}
