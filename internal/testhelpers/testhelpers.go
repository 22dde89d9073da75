// Package testhelpers provides reusable testing utilities for TriageHub.
//
// This package contains:
// - HTTP test helpers (creating test requests, asserting responses)
// - Mock implementations (ticket adapters, embedding and content providers)
// - Sample data builders
package testhelpers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/triagehub/triagehub/internal/tickets"
)

// ========================================
// HTTP Test Helpers
// ========================================

// HTTPTestContext holds components for HTTP handler testing
type HTTPTestContext struct {
	T        *testing.T
	Recorder *httptest.ResponseRecorder
	Request  *http.Request
}

// NewHTTPTestContext creates a new HTTP test context
func NewHTTPTestContext(t *testing.T, method, path string, body io.Reader) *HTTPTestContext {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	return &HTTPTestContext{
		T:        t,
		Recorder: httptest.NewRecorder(),
		Request:  req,
	}
}

// WithJSONBody sets JSON body on the request
func (ctx *HTTPTestContext) WithJSONBody(v interface{}) *HTTPTestContext {
	ctx.T.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		ctx.T.Fatalf("failed to marshal JSON body: %v", err)
	}
	ctx.Request = httptest.NewRequest(ctx.Request.Method, ctx.Request.URL.String(), bytes.NewReader(body))
	ctx.Request.Header.Set("Content-Type", "application/json")
	return ctx
}

// Execute runs the handler and returns the response
func (ctx *HTTPTestContext) Execute(handler http.Handler) *HTTPTestContext {
	handler.ServeHTTP(ctx.Recorder, ctx.Request)
	return ctx
}

// ExecuteFunc runs the handler func and returns the response
func (ctx *HTTPTestContext) ExecuteFunc(handler http.HandlerFunc) *HTTPTestContext {
	handler(ctx.Recorder, ctx.Request)
	return ctx
}

// AssertStatus checks the response status code
func (ctx *HTTPTestContext) AssertStatus(expected int) *HTTPTestContext {
	ctx.T.Helper()
	if ctx.Recorder.Code != expected {
		ctx.T.Errorf("expected status %d, got %d. Body: %s", expected, ctx.Recorder.Code, ctx.Recorder.Body.String())
	}
	return ctx
}

// AssertBodyContains checks if response body contains substring
func (ctx *HTTPTestContext) AssertBodyContains(substr string) *HTTPTestContext {
	ctx.T.Helper()
	body := ctx.Recorder.Body.String()
	if !strings.Contains(body, substr) {
		ctx.T.Errorf("expected body to contain %q, got: %s", substr, body)
	}
	return ctx
}

// DecodeJSON decodes response body as JSON
func (ctx *HTTPTestContext) DecodeJSON(v interface{}) *HTTPTestContext {
	ctx.T.Helper()
	if err := json.NewDecoder(ctx.Recorder.Body).Decode(v); err != nil {
		ctx.T.Fatalf("failed to decode JSON response: %v", err)
	}
	return ctx
}

// ========================================
// Mock Ticket Adapter
// ========================================

// MockTicketAdapter implements tickets.TicketAdapter for testing
type MockTicketAdapter struct {
	SourceType         string
	ParsedTickets      []tickets.NormalizedTicket
	ParseError         error
	ParsePayloadCalled bool
}

// NewMockTicketAdapter creates a new mock adapter
func NewMockTicketAdapter(sourceType string) *MockTicketAdapter {
	return &MockTicketAdapter{
		SourceType:    sourceType,
		ParsedTickets: []tickets.NormalizedTicket{},
	}
}

// GetSourceType returns the source type
func (m *MockTicketAdapter) GetSourceType() string {
	return m.SourceType
}

// ParsePayload parses the ticket payload
func (m *MockTicketAdapter) ParsePayload(body []byte) ([]tickets.NormalizedTicket, error) {
	m.ParsePayloadCalled = true
	if m.ParseError != nil {
		return nil, m.ParseError
	}
	return m.ParsedTickets, nil
}

// WithTickets configures tickets to return from ParsePayload
func (m *MockTicketAdapter) WithTickets(parsed ...tickets.NormalizedTicket) *MockTicketAdapter {
	m.ParsedTickets = parsed
	return m
}

// WithParseError configures ParsePayload to return an error
func (m *MockTicketAdapter) WithParseError(err error) *MockTicketAdapter {
	m.ParseError = err
	return m
}

// ========================================
// Fake Providers
// ========================================

// FakeEmbedder implements similarity.EmbeddingProvider with canned vectors.
// Vectors are keyed by substring match against the input text; Default is
// returned when nothing matches.
type FakeEmbedder struct {
	Vectors map[string][]float64
	Default []float64
	Err     error
	Calls   int
}

// NewFakeEmbedder creates an embedder that returns the given vector for all inputs
func NewFakeEmbedder(defaultVector []float64) *FakeEmbedder {
	return &FakeEmbedder{
		Vectors: map[string][]float64{},
		Default: defaultVector,
	}
}

// WithVector maps texts containing substr to the given vector
func (f *FakeEmbedder) WithVector(substr string, vector []float64) *FakeEmbedder {
	f.Vectors[substr] = vector
	return f
}

// WithError makes every Embed call fail
func (f *FakeEmbedder) WithError(err error) *FakeEmbedder {
	f.Err = err
	return f
}

// Embed returns the configured vector for the text
func (f *FakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	for substr, vector := range f.Vectors {
		if strings.Contains(text, substr) {
			return vector, nil
		}
	}
	return f.Default, nil
}

// FakeCompleter implements reports.ContentProvider with a fixed response
type FakeCompleter struct {
	Response string
	Err      error
	Calls    int

	// LastUserPrompt records the prompt from the most recent call
	LastUserPrompt string
}

// Complete returns the configured response
func (f *FakeCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.Calls++
	f.LastUserPrompt = userPrompt
	if f.Err != nil {
		return "", f.Err
	}
	return f.Response, nil
}
