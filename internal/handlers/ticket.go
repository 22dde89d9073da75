package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"

	"github.com/triagehub/triagehub/internal/impact"
	"github.com/triagehub/triagehub/internal/orchestrator"
	"github.com/triagehub/triagehub/internal/tickets"
)

// TicketHandler handles webhook requests from multiple ticket sources
type TicketHandler struct {
	engine *orchestrator.Orchestrator

	// Registered adapters by source type
	adapters map[string]tickets.TicketAdapter
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(engine *orchestrator.Orchestrator) *TicketHandler {
	return &TicketHandler{
		engine:   engine,
		adapters: make(map[string]tickets.TicketAdapter),
	}
}

// RegisterAdapter registers a ticket adapter for a source type
func (h *TicketHandler) RegisterAdapter(adapter tickets.TicketAdapter) {
	h.adapters[adapter.GetSourceType()] = adapter
	log.Printf("Registered ticket adapter: %s", adapter.GetSourceType())
}

// Sources lists the registered source types in sorted order
func (h *TicketHandler) Sources() []string {
	sources := make([]string, 0, len(h.adapters))
	for source := range h.adapters {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources
}

// HandleWebhook processes incoming webhook requests
// Route: /webhook/ticket/{source_type}
func (h *TicketHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/webhook/ticket/")
	sourceType := strings.TrimSuffix(path, "/")

	if sourceType == "" {
		http.Error(w, "Missing source type", http.StatusBadRequest)
		return
	}

	adapter, ok := h.adapters[sourceType]
	if !ok {
		log.Printf("No adapter for source type: %s", sourceType)
		http.Error(w, "Unsupported source type", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading webhook body: %v", err)
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	normalized, err := adapter.ParsePayload(body)
	if err != nil {
		log.Printf("Error parsing ticket payload: %v", err)
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	log.Printf("Received %d tickets from %s", len(normalized), sourceType)

	// Tickets are processed in order so impact merges on the same issue
	// observe a consistent ledger within one request.
	results := make([]*orchestrator.ProcessingResult, 0, len(normalized))
	for i := range normalized {
		result, err := h.engine.ProcessTicket(r.Context(), &normalized[i])
		if err != nil {
			h.writeProcessingError(w, normalized[i].TicketID, err)
			return
		}
		results = append(results, result)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(results); err != nil {
		log.Printf("Error encoding triage response: %v", err)
	}
}

// writeProcessingError maps engine failures onto HTTP status codes. Unknown
// customer references are a client problem, everything else is a 500.
func (h *TicketHandler) writeProcessingError(w http.ResponseWriter, ticketID string, err error) {
	log.Printf("Error processing ticket %s: %v", ticketID, err)

	status := http.StatusInternalServerError
	if errors.Is(err, impact.ErrBrandNotFound) || errors.Is(err, impact.ErrLocationNotFound) {
		status = http.StatusUnprocessableEntity
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	response := map[string]string{
		"ticket_id": ticketID,
		"error":     err.Error(),
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Error encoding error response: %v", err)
	}
}
