package handlers

import (
	"net/http"

	"github.com/triagehub/triagehub/internal/api"
)

// HTTPHandler owns the non-API HTTP surface: the health endpoint and the
// ticket webhook routes.
type HTTPHandler struct {
	ticketHandler *TicketHandler
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(ticketHandler *TicketHandler) *HTTPHandler {
	return &HTTPHandler{
		ticketHandler: ticketHandler,
	}
}

// SetupRoutes configures the health and webhook routes
func (h *HTTPHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handleHealth)
	// Ticket webhooks: /webhook/ticket/{source_type}
	if h.ticketHandler != nil {
		mux.HandleFunc("/webhook/ticket/", h.ticketHandler.HandleWebhook)
	}
}

type healthResponse struct {
	Status  string   `json:"status"`
	Service string   `json:"service"`
	Sources []string `json:"sources,omitempty"`
}

// handleHealth reports liveness and the registered ticket sources
func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Service: "triagehub"}
	if h.ticketHandler != nil {
		resp.Sources = h.ticketHandler.Sources()
	}
	api.RespondJSON(w, http.StatusOK, resp)
}
