package adapters

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/triagehub/triagehub/internal/tickets"
)

// ZendeskAdapter handles Zendesk ticket event payloads
type ZendeskAdapter struct{}

// NewZendeskAdapter creates a new Zendesk adapter
func NewZendeskAdapter() *ZendeskAdapter {
	return &ZendeskAdapter{}
}

// GetSourceType returns the source type name
func (a *ZendeskAdapter) GetSourceType() string {
	return "zendesk"
}

// ZendeskPayload represents a Zendesk ticket webhook payload
type ZendeskPayload struct {
	Ticket    ZendeskTicket `json:"ticket"`
	Requester ZendeskUser   `json:"requester"`
}

// ZendeskTicket represents the ticket portion of the payload
type ZendeskTicket struct {
	ID          json.Number `json:"id"`
	Subject     string      `json:"subject"`
	Description string      `json:"description"`
	Status      string      `json:"status"`
	Priority    string      `json:"priority"`
	Tags        []string    `json:"tags"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ZendeskUser represents the requester portion of the payload
type ZendeskUser struct {
	ID         json.Number            `json:"id"`
	UserFields map[string]interface{} `json:"user_fields"`
}

// ParsePayload parses a Zendesk payload into normalized tickets
func (a *ZendeskAdapter) ParsePayload(body []byte) ([]tickets.NormalizedTicket, error) {
	var payload ZendeskPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse zendesk payload: %w", err)
	}

	if payload.Ticket.ID.String() == "" {
		return nil, fmt.Errorf("zendesk payload has no ticket id")
	}

	fields := payload.Requester.UserFields
	ticket := tickets.NormalizedTicket{
		TicketID:    payload.Ticket.ID.String(),
		SourceType:  a.GetSourceType(),
		Title:       payload.Ticket.Subject,
		Description: payload.Ticket.Description,
		Status:      tickets.NormalizeStatus(payload.Ticket.Status),
		Priority:    tickets.NormalizePriority(payload.Ticket.Priority),
		Customer: tickets.Customer{
			CustomerID:     payload.Requester.ID.String(),
			BrandID:        stringField(fields, "brand_id"),
			LocationID:     stringField(fields, "location_id"),
			MembershipTier: stringField(fields, "membership_tier"),
		},
		Tags:      tickets.NormalizeTags(payload.Ticket.Tags),
		CreatedAt: payload.Ticket.CreatedAt,
		UpdatedAt: payload.Ticket.UpdatedAt,
	}

	return []tickets.NormalizedTicket{ticket}, nil
}

// stringField pulls a string value out of a loosely typed field map
func stringField(fields map[string]interface{}, key string) string {
	if fields == nil {
		return ""
	}
	switch v := fields[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
