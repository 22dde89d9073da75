package adapters

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/triagehub/triagehub/internal/tickets"
)

// IntercomAdapter handles Intercom conversation event payloads
type IntercomAdapter struct{}

// NewIntercomAdapter creates a new Intercom adapter
func NewIntercomAdapter() *IntercomAdapter {
	return &IntercomAdapter{}
}

// GetSourceType returns the source type name
func (a *IntercomAdapter) GetSourceType() string {
	return "intercom"
}

// IntercomPayload represents an Intercom conversation webhook payload.
// Intercom nests the conversation under data.item.
type IntercomPayload struct {
	Data struct {
		Item IntercomConversation `json:"item"`
	} `json:"data"`
}

// IntercomConversation represents the conversation portion of the payload
type IntercomConversation struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	State  string `json:"state"`
	Source struct {
		Body string `json:"body"`
	} `json:"source"`
	Priority string `json:"priority"` // "priority" or "not_priority"
	Tags     struct {
		Tags []struct {
			Name string `json:"name"`
		} `json:"tags"`
	} `json:"tags"`
	Contacts struct {
		Contacts []IntercomContact `json:"contacts"`
	} `json:"contacts"`
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// IntercomContact represents a conversation participant
type IntercomContact struct {
	ID               string                 `json:"id"`
	CustomAttributes map[string]interface{} `json:"custom_attributes"`
}

// ParsePayload parses an Intercom payload into normalized tickets
func (a *IntercomAdapter) ParsePayload(body []byte) ([]tickets.NormalizedTicket, error) {
	var payload IntercomPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse intercom payload: %w", err)
	}

	conv := payload.Data.Item
	if conv.ID == "" {
		return nil, fmt.Errorf("intercom payload has no conversation id")
	}

	var customer tickets.Customer
	if len(conv.Contacts.Contacts) > 0 {
		contact := conv.Contacts.Contacts[0]
		customer = tickets.Customer{
			CustomerID:     contact.ID,
			BrandID:        stringField(contact.CustomAttributes, "brand_id"),
			LocationID:     stringField(contact.CustomAttributes, "location_id"),
			MembershipTier: stringField(contact.CustomAttributes, "membership_tier"),
		}
	}

	var tags []string
	for _, t := range conv.Tags.Tags {
		tags = append(tags, t.Name)
	}

	// Intercom only flags priority conversations; treat those as high
	priority := "medium"
	if conv.Priority == "priority" {
		priority = "high"
	}

	ticket := tickets.NormalizedTicket{
		TicketID:    conv.ID,
		SourceType:  a.GetSourceType(),
		Title:       conv.Title,
		Description: stripHTML(conv.Source.Body),
		Status:      tickets.NormalizeStatus(conv.State),
		Priority:    tickets.NormalizePriority(priority),
		Customer:    customer,
		Tags:        tickets.NormalizeTags(tags),
		CreatedAt:   time.Unix(conv.CreatedAt, 0).UTC(),
		UpdatedAt:   time.Unix(conv.UpdatedAt, 0).UTC(),
	}

	if ticket.Title == "" {
		ticket.Title = firstLine(ticket.Description)
	}

	return []tickets.NormalizedTicket{ticket}, nil
}

// stripHTML removes the simple markup Intercom wraps message bodies in
func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// firstLine returns the first line of a string, truncated for use as a title
func firstLine(s string) string {
	if idx := strings.Index(s, "\n"); idx > 0 {
		s = s[:idx]
	}
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return s
}
