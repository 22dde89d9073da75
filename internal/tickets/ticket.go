package tickets

import (
	"strings"
	"time"

	"github.com/triagehub/triagehub/internal/database"
)

// TicketStatus represents normalized ticket status
type TicketStatus string

const (
	TicketStatusOpen    TicketStatus = "open"
	TicketStatusPending TicketStatus = "pending"
	TicketStatusSolved  TicketStatus = "solved"
	TicketStatusClosed  TicketStatus = "closed"
)

// Customer identifies the reporting customer and their organizational unit
type Customer struct {
	CustomerID     string `json:"customer_id"`
	BrandID        string `json:"brand_id"`
	LocationID     string `json:"location_id"`
	MembershipTier string `json:"membership_tier"`
}

// NormalizedTicket is the canonical, source-agnostic representation of one
// support ticket event. Immutable once produced by an adapter.
type NormalizedTicket struct {
	TicketID    string
	SourceType  string
	Title       string
	Description string
	Status      TicketStatus
	Priority    database.IssuePriority
	Customer    Customer
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Text returns the combined title and description used for similarity scoring
func (t *NormalizedTicket) Text() string {
	if t.Description == "" {
		return t.Title
	}
	return t.Title + " " + t.Description
}

// TicketAdapter defines the interface for source-specific ticket parsing.
// Adapters accept a raw webhook/export body and produce normalized tickets;
// transport and signature verification live with the caller.
type TicketAdapter interface {
	// GetSourceType returns the source type name (e.g., "zendesk")
	GetSourceType() string

	// ParsePayload parses the raw body into normalized tickets.
	// A single payload can contain multiple ticket events.
	ParsePayload(body []byte) ([]NormalizedTicket, error)
}

// NormalizePriority normalizes priority strings to standard values
func NormalizePriority(priority string) database.IssuePriority {
	switch strings.ToLower(priority) {
	case "urgent", "critical", "p1", "emergency":
		return database.PriorityUrgent
	case "high", "major", "p2":
		return database.PriorityHigh
	case "medium", "normal", "p3", "moderate":
		return database.PriorityMedium
	case "low", "minor", "p4", "trivial":
		return database.PriorityLow
	default:
		return database.PriorityMedium
	}
}

// NormalizeStatus normalizes status strings to standard values
func NormalizeStatus(status string) TicketStatus {
	switch strings.ToLower(status) {
	case "open", "new", "active":
		return TicketStatusOpen
	case "pending", "hold", "on-hold", "waiting":
		return TicketStatusPending
	case "solved", "resolved":
		return TicketStatusSolved
	case "closed", "archived":
		return TicketStatusClosed
	default:
		return TicketStatusOpen
	}
}

// NormalizeTags lowercases and deduplicates free-text tags
func NormalizeTags(raw []string) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, tag := range raw {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}
