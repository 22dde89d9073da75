package adapters

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/triagehub/triagehub/internal/tickets"
)

// FreshdeskAdapter handles Freshdesk ticket event payloads
type FreshdeskAdapter struct{}

// NewFreshdeskAdapter creates a new Freshdesk adapter
func NewFreshdeskAdapter() *FreshdeskAdapter {
	return &FreshdeskAdapter{}
}

// GetSourceType returns the source type name
func (a *FreshdeskAdapter) GetSourceType() string {
	return "freshdesk"
}

// Freshdesk sends numeric priority codes: 1 low, 2 medium, 3 high, 4 urgent
var freshdeskPriorities = map[int]string{
	1: "low",
	2: "medium",
	3: "high",
	4: "urgent",
}

// Freshdesk status codes: 2 open, 3 pending, 4 resolved, 5 closed
var freshdeskStatuses = map[int]string{
	2: "open",
	3: "pending",
	4: "resolved",
	5: "closed",
}

// FreshdeskPayload represents a Freshdesk ticket webhook payload
type FreshdeskPayload struct {
	ID             int64                  `json:"id"`
	Subject        string                 `json:"subject"`
	DescriptionTxt string                 `json:"description_text"`
	Status         int                    `json:"status"`
	Priority       int                    `json:"priority"`
	Tags           []string               `json:"tags"`
	RequesterID    int64                  `json:"requester_id"`
	CustomFields   map[string]interface{} `json:"custom_fields"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// ParsePayload parses a Freshdesk payload into normalized tickets
func (a *FreshdeskAdapter) ParsePayload(body []byte) ([]tickets.NormalizedTicket, error) {
	var payload FreshdeskPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse freshdesk payload: %w", err)
	}

	if payload.ID == 0 {
		return nil, fmt.Errorf("freshdesk payload has no ticket id")
	}

	ticket := tickets.NormalizedTicket{
		TicketID:    strconv.FormatInt(payload.ID, 10),
		SourceType:  a.GetSourceType(),
		Title:       payload.Subject,
		Description: payload.DescriptionTxt,
		Status:      tickets.NormalizeStatus(freshdeskStatuses[payload.Status]),
		Priority:    tickets.NormalizePriority(freshdeskPriorities[payload.Priority]),
		Customer: tickets.Customer{
			CustomerID:     strconv.FormatInt(payload.RequesterID, 10),
			BrandID:        stringField(payload.CustomFields, "cf_brand_id"),
			LocationID:     stringField(payload.CustomFields, "cf_location_id"),
			MembershipTier: stringField(payload.CustomFields, "cf_membership_tier"),
		},
		Tags:      tickets.NormalizeTags(payload.Tags),
		CreatedAt: payload.CreatedAt,
		UpdatedAt: payload.UpdatedAt,
	}

	return []tickets.NormalizedTicket{ticket}, nil
}
