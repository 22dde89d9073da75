// Package testhelpers provides additional data builders for testing
package testhelpers

import (
	"time"

	"github.com/google/uuid"

	"github.com/triagehub/triagehub/internal/database"
	"github.com/triagehub/triagehub/internal/impact"
	"github.com/triagehub/triagehub/internal/tickets"
)

// ========================================
// Ticket Builder
// ========================================

// TicketBuilder builds NormalizedTicket instances for testing
type TicketBuilder struct {
	ticket tickets.NormalizedTicket
}

// NewTicketBuilder creates a new ticket builder with defaults
func NewTicketBuilder() *TicketBuilder {
	now := time.Now()
	return &TicketBuilder{
		ticket: tickets.NormalizedTicket{
			TicketID:    "ticket-1",
			SourceType:  "zendesk",
			Title:       "Cannot log in to the app",
			Description: "The login page keeps rejecting my password",
			Status:      tickets.TicketStatusOpen,
			Priority:    database.PriorityMedium,
			Customer: tickets.Customer{
				CustomerID:     "cust-1",
				BrandID:        "brand-1",
				LocationID:     "loc-1",
				MembershipTier: "standard",
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// WithTicketID sets the ticket ID
func (b *TicketBuilder) WithTicketID(id string) *TicketBuilder {
	b.ticket.TicketID = id
	return b
}

// WithSourceType sets the source type
func (b *TicketBuilder) WithSourceType(sourceType string) *TicketBuilder {
	b.ticket.SourceType = sourceType
	return b
}

// WithTitle sets the title
func (b *TicketBuilder) WithTitle(title string) *TicketBuilder {
	b.ticket.Title = title
	return b
}

// WithDescription sets the description
func (b *TicketBuilder) WithDescription(desc string) *TicketBuilder {
	b.ticket.Description = desc
	return b
}

// WithPriority sets the priority
func (b *TicketBuilder) WithPriority(priority database.IssuePriority) *TicketBuilder {
	b.ticket.Priority = priority
	return b
}

// WithCustomer sets the customer reference
func (b *TicketBuilder) WithCustomer(customerID, brandID, locationID string) *TicketBuilder {
	b.ticket.Customer.CustomerID = customerID
	b.ticket.Customer.BrandID = brandID
	b.ticket.Customer.LocationID = locationID
	return b
}

// WithTags sets the tags
func (b *TicketBuilder) WithTags(tags ...string) *TicketBuilder {
	b.ticket.Tags = tags
	return b
}

// Build returns the constructed ticket
func (b *TicketBuilder) Build() tickets.NormalizedTicket {
	return b.ticket
}

// ========================================
// Issue Builder
// ========================================

// IssueBuilder builds Issue instances for testing
type IssueBuilder struct {
	issue database.Issue
}

// NewIssueBuilder creates a new issue builder with defaults
func NewIssueBuilder() *IssueBuilder {
	return &IssueBuilder{
		issue: database.Issue{
			UUID:            uuid.New().String(),
			Title:           "Cannot log in to the app",
			Description:     "The login page keeps rejecting my password",
			Status:          database.IssueStatusActive,
			Priority:        database.PriorityMedium,
			Category:        "authentication",
			IncidentReports: database.StringMap{},
		},
	}
}

// WithUUID sets the issue UUID
func (b *IssueBuilder) WithUUID(id string) *IssueBuilder {
	b.issue.UUID = id
	return b
}

// WithTitle sets the title
func (b *IssueBuilder) WithTitle(title string) *IssueBuilder {
	b.issue.Title = title
	return b
}

// WithDescription sets the description
func (b *IssueBuilder) WithDescription(desc string) *IssueBuilder {
	b.issue.Description = desc
	return b
}

// WithStatus sets the status
func (b *IssueBuilder) WithStatus(status database.IssueStatus) *IssueBuilder {
	b.issue.Status = status
	return b
}

// WithPriority sets the priority
func (b *IssueBuilder) WithPriority(priority database.IssuePriority) *IssueBuilder {
	b.issue.Priority = priority
	return b
}

// WithEmbedding sets the stored embedding
func (b *IssueBuilder) WithEmbedding(vector []float64) *IssueBuilder {
	b.issue.Embedding = database.Vector(vector)
	return b
}

// WithBrandImpacts sets the impact ledger and recomputes derived totals
func (b *IssueBuilder) WithBrandImpacts(impacts ...database.BrandImpact) *IssueBuilder {
	b.issue.BrandImpacts = database.BrandImpacts(impacts)
	b.issue.RecomputeTotals()
	return b
}

// RequiringReport marks the issue as needing an incident report
func (b *IssueBuilder) RequiringReport() *IssueBuilder {
	b.issue.RequiresIncidentReport = true
	return b
}

// Build returns the constructed issue
func (b *IssueBuilder) Build() database.Issue {
	return b.issue
}

// ========================================
// Brand Impact Builder
// ========================================

// BrandImpactBuilder builds BrandImpact records for testing
type BrandImpactBuilder struct {
	impact database.BrandImpact
}

// NewBrandImpactBuilder creates a new brand impact builder with defaults
func NewBrandImpactBuilder() *BrandImpactBuilder {
	return &BrandImpactBuilder{
		impact: database.BrandImpact{
			BrandID:     "brand-1",
			BrandName:   "Brand One",
			ImpactLevel: database.ImpactLevelLow,
		},
	}
}

// WithBrand sets the brand reference
func (b *BrandImpactBuilder) WithBrand(brandID, brandName string) *BrandImpactBuilder {
	b.impact.BrandID = brandID
	b.impact.BrandName = brandName
	return b
}

// WithLocation appends a location impact and refreshes the brand rollup
func (b *BrandImpactBuilder) WithLocation(locationID string, affected, total int) *BrandImpactBuilder {
	pct, level := impact.Severity(affected, total)
	b.impact.Locations = append(b.impact.Locations, database.LocationImpact{
		LocationID:       locationID,
		LocationName:     locationID,
		AffectedMembers:  affected,
		TotalMembers:     total,
		ImpactPercentage: pct,
		ImpactLevel:      level,
	})

	b.impact.TotalAffectedMembers = 0
	b.impact.ImpactLevel = database.ImpactLevelLow
	for _, l := range b.impact.Locations {
		b.impact.TotalAffectedMembers += l.AffectedMembers
		b.impact.ImpactLevel = database.MaxImpactLevel(b.impact.ImpactLevel, l.ImpactLevel)
	}
	return b
}

// WithServices sets the affected services
func (b *BrandImpactBuilder) WithServices(services ...string) *BrandImpactBuilder {
	b.impact.AffectedServices = services
	return b
}

// Build returns the constructed brand impact
func (b *BrandImpactBuilder) Build() database.BrandImpact {
	return b.impact
}
