// Package reports generates brand-specific incident reports for issues,
// with a deterministic template fallback when the generative provider is
// unavailable, and the asynchronous outbox that decouples report generation
// from ticket processing.
package reports

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/triagehub/triagehub/internal/database"
)

// ErrBrandNotAffected is returned when a report is requested for a brand
// with no impact record on the issue.
var ErrBrandNotAffected = errors.New("brand has no impact record on this issue")

// ContentProvider generates structured narrative content
type ContentProvider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Synthesizer assembles context for one (issue, brand) pair, asks the
// generative provider for report content, and falls back to a deterministic
// template when generation fails.
type Synthesizer struct {
	store    *database.IssueStore
	provider ContentProvider
}

// NewSynthesizer creates a new incident report synthesizer
func NewSynthesizer(store *database.IssueStore, provider ContentProvider) *Synthesizer {
	return &Synthesizer{store: store, provider: provider}
}

// Generate produces the incident report for one brand affected by an issue.
// Generation is idempotent per (issue, brand): an existing report is
// returned as-is. Provider failures are recovered via the template
// fallback; only a missing brand impact or a store failure surfaces.
func (s *Synthesizer) Generate(ctx context.Context, issueUUID, brandID string) (*database.IncidentReport, error) {
	issue, err := s.store.GetIssueByUUID(issueUUID)
	if err != nil {
		return nil, fmt.Errorf("load issue %s: %w", issueUUID, err)
	}

	brand := issue.BrandImpacts.Find(brandID)
	if brand == nil {
		return nil, fmt.Errorf("issue %s, brand %s: %w", issueUUID, brandID, ErrBrandNotAffected)
	}

	if existing, err := s.store.GetReportForBrand(issueUUID, brandID); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("look up existing report: %w", err)
	}

	content, generatedBy := s.synthesize(ctx, issue, brand)

	report := &database.IncidentReport{
		UUID:              uuid.New().String(),
		IssueUUID:         issue.UUID,
		BrandID:           brandID,
		Status:            database.ReportStatusDraft,
		Content:           content,
		AffectedMembers:   brand.TotalAffectedMembers,
		AffectedLocations: len(brand.Locations),
		GeneratedBy:       generatedBy,
	}

	if err := s.store.CreateReport(report); err != nil {
		return nil, fmt.Errorf("persist report for issue %s, brand %s: %w", issueUUID, brandID, err)
	}
	if err := s.store.RecordReportMapping(issue.ID, brandID, report.UUID); err != nil {
		return nil, fmt.Errorf("record report mapping: %w", err)
	}

	return report, nil
}

// synthesize tries the generative provider and degrades to the template.
// Returns the content and which path produced it.
func (s *Synthesizer) synthesize(ctx context.Context, issue *database.Issue, brand *database.BrandImpact) (database.ReportContent, string) {
	if s.provider == nil {
		return FallbackContent(issue, brand), "template"
	}

	pc := &PromptContext{
		IssueTitle:       issue.Title,
		IssueDescription: issue.Description,
		IssueStatus:      string(issue.Status),
		IssuePriority:    string(issue.Priority),
		IssueCategory:    issue.Category,
		Brand:            *brand,
		LinkedTickets:    s.ticketSummaries(issue),
	}

	userPrompt, err := BuildUserPrompt(pc)
	if err != nil {
		log.Printf("Failed to build report prompt for issue %s, using template: %v", issue.UUID, err)
		return FallbackContent(issue, brand), "template"
	}

	raw, err := s.provider.Complete(ctx, reportSystemPrompt, userPrompt)
	if err != nil {
		log.Printf("Generative provider failed for issue %s, using template: %v", issue.UUID, err)
		return FallbackContent(issue, brand), "template"
	}

	content, err := ParseContent(raw)
	if err != nil {
		log.Printf("Failed to parse generated report for issue %s, using template: %v", issue.UUID, err)
		return FallbackContent(issue, brand), "template"
	}

	return content, "provider"
}

// ticketSummaries gathers linked-ticket context best-effort: a lookup
// failure drops the tickets from the prompt, it does not fail generation.
func (s *Synthesizer) ticketSummaries(issue *database.Issue) []TicketSummary {
	linked, err := s.store.GetLinkedTickets(issue.ID)
	if err != nil {
		log.Printf("Failed to load linked tickets for issue %s, omitting from report context: %v", issue.UUID, err)
		return nil
	}

	summaries := make([]TicketSummary, 0, len(linked))
	for _, t := range linked {
		summaries = append(summaries, TicketSummary{
			TicketID:   t.TicketID,
			SourceType: t.SourceType,
			Title:      t.Title,
			Priority:   t.Priority,
			LinkedAt:   t.LinkedAt.UTC().Format(time.RFC3339),
		})
	}
	return summaries
}
