// Package orchestrator drives the ticket-processing transaction: match an
// incoming ticket against open issues, create or link, fold the ticket's
// impact into the issue ledger, and hand report generation off to the
// outbox.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/triagehub/triagehub/internal/database"
	"github.com/triagehub/triagehub/internal/impact"
	"github.com/triagehub/triagehub/internal/reports"
	"github.com/triagehub/triagehub/internal/similarity"
	"github.com/triagehub/triagehub/internal/tickets"
)

// Action is the decision taken for one ticket
type Action string

const (
	ActionCreated Action = "created"
	ActionLinked  Action = "linked"
)

// Fixed design constants. The thresholds the deployment may tune live in
// TriageSettings instead.
const (
	// LinkThreshold is the minimum combined score to link rather than
	// create. Stricter than the matcher's inclusion threshold; the
	// boundary is >=.
	LinkThreshold = 0.8

	// CreatedConfidence is reported when a new issue is created
	CreatedConfidence = 1.0

	maxSimilarIssues = 5
	maxMergeAttempts = 3
)

// SimilarIssue is one audit entry from the match phase
type SimilarIssue struct {
	IssueUUID     string               `json:"issue_uuid"`
	Title         string               `json:"title"`
	CombinedScore float64              `json:"combined_score"`
	MatchType     similarity.MatchType `json:"match_type"`
}

// ProcessingResult is the outcome of one ticket-processing transaction
type ProcessingResult struct {
	Action                   Action         `json:"action"`
	IssueUUID                string         `json:"issue_uuid"`
	Confidence               float64        `json:"confidence"`
	SimilarIssues            []SimilarIssue `json:"similar_issues"`
	IncidentReportsTriggered []string       `json:"incident_reports_triggered"`
}

// Orchestrator wires the matcher, the impact aggregator, the store, and the
// report outbox into the single ProcessTicket entry point.
type Orchestrator struct {
	store      *database.IssueStore
	matcher    *similarity.Matcher
	aggregator *impact.Aggregator
	queue      reports.Queue
	provider   similarity.EmbeddingProvider
	taxonomy   Taxonomy
}

// New creates an orchestrator. provider may be nil; matching then runs in
// keyword-fallback mode and new issues carry no cached embedding.
func New(store *database.IssueStore, matcher *similarity.Matcher, aggregator *impact.Aggregator, queue reports.Queue, provider similarity.EmbeddingProvider, taxonomy Taxonomy) *Orchestrator {
	return &Orchestrator{
		store:      store,
		matcher:    matcher,
		aggregator: aggregator,
		queue:      queue,
		provider:   provider,
		taxonomy:   taxonomy,
	}
}

// ProcessTicket decides whether the ticket is a new operational issue or a
// continuation of a tracked one, updates the issue's impact ledger, and
// evaluates the incident-report trigger. Provider failures degrade scoring;
// unresolvable brand/location references and store failures surface to the
// caller, which owns retry policy.
func (o *Orchestrator) ProcessTicket(ctx context.Context, ticket *tickets.NormalizedTicket) (*ProcessingResult, error) {
	settings, err := o.store.Settings()
	if err != nil {
		return nil, fmt.Errorf("load triage settings: %w", err)
	}

	// Impact is resolved before any write so an unresolvable ticket leaves
	// no partial issue behind.
	ticketImpact, err := o.aggregator.ComputeImpact(ticket)
	if err != nil {
		return nil, err
	}

	var matches []similarity.Match
	if settings.Enabled {
		candidates, err := o.store.RecentIssues(settings.CandidatePoolSize)
		if err != nil {
			return nil, fmt.Errorf("load candidate issues: %w", err)
		}
		matches = o.matcher.FindMatches(ctx, ticket, candidates, settings.MatchThreshold)
	}

	result := &ProcessingResult{SimilarIssues: similarIssues(matches)}

	var issueUUID string
	if len(matches) > 0 && matches[0].Result.CombinedScore >= LinkThreshold {
		best := matches[0]
		if err := o.linkTicket(ticket, &best); err != nil {
			return nil, err
		}
		issueUUID = best.Issue.UUID
		result.Action = ActionLinked
		result.Confidence = best.Result.Confidence
	} else {
		issue, err := o.createIssue(ctx, ticket)
		if err != nil {
			return nil, err
		}
		issueUUID = issue.UUID
		result.Action = ActionCreated
		result.Confidence = CreatedConfidence
	}
	result.IssueUUID = issueUUID

	updated, err := o.mergeImpact(issueUUID, ticketImpact)
	if err != nil {
		return nil, err
	}

	result.IncidentReportsTriggered = o.evaluateTrigger(ctx, updated, settings)

	return result, nil
}

// linkTicket appends the ticket to the best-matching issue and persists any
// issue embedding the analyzer had to compute on the way.
func (o *Orchestrator) linkTicket(ticket *tickets.NormalizedTicket, match *similarity.Match) error {
	linked := &database.LinkedTicket{
		SourceType:      ticket.SourceType,
		TicketID:        ticket.TicketID,
		Title:           ticket.Title,
		Priority:        string(ticket.Priority),
		BrandID:         ticket.Customer.BrandID,
		LocationID:      ticket.Customer.LocationID,
		MatchType:       string(match.Result.MatchType),
		MatchConfidence: match.Result.Confidence,
		MatchReasons:    strings.Join(match.Result.Reasons, "; "),
		LinkedAt:        time.Now().UTC(),
	}
	if err := o.store.LinkTicket(match.Issue.ID, linked); err != nil {
		return fmt.Errorf("link ticket %s to issue %s: %w", ticket.TicketID, match.Issue.UUID, err)
	}

	if len(match.Result.ComputedIssueEmbedding) > 0 {
		if err := o.store.SaveEmbedding(match.Issue.ID, match.Result.ComputedIssueEmbedding); err != nil {
			log.Printf("Failed to cache embedding for issue %s: %v", match.Issue.UUID, err)
		}
	}

	return nil
}

// createIssue builds a new issue from the ticket
func (o *Orchestrator) createIssue(ctx context.Context, ticket *tickets.NormalizedTicket) (*database.Issue, error) {
	text := ticket.Text()
	priority := DerivePriority(ticket.Priority, text)

	issue := &database.Issue{
		UUID:                   uuid.New().String(),
		Title:                  ticket.Title,
		Description:            ticket.Description,
		Status:                 database.IssueStatusActive,
		Priority:               priority,
		Category:               Categorize(text, o.taxonomy),
		RequiresIncidentReport: HasUrgentKeywords(text) || priority == database.PriorityUrgent,
		IncidentReports:        database.StringMap{},
	}

	if o.provider != nil {
		if vec, err := o.provider.Embed(ctx, text); err != nil {
			log.Printf("Embedding unavailable for new issue, caching nothing: %v", err)
		} else {
			issue.Embedding = vec
		}
	}

	linked := &database.LinkedTicket{
		SourceType:      ticket.SourceType,
		TicketID:        ticket.TicketID,
		Title:           ticket.Title,
		Priority:        string(ticket.Priority),
		BrandID:         ticket.Customer.BrandID,
		LocationID:      ticket.Customer.LocationID,
		MatchType:       "origin",
		MatchConfidence: CreatedConfidence,
		LinkedAt:        time.Now().UTC(),
	}

	if err := o.store.CreateIssueWithTicket(issue, linked); err != nil {
		return nil, fmt.Errorf("create issue for ticket %s: %w", ticket.TicketID, err)
	}

	return issue, nil
}

// mergeImpact folds the ticket's impact into the issue under optimistic
// concurrency: re-read, re-merge, re-write, retry on version conflict.
func (o *Orchestrator) mergeImpact(issueUUID string, ticketImpact database.BrandImpact) (*database.Issue, error) {
	for attempt := 0; attempt < maxMergeAttempts; attempt++ {
		issue, err := o.store.GetIssueByUUID(issueUUID)
		if err != nil {
			return nil, fmt.Errorf("reload issue %s: %w", issueUUID, err)
		}

		issue.BrandImpacts = impact.Merge(issue.BrandImpacts, ticketImpact)
		issue.RecomputeTotals()

		err = o.store.SaveIssueImpacts(issue)
		if err == nil {
			return issue, nil
		}
		if !errors.Is(err, database.ErrVersionConflict) {
			return nil, fmt.Errorf("save impact for issue %s: %w", issueUUID, err)
		}
		log.Printf("Impact merge conflict on issue %s (attempt %d), retrying", issueUUID, attempt+1)
	}
	return nil, fmt.Errorf("impact merge for issue %s kept conflicting after %d attempts", issueUUID, maxMergeAttempts)
}

// evaluateTrigger decides whether report generation should be scheduled and
// enqueues one job per affected brand that has no report yet. Enqueue
// failures are logged and retried on a later ticket; they never roll back
// the ticket's outcome.
func (o *Orchestrator) evaluateTrigger(ctx context.Context, issue *database.Issue, settings *database.TriageSettings) []string {
	trigger := issue.RequiresIncidentReport ||
		issue.TotalAffectedMembers >= settings.AutoReportMemberThreshold ||
		issue.Priority == database.PriorityUrgent ||
		issue.HasCriticalImpact()
	if !trigger {
		return nil
	}

	var triggered []string
	for _, bi := range issue.BrandImpacts {
		if _, exists := issue.IncidentReports[bi.BrandID]; exists {
			continue
		}
		job := reports.ReportJob{IssueUUID: issue.UUID, BrandID: bi.BrandID}
		if err := o.queue.Enqueue(ctx, job); err != nil {
			log.Printf("Failed to enqueue report job for issue %s, brand %s: %v", issue.UUID, bi.BrandID, err)
			continue
		}
		triggered = append(triggered, bi.BrandID)
	}
	return triggered
}

// similarIssues keeps the top matches for the audit trail
func similarIssues(matches []similarity.Match) []SimilarIssue {
	n := len(matches)
	if n > maxSimilarIssues {
		n = maxSimilarIssues
	}
	out := make([]SimilarIssue, 0, n)
	for _, m := range matches[:n] {
		out = append(out, SimilarIssue{
			IssueUUID:     m.Issue.UUID,
			Title:         m.Issue.Title,
			CombinedScore: m.Result.CombinedScore,
			MatchType:     m.Result.MatchType,
		})
	}
	return out
}
