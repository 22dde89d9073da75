package similarity

import (
	"context"
	"fmt"
	"log"

	"github.com/triagehub/triagehub/internal/database"
	"github.com/triagehub/triagehub/internal/tickets"
)

// EmbeddingProvider converts text to a fixed-length numeric vector
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Score weights for the combined similarity score. Fixed design constants.
const (
	SemanticWeight = 0.5
	KeywordWeight  = 0.3
	OrgWeight      = 0.2

	// Reduced formula used when the ticket embedding is unavailable
	FallbackKeywordWeight = 0.7
	FallbackOrgWeight     = 0.3
)

// Display thresholds above which a dimension contributes an advisory reason
const (
	semanticReasonThreshold = 0.7
	keywordReasonThreshold  = 0.5
	orgReasonThreshold      = 0.8
)

// MatchType classifies what kind of evidence drove a match
type MatchType string

const (
	MatchTypeCustomer      MatchType = "customer"
	MatchTypeSemantic      MatchType = "semantic"
	MatchTypeKeyword       MatchType = "keyword"
	MatchTypeBrandLocation MatchType = "brand-location"
)

// Result holds the scores for one (ticket, issue) comparison. Ephemeral:
// produced fresh for every matcher invocation, never persisted.
type Result struct {
	SemanticScore   float64
	KeywordScore    float64
	OrgOverlapScore float64
	CombinedScore   float64
	MatchType       MatchType
	Confidence      float64
	Reasons         []string

	// ComputedIssueEmbedding carries an embedding computed on demand for an
	// issue that had none cached. The analyzer does not persist it; the
	// orchestrator owns that.
	ComputedIssueEmbedding []float64
}

// Analyzer computes semantic, keyword, and organizational-overlap similarity
// between an incoming ticket and a candidate issue. Scores are heuristic and
// approximate; provider failures degrade the affected dimension to 0 rather
// than failing the analysis.
type Analyzer struct {
	provider EmbeddingProvider
}

// NewAnalyzer creates a new similarity analyzer
func NewAnalyzer(provider EmbeddingProvider) *Analyzer {
	return &Analyzer{provider: provider}
}

// Analyze scores one ticket against one issue. The ticket embedding is
// computed here; use AnalyzeWithEmbedding when scoring one ticket against
// many candidates.
func (a *Analyzer) Analyze(ctx context.Context, ticket *tickets.NormalizedTicket, issue *database.Issue) Result {
	ticketVec := a.embed(ctx, ticket.Text())
	return a.AnalyzeWithEmbedding(ctx, ticket, ticketVec, issue)
}

// AnalyzeWithEmbedding scores a ticket whose embedding was already computed
// (ticketVec may be nil when the provider was unavailable).
func (a *Analyzer) AnalyzeWithEmbedding(ctx context.Context, ticket *tickets.NormalizedTicket, ticketVec []float64, issue *database.Issue) Result {
	result := Result{}

	// Semantic: cosine over embeddings. The issue's cached embedding is
	// used when present; otherwise computed on demand.
	if len(ticketVec) > 0 {
		issueVec := []float64(issue.Embedding)
		if len(issueVec) == 0 {
			issueVec = a.embed(ctx, issueText(issue))
			if len(issueVec) > 0 {
				result.ComputedIssueEmbedding = issueVec
			}
		}
		if len(issueVec) > 0 {
			result.SemanticScore = Cosine(ticketVec, issueVec)
		}
	}

	result.KeywordScore = Jaccard(
		ExtractKeywords(ticket.Text()),
		ExtractKeywords(issueText(issue)),
	)

	result.OrgOverlapScore = orgOverlap(ticket, issue)

	result.CombinedScore = SemanticWeight*result.SemanticScore +
		KeywordWeight*result.KeywordScore +
		OrgWeight*result.OrgOverlapScore

	result.MatchType, result.Confidence = classify(result)
	result.Reasons = buildReasons(result)

	return result
}

// embed calls the provider, degrading to nil on any failure. A missing
// score is absence of evidence, so no reason is recorded.
func (a *Analyzer) embed(ctx context.Context, text string) []float64 {
	if a.provider == nil || text == "" {
		return nil
	}
	vec, err := a.provider.Embed(ctx, text)
	if err != nil {
		log.Printf("Embedding provider unavailable, semantic score degraded: %v", err)
		return nil
	}
	return vec
}

// issueText returns the text an issue is scored on
func issueText(issue *database.Issue) string {
	if issue.Description == "" {
		return issue.Title
	}
	return issue.Title + " " + issue.Description
}

// orgOverlap scores organizational overlap: 1.0 when the ticket's brand and
// location both match an existing impact pair, 0.7 on brand-only match.
func orgOverlap(ticket *tickets.NormalizedTicket, issue *database.Issue) float64 {
	if ticket.Customer.BrandID == "" {
		return 0
	}
	brand := issue.BrandImpacts.Find(ticket.Customer.BrandID)
	if brand == nil {
		return 0
	}
	for _, loc := range brand.Locations {
		if loc.LocationID == ticket.Customer.LocationID && ticket.Customer.LocationID != "" {
			return 1.0
		}
	}
	return 0.7
}

// classify assigns a match type and confidence. Priority order, first match
// wins.
func classify(r Result) (MatchType, float64) {
	switch {
	case r.SemanticScore > 0.8 && r.KeywordScore > 0.6:
		confidence := r.SemanticScore + r.KeywordScore
		if confidence > 1.0 {
			confidence = 1.0
		}
		return MatchTypeCustomer, confidence
	case r.SemanticScore > 0.7:
		return MatchTypeSemantic, r.SemanticScore
	case r.KeywordScore > 0.6:
		return MatchTypeKeyword, r.KeywordScore
	case r.OrgOverlapScore > 0.8:
		return MatchTypeBrandLocation, r.OrgOverlapScore
	default:
		confidence := r.SemanticScore
		if r.KeywordScore > confidence {
			confidence = r.KeywordScore
		}
		if r.OrgOverlapScore > confidence {
			confidence = r.OrgOverlapScore
		}
		return MatchTypeSemantic, confidence
	}
}

// buildReasons generates advisory audit text for scores above their display
// thresholds.
func buildReasons(r Result) []string {
	var reasons []string
	if r.SemanticScore > semanticReasonThreshold {
		reasons = append(reasons, fmt.Sprintf("High semantic similarity (%.2f)", r.SemanticScore))
	}
	if r.KeywordScore > keywordReasonThreshold {
		reasons = append(reasons, fmt.Sprintf("Strong keyword overlap (%.2f)", r.KeywordScore))
	}
	if r.OrgOverlapScore > orgReasonThreshold {
		reasons = append(reasons, "Same brand and location already affected")
	}
	return reasons
}
