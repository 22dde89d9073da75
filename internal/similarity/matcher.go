package similarity

import (
	"context"
	"log"
	"sort"

	"github.com/triagehub/triagehub/internal/database"
	"github.com/triagehub/triagehub/internal/tickets"
)

// DefaultMatchThreshold is the minimum combined score for a candidate to be
// returned at all.
const DefaultMatchThreshold = 0.3

// Match pairs a candidate issue with its similarity result
type Match struct {
	Issue  database.Issue
	Result Result
}

// Matcher ranks candidate issues against an incoming ticket
type Matcher struct {
	analyzer *Analyzer
	provider EmbeddingProvider
}

// NewMatcher creates a new issue matcher
func NewMatcher(analyzer *Analyzer, provider EmbeddingProvider) *Matcher {
	return &Matcher{analyzer: analyzer, provider: provider}
}

// FindMatches scores the ticket against every candidate and returns matches
// with combined score >= threshold, sorted by combined score descending.
// Resolved issues are skipped. When the embedding provider is unavailable
// for the ticket itself, scoring falls back to keyword (0.7) plus
// organizational overlap (0.3) with match type forced to keyword.
func (m *Matcher) FindMatches(ctx context.Context, ticket *tickets.NormalizedTicket, candidates []database.Issue, threshold float64) []Match {
	var ticketVec []float64
	if m.provider != nil {
		vec, err := m.provider.Embed(ctx, ticket.Text())
		if err != nil {
			log.Printf("Ticket embedding unavailable, using keyword fallback scoring: %v", err)
		} else {
			ticketVec = vec
		}
	}
	degraded := len(ticketVec) == 0

	var matches []Match
	for i := range candidates {
		issue := &candidates[i]
		if issue.Status == database.IssueStatusResolved {
			continue
		}

		result := m.analyzer.AnalyzeWithEmbedding(ctx, ticket, ticketVec, issue)
		if degraded {
			result.CombinedScore = FallbackKeywordWeight*result.KeywordScore +
				FallbackOrgWeight*result.OrgOverlapScore
			result.MatchType = MatchTypeKeyword
			result.Confidence = result.CombinedScore
		}

		if result.CombinedScore < threshold {
			continue
		}
		matches = append(matches, Match{Issue: *issue, Result: result})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Result.CombinedScore > matches[j].Result.CombinedScore
	})

	return matches
}
