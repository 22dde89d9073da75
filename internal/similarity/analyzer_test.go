package similarity

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/triagehub/triagehub/internal/testhelpers"
)

func TestAnalyzeCustomerMatch(t *testing.T) {
	// Same vector and same text: semantic 1.0, keyword 1.0
	embedder := testhelpers.NewFakeEmbedder([]float64{0.2, 0.5, 0.8})
	analyzer := NewAnalyzer(embedder)

	ticket := testhelpers.NewTicketBuilder().
		WithTitle("Mobile app login broken").
		WithDescription("Password rejected every time").
		Build()
	issue := testhelpers.NewIssueBuilder().
		WithTitle("Mobile app login broken").
		WithDescription("Password rejected every time").
		WithEmbedding([]float64{0.2, 0.5, 0.8}).
		Build()

	result := analyzer.Analyze(context.Background(), &ticket, &issue)

	if result.MatchType != MatchTypeCustomer {
		t.Errorf("expected customer match, got %s", result.MatchType)
	}
	if result.Confidence != 1.0 {
		t.Errorf("expected confidence capped at 1.0, got %f", result.Confidence)
	}
	// semantic 1.0 and keyword 1.0, no org overlap: 0.5 + 0.3
	if math.Abs(result.CombinedScore-0.8) > 1e-9 {
		t.Errorf("expected combined score 0.8, got %f", result.CombinedScore)
	}
	if len(result.Reasons) < 2 {
		t.Errorf("expected semantic and keyword reasons, got %v", result.Reasons)
	}
}

func TestAnalyzeSemanticMatch(t *testing.T) {
	embedder := testhelpers.NewFakeEmbedder([]float64{0.2, 0.5, 0.8})
	analyzer := NewAnalyzer(embedder)

	ticket := testhelpers.NewTicketBuilder().
		WithTitle("Application refuses credentials").
		WithDescription("").
		Build()
	issue := testhelpers.NewIssueBuilder().
		WithTitle("Signin failures reported").
		WithDescription("").
		WithEmbedding([]float64{0.2, 0.5, 0.8}).
		Build()

	result := analyzer.Analyze(context.Background(), &ticket, &issue)

	if result.SemanticScore < 0.99 {
		t.Fatalf("expected semantic score ~1, got %f", result.SemanticScore)
	}
	if result.KeywordScore != 0 {
		t.Fatalf("expected no keyword overlap, got %f", result.KeywordScore)
	}
	if result.MatchType != MatchTypeSemantic {
		t.Errorf("expected semantic match, got %s", result.MatchType)
	}
	if math.Abs(result.Confidence-result.SemanticScore) > 1e-9 {
		t.Errorf("semantic confidence should equal semantic score, got %f", result.Confidence)
	}
}

func TestAnalyzeKeywordMatchWithoutProvider(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	ticket := testhelpers.NewTicketBuilder().
		WithTitle("Booking page timeout errors").
		WithDescription("").
		Build()
	issue := testhelpers.NewIssueBuilder().
		WithTitle("Booking page timeout errors").
		WithDescription("").
		Build()

	result := analyzer.Analyze(context.Background(), &ticket, &issue)

	if result.SemanticScore != 0 {
		t.Fatalf("expected no semantic score without provider, got %f", result.SemanticScore)
	}
	if result.KeywordScore != 1.0 {
		t.Fatalf("expected full keyword overlap, got %f", result.KeywordScore)
	}
	if result.MatchType != MatchTypeKeyword {
		t.Errorf("expected keyword match, got %s", result.MatchType)
	}

	// Combined formula still uses the full weights in the analyzer
	want := KeywordWeight * 1.0
	if math.Abs(result.CombinedScore-want) > 1e-9 {
		t.Errorf("expected combined %f, got %f", want, result.CombinedScore)
	}
}

func TestAnalyzeBrandLocationMatch(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	ticket := testhelpers.NewTicketBuilder().
		WithTitle("Broken screen at the front desk").
		WithDescription("").
		WithCustomer("cust-1", "brand-1", "loc-1").
		Build()
	issue := testhelpers.NewIssueBuilder().
		WithTitle("Members reporting unrelated words entirely").
		WithDescription("").
		WithBrandImpacts(testhelpers.NewBrandImpactBuilder().
			WithBrand("brand-1", "Brand One").
			WithLocation("loc-1", 1, 100).
			Build()).
		Build()

	result := analyzer.Analyze(context.Background(), &ticket, &issue)

	if result.OrgOverlapScore != 1.0 {
		t.Fatalf("expected full org overlap, got %f", result.OrgOverlapScore)
	}
	if result.MatchType != MatchTypeBrandLocation {
		t.Errorf("expected brand-location match, got %s", result.MatchType)
	}
	if result.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0, got %f", result.Confidence)
	}
}

func TestOrgOverlapBrandOnly(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	ticket := testhelpers.NewTicketBuilder().
		WithCustomer("cust-1", "brand-1", "loc-other").
		Build()
	issue := testhelpers.NewIssueBuilder().
		WithBrandImpacts(testhelpers.NewBrandImpactBuilder().
			WithBrand("brand-1", "Brand One").
			WithLocation("loc-1", 1, 100).
			Build()).
		Build()

	result := analyzer.Analyze(context.Background(), &ticket, &issue)
	if result.OrgOverlapScore != 0.7 {
		t.Errorf("expected brand-only overlap 0.7, got %f", result.OrgOverlapScore)
	}
}

func TestOrgOverlapNoBrand(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	ticket := testhelpers.NewTicketBuilder().WithCustomer("cust-1", "", "").Build()
	issue := testhelpers.NewIssueBuilder().
		WithBrandImpacts(testhelpers.NewBrandImpactBuilder().Build()).
		Build()

	result := analyzer.Analyze(context.Background(), &ticket, &issue)
	if result.OrgOverlapScore != 0 {
		t.Errorf("expected zero overlap without brand, got %f", result.OrgOverlapScore)
	}
}

func TestAnalyzeProviderFailureDegrades(t *testing.T) {
	embedder := testhelpers.NewFakeEmbedder(nil).WithError(errors.New("rate limited"))
	analyzer := NewAnalyzer(embedder)

	ticket := testhelpers.NewTicketBuilder().
		WithTitle("Booking page timeout").
		Build()
	issue := testhelpers.NewIssueBuilder().
		WithTitle("Booking page timeout").
		Build()

	result := analyzer.Analyze(context.Background(), &ticket, &issue)

	if result.SemanticScore != 0 {
		t.Errorf("provider failure should zero the semantic score, got %f", result.SemanticScore)
	}
	if result.KeywordScore == 0 {
		t.Error("keyword score should survive provider failure")
	}
}

func TestAnalyzeComputesIssueEmbeddingOnDemand(t *testing.T) {
	embedder := testhelpers.NewFakeEmbedder([]float64{0.1, 0.9})
	analyzer := NewAnalyzer(embedder)

	ticket := testhelpers.NewTicketBuilder().Build()

	uncached := testhelpers.NewIssueBuilder().Build()
	result := analyzer.Analyze(context.Background(), &ticket, &uncached)
	if len(result.ComputedIssueEmbedding) == 0 {
		t.Error("expected on-demand issue embedding to be surfaced")
	}

	cached := testhelpers.NewIssueBuilder().WithEmbedding([]float64{0.1, 0.9}).Build()
	result = analyzer.Analyze(context.Background(), &ticket, &cached)
	if result.ComputedIssueEmbedding != nil {
		t.Error("cached embedding should not be recomputed")
	}
}

func TestAnalyzeScoreBounds(t *testing.T) {
	analyzer := NewAnalyzer(testhelpers.NewFakeEmbedder([]float64{0.4, 0.4}))

	ticket := testhelpers.NewTicketBuilder().WithTitle("").WithDescription("").Build()
	issue := testhelpers.NewIssueBuilder().WithTitle("").WithDescription("").Build()

	result := analyzer.Analyze(context.Background(), &ticket, &issue)
	for name, score := range map[string]float64{
		"semantic": result.SemanticScore,
		"keyword":  result.KeywordScore,
		"org":      result.OrgOverlapScore,
		"combined": result.CombinedScore,
		"conf":     result.Confidence,
	} {
		if score < 0 || score > 1 {
			t.Errorf("%s score out of bounds: %f", name, score)
		}
	}
}

func TestClassifyDefaultConfidence(t *testing.T) {
	r := Result{SemanticScore: 0.2, KeywordScore: 0.4, OrgOverlapScore: 0.3}
	matchType, confidence := classify(r)
	if matchType != MatchTypeSemantic {
		t.Errorf("default branch should report semantic, got %s", matchType)
	}
	if confidence != 0.4 {
		t.Errorf("default confidence should be the max dimension, got %f", confidence)
	}
}
