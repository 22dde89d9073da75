package reports

import (
	"strings"
	"testing"

	"github.com/triagehub/triagehub/internal/testhelpers"
)

func TestFallbackContentFillsEverySection(t *testing.T) {
	brand := testhelpers.NewBrandImpactBuilder().
		WithBrand("hapana", "Hapana").
		WithLocation("gym-001", 30, 100).
		WithServices("booking", "checkin").
		Build()
	issue := testhelpers.NewIssueBuilder().
		WithTitle("Booking system failure").
		WithBrandImpacts(brand).
		Build()

	content := FallbackContent(&issue, &brand)

	sections := map[string]string{
		"title":               content.Title,
		"summary":             content.Summary,
		"impact_assessment":   content.ImpactAssessment,
		"timeline":            content.Timeline,
		"current_status":      content.CurrentStatus,
		"next_steps":          content.NextSteps,
		"brand_notes":         content.BrandNotes,
		"root_cause":          content.RootCause,
		"resolution":          content.Resolution,
		"preventive_measures": content.PreventiveMeasures,
		"communication_plan":  content.CommunicationPlan,
	}
	for name, value := range sections {
		if strings.TrimSpace(value) == "" {
			t.Errorf("section %s is empty", name)
		}
	}

	if !strings.Contains(content.Title, "Booking system failure") {
		t.Errorf("title should carry the issue title, got %q", content.Title)
	}
	if !strings.Contains(content.Summary, "Hapana") {
		t.Errorf("summary should name the brand, got %q", content.Summary)
	}
	if !strings.Contains(content.ImpactAssessment, "booking, checkin") {
		t.Errorf("impact assessment should list affected services, got %q", content.ImpactAssessment)
	}
}

func TestFallbackContentDeterministic(t *testing.T) {
	brand := testhelpers.NewBrandImpactBuilder().
		WithLocation("gym-001", 5, 50).
		Build()
	issue := testhelpers.NewIssueBuilder().WithBrandImpacts(brand).Build()

	first := FallbackContent(&issue, &brand)
	second := FallbackContent(&issue, &brand)
	if first != second {
		t.Error("fallback content must be identical for identical input")
	}
}

func TestFallbackContentSingularMember(t *testing.T) {
	brand := testhelpers.NewBrandImpactBuilder().
		WithLocation("gym-001", 1, 100).
		Build()
	issue := testhelpers.NewIssueBuilder().WithBrandImpacts(brand).Build()

	content := FallbackContent(&issue, &brand)
	if !strings.Contains(content.Summary, "1 member across") {
		t.Errorf("expected singular member wording, got %q", content.Summary)
	}
}

func TestFallbackContentEmptyLedgerFields(t *testing.T) {
	brand := testhelpers.NewBrandImpactBuilder().Build()
	issue := testhelpers.NewIssueBuilder().WithBrandImpacts(brand).Build()

	content := FallbackContent(&issue, &brand)
	if !strings.Contains(content.ImpactAssessment, "no tracked locations") {
		t.Errorf("expected placeholder for missing locations, got %q", content.ImpactAssessment)
	}
	if !strings.Contains(content.ImpactAssessment, "not yet identified") {
		t.Errorf("expected placeholder for missing services, got %q", content.ImpactAssessment)
	}
}
