package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/triagehub/triagehub/internal/database"
	"github.com/triagehub/triagehub/internal/testhelpers"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	err = db.AutoMigrate(
		&database.Brand{},
		&database.Location{},
		&database.Issue{},
		&database.LinkedTicket{},
		&database.IncidentReport{},
		&database.TriageSettings{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// seedIssue persists an issue with one affected brand and an origin ticket
func seedIssue(t *testing.T, db *gorm.DB) *database.Issue {
	t.Helper()
	brand := testhelpers.NewBrandImpactBuilder().
		WithBrand("hapana", "Hapana").
		WithLocation("gym-001", 30, 100).
		WithServices("booking").
		Build()
	issue := testhelpers.NewIssueBuilder().
		WithTitle("Booking system failure").
		WithBrandImpacts(brand).
		Build()
	issue.LinkedTickets = []database.LinkedTicket{{
		SourceType: "zendesk",
		TicketID:   "t-1",
		Title:      issue.Title,
		Priority:   "medium",
		BrandID:    "hapana",
		LocationID: "gym-001",
		MatchType:  "origin",
		LinkedAt:   time.Now().UTC(),
	}}
	if err := db.Create(&issue).Error; err != nil {
		t.Fatalf("failed to seed issue: %v", err)
	}
	return &issue
}

func TestGenerateWithProvider(t *testing.T) {
	db := setupTestDB(t)
	store := database.NewIssueStore(db)
	issue := seedIssue(t, db)

	provider := &testhelpers.FakeCompleter{Response: validReportJSON}
	synth := NewSynthesizer(store, provider)

	report, err := synth.Generate(context.Background(), issue.UUID, "hapana")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.GeneratedBy != "provider" {
		t.Errorf("expected provider path, got %s", report.GeneratedBy)
	}
	if report.Status != database.ReportStatusDraft {
		t.Errorf("new reports start as drafts, got %s", report.Status)
	}
	if report.Content.Title != "Booking outage at Hapana" {
		t.Errorf("unexpected content title: %q", report.Content.Title)
	}
	if report.AffectedMembers != 30 || report.AffectedLocations != 1 {
		t.Errorf("unexpected impact snapshot: %d members, %d locations",
			report.AffectedMembers, report.AffectedLocations)
	}
	if provider.Calls != 1 {
		t.Errorf("expected one provider call, got %d", provider.Calls)
	}

	// The linked-ticket context reaches the prompt
	if provider.LastUserPrompt == "" {
		t.Fatal("expected a recorded prompt")
	}

	// The brand -> report mapping lands on the issue
	reloaded, err := store.GetIssueByUUID(issue.UUID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reloaded.IncidentReports["hapana"] != report.UUID {
		t.Errorf("expected report mapping on the issue, got %v", reloaded.IncidentReports)
	}
}

func TestGenerateProviderFailureFallsBack(t *testing.T) {
	db := setupTestDB(t)
	store := database.NewIssueStore(db)
	issue := seedIssue(t, db)

	provider := &testhelpers.FakeCompleter{Err: errors.New("provider unavailable")}
	synth := NewSynthesizer(store, provider)

	report, err := synth.Generate(context.Background(), issue.UUID, "hapana")
	if err != nil {
		t.Fatalf("provider failure must not fail generation: %v", err)
	}
	if report.GeneratedBy != "template" {
		t.Errorf("expected template fallback, got %s", report.GeneratedBy)
	}
	if report.Content.Summary == "" {
		t.Error("fallback content must fill the summary")
	}
}

func TestGenerateMalformedResponseFallsBack(t *testing.T) {
	db := setupTestDB(t)
	store := database.NewIssueStore(db)
	issue := seedIssue(t, db)

	provider := &testhelpers.FakeCompleter{Response: "I could not produce JSON today."}
	synth := NewSynthesizer(store, provider)

	report, err := synth.Generate(context.Background(), issue.UUID, "hapana")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.GeneratedBy != "template" {
		t.Errorf("unparseable provider output must fall back, got %s", report.GeneratedBy)
	}
}

func TestGenerateNilProviderUsesTemplate(t *testing.T) {
	db := setupTestDB(t)
	store := database.NewIssueStore(db)
	issue := seedIssue(t, db)

	synth := NewSynthesizer(store, nil)
	report, err := synth.Generate(context.Background(), issue.UUID, "hapana")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.GeneratedBy != "template" {
		t.Errorf("expected template path without a provider, got %s", report.GeneratedBy)
	}
}

func TestGenerateIdempotentPerBrand(t *testing.T) {
	db := setupTestDB(t)
	store := database.NewIssueStore(db)
	issue := seedIssue(t, db)

	provider := &testhelpers.FakeCompleter{Response: validReportJSON}
	synth := NewSynthesizer(store, provider)

	first, err := synth.Generate(context.Background(), issue.UUID, "hapana")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := synth.Generate(context.Background(), issue.UUID, "hapana")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.UUID != second.UUID {
		t.Errorf("expected the existing report back, got %s and %s", first.UUID, second.UUID)
	}
	if provider.Calls != 1 {
		t.Errorf("the second call must not hit the provider, got %d calls", provider.Calls)
	}
}

func TestGenerateBrandNotAffected(t *testing.T) {
	db := setupTestDB(t)
	store := database.NewIssueStore(db)
	issue := seedIssue(t, db)

	synth := NewSynthesizer(store, nil)
	_, err := synth.Generate(context.Background(), issue.UUID, "wexer")
	if !errors.Is(err, ErrBrandNotAffected) {
		t.Fatalf("expected ErrBrandNotAffected, got %v", err)
	}

	var count int64
	db.Model(&database.IncidentReport{}).Count(&count)
	if count != 0 {
		t.Errorf("no report should be persisted, found %d", count)
	}
}

func TestGenerateUnknownIssue(t *testing.T) {
	db := setupTestDB(t)
	store := database.NewIssueStore(db)

	synth := NewSynthesizer(store, nil)
	if _, err := synth.Generate(context.Background(), "no-such-issue", "hapana"); err == nil {
		t.Fatal("expected an error for an unknown issue")
	}
}
