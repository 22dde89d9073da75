package reports

import (
	"fmt"
	"strings"
	"time"

	"github.com/triagehub/triagehub/internal/database"
)

// FallbackContent fills every report section deterministically from known
// issue and impact fields. It has no generative dependency and never fails
// once the brand impact has been resolved.
func FallbackContent(issue *database.Issue, brand *database.BrandImpact) database.ReportContent {
	locationNames := make([]string, 0, len(brand.Locations))
	for _, loc := range brand.Locations {
		locationNames = append(locationNames, loc.LocationName)
	}
	locations := strings.Join(locationNames, ", ")
	if locations == "" {
		locations = "no tracked locations"
	}

	services := strings.Join(brand.AffectedServices, ", ")
	if services == "" {
		services = "not yet identified"
	}

	memberWord := "members"
	if brand.TotalAffectedMembers == 1 {
		memberWord = "member"
	}

	return database.ReportContent{
		Title: fmt.Sprintf("%s: impact on %s", issue.Title, brand.BrandName),
		Summary: fmt.Sprintf(
			"An operational issue (%s, priority %s) is affecting %s. %d %s across %d location(s) have reported the problem.",
			issue.Category, issue.Priority, brand.BrandName,
			brand.TotalAffectedMembers, memberWord, len(brand.Locations)),
		ImpactAssessment: fmt.Sprintf(
			"Impact level for %s is %s. Affected locations: %s. Affected services: %s.",
			brand.BrandName, brand.ImpactLevel, locations, services),
		Timeline: fmt.Sprintf(
			"The issue was first reported on %s and last updated on %s.",
			issue.CreatedAt.UTC().Format(time.RFC1123),
			issue.UpdatedAt.UTC().Format(time.RFC1123)),
		CurrentStatus: fmt.Sprintf(
			"The issue is currently %s with priority %s.", issue.Status, issue.Priority),
		NextSteps: "The operations team is monitoring incoming reports and will update this document as the investigation progresses.",
		BrandNotes: fmt.Sprintf(
			"%d %s of %s reported this issue; member-facing messaging should reference the affected locations listed above.",
			brand.TotalAffectedMembers, memberWord, brand.BrandName),
		RootCause:          "Root cause has not yet been determined; investigation is ongoing.",
		Resolution:         "No resolution has been confirmed yet. This section will be updated when the fix is verified.",
		PreventiveMeasures: "Preventive measures will be documented once the root cause is established.",
		CommunicationPlan: fmt.Sprintf(
			"Affected %s members will be notified through the standard support channels once the resolution is confirmed.",
			brand.BrandName),
	}
}
