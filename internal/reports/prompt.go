package reports

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/triagehub/triagehub/internal/database"
)

// reportSystemPrompt instructs the generative provider to return the report
// sections as a single JSON object.
const reportSystemPrompt = `You are an incident communications writer for a customer-support operations team. Given an operational issue and its impact on one brand, write an incident report.

Return ONLY valid JSON with this exact structure:
{
  "title": "Short report title",
  "summary": "Two to four sentence summary of the issue and its effect on this brand",
  "impact_assessment": "Who is affected, how many members, at which locations, and how severely",
  "timeline": "Chronological account based on the linked ticket timestamps",
  "current_status": "Where the issue stands right now",
  "next_steps": "Concrete actions the operations team is taking",
  "brand_notes": "Anything specific to this brand's members or locations",
  "root_cause": "Best current understanding of the underlying cause",
  "resolution": "How the issue is being or was resolved",
  "preventive_measures": "What will prevent a recurrence",
  "communication_plan": "How and when affected members will be informed",
  "estimated_resolution": "Optional time estimate, or null if unknown"
}

Base every statement on the provided data. Do not invent ticket details, member counts, or causes that are not supported by the input. Do not include any text outside the JSON block.`

// TicketSummary is the linked-ticket context included in the prompt
type TicketSummary struct {
	TicketID   string `json:"ticket_id"`
	SourceType string `json:"source_type"`
	Title      string `json:"title"`
	Priority   string `json:"priority"`
	LinkedAt   string `json:"linked_at"`
}

// PromptContext is the structured input handed to the generative provider
type PromptContext struct {
	IssueTitle       string                  `json:"issue_title"`
	IssueDescription string                  `json:"issue_description"`
	IssueStatus      string                  `json:"issue_status"`
	IssuePriority    string                  `json:"issue_priority"`
	IssueCategory    string                  `json:"issue_category"`
	Brand            database.BrandImpact    `json:"brand_impact"`
	LinkedTickets    []TicketSummary         `json:"linked_tickets"`
}

// BuildUserPrompt renders the prompt context as indented JSON
func BuildUserPrompt(pc *PromptContext) (string, error) {
	data, err := json.MarshalIndent(pc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report context: %w", err)
	}
	return fmt.Sprintf("Write the incident report for this issue and brand.\n\n%s\n\nReturn the report as JSON.", string(data)), nil
}

// ParseContent parses the provider's response into report content. The
// response may wrap the JSON in a markdown code fence. Every section except
// estimated_resolution must be present and non-empty.
func ParseContent(raw string) (database.ReportContent, error) {
	var content database.ReportContent

	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	// Tolerate leading/trailing prose around the JSON object
	if start := strings.Index(raw, "{"); start > 0 {
		raw = raw[start:]
	}
	if end := strings.LastIndex(raw, "}"); end >= 0 && end < len(raw)-1 {
		raw = raw[:end+1]
	}

	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return content, fmt.Errorf("failed to parse report content: %w", err)
	}

	required := map[string]string{
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
	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			return content, fmt.Errorf("report content missing required section %q", name)
		}
	}

	return content, nil
}
