package orchestrator

import (
	"strings"

	"github.com/triagehub/triagehub/internal/database"
)

// urgentKeywords escalate priority and flag the issue for an incident report
var urgentKeywords = []string{"down", "outage", "critical", "emergency", "broken"}

// Taxonomy maps a category name to the keywords that select it
type Taxonomy map[string][]string

// DefaultTaxonomy is the fixed category lookup used when no policy file
// overrides it. First matching category in check order wins.
var DefaultTaxonomy = Taxonomy{
	"authentication": {"login", "password", "signin", "sign-in", "auth", "authentication", "locked", "credential"},
	"billing":        {"billing", "payment", "invoice", "charge", "charged", "refund", "subscription"},
	"technical":      {"error", "crash", "bug", "outage", "down", "broken", "failure", "timeout"},
	"booking":        {"booking", "reservation", "schedule", "class", "session", "appointment"},
}

// categoryOrder fixes the check order so overlapping keywords resolve
// deterministically.
var categoryOrder = []string{"authentication", "billing", "technical", "booking"}

// HasUrgentKeywords reports whether the text mentions any urgent keyword
func HasUrgentKeywords(text string) bool {
	text = strings.ToLower(text)
	for _, kw := range urgentKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// DerivePriority escalates to urgent when the ticket is already urgent, or
// high with urgent keywords in its text; otherwise the ticket priority
// passes through.
func DerivePriority(priority database.IssuePriority, text string) database.IssuePriority {
	if priority == database.PriorityUrgent {
		return database.PriorityUrgent
	}
	if priority == database.PriorityHigh && HasUrgentKeywords(text) {
		return database.PriorityUrgent
	}
	return priority
}

// Categorize assigns a category by keyword lookup, defaulting to general
func Categorize(text string, taxonomy Taxonomy) string {
	if taxonomy == nil {
		taxonomy = DefaultTaxonomy
	}
	text = strings.ToLower(text)
	for _, category := range categoryOrder {
		for _, kw := range taxonomy[category] {
			if strings.Contains(text, kw) {
				return category
			}
		}
	}
	// Categories from a policy file that are not in the fixed order are
	// checked after the built-ins.
	for category, keywords := range taxonomy {
		if inOrder(category) {
			continue
		}
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				return category
			}
		}
	}
	return "general"
}

func inOrder(category string) bool {
	for _, c := range categoryOrder {
		if c == category {
			return true
		}
	}
	return false
}
