// Package impact computes and merges the organizational impact of support
// tickets: which brands, which locations, and how many members are affected
// by an issue.
package impact

import (
	"errors"
	"fmt"

	"github.com/triagehub/triagehub/internal/database"
	"github.com/triagehub/triagehub/internal/tickets"
)

// Resolution failures are hard errors: impact cannot be computed without a
// concrete brand and location.
var (
	ErrBrandNotFound    = errors.New("brand cannot be resolved")
	ErrLocationNotFound = errors.New("location cannot be resolved")
)

// ReferenceStore resolves brand and location reference data
type ReferenceStore interface {
	GetBrand(brandID string) (*database.Brand, error)
	GetLocation(locationID string) (*database.Location, error)
}

// Aggregator computes the impact of a single ticket and merges it into an
// issue's impact ledger.
type Aggregator struct {
	store ReferenceStore
}

// NewAggregator creates a new impact aggregator
func NewAggregator(store ReferenceStore) *Aggregator {
	return &Aggregator{store: store}
}

// ComputeImpact builds the impact of one ticket: exactly one affected member
// (the reporting customer) at exactly one location.
func (a *Aggregator) ComputeImpact(ticket *tickets.NormalizedTicket) (database.BrandImpact, error) {
	brand, err := a.store.GetBrand(ticket.Customer.BrandID)
	if err != nil {
		return database.BrandImpact{}, fmt.Errorf("resolve brand %q: %w", ticket.Customer.BrandID, ErrBrandNotFound)
	}

	location, err := a.store.GetLocation(ticket.Customer.LocationID)
	if err != nil {
		return database.BrandImpact{}, fmt.Errorf("resolve location %q: %w", ticket.Customer.LocationID, ErrLocationNotFound)
	}
	if location.BrandID != brand.BrandID {
		return database.BrandImpact{}, fmt.Errorf("location %q does not belong to brand %q: %w",
			location.LocationID, brand.BrandID, ErrLocationNotFound)
	}

	pct, level := Severity(1, location.TotalMembers)
	locImpact := database.LocationImpact{
		LocationID:       location.LocationID,
		LocationName:     location.Name,
		AffectedMembers:  1,
		TotalMembers:     location.TotalMembers,
		ImpactPercentage: pct,
		ImpactLevel:      level,
	}

	return database.BrandImpact{
		BrandID:              brand.BrandID,
		BrandName:            brand.Name,
		ImpactLevel:          level,
		TotalAffectedMembers: 1,
		Locations:            []database.LocationImpact{locImpact},
		AffectedServices:     append([]string(nil), ticket.Tags...),
	}, nil
}

// Merge folds a freshly computed impact into an existing ledger. A brand not
// yet tracked is appended unchanged; for a tracked brand, each incoming
// location either increments its existing record by one affected member or
// is appended as-is. Brand totals and level are recomputed from the
// locations, never incremented independently.
func Merge(existing database.BrandImpacts, incoming database.BrandImpact) database.BrandImpacts {
	merged := make(database.BrandImpacts, len(existing))
	copy(merged, existing)

	target := merged.Find(incoming.BrandID)
	if target == nil {
		return append(merged, incoming)
	}

	// The ledger the caller holds stays untouched; retries re-merge from a
	// fresh read.
	target.Locations = append([]database.LocationImpact(nil), target.Locations...)

	for _, newLoc := range incoming.Locations {
		found := false
		for i := range target.Locations {
			if target.Locations[i].LocationID != newLoc.LocationID {
				continue
			}
			loc := &target.Locations[i]
			loc.AffectedMembers++
			loc.ImpactPercentage, loc.ImpactLevel = Severity(loc.AffectedMembers, loc.TotalMembers)
			found = true
			break
		}
		if !found {
			target.Locations = append(target.Locations, newLoc)
		}
	}

	target.AffectedServices = unionServices(target.AffectedServices, incoming.AffectedServices)

	total := 0
	level := database.ImpactLevelLow
	for _, loc := range target.Locations {
		total += loc.AffectedMembers
		level = database.MaxImpactLevel(level, loc.ImpactLevel)
	}
	target.TotalAffectedMembers = total
	target.ImpactLevel = level

	return merged
}

// Severity derives the impact percentage and level from the affected-member
// ratio. Breakpoints: >=50% critical, >=20% high, >=5% medium, else low.
func Severity(affected, total int) (float64, database.ImpactLevel) {
	if total <= 0 {
		return 0, database.ImpactLevelLow
	}
	pct := float64(affected) / float64(total) * 100

	switch {
	case pct >= 50:
		return pct, database.ImpactLevelCritical
	case pct >= 20:
		return pct, database.ImpactLevelHigh
	case pct >= 5:
		return pct, database.ImpactLevelMedium
	default:
		return pct, database.ImpactLevelLow
	}
}

// unionServices merges two service-tag sets preserving first-seen order
func unionServices(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := append([]string(nil), a...)
	for _, s := range a {
		seen[s] = true
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
