package database

import (
	"fmt"

	"gorm.io/gorm"
)

// IssueStore wraps document-store access for issues, linked tickets,
// incident reports, and brand/location reference data.
type IssueStore struct {
	db *gorm.DB
}

// NewIssueStore creates a new issue store
func NewIssueStore(db *gorm.DB) *IssueStore {
	return &IssueStore{db: db}
}

// RecentIssues returns the most-recently-updated non-resolved issues,
// bounded by limit. This is the candidate pool for matching.
func (s *IssueStore) RecentIssues(limit int) ([]Issue, error) {
	var issues []Issue
	err := s.db.Where("status <> ?", IssueStatusResolved).
		Order("updated_at DESC").
		Limit(limit).
		Find(&issues).Error
	return issues, err
}

// ListIssues returns the most-recently-updated issues for review, optionally
// filtered by status. Unlike RecentIssues it includes resolved issues.
func (s *IssueStore) ListIssues(limit int, status IssueStatus) ([]Issue, error) {
	query := s.db.Order("updated_at DESC").Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var issues []Issue
	err := query.Find(&issues).Error
	return issues, err
}

// GetIssueByUUID returns an issue by UUID
func (s *IssueStore) GetIssueByUUID(uuid string) (*Issue, error) {
	var issue Issue
	if err := s.db.Where("uuid = ?", uuid).First(&issue).Error; err != nil {
		return nil, err
	}
	return &issue, nil
}

// GetIssueByID returns an issue by primary key
func (s *IssueStore) GetIssueByID(id uint) (*Issue, error) {
	var issue Issue
	if err := s.db.First(&issue, id).Error; err != nil {
		return nil, err
	}
	return &issue, nil
}

// CreateIssueWithTicket creates a new issue together with its first linked
// ticket in one transaction.
func (s *IssueStore) CreateIssueWithTicket(issue *Issue, ticket *LinkedTicket) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(issue).Error; err != nil {
			return err
		}
		ticket.IssueID = issue.ID
		return tx.Create(ticket).Error
	})
}

// LinkTicket appends a ticket to an existing issue
func (s *IssueStore) LinkTicket(issueID uint, ticket *LinkedTicket) error {
	ticket.IssueID = issueID
	return s.db.Create(ticket).Error
}

// GetLinkedTickets returns all tickets linked to an issue, oldest first
func (s *IssueStore) GetLinkedTickets(issueID uint) ([]LinkedTicket, error) {
	var tickets []LinkedTicket
	err := s.db.Where("issue_id = ?", issueID).Order("linked_at ASC").Find(&tickets).Error
	return tickets, err
}

// SaveIssueImpacts writes the issue's impact ledger and derived totals using
// a compare-and-swap on the version column. Returns ErrVersionConflict when
// a concurrent writer got there first; the caller re-reads and re-merges.
// Only merge-owned columns are written: incident_reports belongs to
// RecordReportMapping and must not be clobbered from a stale snapshot.
func (s *IssueStore) SaveIssueImpacts(issue *Issue) error {
	result := s.db.Model(&Issue{}).
		Where("id = ? AND version = ?", issue.ID, issue.Version).
		Updates(map[string]interface{}{
			"brand_impacts":            issue.BrandImpacts,
			"total_affected_members":   issue.TotalAffectedMembers,
			"total_affected_brands":    issue.TotalAffectedBrands,
			"total_affected_locations": issue.TotalAffectedLocations,
			"version":                  issue.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	issue.Version++
	return nil
}

// SaveEmbedding persists a computed embedding on the issue. Separate from
// the impact write so a lost race here only costs a recompute.
func (s *IssueStore) SaveEmbedding(issueID uint, embedding Vector) error {
	return s.db.Model(&Issue{}).Where("id = ?", issueID).
		Update("embedding", embedding).Error
}

// UpdateIssueStatus transitions an issue's lifecycle status, rejecting
// transitions the lifecycle does not allow.
func (s *IssueStore) UpdateIssueStatus(uuid string, next IssueStatus) error {
	issue, err := s.GetIssueByUUID(uuid)
	if err != nil {
		return err
	}
	if !issue.Status.CanTransitionTo(next) {
		return fmt.Errorf("invalid issue status transition: %s -> %s", issue.Status, next)
	}
	return s.db.Model(issue).Update("status", next).Error
}

// RecordReportMapping stores the brand -> report UUID mapping on the issue
func (s *IssueStore) RecordReportMapping(issueID uint, brandID, reportUUID string) error {
	issue, err := s.GetIssueByID(issueID)
	if err != nil {
		return err
	}
	if issue.IncidentReports == nil {
		issue.IncidentReports = make(StringMap)
	}
	issue.IncidentReports[brandID] = reportUUID
	return s.db.Model(issue).Update("incident_reports", issue.IncidentReports).Error
}

// ========== Incident Reports ==========

// CreateReport persists a generated incident report
func (s *IssueStore) CreateReport(report *IncidentReport) error {
	return s.db.Create(report).Error
}

// GetReportByUUID returns a report by UUID
func (s *IssueStore) GetReportByUUID(uuid string) (*IncidentReport, error) {
	var report IncidentReport
	if err := s.db.Where("uuid = ?", uuid).First(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// GetReportForBrand returns the report for an (issue, brand) pair, if any
func (s *IssueStore) GetReportForBrand(issueUUID, brandID string) (*IncidentReport, error) {
	var report IncidentReport
	err := s.db.Where("issue_uuid = ? AND brand_id = ?", issueUUID, brandID).First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// reportStatusOrder gives the forward-only review sequence
var reportStatusOrder = map[ReportStatus]int{
	ReportStatusDraft:     0,
	ReportStatusGenerated: 1,
	ReportStatusReviewed:  2,
	ReportStatusPublished: 3,
}

// AdvanceReportStatus moves a report forward through its review lifecycle.
// Backward moves are rejected.
func (s *IssueStore) AdvanceReportStatus(uuid string, next ReportStatus) error {
	report, err := s.GetReportByUUID(uuid)
	if err != nil {
		return err
	}
	if reportStatusOrder[next] <= reportStatusOrder[report.Status] {
		return fmt.Errorf("invalid report status transition: %s -> %s", report.Status, next)
	}
	return s.db.Model(report).Update("status", next).Error
}

// Settings returns the triage settings singleton, creating defaults if absent
func (s *IssueStore) Settings() (*TriageSettings, error) {
	return GetOrCreateTriageSettings(s.db)
}

// UpdateSettings persists changes to the triage settings singleton
func (s *IssueStore) UpdateSettings(settings *TriageSettings) error {
	return UpdateTriageSettings(s.db, settings)
}

// ========== Reference Data ==========

// GetBrand looks up a brand by its external id
func (s *IssueStore) GetBrand(brandID string) (*Brand, error) {
	var brand Brand
	if err := s.db.Where("brand_id = ?", brandID).First(&brand).Error; err != nil {
		return nil, err
	}
	return &brand, nil
}

// GetLocation looks up a location by its external id
func (s *IssueStore) GetLocation(locationID string) (*Location, error) {
	var location Location
	if err := s.db.Where("location_id = ?", locationID).First(&location).Error; err != nil {
		return nil, err
	}
	return &location, nil
}
