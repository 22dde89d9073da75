package database

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// JSONB is a custom type for PostgreSQL JSONB columns
type JSONB map[string]interface{}

// Scan implements the sql.Scanner interface
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			return json.Unmarshal([]byte(s), j)
		}
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, j)
}

// Value implements the driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Vector stores an embedding as a JSONB array. Nil means the embedding
// has not been computed yet.
type Vector []float64

func (v *Vector) Scan(value interface{}) error {
	if value == nil {
		*v = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			return json.Unmarshal([]byte(s), v)
		}
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, v)
}

func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// StringMap is a JSONB map of string to string (brand id -> report UUID)
type StringMap map[string]string

func (m *StringMap) Scan(value interface{}) error {
	if value == nil {
		*m = make(map[string]string)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			return json.Unmarshal([]byte(s), m)
		}
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, m)
}

func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// IssueStatus represents the lifecycle status of an issue
type IssueStatus string

const (
	IssueStatusActive     IssueStatus = "active"
	IssueStatusMonitoring IssueStatus = "monitoring"
	IssueStatusResolved   IssueStatus = "resolved"
)

// CanTransitionTo reports whether a status transition is allowed.
// active and monitoring flip back and forth; resolved is terminal.
func (s IssueStatus) CanTransitionTo(next IssueStatus) bool {
	switch s {
	case IssueStatusActive:
		return next == IssueStatusMonitoring || next == IssueStatusResolved
	case IssueStatusMonitoring:
		return next == IssueStatusActive || next == IssueStatusResolved
	default:
		return false
	}
}

// IssuePriority represents normalized ticket/issue priority
type IssuePriority string

const (
	PriorityLow    IssuePriority = "low"
	PriorityMedium IssuePriority = "medium"
	PriorityHigh   IssuePriority = "high"
	PriorityUrgent IssuePriority = "urgent"
)

// ImpactLevel represents the severity of organizational impact
type ImpactLevel string

const (
	ImpactLevelLow      ImpactLevel = "low"
	ImpactLevelMedium   ImpactLevel = "medium"
	ImpactLevelHigh     ImpactLevel = "high"
	ImpactLevelCritical ImpactLevel = "critical"
)

// Rank returns the ordering of an impact level (critical > high > medium > low)
func (l ImpactLevel) Rank() int {
	switch l {
	case ImpactLevelCritical:
		return 3
	case ImpactLevelHigh:
		return 2
	case ImpactLevelMedium:
		return 1
	default:
		return 0
	}
}

// MaxImpactLevel returns the more severe of two impact levels
func MaxImpactLevel(a, b ImpactLevel) ImpactLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// LocationImpact quantifies how many members at one physical location are
// affected. ImpactPercentage and ImpactLevel are derived from
// AffectedMembers / TotalMembers.
type LocationImpact struct {
	LocationID       string      `json:"location_id"`
	LocationName     string      `json:"location_name"`
	AffectedMembers  int         `json:"affected_members"`
	TotalMembers     int         `json:"total_members"`
	ImpactPercentage float64     `json:"impact_percentage"`
	ImpactLevel      ImpactLevel `json:"impact_level"`
}

// BrandImpact is the per-brand impact record inside an issue.
// TotalAffectedMembers and ImpactLevel are derived from Locations.
type BrandImpact struct {
	BrandID              string           `json:"brand_id"`
	BrandName            string           `json:"brand_name"`
	ImpactLevel          ImpactLevel      `json:"impact_level"`
	TotalAffectedMembers int              `json:"total_affected_members"`
	Locations            []LocationImpact `json:"locations"`
	AffectedServices     []string         `json:"affected_services"`
}

// BrandImpacts is the issue's impact ledger, stored as a JSONB document
type BrandImpacts []BrandImpact

func (b *BrandImpacts) Scan(value interface{}) error {
	if value == nil {
		*b = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			return json.Unmarshal([]byte(s), b)
		}
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, b)
}

func (b BrandImpacts) Value() (driver.Value, error) {
	if b == nil {
		return nil, nil
	}
	return json.Marshal(b)
}

// Find returns the brand impact with the given brand id, or nil
func (b BrandImpacts) Find(brandID string) *BrandImpact {
	for i := range b {
		if b[i].BrandID == brandID {
			return &b[i]
		}
	}
	return nil
}

// Issue is the aggregate root tracking one real-world operational problem,
// possibly spanning many tickets, brands, and locations.
type Issue struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	UUID        string        `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	Title       string        `gorm:"type:varchar(255);not null" json:"title"`
	Description string        `gorm:"type:text" json:"description"`
	Status      IssueStatus   `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	Priority    IssuePriority `gorm:"type:varchar(20);not null" json:"priority"`
	Category    string        `gorm:"type:varchar(64)" json:"category"`

	BrandImpacts BrandImpacts `gorm:"type:jsonb" json:"brand_impacts"`
	Embedding    Vector       `gorm:"type:jsonb" json:"-"`

	LinkedTickets []LinkedTicket `gorm:"foreignKey:IssueID" json:"-"`

	// Derived sums over BrandImpacts, recomputed on every merge,
	// never incremented independently.
	TotalAffectedMembers   int `json:"total_affected_members"`
	TotalAffectedBrands    int `json:"total_affected_brands"`
	TotalAffectedLocations int `json:"total_affected_locations"`

	RequiresIncidentReport bool      `gorm:"default:false" json:"requires_incident_report"`
	IncidentReports        StringMap `gorm:"type:jsonb" json:"incident_reports"` // brand id -> report UUID

	// Optimistic concurrency token guarding the impact merge read-modify-write
	Version int `gorm:"not null;default:0" json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Issue) TableName() string {
	return "issues"
}

// RecomputeTotals derives the issue-level sums from the brand impact ledger
func (i *Issue) RecomputeTotals() {
	members, locations := 0, 0
	for _, bi := range i.BrandImpacts {
		members += bi.TotalAffectedMembers
		locations += len(bi.Locations)
	}
	i.TotalAffectedMembers = members
	i.TotalAffectedBrands = len(i.BrandImpacts)
	i.TotalAffectedLocations = locations
}

// HasCriticalImpact reports whether any brand impact reached critical
func (i *Issue) HasCriticalImpact() bool {
	for _, bi := range i.BrandImpacts {
		if bi.ImpactLevel == ImpactLevelCritical {
			return true
		}
	}
	return false
}

// LinkedTicket records one upstream ticket linked to an issue, with the
// similarity evidence that justified the link.
type LinkedTicket struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	IssueID         uint      `gorm:"not null;index" json:"issue_id"`
	SourceType      string    `gorm:"type:varchar(50);not null" json:"source_type"`
	TicketID        string    `gorm:"type:varchar(255);not null;index" json:"ticket_id"`
	Title           string    `gorm:"type:varchar(255)" json:"title"`
	Priority        string    `gorm:"type:varchar(20)" json:"priority"`
	BrandID         string    `gorm:"type:varchar(64);index" json:"brand_id"`
	LocationID      string    `gorm:"type:varchar(64)" json:"location_id"`
	MatchType       string    `gorm:"type:varchar(32)" json:"match_type"`
	MatchConfidence float64   `gorm:"type:decimal(4,3)" json:"match_confidence"`
	MatchReasons    string    `gorm:"type:text" json:"match_reasons"`
	LinkedAt        time.Time `gorm:"not null" json:"linked_at"`
	CreatedAt       time.Time `json:"created_at"`

	Issue Issue `gorm:"foreignKey:IssueID" json:"-"`
}

func (LinkedTicket) TableName() string {
	return "linked_tickets"
}

// Brand is reference data for an organizational brand
type Brand struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BrandID   string    `gorm:"uniqueIndex;size:64;not null" json:"brand_id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Brand) TableName() string {
	return "brands"
}

// Location is reference data for a physical location under a brand
type Location struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	LocationID   string    `gorm:"uniqueIndex;size:64;not null" json:"location_id"`
	BrandID      string    `gorm:"size:64;not null;index" json:"brand_id"`
	Name         string    `gorm:"size:128;not null" json:"name"`
	TotalMembers int       `gorm:"not null" json:"total_members"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Location) TableName() string {
	return "locations"
}

// ReportStatus represents the lifecycle of an incident report
type ReportStatus string

const (
	ReportStatusDraft     ReportStatus = "draft"
	ReportStatusGenerated ReportStatus = "generated"
	ReportStatusReviewed  ReportStatus = "reviewed"
	ReportStatusPublished ReportStatus = "published"
)

// ReportContent holds the generated narrative sections of an incident report.
// EstimatedResolution is the only optional section.
type ReportContent struct {
	Title               string `json:"title"`
	Summary             string `json:"summary"`
	ImpactAssessment    string `json:"impact_assessment"`
	Timeline            string `json:"timeline"`
	CurrentStatus       string `json:"current_status"`
	NextSteps           string `json:"next_steps"`
	BrandNotes          string `json:"brand_notes"`
	RootCause           string `json:"root_cause"`
	Resolution          string `json:"resolution"`
	PreventiveMeasures  string `json:"preventive_measures"`
	CommunicationPlan   string `json:"communication_plan"`
	EstimatedResolution string `json:"estimated_resolution,omitempty"`
}

func (c *ReportContent) Scan(value interface{}) error {
	if value == nil {
		*c = ReportContent{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			return json.Unmarshal([]byte(s), c)
		}
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, c)
}

func (c ReportContent) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// IncidentReport is a generated, brand-specific narrative document.
// One report exists per (issue, brand) pair.
type IncidentReport struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	UUID      string        `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	IssueUUID string        `gorm:"size:36;not null;index:idx_report_issue_brand,unique" json:"issue_uuid"`
	BrandID   string        `gorm:"size:64;not null;index:idx_report_issue_brand,unique" json:"brand_id"`
	Status    ReportStatus  `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	Content   ReportContent `gorm:"type:jsonb" json:"content"`

	// Snapshot of the impact at generation time
	AffectedMembers   int `json:"affected_members"`
	AffectedLocations int `json:"affected_locations"`

	GeneratedBy string `gorm:"type:varchar(20)" json:"generated_by"` // "provider" or "template"

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (IncidentReport) TableName() string {
	return "incident_reports"
}

// TriageSettings controls ticket triage behavior (singleton row)
type TriageSettings struct {
	ID                        uint      `gorm:"primaryKey" json:"id"`
	Enabled                   bool      `gorm:"default:true" json:"enabled"`
	CandidatePoolSize         int       `gorm:"default:25" json:"candidate_pool_size"`
	MatchThreshold            float64   `gorm:"type:decimal(3,2);default:0.30" json:"match_threshold"`
	AutoReportMemberThreshold int       `gorm:"default:10" json:"auto_report_member_threshold"`
	MaxReportAttempts         int       `gorm:"default:3" json:"max_report_attempts"`
	CreatedAt                 time.Time `json:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

func (TriageSettings) TableName() string {
	return "triage_settings"
}

// NewDefaultTriageSettings returns settings with default values
func NewDefaultTriageSettings() *TriageSettings {
	return &TriageSettings{
		Enabled:                   true,
		CandidatePoolSize:         25,
		MatchThreshold:            0.30,
		AutoReportMemberThreshold: 10,
		MaxReportAttempts:         3,
	}
}
