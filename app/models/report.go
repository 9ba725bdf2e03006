package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReportStatusPending   = "pending"
	ReportStatusAnalyzing = "analyzing"
	ReportStatusCompleted = "completed"
	ReportStatusFailed    = "failed"
)

const (
	VerdictCompliant    = "compliant"
	VerdictNonCompliant = "non-compliant"
)

// Report is one citizen-submitted billboard observation and its analysis
// outcome. Status only ever moves forward: pending -> analyzing ->
// completed|failed. Violations exist only once the report is completed.
type Report struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	UUID          string      `gorm:"type:char(36);uniqueIndex;not null" json:"uuid"`
	UserID        uint        `gorm:"index;not null" json:"user_id"`
	User          *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ImageURL      string      `gorm:"type:varchar(512);not null" json:"image_url"`
	Latitude      float64     `gorm:"type:decimal(10,8);not null" json:"latitude"`
	Longitude     float64     `gorm:"type:decimal(11,8);not null" json:"longitude"`
	Address       string      `gorm:"type:varchar(255)" json:"address"`
	Status        string      `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	Verdict       string      `gorm:"type:varchar(20);default:''" json:"verdict"`
	FailureReason string      `gorm:"type:text" json:"failure_reason,omitempty"`
	FailedAt      *time.Time  `json:"failed_at,omitempty"`
	AnalyzedAt    *time.Time  `json:"analyzed_at,omitempty"`
	Violations    []Violation `gorm:"foreignKey:ReportID" json:"violations,omitempty"`
	CreatedAt     time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == "" {
		r.UUID = uuid.New().String()
	}
	return nil
}

// IsTerminal reports whether the status admits no further transitions.
func (r *Report) IsTerminal() bool {
	return ReportStatusIsTerminal(r.Status)
}

func ReportStatusIsTerminal(status string) bool {
	return status == ReportStatusCompleted || status == ReportStatusFailed
}

// CanTransition reports whether moving to the given status is a legal
// forward transition.
func (r *Report) CanTransition(to string) bool {
	switch r.Status {
	case ReportStatusPending:
		return to == ReportStatusAnalyzing
	case ReportStatusAnalyzing:
		return to == ReportStatusCompleted || to == ReportStatusFailed
	default:
		return false
	}
}

// FindReportByUUID finds a report by its public UUID.
func FindReportByUUID(db *gorm.DB, uuid string) (*Report, error) {
	var report Report
	result := db.Where("uuid = ?", uuid).First(&report)
	return &report, result.Error
}
