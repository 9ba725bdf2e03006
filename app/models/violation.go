package models

import (
	"time"
)

// Violation types as reported by the classifier and the geofence check.
const (
	ViolationTypeSize       = "size"
	ViolationTypeLocation   = "location"
	ViolationTypeStructural = "structural"
	ViolationTypeContent    = "content"
)

const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// DefaultConfidence is substituted when a violation source omits the
// confidence score. Callers must never interpret a missing score as zero.
const DefaultConfidence = 85

// Violation is one flagged compliance issue attached to a report. Rows are
// written in bulk when a report completes and never mutated afterwards.
type Violation struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ReportID    uint      `gorm:"index;not null" json:"report_id"`
	Type        string    `gorm:"type:varchar(20);not null" json:"type"`
	Severity    string    `gorm:"type:varchar(20);not null" json:"severity"`
	Description string    `gorm:"type:text" json:"description"`
	Confidence  int       `gorm:"type:tinyint unsigned;not null" json:"confidence"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// SeverityWeight returns a numeric weight for ordering severities for
// display and triage (low < medium < high < critical).
func SeverityWeight(severity string) int {
	switch severity {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// IsValidViolationType reports whether the type is one of the four known
// categories.
func IsValidViolationType(t string) bool {
	switch t {
	case ViolationTypeSize, ViolationTypeLocation, ViolationTypeStructural, ViolationTypeContent:
		return true
	}
	return false
}

// IsValidSeverity reports whether the severity is one of the known levels.
func IsValidSeverity(s string) bool {
	return SeverityWeight(s) > 0
}
