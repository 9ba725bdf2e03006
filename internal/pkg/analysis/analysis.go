package analysis

import (
	"github.com/CivicLens/BillboardGuard/app/models"
)

// Finding is one compliance issue detected by a violation source before it
// is attached to a report.
type Finding struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	// Confidence 0-100; 0 means the source omitted it and the default
	// applies when the finding is turned into a record.
	Confidence int `json:"confidence"`
}

// Merge combines classifier findings and geofence findings into one ordered
// list: classifier findings first, geofence findings appended. Sources are
// never deduplicated against each other; a billboard flagged for content by
// the classifier and for proximity by the geofence check keeps both entries.
func Merge(classifier, geofence []Finding) []Finding {
	merged := make([]Finding, 0, len(classifier)+len(geofence))
	merged = append(merged, classifier...)
	merged = append(merged, geofence...)
	return merged
}

// Verdict derives the binary compliance summary from a merged finding list.
func Verdict(findings []Finding) string {
	if len(findings) == 0 {
		return models.VerdictCompliant
	}
	return models.VerdictNonCompliant
}

// Records converts merged findings into violation rows owned by the given
// report. A missing confidence score is replaced by the documented default
// rather than stored as zero.
func Records(reportID uint, findings []Finding) []models.Violation {
	records := make([]models.Violation, 0, len(findings))
	for _, f := range findings {
		confidence := f.Confidence
		if confidence <= 0 {
			confidence = models.DefaultConfidence
		}
		if confidence > 100 {
			confidence = 100
		}
		records = append(records, models.Violation{
			ReportID:    reportID,
			Type:        f.Type,
			Severity:    f.Severity,
			Description: f.Description,
			Confidence:  confidence,
		})
	}
	return records
}
