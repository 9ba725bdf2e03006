package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/CivicLens/BillboardGuard/app/models"
)

// reportRepository implements the ReportRepository interface
type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository instance
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

// Create creates a new report in the database
func (r *reportRepository) Create(report *models.Report) error {
	return r.db.Create(report).Error
}

// GetByID retrieves a report by its ID
func (r *reportRepository) GetByID(id uint) (*models.Report, error) {
	var report models.Report
	err := r.db.First(&report, id).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// GetByUUID retrieves a report by its public UUID
func (r *reportRepository) GetByUUID(uuid string) (*models.Report, error) {
	var report models.Report
	err := r.db.Where("uuid = ?", uuid).First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// GetByUUIDWithViolations retrieves a report with its violations preloaded
func (r *reportRepository) GetByUUIDWithViolations(uuid string) (*models.Report, error) {
	var report models.Report
	err := r.db.Preload("Violations").Where("uuid = ?", uuid).First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// GetByUserID retrieves reports submitted by a user, newest first
func (r *reportRepository) GetByUserID(userID uint, offset, limit int) ([]models.Report, error) {
	var reports []models.Report
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&reports).Error
	return reports, err
}

// CountByUserID counts the reports submitted by a user
func (r *reportRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Report{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// MarkAnalyzing performs the guarded pending->analyzing transition. The
// WHERE clause is the single-writer guard: a terminal report never matches,
// so a stale or retried job cannot drag it back into analysis.
func (r *reportRepository) MarkAnalyzing(id uint) (bool, error) {
	result := r.db.Model(&models.Report{}).
		Where("id = ? AND status IN ?", id, []string{models.ReportStatusPending, models.ReportStatusAnalyzing}).
		Update("status", models.ReportStatusAnalyzing)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CompleteWithViolations commits the merged violation set, the verdict and
// the completed status atomically. Violation persistence is all-or-nothing
// for a report: a failure rolls everything back and the report stays in
// analyzing for the failure path to handle.
func (r *reportRepository) CompleteWithViolations(report *models.Report, verdict string, violations []models.Violation) error {
	now := time.Now()
	return r.db.Transaction(func(tx *gorm.DB) error {
		if len(violations) > 0 {
			if err := tx.Create(&violations).Error; err != nil {
				return err
			}
		}
		result := tx.Model(&models.Report{}).
			Where("id = ? AND status = ?", report.ID, models.ReportStatusAnalyzing).
			Updates(map[string]interface{}{
				"status":      models.ReportStatusCompleted,
				"verdict":     verdict,
				"analyzed_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		report.Status = models.ReportStatusCompleted
		report.Verdict = verdict
		report.AnalyzedAt = &now
		return nil
	})
}

// MarkFailed records the failure reason and moves the report to failed.
// Terminal reports are left untouched.
func (r *reportRepository) MarkFailed(id uint, reason string) error {
	now := time.Now()
	return r.db.Model(&models.Report{}).
		Where("id = ? AND status IN ?", id, []string{models.ReportStatusPending, models.ReportStatusAnalyzing}).
		Updates(map[string]interface{}{
			"status":         models.ReportStatusFailed,
			"failure_reason": reason,
			"failed_at":      now,
		}).Error
}

// FailStaleAnalyzing force-fails reports stuck in analyzing longer than the
// given age so pollers are guaranteed to reach a terminal state. The
// affected UUIDs are returned so the caller can update the status mirror;
// the rows are locked while selected so the set matches what gets failed.
func (r *reportRepository) FailStaleAnalyzing(olderThan time.Duration, reason string) ([]string, error) {
	cutoff := time.Now().Add(-olderThan)
	var uuids []string
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Report{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("status = ? AND updated_at < ?", models.ReportStatusAnalyzing, cutoff).
			Pluck("uuid", &uuids).Error; err != nil {
			return err
		}
		if len(uuids) == 0 {
			return nil
		}
		return tx.Model(&models.Report{}).
			Where("uuid IN ? AND status = ?", uuids, models.ReportStatusAnalyzing).
			Updates(map[string]interface{}{
				"status":         models.ReportStatusFailed,
				"failure_reason": reason,
				"failed_at":      time.Now(),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return uuids, nil
}
