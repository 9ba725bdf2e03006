package repository

import (
	"gorm.io/gorm"

	"github.com/CivicLens/BillboardGuard/app/models"
)

// violationRepository implements the ViolationRepository interface
type violationRepository struct {
	db *gorm.DB
}

// NewViolationRepository creates a new violation repository instance
func NewViolationRepository(db *gorm.DB) ViolationRepository {
	return &violationRepository{db: db}
}

// GetByReportID retrieves the violations of a report in insertion order
func (r *violationRepository) GetByReportID(reportID uint) ([]models.Violation, error) {
	var violations []models.Violation
	err := r.db.Where("report_id = ?", reportID).Order("id ASC").Find(&violations).Error
	return violations, err
}

// CountByReportID counts the violations attached to a report
func (r *violationRepository) CountByReportID(reportID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Violation{}).Where("report_id = ?", reportID).Count(&count).Error
	return count, err
}
