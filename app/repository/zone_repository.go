package repository

import (
	"gorm.io/gorm"

	"github.com/CivicLens/BillboardGuard/app/models"
)

// zoneRepository implements the ZoneRepository interface
type zoneRepository struct {
	db *gorm.DB
}

// NewZoneRepository creates a new restricted-zone repository instance
func NewZoneRepository(db *gorm.DB) ZoneRepository {
	return &zoneRepository{db: db}
}

// GetAll returns the full zone registry
func (r *zoneRepository) GetAll() ([]models.RestrictedZone, error) {
	var zones []models.RestrictedZone
	err := r.db.Order("name ASC").Find(&zones).Error
	return zones, err
}

// Count returns the number of registered zones
func (r *zoneRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.RestrictedZone{}).Count(&count).Error
	return count, err
}

// Create inserts a zone; used by seeding, never by the pipeline
func (r *zoneRepository) Create(zone *models.RestrictedZone) error {
	return r.db.Create(zone).Error
}
