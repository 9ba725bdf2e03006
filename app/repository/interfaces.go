package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/CivicLens/BillboardGuard/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	TouchAPIKeyUsage(id uint) error
}

// ReportRepository defines the interface for report-related database
// operations. Status writes go through the guarded transition methods so a
// report can never regress out of a terminal state.
type ReportRepository interface {
	Create(report *models.Report) error
	GetByID(id uint) (*models.Report, error)
	GetByUUID(uuid string) (*models.Report, error)
	GetByUUIDWithViolations(uuid string) (*models.Report, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Report, error)
	CountByUserID(userID uint) (int64, error)

	// MarkAnalyzing performs the guarded pending->analyzing transition.
	// Returns false without error when the report is already terminal or
	// missing, so a retried job can skip it idempotently.
	MarkAnalyzing(id uint) (bool, error)

	// CompleteWithViolations writes the merged violation set, the verdict
	// and the completed status in a single transaction. Either everything
	// commits or nothing does.
	CompleteWithViolations(report *models.Report, verdict string, violations []models.Violation) error

	// MarkFailed records the failure reason and moves the report to failed.
	// Terminal reports are left untouched.
	MarkFailed(id uint, reason string) error

	// FailStaleAnalyzing force-fails reports stuck in analyzing longer than
	// the given age and returns the UUIDs of the affected reports so the
	// caller can refresh their cached status.
	FailStaleAnalyzing(olderThan time.Duration, reason string) ([]string, error)
}

// ViolationRepository defines the interface for violation reads. Violations
// are only ever written through ReportRepository.CompleteWithViolations.
type ViolationRepository interface {
	GetByReportID(reportID uint) ([]models.Violation, error)
	CountByReportID(reportID uint) (int64, error)
}

// ZoneRepository defines read access to the restricted-zone registry.
type ZoneRepository interface {
	GetAll() ([]models.RestrictedZone, error)
	Count() (int64, error)
	Create(zone *models.RestrictedZone) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User      UserRepository
	Report    ReportRepository
	Violation ViolationRepository
	Zone      ZoneRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:      NewUserRepository(db),
		Report:    NewReportRepository(db),
		Violation: NewViolationRepository(db),
		Zone:      NewZoneRepository(db),
	}
}
