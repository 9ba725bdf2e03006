package reportstatus

import (
	"fmt"
	"time"

	"github.com/CivicLens/BillboardGuard/app/models"
	"github.com/CivicLens/BillboardGuard/app/repository"
	"github.com/CivicLens/BillboardGuard/internal/pkg/cache"
)

// Cache key format for report analysis status
const (
	StatusKeyFormat = "report:status:%s" // Format: report:status:<uuid>
	statusTTL       = 24 * time.Hour
)

// Set mirrors the analysis status of a report in the cache so pollers can
// read it without hitting the database.
func Set(reportUUID string, status string) error {
	key := fmt.Sprintf(StatusKeyFormat, reportUUID)
	return cache.Set(key, status, statusTTL)
}

// Get returns the mirrored status of a report from the cache.
func Get(reportUUID string) (string, error) {
	key := fmt.Sprintf(StatusKeyFormat, reportUUID)
	return cache.Get(key)
}

// Resolve returns the current status of a report, preferring the cache
// mirror and falling back to the database. A database hit refreshes the
// mirror. Terminal statuses are stable: once completed or failed has been
// written, no observer sees an earlier state again.
func Resolve(reportUUID string) (string, error) {
	if status, err := Get(reportUUID); err == nil && status != "" {
		return status, nil
	}

	report, err := repository.GetGlobalRepositories().Report.GetByUUID(reportUUID)
	if err != nil {
		return "", err
	}

	if mirrorErr := Set(reportUUID, report.Status); mirrorErr != nil {
		// Mirror refresh is best-effort; the DB answer stands.
		_ = mirrorErr
	}
	return report.Status, nil
}

// IsTerminal reports whether the given status string admits no further
// transitions.
func IsTerminal(status string) bool {
	return models.ReportStatusIsTerminal(status)
}
