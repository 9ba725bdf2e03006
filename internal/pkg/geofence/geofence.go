package geofence

import (
	"fmt"
	"math"

	"github.com/CivicLens/BillboardGuard/app/models"
	"github.com/CivicLens/BillboardGuard/internal/pkg/analysis"
)

// earthRadiusMeters is the mean sphere radius used for great-circle
// distances. Zone radii are often under 200m; a naive Euclidean computation
// would mis-scale with latitude at that range, while sphere flattening error
// is negligible.
const earthRadiusMeters = 6371000.0

// Severity and confidence assigned to every proximity violation.
const (
	zoneViolationSeverity   = models.SeverityHigh
	zoneViolationConfidence = 95
)

// Distance returns the great-circle (haversine) distance in meters between
// two WGS84 points.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	deltaPhi := (lat2 - lat1) * math.Pi / 180
	deltaLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Evaluate checks the point against the zone registry and returns one
// location finding per zone whose distance from the point is within the
// zone's radius (inclusive). No match yields an empty list, not a "clean"
// marker. Pure and deterministic; safe for concurrent use.
func Evaluate(lat, lng float64, zones []models.RestrictedZone) []analysis.Finding {
	var findings []analysis.Finding
	for _, zone := range zones {
		distance := Distance(lat, lng, zone.Latitude, zone.Longitude)
		if distance <= zone.RadiusMeters {
			findings = append(findings, analysis.Finding{
				Type:     models.ViolationTypeLocation,
				Severity: zoneViolationSeverity,
				Description: fmt.Sprintf("Located within %dm of %s (%s). Minimum distance: %.0fm required.",
					int(math.Round(distance)), zone.Name, zone.Type, zone.RadiusMeters),
				Confidence: zoneViolationConfidence,
			})
		}
	}
	return findings
}
