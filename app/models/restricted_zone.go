package models

import (
	"time"
)

// RestrictedZone is a georeferenced exclusion area with a minimum-distance
// rule. Zones are reference data: read-only to the analysis pipeline.
type RestrictedZone struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Type         string    `gorm:"type:varchar(50);not null" json:"type"`
	Latitude     float64   `gorm:"type:decimal(10,8);not null" json:"latitude"`
	Longitude    float64   `gorm:"type:decimal(11,8);not null" json:"longitude"`
	RadiusMeters float64   `gorm:"not null" json:"radius_meters"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}
