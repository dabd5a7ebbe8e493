package model

import "time"

// Location is a named campus geofence. Reports are matched against the
// registry in ascending ID order.
type Location struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"not null;uniqueIndex;size:255" json:"name"`
	Latitude     float64   `gorm:"not null" json:"latitude"`
	Longitude    float64   `gorm:"not null" json:"longitude"`
	RadiusMeters float64   `gorm:"not null" json:"radius_meters"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Location) TableName() string {
	return "locations"
}
