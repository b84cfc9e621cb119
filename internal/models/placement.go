package models

import "time"

// Geofence is the circular boundary around a placement's work site.
// Center coordinates are decimal degrees, radius is meters. Geofences are
// immutable after creation; the engine only ever reads them.
type Geofence struct {
	ID           string    `db:"id" json:"id"`
	Latitude     float64   `db:"latitude" json:"latitude"`
	Longitude    float64   `db:"longitude" json:"longitude"`
	RadiusMeters float64   `db:"radius_meters" json:"radius_meters"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Placement is the company/organization where a student completes the
// SIWES program. Each placement owns exactly one geofence.
type Placement struct {
	ID                string    `db:"id" json:"id"`
	CompanyName       string    `db:"company_name" json:"company_name"`
	Address           string    `db:"address" json:"address"`
	SupervisorContact *string   `db:"supervisor_contact" json:"supervisor_contact,omitempty"`
	GeofenceID        string    `db:"geofence_id" json:"geofence_id"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// PlacementDetail bundles a placement with its geofence for engine reads.
type PlacementDetail struct {
	Placement
	Geofence *Geofence `json:"geofence,omitempty"`
}
