package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/siwes-logbook-api/internal/models"
)

// PlacementRepository reads placement and geofence rows. The engine never
// mutates either.
type PlacementRepository struct {
	db *sqlx.DB
}

// NewPlacementRepository constructs the repository.
func NewPlacementRepository(db *sqlx.DB) *PlacementRepository {
	return &PlacementRepository{db: db}
}

type placementRow struct {
	models.Placement
	GeoID        *string  `db:"geo_id"`
	GeoLatitude  *float64 `db:"geo_latitude"`
	GeoLongitude *float64 `db:"geo_longitude"`
	GeoRadius    *float64 `db:"geo_radius"`
}

// GetWithGeofence returns a placement joined with its geofence.
func (r *PlacementRepository) GetWithGeofence(ctx context.Context, id string) (*models.PlacementDetail, error) {
	query := `SELECT p.id, p.company_name, p.address, p.supervisor_contact, p.geofence_id, p.created_at,
g.id AS geo_id, g.latitude AS geo_latitude, g.longitude AS geo_longitude, g.radius_meters AS geo_radius
FROM placements p
LEFT JOIN geofences g ON g.id = p.geofence_id
WHERE p.id = $1`

	var row placementRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}

	detail := &models.PlacementDetail{Placement: row.Placement}
	if row.GeoID != nil {
		detail.Geofence = &models.Geofence{
			ID:           *row.GeoID,
			Latitude:     *row.GeoLatitude,
			Longitude:    *row.GeoLongitude,
			RadiusMeters: *row.GeoRadius,
		}
	}
	return detail, nil
}

// List returns all placements, geofences included.
func (r *PlacementRepository) List(ctx context.Context) ([]models.PlacementDetail, error) {
	query := `SELECT p.id, p.company_name, p.address, p.supervisor_contact, p.geofence_id, p.created_at,
g.id AS geo_id, g.latitude AS geo_latitude, g.longitude AS geo_longitude, g.radius_meters AS geo_radius
FROM placements p
LEFT JOIN geofences g ON g.id = p.geofence_id
ORDER BY p.company_name`

	var rows []placementRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list placements: %w", err)
	}
	details := make([]models.PlacementDetail, len(rows))
	for i, row := range rows {
		details[i] = models.PlacementDetail{Placement: row.Placement}
		if row.GeoID != nil {
			details[i].Geofence = &models.Geofence{
				ID:           *row.GeoID,
				Latitude:     *row.GeoLatitude,
				Longitude:    *row.GeoLongitude,
				RadiusMeters: *row.GeoRadius,
			}
		}
	}
	return details, nil
}
