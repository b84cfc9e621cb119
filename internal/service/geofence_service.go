package service

import (
	"math"

	"github.com/noah-isme/siwes-logbook-api/internal/models"
)

// EarthRadiusMeters is the spherical-earth approximation used for
// great-circle distances.
const EarthRadiusMeters = 6371000.0

// GeofenceService validates GPS coordinates against circular geofence
// boundaries. All methods are pure; the service carries no state.
type GeofenceService struct{}

// NewGeofenceService constructs the geofence service.
func NewGeofenceService() *GeofenceService {
	return &GeofenceService{}
}

// Distance returns the great-circle distance in meters between two
// coordinates via the haversine formula. Symmetric, zero for identical
// points.
func (s *GeofenceService) Distance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Asin(math.Sqrt(a))

	return EarthRadiusMeters * c
}

// IsWithin reports whether a coordinate falls inside the geofence,
// boundary inclusive. A nil geofence is never within.
func (s *GeofenceService) IsWithin(lat, lon float64, fence *models.Geofence) bool {
	if fence == nil {
		return false
	}
	return s.Distance(lat, lon, fence.Latitude, fence.Longitude) <= fence.RadiusMeters
}

// Classify maps a coordinate to a location status. The (0,0) coordinate is
// the client's "no GPS fix" sentinel and classifies as unknown, as does a
// missing geofence.
func (s *GeofenceService) Classify(lat, lon float64, fence *models.Geofence) models.LocationStatus {
	if lat == 0 && lon == 0 {
		return models.LocationUnknown
	}
	if fence == nil {
		return models.LocationUnknown
	}
	if s.IsWithin(lat, lon, fence) {
		return models.LocationWithin
	}
	return models.LocationOutside
}

// DistanceFromGeofence returns the distance to the fence center and whether
// the point is inside the boundary. Useful for telling students how far
// from the work site they are.
func (s *GeofenceService) DistanceFromGeofence(lat, lon float64, fence *models.Geofence) (float64, bool) {
	distance := s.Distance(lat, lon, fence.Latitude, fence.Longitude)
	return distance, distance <= fence.RadiusMeters
}

// ValidateCoordinates range-checks a coordinate pair. NaN fails both
// comparisons and is rejected.
func (s *GeofenceService) ValidateCoordinates(lat, lon float64) bool {
	if !(lat >= -90 && lat <= 90) {
		return false
	}
	if !(lon >= -180 && lon <= 180) {
		return false
	}
	return true
}
