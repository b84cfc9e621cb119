package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/siwes-logbook-api/internal/models"
)

func TestGeofenceDistance(t *testing.T) {
	svc := NewGeofenceService()

	t.Run("identical points are zero meters apart", func(t *testing.T) {
		assert.Zero(t, svc.Distance(6.5244, 3.3792, 6.5244, 3.3792))
	})

	t.Run("symmetric", func(t *testing.T) {
		d1 := svc.Distance(6.5244, 3.3792, 6.4281, 3.4219)
		d2 := svc.Distance(6.4281, 3.4219, 6.5244, 3.3792)
		assert.InDelta(t, d1, d2, 0.000001)
	})

	t.Run("short hop near the office", func(t *testing.T) {
		// 0.0009 degrees of latitude is roughly 100 m.
		d := svc.Distance(6.5244, 3.3792, 6.5253, 3.3792)
		assert.InDelta(t, 100, d, 5)
	})

	t.Run("known city pair", func(t *testing.T) {
		// Lagos island to Ikeja, roughly 16 km.
		d := svc.Distance(6.4550, 3.3941, 6.6018, 3.3515)
		assert.InDelta(t, 16800, d, 1000)
	})
}

func TestGeofenceClassify(t *testing.T) {
	svc := NewGeofenceService()
	fence := &models.Geofence{Latitude: 6.5244, Longitude: 3.3792, RadiusMeters: 500}

	t.Run("inside the radius", func(t *testing.T) {
		assert.Equal(t, models.LocationWithin, svc.Classify(6.5253, 3.3792, fence))
	})

	t.Run("outside the radius", func(t *testing.T) {
		assert.Equal(t, models.LocationOutside, svc.Classify(6.6018, 3.3515, fence))
	})

	t.Run("boundary is inclusive", func(t *testing.T) {
		d, inside := svc.DistanceFromGeofence(6.5253, 3.3792, fence)
		assert.True(t, inside)
		assert.Greater(t, d, 0.0)

		tight := &models.Geofence{Latitude: 6.5244, Longitude: 3.3792, RadiusMeters: d}
		assert.Equal(t, models.LocationWithin, svc.Classify(6.5253, 3.3792, tight))
	})

	t.Run("zero-zero sentinel means no GPS fix", func(t *testing.T) {
		assert.Equal(t, models.LocationUnknown, svc.Classify(0, 0, fence))
	})

	t.Run("missing geofence is unknown", func(t *testing.T) {
		assert.Equal(t, models.LocationUnknown, svc.Classify(6.5253, 3.3792, nil))
	})
}

func TestGeofenceValidateCoordinates(t *testing.T) {
	svc := NewGeofenceService()

	assert.True(t, svc.ValidateCoordinates(6.5244, 3.3792))
	assert.True(t, svc.ValidateCoordinates(-90, 180))
	assert.True(t, svc.ValidateCoordinates(90, -180))

	assert.False(t, svc.ValidateCoordinates(90.0001, 0))
	assert.False(t, svc.ValidateCoordinates(-91, 0))
	assert.False(t, svc.ValidateCoordinates(0, 180.5))
	assert.False(t, svc.ValidateCoordinates(0, -181))
	assert.False(t, svc.ValidateCoordinates(math.NaN(), 0))
	assert.False(t, svc.ValidateCoordinates(0, math.NaN()))
}
