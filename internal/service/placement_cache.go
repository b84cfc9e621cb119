package service

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/siwes-logbook-api/internal/models"
)

// PlacementSource provides placement rows with their geofence attached.
type PlacementSource interface {
	GetWithGeofence(ctx context.Context, id string) (*models.PlacementDetail, error)
}

// CachedPlacementReader caches placement+geofence reads. Placements are
// immutable to the engine, so a long TTL is safe.
type CachedPlacementReader struct {
	inner PlacementSource
	cache *CacheService
	ttl   time.Duration
}

// NewCachedPlacementReader wraps a placement source with Redis caching.
func NewCachedPlacementReader(inner PlacementSource, cache *CacheService, ttl time.Duration) *CachedPlacementReader {
	return &CachedPlacementReader{inner: inner, cache: cache, ttl: ttl}
}

// GetWithGeofence returns the cached placement when available, falling back
// to the inner source. Lookup failures pass through unchanged so not-found
// semantics survive the wrapper.
func (r *CachedPlacementReader) GetWithGeofence(ctx context.Context, id string) (*models.PlacementDetail, error) {
	key := fmt.Sprintf("placement:%s", id)
	var cached models.PlacementDetail
	if hit, _ := r.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}
	detail, err := r.inner.GetWithGeofence(ctx, id)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, key, detail, r.ttl)
	return detail, nil
}
