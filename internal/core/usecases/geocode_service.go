package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/samirrijal/sketchroute/internal/core/domain"
	"github.com/samirrijal/sketchroute/internal/core/ports"
	"github.com/samirrijal/sketchroute/internal/pkg/metrics"
)

const (
	defaultGeocodeLimit = 5
	maxGeocodeLimit     = 20
)

// GeocodeService fronts the geocoder with a shared cache and coalesces
// identical in-flight queries. It satisfies ports.Geocoder.
type GeocodeService struct {
	geocoder ports.Geocoder
	cache    ports.CacheService
	ttl      int
	group    singleflight.Group
}

// NewGeocodeService creates a GeocodeService. cache may be nil.
func NewGeocodeService(geocoder ports.Geocoder, cache ports.CacheService, ttlSeconds int) *GeocodeService {
	if ttlSeconds <= 0 {
		ttlSeconds = 3600
	}
	return &GeocodeService{geocoder: geocoder, cache: cache, ttl: ttlSeconds}
}

// Search resolves query to candidates. A blank query returns an empty list
// without touching the geocoder.
func (s *GeocodeService) Search(ctx context.Context, query string, limit int) ([]domain.SearchCandidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchCandidate{}, nil
	}
	if limit <= 0 || limit > maxGeocodeLimit {
		limit = defaultGeocodeLimit
	}

	// Try cache
	cacheKey := fmt.Sprintf("geocode:%s:%d", strings.ToLower(query), limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var candidates []domain.SearchCandidate
			if err := json.Unmarshal(data, &candidates); err == nil {
				metrics.CacheHits.WithLabelValues("geocode").Inc()
				return candidates, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("geocode").Inc()
	}

	v, err, _ := s.group.Do(cacheKey, func() (any, error) {
		return s.geocoder.Search(ctx, query, limit)
	})
	if err != nil {
		metrics.SearchRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	candidates, _ := v.([]domain.SearchCandidate)
	if candidates == nil {
		candidates = []domain.SearchCandidate{}
	}
	metrics.SearchRequests.WithLabelValues("ok").Inc()

	if s.cache != nil {
		if data, err := json.Marshal(candidates); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.ttl)
		}
	}

	return candidates, nil
}
