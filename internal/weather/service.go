package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/agrisahel/smartagribot/internal/domain"
	"github.com/agrisahel/smartagribot/internal/observability"
	"github.com/agrisahel/smartagribot/internal/store"
)

// CacheStore provides region lookups and the per-region weather cache rows.
type CacheStore interface {
	RegionByID(ctx context.Context, id int64) (*domain.Region, error)
	LatestWeatherCache(ctx context.Context, regionID int64) (*store.WeatherCacheRow, error)
	SaveWeatherCache(ctx context.Context, regionID int64, dataJSON string, capturedAt time.Time) error
}

// Service serves weather readings for regions, consulting the cache before
// the external provider. A cached reading is served only while
// now - captured_at <= ttl; anything older is a miss and triggers a fresh
// provider fetch followed by a cache replace.
type Service struct {
	store    CacheStore
	provider domain.WeatherProvider
	ttl      time.Duration
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewService creates the cached weather source.
func NewService(st CacheStore, provider domain.WeatherProvider, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:    st,
		provider: provider,
		ttl:      ttl,
		metrics:  metrics,
		logger:   logger,
	}
}

// ForRegion returns the current reading for a region. Cache read or decode
// failures degrade to a miss; cache write failures are logged and the fresh
// reading is still returned.
func (s *Service) ForRegion(ctx context.Context, regionID int64) (domain.WeatherReading, error) {
	if reading, ok := s.fromCache(ctx, regionID); ok {
		s.metrics.WeatherCache.WithLabelValues("hit").Inc()
		return reading, nil
	}
	s.metrics.WeatherCache.WithLabelValues("miss").Inc()

	region, err := s.store.RegionByID(ctx, regionID)
	if err != nil {
		return domain.WeatherReading{}, fmt.Errorf("resolve region %d: %w", regionID, err)
	}
	if region == nil {
		return domain.WeatherReading{}, fmt.Errorf("unknown region %d", regionID)
	}

	reading, err := s.provider.CurrentWeather(ctx, *region)
	if err != nil {
		return domain.WeatherReading{}, err
	}

	if data, err := json.Marshal(reading); err == nil {
		if err := s.store.SaveWeatherCache(ctx, regionID, string(data), domain.Now()); err != nil {
			s.logger.Warn("weather cache write failed", "region_id", regionID, "error", err)
		}
	}
	return reading, nil
}

// fromCache returns a cached reading when one exists and is still fresh.
func (s *Service) fromCache(ctx context.Context, regionID int64) (domain.WeatherReading, bool) {
	row, err := s.store.LatestWeatherCache(ctx, regionID)
	if err != nil {
		s.logger.Warn("weather cache read failed", "region_id", regionID, "error", err)
		return domain.WeatherReading{}, false
	}
	if row == nil || domain.Now().Sub(row.CapturedAt) > s.ttl {
		return domain.WeatherReading{}, false
	}

	var reading domain.WeatherReading
	if err := json.Unmarshal([]byte(row.DataJSON), &reading); err != nil {
		s.logger.Warn("weather cache row is corrupt", "region_id", regionID, "error", err)
		return domain.WeatherReading{}, false
	}
	return reading, true
}
