package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// WeatherCacheRow is a stored weather capture for one region.
type WeatherCacheRow struct {
	RegionID   int64
	DataJSON   string
	CapturedAt time.Time
}

// LatestWeatherCache returns the newest cache row for a region, or nil when
// the region has never been captured. Staleness is the caller's concern.
func (s *Store) LatestWeatherCache(ctx context.Context, regionID int64) (*WeatherCacheRow, error) {
	var (
		row       WeatherCacheRow
		timestamp string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT region_id, COALESCE(data_json, ''), timestamp_
		 FROM meteo_cache WHERE region_id = ?
		 ORDER BY timestamp_ DESC LIMIT 1`, regionID).
		Scan(&row.RegionID, &row.DataJSON, &timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select weather cache for region %d: %w", regionID, err)
	}

	ts, err := time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return nil, fmt.Errorf("parse weather cache timestamp %q: %w", timestamp, err)
	}
	row.CapturedAt = ts
	return &row, nil
}

// SaveWeatherCache replaces the cache row for a region with a fresh capture.
// Delete-then-insert keeps at most one live entry per region.
func (s *Store) SaveWeatherCache(ctx context.Context, regionID int64, dataJSON string, capturedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save weather cache: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM meteo_cache WHERE region_id = ?`, regionID); err != nil {
		return fmt.Errorf("clear weather cache for region %d: %w", regionID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meteo_cache (region_id, data_json, timestamp_) VALUES (?, ?, ?)`,
		regionID, dataJSON, capturedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("insert weather cache for region %d: %w", regionID, err)
	}
	return tx.Commit()
}
