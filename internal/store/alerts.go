package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agrisahel/smartagribot/internal/domain"
)

// AlertFilter narrows an alert listing. A zero RegionID means all regions.
type AlertFilter struct {
	RegionID   int64
	UnreadOnly bool
	Limit      int
}

// UpsertAlert inserts an alert or, when a row for the same (type, region)
// already exists, replaces it and resets its read flag. A new breach is a new
// notification.
func (s *Store) UpsertAlert(ctx context.Context, a domain.Alert) error {
	advice, err := json.Marshal(a.Advice)
	if err != nil {
		return fmt.Errorf("encode alert advice: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO alertes_meteo (type, niveau, titre, message, conseils, region_id, timestamp_, est_lue)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0)
		 ON CONFLICT (type, region_id) DO UPDATE SET
		   niveau = excluded.niveau,
		   titre = excluded.titre,
		   message = excluded.message,
		   conseils = excluded.conseils,
		   timestamp_ = excluded.timestamp_,
		   est_lue = 0`,
		string(a.Type), string(a.Level), a.Title, a.Message, string(advice),
		nullableID(a.RegionID), a.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert alert (%s, %d): %w", a.Type, a.RegionID, err)
	}
	return nil
}

// Alerts returns stored alerts newest-first, optionally filtered by region
// and read state, capped at the filter limit (50 when unset).
func (s *Store) Alerts(ctx context.Context, f AlertFilter) ([]domain.Alert, error) {
	query := `SELECT a.id, a.type, a.niveau, a.titre, a.message, a.conseils,
	                 a.region_id, COALESCE(r.nom, ''), a.timestamp_, a.est_lue
	          FROM alertes_meteo a
	          LEFT JOIN Region r ON r.id_reg = a.region_id
	          WHERE 1=1`
	var args []any

	if f.RegionID != 0 {
		query += " AND a.region_id = ?"
		args = append(args, f.RegionID)
	}
	if f.UnreadOnly {
		query += " AND a.est_lue = 0"
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY a.timestamp_ DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// MarkAlertRead flips one alert to read. Idempotent: marking an already-read
// or unknown alert is a no-op that still succeeds.
func (s *Store) MarkAlertRead(ctx context.Context, alertID int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE alertes_meteo SET est_lue = 1 WHERE id = ?`, alertID); err != nil {
		return fmt.Errorf("mark alert %d read: %w", alertID, err)
	}
	return nil
}

// MarkAllAlertsRead flips every alert to read, scoped to one region when
// regionID is nonzero.
func (s *Store) MarkAllAlertsRead(ctx context.Context, regionID int64) error {
	var err error
	if regionID != 0 {
		_, err = s.db.ExecContext(ctx,
			`UPDATE alertes_meteo SET est_lue = 1 WHERE region_id = ?`, regionID)
	} else {
		_, err = s.db.ExecContext(ctx, `UPDATE alertes_meteo SET est_lue = 1`)
	}
	if err != nil {
		return fmt.Errorf("mark all alerts read: %w", err)
	}
	return nil
}

// DeleteAlertsBefore removes alerts created before the cutoff and reports how
// many rows were deleted. Safe to call repeatedly.
func (s *Store) DeleteAlertsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM alertes_meteo WHERE timestamp_ < ?`,
		cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("delete old alerts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete old alerts: %w", err)
	}
	return n, nil
}

// AlertStats aggregates counts over unread alerts only.
func (s *Store) AlertStats(ctx context.Context) (domain.AlertStats, error) {
	stats := domain.AlertStats{
		ByType:  make(map[string]int),
		ByLevel: make(map[string]int),
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT type, niveau, COUNT(*) FROM alertes_meteo WHERE est_lue = 0 GROUP BY type, niveau`)
	if err != nil {
		return stats, fmt.Errorf("select alert stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var typ, level string
		var count int
		if err := rows.Scan(&typ, &level, &count); err != nil {
			return stats, fmt.Errorf("scan alert stats: %w", err)
		}
		stats.UnreadCount += count
		stats.ByType[typ] += count
		stats.ByLevel[level] += count
	}
	return stats, rows.Err()
}

func scanAlert(rows *sql.Rows) (domain.Alert, error) {
	var (
		a         domain.Alert
		typ       string
		level     string
		advice    sql.NullString
		regionID  sql.NullInt64
		timestamp string
		read      int
	)
	if err := rows.Scan(&a.ID, &typ, &level, &a.Title, &a.Message, &advice,
		&regionID, &a.RegionName, &timestamp, &read); err != nil {
		return domain.Alert{}, fmt.Errorf("scan alert: %w", err)
	}

	a.Type = domain.AlertType(typ)
	a.Level = domain.AlertLevel(level)
	a.RegionID = regionID.Int64
	a.Read = read != 0
	if advice.Valid && advice.String != "" {
		if err := json.Unmarshal([]byte(advice.String), &a.Advice); err != nil {
			return domain.Alert{}, fmt.Errorf("decode alert advice: %w", err)
		}
	}
	if ts, err := time.Parse(time.RFC3339Nano, timestamp); err == nil {
		a.CreatedAt = ts
	}
	return a, nil
}

func nullableID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
