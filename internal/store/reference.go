package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/agrisahel/smartagribot/internal/domain"
)

// Regions returns the full region catalog in insertion order.
func (s *Store) Regions(ctx context.Context) ([]domain.Region, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id_reg, nom, COALESCE(zone_climat, ''), COALESCE(latitude, 0), COALESCE(longitude, 0)
		 FROM Region ORDER BY id_reg`)
	if err != nil {
		return nil, fmt.Errorf("select regions: %w", err)
	}
	defer rows.Close()

	var regions []domain.Region
	for rows.Next() {
		var r domain.Region
		if err := rows.Scan(&r.ID, &r.Name, &r.ClimateZone, &r.Latitude, &r.Longitude); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		regions = append(regions, r)
	}
	return regions, rows.Err()
}

// RegionByID returns one region, or nil when the id is unknown.
func (s *Store) RegionByID(ctx context.Context, id int64) (*domain.Region, error) {
	var r domain.Region
	err := s.db.QueryRowContext(ctx,
		`SELECT id_reg, nom, COALESCE(zone_climat, ''), COALESCE(latitude, 0), COALESCE(longitude, 0)
		 FROM Region WHERE id_reg = ?`, id).
		Scan(&r.ID, &r.Name, &r.ClimateZone, &r.Latitude, &r.Longitude)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select region %d: %w", id, err)
	}
	return &r, nil
}

// Crops returns the full crop catalog.
func (s *Store) Crops(ctx context.Context) ([]domain.Crop, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id_culture, nom, COALESCE(type, ''), COALESCE(description, '') FROM Cultures ORDER BY id_culture`)
	if err != nil {
		return nil, fmt.Errorf("select crops: %w", err)
	}
	defer rows.Close()

	var crops []domain.Crop
	for rows.Next() {
		var c domain.Crop
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.Description); err != nil {
			return nil, fmt.Errorf("scan crop: %w", err)
		}
		crops = append(crops, c)
	}
	return crops, rows.Err()
}

// CropByName returns the crop with the given name (case-insensitive exact
// match), or nil when unknown.
func (s *Store) CropByName(ctx context.Context, name string) (*domain.Crop, error) {
	var c domain.Crop
	err := s.db.QueryRowContext(ctx,
		`SELECT id_culture, nom, COALESCE(type, ''), COALESCE(description, '')
		 FROM Cultures WHERE LOWER(nom) = LOWER(?)`, name).
		Scan(&c.ID, &c.Name, &c.Type, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select crop %q: %w", name, err)
	}
	return &c, nil
}

// Calendar returns the calendar entry for a (crop, region) pair with the crop
// and region names joined in, or nil when the pair has no entry.
func (s *Store) Calendar(ctx context.Context, cropID, regionID int64) (*domain.CalendarEntry, error) {
	var e domain.CalendarEntry
	err := s.db.QueryRowContext(ctx,
		`SELECT c.id_calendar, c.id_culture, c.id_reg,
		        COALESCE(c.periode_semis, ''), COALESCE(c.periode_recolte, ''),
		        cu.nom, r.nom
		 FROM calendrier_cultural c
		 JOIN Cultures cu ON c.id_culture = cu.id_culture
		 JOIN Region r ON c.id_reg = r.id_reg
		 WHERE c.id_culture = ? AND c.id_reg = ?`, cropID, regionID).
		Scan(&e.ID, &e.CropID, &e.RegionID, &e.SowingPeriod, &e.HarvestPeriod, &e.CropName, &e.RegionName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select calendar (%d, %d): %w", cropID, regionID, err)
	}
	return &e, nil
}

// Diseases returns the diseases affecting a crop via the affecter association.
func (s *Store) Diseases(ctx context.Context, cropID int64) ([]domain.Disease, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id_parasite, m.nom, COALESCE(m.traitement, '')
		 FROM maladies_parasites m
		 JOIN affecter a ON m.id_parasite = a.id_parasite
		 WHERE a.id_culture = ?
		 ORDER BY m.id_parasite`, cropID)
	if err != nil {
		return nil, fmt.Errorf("select diseases for crop %d: %w", cropID, err)
	}
	defer rows.Close()

	var diseases []domain.Disease
	for rows.Next() {
		var d domain.Disease
		if err := rows.Scan(&d.ID, &d.Name, &d.Treatment); err != nil {
			return nil, fmt.Errorf("scan disease: %w", err)
		}
		diseases = append(diseases, d)
	}
	return diseases, rows.Err()
}

// Advice returns the best-practice entries for a crop.
func (s *Store) Advice(ctx context.Context, cropID int64) ([]domain.AdviceEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id_cons, id_culture, COALESCE(nom, ''), COALESCE(bonnes_pratique, '')
		 FROM conseils_pratiques WHERE id_culture = ? ORDER BY id_cons`, cropID)
	if err != nil {
		return nil, fmt.Errorf("select advice for crop %d: %w", cropID, err)
	}
	defer rows.Close()

	var entries []domain.AdviceEntry
	for rows.Next() {
		var a domain.AdviceEntry
		if err := rows.Scan(&a.ID, &a.CropID, &a.Name, &a.BestPractice); err != nil {
			return nil, fmt.Errorf("scan advice: %w", err)
		}
		entries = append(entries, a)
	}
	return entries, rows.Err()
}
