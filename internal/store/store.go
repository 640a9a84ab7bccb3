// Package store is the SQLite collaborator boundary: reference-data reads
// (regions, crops, calendars, diseases, advice), alert rows, and the per-region
// weather cache. Reference tables are seeded externally and read-only here.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Schema for all SmartAgriBot tables. Call Store.Init() or apply manually.
// Reference tables (Region, Cultures, calendrier_cultural, maladies_parasites,
// affecter, conseils_pratiques) are populated by the external seed tooling.
const Schema = `
CREATE TABLE IF NOT EXISTS Region (
	id_reg INTEGER PRIMARY KEY AUTOINCREMENT,
	nom TEXT NOT NULL,
	zone_climat TEXT,
	latitude REAL,
	longitude REAL
);
CREATE TABLE IF NOT EXISTS Cultures (
	id_culture INTEGER PRIMARY KEY AUTOINCREMENT,
	nom TEXT NOT NULL,
	type TEXT,
	description TEXT
);
CREATE TABLE IF NOT EXISTS calendrier_cultural (
	id_calendar INTEGER PRIMARY KEY AUTOINCREMENT,
	id_culture INTEGER NOT NULL,
	id_reg INTEGER NOT NULL,
	periode_semis TEXT,
	periode_recolte TEXT,
	FOREIGN KEY (id_culture) REFERENCES Cultures(id_culture),
	FOREIGN KEY (id_reg) REFERENCES Region(id_reg)
);
CREATE TABLE IF NOT EXISTS maladies_parasites (
	id_parasite INTEGER PRIMARY KEY AUTOINCREMENT,
	nom TEXT NOT NULL,
	traitement TEXT
);
CREATE TABLE IF NOT EXISTS affecter (
	id_culture INTEGER NOT NULL,
	id_parasite INTEGER NOT NULL,
	PRIMARY KEY (id_culture, id_parasite),
	FOREIGN KEY (id_culture) REFERENCES Cultures(id_culture),
	FOREIGN KEY (id_parasite) REFERENCES maladies_parasites(id_parasite)
);
CREATE TABLE IF NOT EXISTS conseils_pratiques (
	id_cons INTEGER PRIMARY KEY AUTOINCREMENT,
	id_culture INTEGER NOT NULL,
	nom TEXT,
	bonnes_pratique TEXT,
	FOREIGN KEY (id_culture) REFERENCES Cultures(id_culture)
);
CREATE TABLE IF NOT EXISTS meteo_cache (
	id_meteo INTEGER PRIMARY KEY AUTOINCREMENT,
	region_id INTEGER NOT NULL,
	data_json TEXT,
	timestamp_ DATETIME NOT NULL,
	FOREIGN KEY (region_id) REFERENCES Region(id_reg)
);
CREATE TABLE IF NOT EXISTS alertes_meteo (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	type TEXT NOT NULL,
	niveau TEXT NOT NULL,
	titre TEXT NOT NULL,
	message TEXT NOT NULL,
	conseils TEXT,
	region_id INTEGER,
	timestamp_ DATETIME NOT NULL,
	est_lue INTEGER NOT NULL DEFAULT 0,
	UNIQUE (type, region_id)
);
CREATE INDEX IF NOT EXISTS idx_alertes_ts ON alertes_meteo(timestamp_);
CREATE INDEX IF NOT EXISTS idx_meteo_cache_region ON meteo_cache(region_id, timestamp_);
`

// Store wraps the SQLite database behind typed CRUD methods.
type Store struct {
	db *sql.DB
}

// New creates a Store backed by the given database connection.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens (or creates) the SQLite file at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY under
	// concurrent chat requests.
	db.SetMaxOpenConns(1)

	s := New(db)
	if err := s.Init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Init creates the tables if they don't exist.
func (s *Store) Init() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// DB exposes the underlying handle for seed tooling and tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// CheckReadiness pings the database. Used by the readiness endpoint.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
