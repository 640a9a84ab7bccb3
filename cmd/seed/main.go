// Command seed loads the reference catalog (regions, crops, crop calendars,
// diseases, advice) from a JSON fixture into the SQLite database the service
// reads from. Existing reference rows are replaced; alerts and the weather
// cache are left untouched.
//
// Usage:
//
//	go run ./cmd/seed -db smartAgribot.db -fixture data/reference.json
package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/agrisahel/smartagribot/internal/store"
)

type fixture struct {
	Regions []struct {
		ID          int64   `json:"id_reg"`
		Name        string  `json:"nom"`
		ClimateZone string  `json:"zone_climat"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
	} `json:"regions"`
	Crops []struct {
		ID          int64  `json:"id_culture"`
		Name        string `json:"nom"`
		Type        string `json:"type"`
		Description string `json:"description"`
	} `json:"cultures"`
	Calendar []struct {
		CropID        int64  `json:"id_culture"`
		RegionID      int64  `json:"id_reg"`
		SowingPeriod  string `json:"periode_semis"`
		HarvestPeriod string `json:"periode_recolte"`
	} `json:"calendrier"`
	Diseases []struct {
		ID        int64  `json:"id_parasite"`
		Name      string `json:"nom"`
		Treatment string `json:"traitement"`
	} `json:"maladies"`
	Affected []struct {
		CropID    int64 `json:"id_culture"`
		DiseaseID int64 `json:"id_parasite"`
	} `json:"affecter"`
	Advice []struct {
		CropID       int64  `json:"id_culture"`
		Name         string `json:"nom"`
		BestPractice string `json:"bonnes_pratique"`
	} `json:"conseils"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dbPath := flag.String("db", "smartAgribot.db", "SQLite database file")
	fixturePath := flag.String("fixture", "", "JSON fixture with the reference catalog")
	flag.Parse()

	if *fixturePath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -fixture")
	}

	raw, err := os.ReadFile(*fixturePath)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}
	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		return fmt.Errorf("parse fixture: %w", err)
	}

	st, err := store.Open(*dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := seed(st.DB(), fx); err != nil {
		return err
	}

	log.Printf("seeded %s: %d regions, %d crops, %d calendar rows, %d diseases, %d advice rows",
		*dbPath, len(fx.Regions), len(fx.Crops), len(fx.Calendar), len(fx.Diseases), len(fx.Advice))
	return nil
}

func seed(db *sql.DB, fx fixture) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, table := range []string{"conseils_pratiques", "affecter", "maladies_parasites", "calendrier_cultural", "Cultures", "Region"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, r := range fx.Regions {
		if _, err := tx.Exec(
			`INSERT INTO Region (id_reg, nom, zone_climat, latitude, longitude) VALUES (?, ?, ?, ?, ?)`,
			r.ID, r.Name, r.ClimateZone, r.Latitude, r.Longitude); err != nil {
			return fmt.Errorf("insert region %q: %w", r.Name, err)
		}
	}
	for _, c := range fx.Crops {
		if _, err := tx.Exec(
			`INSERT INTO Cultures (id_culture, nom, type, description) VALUES (?, ?, ?, ?)`,
			c.ID, c.Name, c.Type, c.Description); err != nil {
			return fmt.Errorf("insert crop %q: %w", c.Name, err)
		}
	}
	for _, e := range fx.Calendar {
		if _, err := tx.Exec(
			`INSERT INTO calendrier_cultural (id_culture, id_reg, periode_semis, periode_recolte) VALUES (?, ?, ?, ?)`,
			e.CropID, e.RegionID, e.SowingPeriod, e.HarvestPeriod); err != nil {
			return fmt.Errorf("insert calendar (%d, %d): %w", e.CropID, e.RegionID, err)
		}
	}
	for _, d := range fx.Diseases {
		if _, err := tx.Exec(
			`INSERT INTO maladies_parasites (id_parasite, nom, traitement) VALUES (?, ?, ?)`,
			d.ID, d.Name, d.Treatment); err != nil {
			return fmt.Errorf("insert disease %q: %w", d.Name, err)
		}
	}
	for _, a := range fx.Affected {
		if _, err := tx.Exec(
			`INSERT INTO affecter (id_culture, id_parasite) VALUES (?, ?)`,
			a.CropID, a.DiseaseID); err != nil {
			return fmt.Errorf("insert affecter (%d, %d): %w", a.CropID, a.DiseaseID, err)
		}
	}
	for _, a := range fx.Advice {
		if _, err := tx.Exec(
			`INSERT INTO conseils_pratiques (id_culture, nom, bonnes_pratique) VALUES (?, ?, ?)`,
			a.CropID, a.Name, a.BestPractice); err != nil {
			return fmt.Errorf("insert advice for crop %d: %w", a.CropID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}
