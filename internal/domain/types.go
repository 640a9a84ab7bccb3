package domain

import (
	"context"
)

// Region is one entry of the fixed region catalog (table Region).
type Region struct {
	ID          int64   `json:"id_reg"`
	Name        string  `json:"nom"`
	ClimateZone string  `json:"zone_climat"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// Crop is one entry of the fixed crop catalog (table Cultures).
type Crop struct {
	ID          int64  `json:"id_culture"`
	Name        string `json:"nom"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// CalendarEntry holds the sowing and harvest windows for a (crop, region)
// pair. The windows are free text ("Mai - Juin"), not dates.
type CalendarEntry struct {
	ID            int64  `json:"id_calendar"`
	CropID        int64  `json:"id_culture"`
	RegionID      int64  `json:"id_reg"`
	SowingPeriod  string `json:"periode_semis"`
	HarvestPeriod string `json:"periode_recolte"`
	CropName      string `json:"culture_nom,omitempty"`
	RegionName    string `json:"region_nom,omitempty"`
}

// Disease is a disease or parasite with its treatment text.
type Disease struct {
	ID        int64  `json:"id_parasite"`
	Name      string `json:"nom"`
	Treatment string `json:"traitement"`
}

// AdviceEntry is a best-practice text attached to a crop.
type AdviceEntry struct {
	ID           int64  `json:"id_cons"`
	CropID       int64  `json:"id_culture"`
	Name         string `json:"nom"`
	BestPractice string `json:"bonnes_pratique"`
}

// WeatherReading is the flattened current-weather answer for one region.
// JSON keys match the historical meteo_cache rows.
type WeatherReading struct {
	Region      string  `json:"region"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"temperature_ressentie"`
	Humidity    float64 `json:"humidite"`
	Description string  `json:"description"`
	WindSpeed   float64 `json:"vent"`
	Pressure    float64 `json:"pression"`
}

// WeatherProvider fetches a fresh reading from the external weather API.
type WeatherProvider interface {
	CurrentWeather(ctx context.Context, region Region) (WeatherReading, error)
}

// UserContext carries per-request caller state. The default region is used
// when no region can be extracted from the message itself.
type UserContext struct {
	DefaultRegionID int64 `json:"default_region_id,omitempty"`
}

// Reply is the structured chatbot answer. Every handler returns one; no
// failure mode leaves the caller without a Reply.
type Reply struct {
	Response    string   `json:"response"`
	Suggestions []string `json:"suggestions,omitempty"`
	Data        any      `json:"data,omitempty"`
	HasAlerts   bool     `json:"has_alerts,omitempty"`
	Error       bool     `json:"error,omitempty"`
}
