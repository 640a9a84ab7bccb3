// Package domain models the SmartAgriBot reference data and chat replies.
//
// # Reference data
//
// Regions and crops are a fixed catalog seeded at deploy time and read-only at
// runtime. A crop calendar entry exists for at most one (crop, region) pair and
// carries free-text sowing and harvest windows ("Mai - Juin"). Diseases are
// many-to-many with crops through the affecter association table; advice
// entries are per-crop best-practice texts.
//
// # Weather readings
//
// A WeatherReading is the flattened OpenWeatherMap current-weather response for
// one region: metric units, French descriptions, wind in m/s, pressure in hPa.
// The JSON field names match the historical cache rows (meteo_cache.data_json),
// so cached readings written by earlier deployments still deserialize.
// Readings are served from cache only while younger than the configured cache
// duration; a fresh capture replaces the prior row for its region.
//
// # Alerts
//
// Weather alerts are derived from a reading by fixed threshold predicates:
//
//	secheresse    humidity <= 30 % and temperature >= 35 °C  (danger)
//	inondation    humidity >= 85 %                           (danger)
//	vent_violent  wind speed >= 10 m/s                       (warning)
//	froid_intense temperature <= 10 °C                       (warning)
//
// The predicates are independent: one reading can breach several of them at
// once. Alerts are upserted by (type, region): re-detecting the same condition
// replaces the stored row and resets the read flag, so at most one row per
// breached type per region exists at any time. The read flag transitions one
// way (unread to read) and rows older than the retention window are purged.
package domain
