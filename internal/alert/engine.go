// Package alert detects adverse weather conditions and manages the stored
// alert lifecycle (unread, read, expired).
//
// Detection is threshold-based: each alert type has a fixed predicate over
// the current weather reading of a region. Detection is idempotent per
// (type, region): re-detecting the same condition replaces the stored alert
// and resets its read flag, so a persisting breach keeps resurfacing as
// unread without piling up duplicate rows.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/agrisahel/smartagribot/internal/domain"
	"github.com/agrisahel/smartagribot/internal/observability"
	"github.com/agrisahel/smartagribot/internal/store"
)

// Detection thresholds. Temperatures in degrees Celsius, humidity in
// percent, wind speed in m/s.
const (
	droughtHumidityMax = 30.0
	droughtTempMin     = 35.0
	floodHumidityMin   = 85.0
	windSpeedMin       = 10.0
	coldTempMax        = 10.0
)

// WeatherSource yields the current reading for a region.
type WeatherSource interface {
	ForRegion(ctx context.Context, regionID int64) (domain.WeatherReading, error)
}

// Publisher pushes freshly detected alerts to an external notification
// channel.
type Publisher interface {
	Publish(ctx context.Context, a domain.Alert) error
}

// Store is the persistence surface the engine needs.
type Store interface {
	Regions(ctx context.Context) ([]domain.Region, error)
	UpsertAlert(ctx context.Context, a domain.Alert) error
	Alerts(ctx context.Context, f store.AlertFilter) ([]domain.Alert, error)
	MarkAlertRead(ctx context.Context, alertID int64) error
	MarkAllAlertsRead(ctx context.Context, regionID int64) error
	DeleteAlertsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	AlertStats(ctx context.Context) (domain.AlertStats, error)
}

// Engine runs threshold detection and fronts the alert store.
type Engine struct {
	store     Store
	weather   WeatherSource
	publisher Publisher // nil when no notification channel is configured
	retention time.Duration
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewEngine creates the alert engine. publisher may be nil.
func NewEngine(st Store, weather WeatherSource, publisher Publisher, retention time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Engine {
	return &Engine{
		store:     st,
		weather:   weather,
		publisher: publisher,
		retention: retention,
		metrics:   metrics,
		logger:    logger,
	}
}

// Detect evaluates every threshold against the region's current weather and
// persists the alerts that fire. A weather fetch failure yields no alerts
// rather than an error: detection is opportunistic and the caller has
// nothing useful to do with a provider outage.
func (e *Engine) Detect(ctx context.Context, regionID int64) []domain.Alert {
	reading, err := e.weather.ForRegion(ctx, regionID)
	if err != nil {
		e.logger.Warn("alert detection skipped, weather unavailable",
			"region_id", regionID, "error", err)
		return nil
	}

	alerts := e.evaluate(reading, regionID)
	for _, a := range alerts {
		e.metrics.AlertsDetected.WithLabelValues(string(a.Type)).Inc()
		if err := e.store.UpsertAlert(ctx, a); err != nil {
			e.metrics.StoreErrors.Inc()
			e.logger.Error("alert save failed",
				"type", a.Type, "region_id", regionID, "error", err)
			continue
		}
		e.publish(ctx, a)
	}
	return alerts
}

// CheckRegions runs detection over the given regions, or every known region
// when none are given, then purges expired alerts. It returns the alerts
// detected in this pass.
func (e *Engine) CheckRegions(ctx context.Context, regionIDs []int64) ([]domain.Alert, error) {
	if len(regionIDs) == 0 {
		regions, err := e.store.Regions(ctx)
		if err != nil {
			return nil, fmt.Errorf("list regions: %w", err)
		}
		for _, r := range regions {
			regionIDs = append(regionIDs, r.ID)
		}
	}

	var detected []domain.Alert
	for _, id := range regionIDs {
		detected = append(detected, e.Detect(ctx, id)...)
	}

	if _, err := e.PurgeExpired(ctx); err != nil {
		e.metrics.StoreErrors.Inc()
		e.logger.Error("alert purge failed", "error", err)
	}
	return detected, nil
}

// ListForUser returns stored alerts, newest first.
func (e *Engine) ListForUser(ctx context.Context, f store.AlertFilter) ([]domain.Alert, error) {
	return e.store.Alerts(ctx, f)
}

// MarkRead flips one alert to read.
func (e *Engine) MarkRead(ctx context.Context, alertID int64) error {
	return e.store.MarkAlertRead(ctx, alertID)
}

// MarkAllRead flips every alert to read, scoped to one region when regionID
// is nonzero.
func (e *Engine) MarkAllRead(ctx context.Context, regionID int64) error {
	return e.store.MarkAllAlertsRead(ctx, regionID)
}

// PurgeExpired deletes alerts older than the retention window.
func (e *Engine) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := domain.Now().UTC().Add(-e.retention)
	n, err := e.store.DeleteAlertsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		e.logger.Info("expired alerts purged", "count", n)
	}
	return n, nil
}

// Stats aggregates counts over unread alerts.
func (e *Engine) Stats(ctx context.Context) (domain.AlertStats, error) {
	return e.store.AlertStats(ctx)
}

// evaluate applies every threshold predicate to one reading. The conditions
// are independent: a single reading can fire several alert types at once.
func (e *Engine) evaluate(w domain.WeatherReading, regionID int64) []domain.Alert {
	now := domain.Now().UTC()
	var alerts []domain.Alert

	if w.Humidity <= droughtHumidityMax && w.Temperature >= droughtTempMin {
		alerts = append(alerts, domain.Alert{
			Type:  domain.AlertDrought,
			Level: domain.LevelDanger,
			Title: "🌵 Alerte Sécheresse",
			Message: fmt.Sprintf("Conditions de sécheresse détectées dans la région %s. "+
				"Température élevée et humidité faible.", w.Region),
			Advice: []string{
				"Arrosez vos cultures en fin de journée",
				"Utilisez du paillage pour conserver l'humidité",
				"Évitez les travaux agricoles en milieu de journée",
			},
			RegionID:  regionID,
			CreatedAt: now,
		})
	}

	if w.Humidity >= floodHumidityMin {
		alerts = append(alerts, domain.Alert{
			Type:  domain.AlertFlood,
			Level: domain.LevelDanger,
			Title: "🌧️ Alerte Inondation",
			Message: fmt.Sprintf("Risque d'inondation détecté dans la région %s. "+
				"Humidité élevée et précipitations importantes.", w.Region),
			Advice: []string{
				"Surveillez le drainage de vos champs",
				"Protégez vos équipements agricoles",
				"Évitez les semis en zones basses",
			},
			RegionID:  regionID,
			CreatedAt: now,
		})
	}

	if w.WindSpeed >= windSpeedMin {
		alerts = append(alerts, domain.Alert{
			Type:  domain.AlertViolentWind,
			Level: domain.LevelWarning,
			Title: "💨 Vent Violent",
			Message: fmt.Sprintf("Vents forts détectés dans la région %s. "+
				"Vitesse du vent : %s m/s.", w.Region, formatMeasure(w.WindSpeed)),
			Advice: []string{
				"Protégez les jeunes plants",
				"Rentrez les équipements légers",
				"Reportez les pulvérisations",
			},
			RegionID:  regionID,
			CreatedAt: now,
		})
	}

	if w.Temperature <= coldTempMax {
		alerts = append(alerts, domain.Alert{
			Type:  domain.AlertIntenseCold,
			Level: domain.LevelWarning,
			Title: "❄️ Froid Intense",
			Message: fmt.Sprintf("Températures basses détectées dans la région %s. "+
				"Température : %s°C.", w.Region, formatMeasure(w.Temperature)),
			Advice: []string{
				"Protégez les cultures sensibles au froid",
				"Utilisez des voiles d'hivernage",
				"Évitez les arrosages en soirée",
			},
			RegionID:  regionID,
			CreatedAt: now,
		})
	}

	return alerts
}

// publish sends one alert to the notification channel, best effort.
func (e *Engine) publish(ctx context.Context, a domain.Alert) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, a); err != nil {
		e.logger.Warn("alert publish failed",
			"type", a.Type, "region_id", a.RegionID, "error", err)
		return
	}
	e.metrics.AlertsPublished.Inc()
}

// formatMeasure renders a measurement without trailing zeros (8, 12.5).
func formatMeasure(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
