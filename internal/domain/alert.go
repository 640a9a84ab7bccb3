package domain

import "time"

// AlertType identifies which threshold predicate produced an alert.
type AlertType string

const (
	AlertDrought     AlertType = "secheresse"
	AlertFlood       AlertType = "inondation"
	AlertViolentWind AlertType = "vent_violent"
	AlertIntenseCold AlertType = "froid_intense"
)

// AlertLevel is the fixed severity attached to an alert type.
type AlertLevel string

const (
	LevelDanger  AlertLevel = "danger"
	LevelWarning AlertLevel = "warning"
)

// Alert is a stored weather alert. RegionID is 0 when the alert is not bound
// to a region (stored as NULL). Advice round-trips losslessly through the
// JSON-encoded conseils column.
type Alert struct {
	ID         int64      `json:"id"`
	Type       AlertType  `json:"type"`
	Level      AlertLevel `json:"niveau"`
	Title      string     `json:"titre"`
	Message    string     `json:"message"`
	Advice     []string   `json:"conseils,omitempty"`
	RegionID   int64      `json:"region_id,omitempty"`
	RegionName string     `json:"region_nom,omitempty"`
	CreatedAt  time.Time  `json:"timestamp"`
	Read       bool       `json:"est_lue"`
}

// AlertStats aggregates counts over unread alerts only.
type AlertStats struct {
	UnreadCount int            `json:"non_lues"`
	ByType      map[string]int `json:"par_type"`
	ByLevel     map[string]int `json:"par_niveau"`
}
