package kafka

import (
	"testing"
	"time"

	"github.com/agrisahel/smartagribot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	alert := domain.Alert{
		ID:        7,
		Type:      domain.AlertDrought,
		Level:     domain.LevelDanger,
		Title:     "🌵 Alerte Sécheresse",
		Message:   "Conditions de sécheresse détectées dans la région Nord.",
		Advice:    []string{"Arrosez vos cultures en fin de journée"},
		RegionID:  3,
		CreatedAt: now,
	}

	msg, err := serializeToMessage(alert)
	require.NoError(t, err)

	assert.Equal(t, []byte("3"), msg.Key)
	assert.Contains(t, string(msg.Value), `"type":"secheresse"`)
	assert.Contains(t, string(msg.Value), `"niveau":"danger"`)
	assert.Len(t, msg.Headers, 3)
	assert.Equal(t, "alert_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("secheresse"), msg.Headers[0].Value)
	assert.Equal(t, "level", msg.Headers[1].Key)
	assert.Equal(t, []byte("danger"), msg.Headers[1].Value)
	assert.Equal(t, "detected_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)
}
