package bus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evmalert/backend/services/alert-service/internal/models"
)

type recordingConn struct {
	subjects []string
	payloads [][]byte
}

func (c *recordingConn) Publish(subject string, data []byte) error {
	c.subjects = append(c.subjects, subject)
	c.payloads = append(c.payloads, data)
	return nil
}

func TestPublishUsesConditionSubject(t *testing.T) {
	rc := &recordingConn{}
	p := &Publisher{conn: rc, prefix: "alerts"}
	event := models.AlertEvent{
		ID:         "e-1",
		Condition:  models.ConditionHighTemperature,
		DeviceID:   "EVM-3",
		DetectedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Subject:    "Alert: High temperature EVM-3",
	}

	require.NoError(t, p.Publish(context.Background(), event))

	assert.Equal(t, []string{"alerts.high_temperature"}, rc.subjects)
	var got models.AlertEvent
	require.NoError(t, json.Unmarshal(rc.payloads[0], &got))
	assert.Equal(t, event, got)
}

func TestPublishHonoursCancelledContext(t *testing.T) {
	rc := &recordingConn{}
	p := &Publisher{conn: rc}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.Publish(ctx, models.AlertEvent{}), context.Canceled)
	assert.Empty(t, rc.subjects)
	assert.Equal(t, "low_battery", p.Subject(models.ConditionLowBattery))
	assert.Equal(t, "nats", p.Name())
}
