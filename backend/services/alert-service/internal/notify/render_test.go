package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"evmalert/backend/services/alert-service/internal/models"
)

var detected = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func TestRenderLowBattery(t *testing.T) {
	msg := Render(models.AlertCandidate{
		Condition:  models.ConditionLowBattery,
		DeviceID:   "D1",
		DetectedAt: detected,
		Value:      3,
	})

	assert.Equal(t, "Alert: Low battery detected on vehicle D1", msg.Subject)
	assert.Equal(t, "ID: D1\nLow charge, %: 3\nDetected at:\n2024-05-01 09:00:00", msg.Body)
}

func TestRenderFaultCode(t *testing.T) {
	msg := Render(models.AlertCandidate{
		Condition:  models.ConditionFaultCode,
		DeviceID:   "D7",
		DetectedAt: detected,
		FaultCode:  "P0AFA",
	})

	assert.Equal(t, "Alert: Fault detected on vehicle D7", msg.Subject)
	assert.Contains(t, msg.Body, "Fault: P0AFA\nDescription: Hybrid/EV battery system voltage low\n")
}

func TestRenderHighTemperature(t *testing.T) {
	msg := Render(models.AlertCandidate{
		Condition:  models.ConditionHighTemperature,
		DeviceID:   "D2",
		DetectedAt: detected,
		Value:      41.5,
	})

	assert.Contains(t, msg.Body, "High battery temperature, °C: 41.5\n")
}

func TestRenderLowSegmentVoltage(t *testing.T) {
	msg := Render(models.AlertCandidate{
		Condition:      models.ConditionLowSegmentVoltage,
		DeviceID:       "D3",
		DetectedAt:     detected,
		SegmentMessage: "Segment: Voltage, V\n3: 30.00\n",
	})

	assert.Equal(t, "ID: D3\nLow segment voltage detected\nSegment: Voltage, V\n3: 30.00\nDetected at:\n2024-05-01 09:00:00", msg.Body)
}

func TestDescribeFaultUnknown(t *testing.T) {
	assert.Equal(t, "no description available", DescribeFault("P0999"))
}
