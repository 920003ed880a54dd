package service

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evmalert/backend/services/alert-service/internal/models"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 5, 1, hour, minute, 0, 0, time.UTC)
}

func healthyRow(device string, ts time.Time) models.TelemetryRow {
	return models.TelemetryRow{RequestDatetime: ts, DeviceID: device, Battery: 80, TemperatureBatteryAvg: 25}
}

func TestEvaluateLowBatteryKeepsEarliestPerDevice(t *testing.T) {
	r1 := healthyRow("D1", at(9, 5))
	r1.Battery = 2
	r2 := healthyRow("D1", at(9, 0))
	r2.Battery = 3
	r3 := healthyRow("D2", at(9, 3))
	r3.Battery = 4.9

	// store order is newest first
	candidates := NewEvaluator(DefaultThresholds()).Evaluate([]models.TelemetryRow{r1, r3, r2}, nil)

	require.Len(t, candidates, 2)
	assert.Equal(t, models.AlertCandidate{Condition: models.ConditionLowBattery, DeviceID: "D1", DetectedAt: at(9, 0), Value: 3}, candidates[0])
	assert.Equal(t, "D2", candidates[1].DeviceID)
	assert.Equal(t, 4.9, candidates[1].Value)
}

func TestEvaluateFaultCodeOnlyKnownCodes(t *testing.T) {
	known := healthyRow("D1", at(10, 0))
	known.ErrList = "P0AFA"
	unknown := healthyRow("D2", at(10, 0))
	unknown.ErrList = "P0999"
	empty := healthyRow("D3", at(10, 0))

	candidates := NewEvaluator(DefaultThresholds()).Evaluate([]models.TelemetryRow{known, unknown, empty}, nil)

	require.Len(t, candidates, 1)
	assert.Equal(t, models.ConditionFaultCode, candidates[0].Condition)
	assert.Equal(t, "P0AFA", candidates[0].FaultCode)
	assert.Equal(t, "D1", candidates[0].DeviceID)
}

func TestEvaluateBoundariesAreStrict(t *testing.T) {
	battery := healthyRow("D1", at(8, 0))
	battery.Battery = 5
	temperature := healthyRow("D2", at(8, 0))
	temperature.TemperatureBatteryAvg = 35
	hot := healthyRow("D3", at(8, 1))
	hot.TemperatureBatteryAvg = 35.1

	candidates := NewEvaluator(DefaultThresholds()).Evaluate([]models.TelemetryRow{battery, temperature, hot}, nil)

	require.Len(t, candidates, 1)
	assert.Equal(t, models.ConditionHighTemperature, candidates[0].Condition)
	assert.Equal(t, "D3", candidates[0].DeviceID)
	assert.Equal(t, 35.1, candidates[0].Value)
}

func TestEvaluateIgnoresNullReadings(t *testing.T) {
	row := models.TelemetryRow{RequestDatetime: at(8, 0), DeviceID: "D1", Battery: math.NaN(), TemperatureBatteryAvg: math.NaN()}
	assert.Empty(t, NewEvaluator(DefaultThresholds()).Evaluate([]models.TelemetryRow{row}, nil))
}

func TestEvaluateFixedConditionOrder(t *testing.T) {
	row := models.TelemetryRow{
		RequestDatetime:       at(12, 0),
		DeviceID:              "D1",
		Battery:               1,
		TemperatureBatteryAvg: 50,
		ErrList:               "P0562",
	}
	packs := []models.AggregatedPack{
		{
			DecodedPack: models.DecodedPack{DeviceID: "D1", RequestDatetime: at(12, 30)},
			LowSegments: map[int]float64{0: 30},
			Message:     "Segment: Voltage, V\n1: 30.00\n",
		},
		{
			DecodedPack: models.DecodedPack{DeviceID: "D1", RequestDatetime: at(11, 30)},
			LowSegments: map[int]float64{1: 31},
			Message:     "Segment: Voltage, V\n2: 31.00\n",
		},
		{DecodedPack: models.DecodedPack{DeviceID: "D2", RequestDatetime: at(11, 0)}},
	}

	candidates := NewEvaluator(DefaultThresholds()).Evaluate([]models.TelemetryRow{row}, packs)

	require.Len(t, candidates, 4)
	for i, cond := range models.ConditionOrder {
		assert.Equal(t, cond, candidates[i].Condition)
	}
	segment := candidates[3]
	assert.Equal(t, at(11, 30), segment.DetectedAt)
	assert.Equal(t, map[int]float64{1: 31}, segment.LowSegments)
	assert.Equal(t, "Segment: Voltage, V\n2: 31.00\n", segment.SegmentMessage)
}

func TestEvaluateCustomThresholds(t *testing.T) {
	row := healthyRow("D1", at(7, 0))
	row.Battery = 15
	row.ErrList = "U0100"

	eval := NewEvaluator(Thresholds{BatteryFloor: 20, TemperatureCeiling: 60, FaultCodes: []string{"U0100"}})
	candidates := eval.Evaluate([]models.TelemetryRow{row}, nil)

	require.Len(t, candidates, 2)
	assert.Equal(t, models.ConditionLowBattery, candidates[0].Condition)
	assert.Equal(t, models.ConditionFaultCode, candidates[1].Condition)
}
