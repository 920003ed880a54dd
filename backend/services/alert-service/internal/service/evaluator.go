package service

import (
	"slices"
	"time"

	"evmalert/backend/services/alert-service/internal/models"
)

// Thresholds configures the fixed alert predicates.
type Thresholds struct {
	BatteryFloor       float64
	TemperatureCeiling float64
	FaultCodes         []string
}

// DefaultThresholds returns the production limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		BatteryFloor:       5,
		TemperatureCeiling: 35,
		FaultCodes:         []string{"P0A78", "P0AFA", "P0562"},
	}
}

type rowRule struct {
	condition models.ConditionType
	match     func(models.TelemetryRow) bool
	fill      func(*models.AlertCandidate, models.TelemetryRow)
}

// Evaluator turns the latest telemetry batch into alert candidates.
type Evaluator struct {
	rules []rowRule
}

// NewEvaluator builds the monitor-table rules from thresholds.
func NewEvaluator(t Thresholds) *Evaluator {
	faults := make(map[string]struct{}, len(t.FaultCodes))
	for _, code := range t.FaultCodes {
		faults[code] = struct{}{}
	}

	return &Evaluator{rules: []rowRule{
		{
			condition: models.ConditionLowBattery,
			match:     func(r models.TelemetryRow) bool { return r.Battery < t.BatteryFloor },
			fill:      func(c *models.AlertCandidate, r models.TelemetryRow) { c.Value = r.Battery },
		},
		{
			condition: models.ConditionFaultCode,
			match: func(r models.TelemetryRow) bool {
				_, ok := faults[r.ErrList]
				return ok
			},
			fill: func(c *models.AlertCandidate, r models.TelemetryRow) { c.FaultCode = r.ErrList },
		},
		{
			condition: models.ConditionHighTemperature,
			match:     func(r models.TelemetryRow) bool { return r.TemperatureBatteryAvg > t.TemperatureCeiling },
			fill:      func(c *models.AlertCandidate, r models.TelemetryRow) { c.Value = r.TemperatureBatteryAvg },
		},
	}}
}

// Evaluate returns candidates ordered by condition, then by first detection per device.
func (e *Evaluator) Evaluate(rows []models.TelemetryRow, packs []models.AggregatedPack) []models.AlertCandidate {
	var candidates []models.AlertCandidate

	for _, rule := range e.rules {
		var matched []models.TelemetryRow
		for _, row := range rows {
			if rule.match(row) {
				matched = append(matched, row)
			}
		}
		for _, row := range earliestPerDevice(matched, rowTime, rowDevice) {
			candidate := models.AlertCandidate{
				Condition:  rule.condition,
				DeviceID:   row.DeviceID,
				DetectedAt: row.RequestDatetime,
			}
			rule.fill(&candidate, row)
			candidates = append(candidates, candidate)
		}
	}

	var flagged []models.AggregatedPack
	for _, pack := range packs {
		if pack.Message != "" {
			flagged = append(flagged, pack)
		}
	}
	for _, pack := range earliestPerDevice(flagged, packTime, packDevice) {
		candidates = append(candidates, models.AlertCandidate{
			Condition:      models.ConditionLowSegmentVoltage,
			DeviceID:       pack.DeviceID,
			DetectedAt:     pack.RequestDatetime,
			LowSegments:    pack.LowSegments,
			SegmentMessage: pack.Message,
		})
	}

	return candidates
}

// earliestPerDevice sorts ascending by time and keeps the first item of each device.
func earliestPerDevice[T any](items []T, at func(T) time.Time, device func(T) string) []T {
	if len(items) == 0 {
		return nil
	}
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b T) int {
		return at(a).Compare(at(b))
	})

	seen := make(map[string]struct{}, len(sorted))
	result := make([]T, 0, len(sorted))
	for _, item := range sorted {
		id := device(item)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, item)
	}
	return result
}

func rowTime(r models.TelemetryRow) time.Time { return r.RequestDatetime }
func rowDevice(r models.TelemetryRow) string { return r.DeviceID }
func packTime(p models.AggregatedPack) time.Time { return p.RequestDatetime }
func packDevice(p models.AggregatedPack) string { return p.DeviceID }
