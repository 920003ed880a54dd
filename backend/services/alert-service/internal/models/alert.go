package models

import (
	"fmt"
	"time"
)

// ConditionType identifies one of the fixed alert conditions.
type ConditionType string

const (
	ConditionLowBattery        ConditionType = "low_battery"
	ConditionFaultCode         ConditionType = "fault_code"
	ConditionHighTemperature   ConditionType = "high_temperature"
	ConditionLowSegmentVoltage ConditionType = "low_segment_voltage"
)

// ConditionOrder is the order conditions are evaluated and dispatched in.
var ConditionOrder = []ConditionType{
	ConditionLowBattery,
	ConditionFaultCode,
	ConditionHighTemperature,
	ConditionLowSegmentVoltage,
}

// AlertCandidate is a detected condition not yet filtered by suppression.
type AlertCandidate struct {
	Condition  ConditionType `json:"condition"`
	DeviceID   string        `json:"device_id"`
	DetectedAt time.Time     `json:"detected_at"`

	Value          float64         `json:"value,omitempty"`
	FaultCode      string          `json:"fault_code,omitempty"`
	LowSegments    map[int]float64 `json:"low_segments,omitempty"`
	SegmentMessage string          `json:"segment_message,omitempty"`
}

// Key returns the suppression key of the candidate.
func (c AlertCandidate) Key() SuppressionKey {
	return SuppressionKey{Condition: c.Condition, DeviceID: c.DeviceID}
}

// SuppressionKey groups notifications per condition and device.
type SuppressionKey struct {
	Condition ConditionType `json:"condition"`
	DeviceID  string        `json:"device_id"`
}

func (k SuppressionKey) String() string {
	return fmt.Sprintf("%s:%s", k.Condition, k.DeviceID)
}

// SuppressionEntry is one row of a suppression snapshot.
type SuppressionEntry struct {
	SuppressionKey
	LastNotifiedAt time.Time `json:"last_notified_at"`
}

// AlertEvent is the payload published to alert feeds.
type AlertEvent struct {
	ID         string        `json:"id"`
	Condition  ConditionType `json:"condition"`
	DeviceID   string        `json:"device_id"`
	DetectedAt time.Time     `json:"detected_at"`
	Subject    string        `json:"subject"`
	Text       string        `json:"text"`
}
