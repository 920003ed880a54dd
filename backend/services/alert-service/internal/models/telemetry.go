package models

import "time"

// Pack geometry of the raw akb payload.
const (
	SegmentCount     = 10
	CellsPerSegment  = 14
	PhysicalPerChunk = 12
	CellCount        = SegmentCount * CellsPerSegment
)

// TelemetryRow is one reading from the monitor table.
type TelemetryRow struct {
	RequestDatetime       time.Time `db:"request_datetime" json:"request_datetime"`
	DeviceID              string    `db:"device_id" json:"device_id"`
	Battery               float64   `db:"battery" json:"battery"`
	TemperatureBatteryAvg float64   `db:"temperature_battery_avg" json:"temperature_battery_avg"`
	// ErrList is empty when the column is NULL.
	ErrList string `db:"errlist" json:"errlist,omitempty"`
}

// PackRawReading is one raw battery pack sample from the akb table.
type PackRawReading struct {
	RequestDatetime time.Time `db:"request_datetime" json:"request_datetime"`
	DeviceID        string    `db:"device_id" json:"device_id"`
	Raw             string    `db:"raw" json:"raw"`
}

// DecodedPack carries calibrated cell voltages in payload order.
type DecodedPack struct {
	RequestDatetime time.Time `json:"request_datetime"`
	DeviceID        string    `json:"device_id"`
	Cells           []float64 `json:"cells"`
}

// AggregatedPack adds per-segment sums to a decoded pack.
type AggregatedPack struct {
	DecodedPack
	SegmentVoltages []float64       `json:"segment_voltages"`
	LowSegments     map[int]float64 `json:"low_segments,omitempty"`
	// Message is empty when no segment is below the floor.
	Message string `json:"message,omitempty"`
}
