package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"evmalert/backend/services/alert-service/internal/models"
)

// ErrFetch marks a failed read from the telemetry store.
var ErrFetch = errors.New("repository: telemetry fetch failed")

// TelemetryRepository reads the latest monitor and akb rows.
type TelemetryRepository struct {
	db *sql.DB
}

// NewTelemetryRepository returns repository.
func NewTelemetryRepository(db *sql.DB) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

// LatestReadings returns the most recent monitor rows, newest first.
func (r *TelemetryRepository) LatestReadings(ctx context.Context, limit int) ([]models.TelemetryRow, error) {
	const query = `
		SELECT request_datetime, device_id, battery, temperature_battery_avg, errlist
		FROM public.monitor
		ORDER BY request_datetime DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: monitor: %v", ErrFetch, err)
	}
	defer rows.Close()

	result := make([]models.TelemetryRow, 0, limit)
	for rows.Next() {
		var (
			row         models.TelemetryRow
			battery     sql.NullFloat64
			temperature sql.NullFloat64
			errList     sql.NullString
		)
		if err := rows.Scan(&row.RequestDatetime, &row.DeviceID, &battery, &temperature, &errList); err != nil {
			return nil, fmt.Errorf("%w: monitor scan: %v", ErrFetch, err)
		}
		row.Battery = nullableFloat(battery)
		row.TemperatureBatteryAvg = nullableFloat(temperature)
		row.ErrList = errList.String
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: monitor rows: %v", ErrFetch, err)
	}
	return result, nil
}

// LatestPacks returns the most recent raw pack rows, newest first.
func (r *TelemetryRepository) LatestPacks(ctx context.Context, limit int) ([]models.PackRawReading, error) {
	const query = `
		SELECT request_datetime, device_id, raw
		FROM public.akb
		ORDER BY request_datetime DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: akb: %v", ErrFetch, err)
	}
	defer rows.Close()

	result := make([]models.PackRawReading, 0, limit)
	for rows.Next() {
		var (
			pack models.PackRawReading
			raw  sql.NullString
		)
		if err := rows.Scan(&pack.RequestDatetime, &pack.DeviceID, &raw); err != nil {
			return nil, fmt.Errorf("%w: akb scan: %v", ErrFetch, err)
		}
		pack.Raw = raw.String
		result = append(result, pack)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: akb rows: %v", ErrFetch, err)
	}
	return result, nil
}

// nullableFloat maps NULL to NaN so no threshold comparison can match it.
func nullableFloat(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
