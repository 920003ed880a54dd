package service

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"evmalert/backend/services/alert-service/internal/models"
)

// ErrDecode marks a malformed raw pack payload.
var ErrDecode = errors.New("service: raw pack decode failed")

const (
	// rawVoltageChars is the hex prefix holding cell voltages; the rest carries temperatures.
	rawVoltageChars = models.CellCount * 2

	cellSlope = 0.01
	cellBias  = 1.5
)

// DecodeError describes why a single pack row could not be decoded.
type DecodeError struct {
	DeviceID string
	Reason   string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode raw pack of device %s: %s", e.DeviceID, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return ErrDecode
}

// DecodePack converts the packed hex payload into calibrated cell voltages.
func DecodePack(reading models.PackRawReading) (models.DecodedPack, error) {
	raw := reading.Raw
	if len(raw) < rawVoltageChars {
		return models.DecodedPack{}, &DecodeError{
			DeviceID: reading.DeviceID,
			Reason:   fmt.Sprintf("payload has %d chars, need %d", len(raw), rawVoltageChars),
		}
	}

	cells := make([]float64, 0, models.CellCount)
	for i := 0; i < rawVoltageChars; i += 2 {
		token := raw[i : i+2]
		value, err := strconv.ParseUint(token, 16, 8)
		if err != nil {
			return models.DecodedPack{}, &DecodeError{
				DeviceID: reading.DeviceID,
				Reason:   fmt.Sprintf("token %q at offset %d is not hex", token, i),
			}
		}
		cells = append(cells, CellVoltage(byte(value)))
	}

	return models.DecodedPack{
		RequestDatetime: reading.RequestDatetime,
		DeviceID:        reading.DeviceID,
		Cells:           cells,
	}, nil
}

// DecodePacks decodes a batch; failed rows are reported and left out.
func DecodePacks(readings []models.PackRawReading) ([]models.DecodedPack, []error) {
	packs := make([]models.DecodedPack, 0, len(readings))
	var errs []error
	for _, reading := range readings {
		pack, err := DecodePack(reading)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		packs = append(packs, pack)
	}
	return packs, errs
}

// CellVoltage applies the linear calibration U = 0.01*x + 1.5.
func CellVoltage(b byte) float64 {
	return round2(float64(b)*cellSlope + cellBias)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
