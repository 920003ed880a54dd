package service

import (
	"fmt"
	"sort"
	"strings"

	"evmalert/backend/services/alert-service/internal/models"
)

// DefaultSegmentFloor is the lowest healthy segment voltage, V.
const DefaultSegmentFloor = 32.4

const segmentMessageHeader = "Segment: Voltage, V"

// SegmentSum takes the first 12 of the 14 cells of a segment and sums them.
// The two trailing virtual cells never count.
func SegmentSum(chunk []float64) float64 {
	physical := chunk
	if len(physical) > models.PhysicalPerChunk {
		physical = physical[:models.PhysicalPerChunk]
	}
	var sum float64
	for _, v := range physical {
		sum += v
	}
	return round2(sum)
}

// SegmentVoltages splits the cell sequence into 10 segments of 14 cells.
func SegmentVoltages(cells []float64) ([]float64, error) {
	if len(cells) != models.CellCount {
		return nil, fmt.Errorf("segment voltages: expected %d cells, got %d", models.CellCount, len(cells))
	}
	voltages := make([]float64, 0, models.SegmentCount)
	for start := 0; start < len(cells); start += models.CellsPerSegment {
		voltages = append(voltages, SegmentSum(cells[start:start+models.CellsPerSegment]))
	}
	return voltages, nil
}

// AggregatePack computes segment voltages and flags segments below floor.
func AggregatePack(pack models.DecodedPack, floor float64) (models.AggregatedPack, error) {
	voltages, err := SegmentVoltages(pack.Cells)
	if err != nil {
		return models.AggregatedPack{}, fmt.Errorf("device %s: %w", pack.DeviceID, err)
	}

	low := make(map[int]float64)
	for idx, v := range voltages {
		if v < floor {
			low[idx] = v
		}
	}

	aggregated := models.AggregatedPack{
		DecodedPack:     pack,
		SegmentVoltages: voltages,
	}
	if len(low) > 0 {
		aggregated.LowSegments = low
		aggregated.Message = FormatLowSegments(low)
	}
	return aggregated, nil
}

// LowSegmentPacks aggregates packs and keeps only those with a low segment message.
func LowSegmentPacks(packs []models.DecodedPack, floor float64) ([]models.AggregatedPack, []error) {
	var (
		result []models.AggregatedPack
		errs   []error
	)
	for _, pack := range packs {
		aggregated, err := AggregatePack(pack, floor)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if aggregated.Message == "" {
			continue
		}
		result = append(result, aggregated)
	}
	return result, errs
}

// FormatLowSegments renders "{n}: {voltage}" lines, 1-based, ascending.
// Returns "" for an empty map.
func FormatLowSegments(low map[int]float64) string {
	if len(low) == 0 {
		return ""
	}
	indexes := make([]int, 0, len(low))
	for idx := range low {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	var sb strings.Builder
	sb.WriteString(segmentMessageHeader)
	sb.WriteByte('\n')
	for _, idx := range indexes {
		fmt.Fprintf(&sb, "%d: %.2f\n", idx+1, low[idx])
	}
	return sb.String()
}
