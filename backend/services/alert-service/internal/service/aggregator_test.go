package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evmalert/backend/services/alert-service/internal/models"
)

func uniformCells(v float64) []float64 {
	cells := make([]float64, models.CellCount)
	for i := range cells {
		cells[i] = v
	}
	return cells
}

func TestSegmentSumExcludesVirtualCells(t *testing.T) {
	chunk := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 100, 100}
	assert.Equal(t, 12.0, SegmentSum(chunk))
}

func TestAggregatePackHealthyPack(t *testing.T) {
	pack, err := DecodePack(models.PackRawReading{DeviceID: "D1", Raw: uniformRaw("b7")})
	require.NoError(t, err)

	aggregated, err := AggregatePack(pack, DefaultSegmentFloor)
	require.NoError(t, err)

	require.Len(t, aggregated.SegmentVoltages, models.SegmentCount)
	for i, v := range aggregated.SegmentVoltages {
		assert.Equalf(t, 39.96, v, "segment %d", i)
	}
	assert.Empty(t, aggregated.LowSegments)
	assert.Empty(t, aggregated.Message)
}

func TestAggregatePackFlagsLowSegments(t *testing.T) {
	cells := uniformCells(3.33)
	// segment 3 (index 2): physical cells at 2.5 V -> 30.00
	for i := 2 * models.CellsPerSegment; i < 2*models.CellsPerSegment+models.PhysicalPerChunk; i++ {
		cells[i] = 2.5
	}
	// segment 10 (index 9): only virtual cells drop, sum stays healthy
	cells[9*models.CellsPerSegment+12] = 0
	cells[9*models.CellsPerSegment+13] = 0
	// segment 1 (index 0): one cell sinks the sum below the floor
	cells[0] = 0

	aggregated, err := AggregatePack(models.DecodedPack{DeviceID: "D1", Cells: cells}, DefaultSegmentFloor)
	require.NoError(t, err)

	assert.Equal(t, 36.63, aggregated.SegmentVoltages[0])
	assert.Equal(t, 30.0, aggregated.SegmentVoltages[2])
	assert.Equal(t, 39.96, aggregated.SegmentVoltages[9])

	// 36.63 is above 32.4, so only segment 3 is low.
	assert.Equal(t, map[int]float64{2: 30.0}, aggregated.LowSegments)
	assert.Equal(t, "Segment: Voltage, V\n3: 30.00\n", aggregated.Message)
}

func TestAggregatePackRejectsWrongLength(t *testing.T) {
	_, err := AggregatePack(models.DecodedPack{DeviceID: "D1", Cells: make([]float64, 12)}, DefaultSegmentFloor)
	assert.Error(t, err)
}

func TestFormatLowSegmentsOrdersAscending(t *testing.T) {
	msg := FormatLowSegments(map[int]float64{9: 31.2, 0: 30.05, 4: 32.39})
	assert.Equal(t, "Segment: Voltage, V\n1: 30.05\n5: 32.39\n10: 31.20\n", msg)
	assert.Equal(t, "", FormatLowSegments(nil))
}

func TestLowSegmentPacksDropsHealthyPacks(t *testing.T) {
	low := uniformCells(2.5)
	packs := []models.DecodedPack{
		{DeviceID: "healthy", Cells: uniformCells(3.33)},
		{DeviceID: "weak", Cells: low},
		{DeviceID: "broken", Cells: []float64{1}},
	}

	result, errs := LowSegmentPacks(packs, DefaultSegmentFloor)

	require.Len(t, result, 1)
	assert.Equal(t, "weak", result[0].DeviceID)
	assert.Len(t, result[0].LowSegments, models.SegmentCount)
	assert.Len(t, errs, 1)
}
