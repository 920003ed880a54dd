package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"evmalert/backend/services/alert-service/internal/metrics"
	"evmalert/backend/services/alert-service/internal/models"
)

// DefaultPollInterval is the pause between two poll iterations.
const DefaultPollInterval = 10 * time.Second

// DefaultFetchLimit is how many latest rows are read from each table.
const DefaultFetchLimit = 1000

// TelemetrySource reads the latest telemetry, newest first.
type TelemetrySource interface {
	LatestReadings(ctx context.Context, limit int) ([]models.TelemetryRow, error)
	LatestPacks(ctx context.Context, limit int) ([]models.PackRawReading, error)
}

// AlertDispatcher delivers one admitted alert.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, origin string, candidate models.AlertCandidate) error
}

// MonitorSettings tune the poll loop.
type MonitorSettings struct {
	Interval     time.Duration
	FetchLimit   int
	SegmentFloor float64
}

// IterationResult summarises one poll iteration.
type IterationResult struct {
	Iteration      int64
	Candidates     int
	Admitted       int
	Delivered      int
	DecodeFailures int
}

// Monitor runs the fetch, evaluate, suppress and dispatch pipeline.
type Monitor struct {
	source     TelemetrySource
	evaluator  *Evaluator
	suppressor *Suppressor
	dispatcher AlertDispatcher
	settings   MonitorSettings
	logger     *zap.Logger

	mu         sync.Mutex
	iterations int64
	lastRun    time.Time
}

// NewMonitor wires the pipeline.
func NewMonitor(source TelemetrySource, evaluator *Evaluator, suppressor *Suppressor, dispatcher AlertDispatcher, settings MonitorSettings, logger *zap.Logger) *Monitor {
	if settings.Interval <= 0 {
		settings.Interval = DefaultPollInterval
	}
	if settings.FetchLimit <= 0 {
		settings.FetchLimit = DefaultFetchLimit
	}
	if settings.SegmentFloor <= 0 {
		settings.SegmentFloor = DefaultSegmentFloor
	}
	return &Monitor{
		source:     source,
		evaluator:  evaluator,
		suppressor: suppressor,
		dispatcher: dispatcher,
		settings:   settings,
		logger:     logger,
	}
}

// Run polls until ctx is cancelled. Iterations never overlap.
func (m *Monitor) Run(ctx context.Context, origin string) error {
	m.logger.Info("starting telemetry polling", zap.String("origin", origin), zap.Duration("interval", m.settings.Interval))
	for {
		if _, err := m.RunOnce(ctx, origin); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.logger.Error("poll iteration abandoned", zap.Error(err))
		}

		timer := time.NewTimer(m.settings.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunOnce performs one iteration. A fetch error abandons it before anything is dispatched.
func (m *Monitor) RunOnce(ctx context.Context, origin string) (IterationResult, error) {
	started := time.Now()
	defer func() {
		metrics.IterationDuration.Observe(time.Since(started).Seconds())
	}()

	result := IterationResult{Iteration: m.nextIteration()}
	m.logger.Info("polling iteration", zap.Int64("iteration", result.Iteration))

	rows, err := m.source.LatestReadings(ctx, m.settings.FetchLimit)
	if err != nil {
		metrics.FetchFailures.Inc()
		return result, err
	}
	raw, err := m.source.LatestPacks(ctx, m.settings.FetchLimit)
	if err != nil {
		metrics.FetchFailures.Inc()
		return result, err
	}

	decoded, decodeErrs := DecodePacks(raw)
	packs, aggErrs := LowSegmentPacks(decoded, m.settings.SegmentFloor)
	for _, err := range append(decodeErrs, aggErrs...) {
		metrics.DecodeFailures.Inc()
		m.logger.Warn("skipping pack row", zap.Error(err))
	}
	result.DecodeFailures = len(decodeErrs) + len(aggErrs)

	candidates := m.evaluator.Evaluate(rows, packs)
	result.Candidates = len(candidates)
	for _, c := range candidates {
		metrics.Candidates.WithLabelValues(string(c.Condition)).Inc()
	}

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !m.suppressor.Admit(ctx, c) {
			continue
		}
		result.Admitted++
		metrics.Admitted.WithLabelValues(string(c.Condition)).Inc()
		m.logger.Error("alert condition detected", alertFields(c)...)

		if err := m.dispatcher.Dispatch(ctx, origin, c); err != nil {
			m.logger.Warn("alert delivery incomplete",
				zap.String("condition", string(c.Condition)),
				zap.String("device_id", c.DeviceID),
				zap.Error(err),
			)
			continue
		}
		result.Delivered++
	}

	metrics.PollIterations.Inc()
	m.mu.Lock()
	m.lastRun = time.Now().UTC()
	m.mu.Unlock()
	return result, nil
}

func (m *Monitor) nextIteration() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.iterations++
	return m.iterations
}

// Progress returns the iteration counter and the end time of the last completed iteration.
func (m *Monitor) Progress() (int64, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.iterations, m.lastRun
}

func alertFields(c models.AlertCandidate) []zap.Field {
	fields := []zap.Field{
		zap.String("condition", string(c.Condition)),
		zap.String("device_id", c.DeviceID),
		zap.Time("detected_at", c.DetectedAt),
	}
	switch c.Condition {
	case models.ConditionFaultCode:
		fields = append(fields, zap.String("value", c.FaultCode))
	case models.ConditionLowSegmentVoltage:
		fields = append(fields, zap.Int("low_segments", len(c.LowSegments)))
	default:
		fields = append(fields, zap.String("value", strconv.FormatFloat(c.Value, 'f', -1, 64)))
	}
	return fields
}
