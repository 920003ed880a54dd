package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrAlreadyRunning is returned when the poll loop was started before.
var ErrAlreadyRunning = errors.New("monitor: already running")

// Status describes the poll loop for the admin API.
type Status struct {
	Running       bool                `json:"running"`
	Origin        string              `json:"origin,omitempty"`
	StartedAt     *time.Time          `json:"started_at,omitempty"`
	Iterations    int64               `json:"iterations"`
	LastIteration *time.Time          `json:"last_iteration,omitempty"`
	Suppression   SuppressionSnapshot `json:"suppression"`
}

// Controller starts the poll loop at most once per process.
type Controller struct {
	monitor    *Monitor
	suppressor *Suppressor
	logger     *zap.Logger
	startCh    chan string

	mu        sync.Mutex
	started   bool
	origin    string
	startedAt time.Time
}

// NewController returns a controller waiting for its first trigger.
func NewController(monitor *Monitor, suppressor *Suppressor, logger *zap.Logger) *Controller {
	return &Controller{
		monitor:    monitor,
		suppressor: suppressor,
		logger:     logger,
		startCh:    make(chan string, 1),
	}
}

// Start requests the loop with origin as the chat that receives alerts.
func (c *Controller) Start(origin string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return ErrAlreadyRunning
	}
	c.started = true
	c.origin = origin
	c.startedAt = time.Now().UTC()
	c.startCh <- origin
	c.logger.Info("monitor start requested", zap.String("origin", origin))
	return nil
}

// Run waits for Start and then polls until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case origin := <-c.startCh:
		err := c.monitor.Run(ctx, origin)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}

// Status reports the loop state and a suppression snapshot.
func (c *Controller) Status() Status {
	c.mu.Lock()
	status := Status{Running: c.started, Origin: c.origin}
	if c.started {
		startedAt := c.startedAt
		status.StartedAt = &startedAt
	}
	c.mu.Unlock()

	iterations, last := c.monitor.Progress()
	status.Iterations = iterations
	if !last.IsZero() {
		status.LastIteration = &last
	}
	status.Suppression = c.suppressor.Snapshot()
	return status
}
