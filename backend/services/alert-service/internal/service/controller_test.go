package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"evmalert/backend/services/alert-service/internal/models"
)

func TestControllerStartsOnce(t *testing.T) {
	monitor := newTestMonitor(&fakeSource{}, &recordingDispatcher{})
	controller := NewController(monitor, monitor.suppressor, zap.NewNop())

	require.NoError(t, controller.Start("42"))
	assert.ErrorIs(t, controller.Start("43"), ErrAlreadyRunning)

	status := controller.Status()
	assert.True(t, status.Running)
	assert.Equal(t, "42", status.Origin)
	assert.NotNil(t, status.StartedAt)
	assert.Nil(t, status.LastIteration)
}

func TestControllerRunUsesFirstOrigin(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	source := &fakeSource{}
	source.set([]models.TelemetryRow{lowBatteryRow("D1", 9*60, 1)}, nil)
	dispatcher := &recordingDispatcher{after: cancel}
	monitor := newTestMonitor(source, dispatcher)
	controller := NewController(monitor, monitor.suppressor, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- controller.Run(ctx) }()
	require.NoError(t, controller.Start("42"))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("controller did not stop")
	}

	require.Equal(t, 1, dispatcher.count())
	assert.Equal(t, "42", dispatcher.calls[0].origin)

	status := controller.Status()
	assert.Equal(t, int64(1), status.Iterations)
	require.Len(t, status.Suppression.Entries, 1)
	assert.Equal(t, "D1", status.Suppression.Entries[0].DeviceID)
}

func TestControllerRunReturnsWithoutStart(t *testing.T) {
	monitor := newTestMonitor(&fakeSource{}, &recordingDispatcher{})
	controller := NewController(monitor, monitor.suppressor, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, controller.Run(ctx))
	assert.False(t, controller.Status().Running)
}
