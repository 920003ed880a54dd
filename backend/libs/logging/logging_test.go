package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	assert.Equal(t, zapcore.DebugLevel, levelFromEnv())

	t.Setenv("LOG_LEVEL", "loud")
	assert.Equal(t, zapcore.InfoLevel, levelFromEnv())
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("alert-service")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
