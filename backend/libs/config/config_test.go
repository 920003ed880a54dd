package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleConfig struct {
	Monitor struct {
		IntervalSeconds int      `yaml:"intervalSeconds" env:"SAMPLE_MONITOR_INTERVAL"`
		SegmentFloor    float64  `yaml:"segmentFloor" env:"SAMPLE_SEGMENT_FLOOR"`
		FaultCodes      []string `yaml:"faultCodes" env:"SAMPLE_FAULT_CODES"`
	} `yaml:"monitor"`
	SMTP struct {
		Enabled bool
		Host    string
	} `yaml:"smtp"`
}

func TestLoadConfigFromYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlBody := []byte(`
monitor:
  intervalSeconds: 30
  segmentFloor: 31.5
  faultCodes: [P0A78]
smtp:
  host: mail.local
`)
	require.NoError(t, os.WriteFile(path, yamlBody, 0o600))

	t.Setenv("SAMPLE_MONITOR_INTERVAL", "10")
	t.Setenv("SAMPLE_FAULT_CODES", "P0A78, P0AFA,,P0562")
	t.Setenv("SMTP_ENABLED", "true")

	var cfg sampleConfig
	require.NoError(t, LoadConfigFrom(path, &cfg))

	assert.Equal(t, 10, cfg.Monitor.IntervalSeconds)
	assert.Equal(t, 31.5, cfg.Monitor.SegmentFloor)
	assert.Equal(t, []string{"P0A78", "P0AFA", "P0562"}, cfg.Monitor.FaultCodes)
	assert.True(t, cfg.SMTP.Enabled)
	assert.Equal(t, "mail.local", cfg.SMTP.Host)
}

func TestLoadConfigRejectsNonPointer(t *testing.T) {
	var cfg sampleConfig
	assert.Error(t, LoadConfigFrom("", cfg))
	assert.Error(t, LoadConfigFrom("", nil))
}

func TestLoadConfigReportsBadEnvValue(t *testing.T) {
	t.Setenv("SAMPLE_MONITOR_INTERVAL", "ten")

	var cfg sampleConfig
	err := LoadConfigFrom("", &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAMPLE_MONITOR_INTERVAL")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList(" a ,b, "))
	assert.Empty(t, SplitList(""))
}
