package taskpool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileConfigBytes_Valid(t *testing.T) {
	data := []byte(`
name: checkout-pool
initialCount: 4
minThreads: 2
maxThreads: 16
autoAdjust:
  enabled: true
  highWatermark: 32
  lowWatermark: 2
  interval: 500ms
metrics:
  enabled: true
  addr: ":9090"
logging:
  level: info
`)
	cfg, err := LoadFileConfigBytes(data)
	require.NoError(t, err)
	assert.Equal(t, "checkout-pool", cfg.Name)
	assert.Equal(t, 4, cfg.InitialCount)
	assert.Equal(t, 2, cfg.MinThreads)
	assert.Equal(t, 16, cfg.MaxThreads)
	assert.True(t, cfg.AutoAdjust.Enabled)
	assert.Equal(t, 32, cfg.AutoAdjust.HighWatermark)
	assert.Equal(t, 500*time.Millisecond, cfg.AutoAdjust.Interval)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
}

func TestLoadFileConfigBytes_AppliesDefaults(t *testing.T) {
	data := []byte(`
name: minimal-pool
initialCount: 3
`)
	cfg, err := LoadFileConfigBytes(data)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.MinThreads)
	assert.Equal(t, 6, cfg.MaxThreads)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
}

func TestLoadFileConfigBytes_MissingName(t *testing.T) {
	_, err := LoadFileConfigBytes([]byte(`initialCount: 3`))
	assert.ErrorIs(t, err, ErrInvalidFileConfig)
}

func TestLoadFileConfigBytes_MissingInitialCount(t *testing.T) {
	_, err := LoadFileConfigBytes([]byte(`name: p`))
	assert.ErrorIs(t, err, ErrInvalidFileConfig)
}

func TestLoadFileConfigBytes_BoundsInverted(t *testing.T) {
	data := []byte(`
name: p
initialCount: 2
minThreads: 10
maxThreads: 4
`)
	_, err := LoadFileConfigBytes(data)
	assert.ErrorIs(t, err, ErrInvalidFileConfig)
}

func TestLoadFileConfigBytes_AutoAdjustMissingHighWatermark(t *testing.T) {
	data := []byte(`
name: p
initialCount: 2
autoAdjust:
  enabled: true
`)
	_, err := LoadFileConfigBytes(data)
	assert.ErrorIs(t, err, ErrInvalidFileConfig)
}

func TestLoadFileConfig_FileNotFound(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/to/config.yaml")
	assert.ErrorIs(t, err, ErrFileConfigNotFound)
}

func TestNewFromFileConfig(t *testing.T) {
	cfg, err := LoadFileConfigBytes([]byte(`
name: from-file
initialCount: 2
`))
	require.NoError(t, err)

	p, err := NewFromFileConfig(cfg)
	require.NoError(t, err)
	defer p.Destroy()

	stats := p.Stats()
	assert.Equal(t, 2, stats.ThreadCount)
}

func TestNewFromFileConfig_AutoAdjustEnabled(t *testing.T) {
	cfg, err := LoadFileConfigBytes([]byte(`
name: with-auto-adjust
initialCount: 2
maxThreads: 8
autoAdjust:
  enabled: true
  highWatermark: 5
  lowWatermark: 1
  interval: 10ms
`))
	require.NoError(t, err)

	p, err := NewFromFileConfig(cfg)
	require.NoError(t, err)
	defer p.Destroy()

	assert.NotNil(t, p.autoAdjust)
}
