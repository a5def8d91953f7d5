package taskpool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExporter_Defaults(t *testing.T) {
	p, err := New(Config{InitialCount: 1})
	require.NoError(t, err)
	defer p.Destroy()

	e := NewExporter(p, ExporterConfig{Addr: ":0"})
	assert.Equal(t, "/metrics", e.config.Path)
	assert.Equal(t, "taskpool", e.config.Namespace)
	assert.NotNil(t, e.registry)
	assert.False(t, e.running)
}

func TestExporter_StartStop(t *testing.T) {
	p, err := New(Config{InitialCount: 2})
	require.NoError(t, err)
	defer p.Destroy()

	e := NewExporter(p, ExporterConfig{Addr: "127.0.0.1:0"})
	require.NoError(t, e.Start())
	assert.True(t, e.running)

	// Starting again is a no-op.
	require.NoError(t, e.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, e.Stop(ctx))
	assert.False(t, e.running)
}

func TestExporter_SampleReflectsStats(t *testing.T) {
	p, err := New(Config{InitialCount: 3})
	require.NoError(t, err)
	defer p.Destroy()

	e := NewExporter(p, ExporterConfig{Addr: "127.0.0.1:0"})
	e.sample()

	metricFamilies, err := e.registry.Gather()
	require.NoError(t, err)

	var sawThreadCount bool
	for _, mf := range metricFamilies {
		if mf.GetName() == "taskpool_thread_count" {
			sawThreadCount = true
			require.Len(t, mf.GetMetric(), 1)
			assert.Equal(t, float64(3), mf.GetMetric()[0].GetGauge().GetValue())
		}
	}
	assert.True(t, sawThreadCount)
}
