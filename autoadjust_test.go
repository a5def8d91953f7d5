package taskpool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnableAutoAdjust_RejectsBadWatermarks(t *testing.T) {
	p, err := New(Config{InitialCount: 2})
	require.NoError(t, err)
	defer p.Destroy()

	err = p.EnableAutoAdjust(0, 1, time.Second)
	assert.ErrorIs(t, err, ErrArgumentInvalid)

	err = p.EnableAutoAdjust(5, -1, time.Second)
	assert.ErrorIs(t, err, ErrArgumentInvalid)

	err = p.EnableAutoAdjust(5, 1, 0)
	assert.ErrorIs(t, err, ErrArgumentInvalid)
}

func TestEnableAutoAdjust_RejectsAfterShutdown(t *testing.T) {
	p, err := New(Config{InitialCount: 2})
	require.NoError(t, err)
	require.NoError(t, p.Destroy())

	err = p.EnableAutoAdjust(5, 1, time.Second)
	assert.ErrorIs(t, err, ErrStateInvalid)
}

func TestDisableAutoAdjust_NoopWhenNeverEnabled(t *testing.T) {
	p, err := New(Config{InitialCount: 2})
	require.NoError(t, err)
	defer p.Destroy()

	assert.NoError(t, p.DisableAutoAdjust())
}

func TestEnableThenDisableAutoAdjust_StopsController(t *testing.T) {
	p, err := New(Config{InitialCount: 2, MinThreads: 1, MaxThreads: 8})
	require.NoError(t, err)
	defer p.Destroy()

	require.NoError(t, p.EnableAutoAdjust(2, 1, 20*time.Millisecond))
	time.Sleep(60 * time.Millisecond)
	require.NoError(t, p.DisableAutoAdjust())

	assert.False(t, p.autoAdjust.enabled.Load())
	assert.False(t, p.autoAdjust.running)
}

func TestEnableAutoAdjust_ReconfiguringRunningControllerIsFine(t *testing.T) {
	p, err := New(Config{InitialCount: 2, MinThreads: 1, MaxThreads: 8})
	require.NoError(t, err)
	defer p.Destroy()

	require.NoError(t, p.EnableAutoAdjust(2, 1, 200*time.Millisecond))
	require.NoError(t, p.EnableAutoAdjust(3, 0, 50*time.Millisecond))

	assert.Equal(t, int64(3), p.autoAdjust.highWatermark.Load())
	assert.Equal(t, int64(0), p.autoAdjust.lowWatermark.Load())
}

func TestAutoAdjust_ShrinksIdlePoolToMinThreads(t *testing.T) {
	p, err := New(Config{InitialCount: 6, MinThreads: 2, MaxThreads: 8})
	require.NoError(t, err)
	defer p.Destroy()

	require.NoError(t, p.EnableAutoAdjust(1000, 0, 20*time.Millisecond))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && p.Stats().ThreadCount != 2 {
		time.Sleep(20 * time.Millisecond)
	}
	assert.Equal(t, 2, p.Stats().ThreadCount)
}
