package taskpool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResize_NoOpWhenTargetUnchanged(t *testing.T) {
	p, err := New(Config{InitialCount: 4, MinThreads: 1, MaxThreads: 8})
	require.NoError(t, err)
	defer p.Destroy()

	require.NoError(t, p.Resize(4))
	assert.Equal(t, 4, p.Stats().ThreadCount)
}

func TestResize_RejectsOutOfRange(t *testing.T) {
	p, err := New(Config{InitialCount: 2, MinThreads: 1, MaxThreads: 4})
	require.NoError(t, err)
	defer p.Destroy()

	err = p.Resize(5)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, 2, p.Stats().ThreadCount)
}

func TestResize_RejectsAfterShutdown(t *testing.T) {
	p, err := New(Config{InitialCount: 2, MinThreads: 1, MaxThreads: 4})
	require.NoError(t, err)
	require.NoError(t, p.Destroy())

	err = p.Resize(3)
	assert.ErrorIs(t, err, ErrStateInvalid)
}

func TestResize_GrowIncreasesThreadCount(t *testing.T) {
	p, err := New(Config{InitialCount: 2, MinThreads: 1, MaxThreads: 8})
	require.NoError(t, err)
	defer p.Destroy()

	require.NoError(t, p.Resize(6))
	assert.Equal(t, 6, p.Stats().ThreadCount)
	assert.Len(t, p.workers, 6)
}

func TestResize_ShrinkThenGrowDoesNotCollideIndices(t *testing.T) {
	p, err := New(Config{InitialCount: 8, MinThreads: 1, MaxThreads: 16})
	require.NoError(t, err)
	defer p.Destroy()

	require.NoError(t, p.Resize(3))
	assert.Equal(t, 3, len(p.workers))

	require.NoError(t, p.Resize(5))
	assert.Equal(t, 5, len(p.workers))

	seen := make(map[int]bool)
	for _, w := range p.workers {
		assert.False(t, seen[w.index], "duplicate worker index %d after shrink-then-grow", w.index)
		seen[w.index] = true
	}

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 5, p.Stats().ThreadCount)
}

func TestSetLimits_RejectsInvertedBounds(t *testing.T) {
	p, err := New(Config{InitialCount: 2, MinThreads: 1, MaxThreads: 4})
	require.NoError(t, err)
	defer p.Destroy()

	err = p.SetLimits(5, 2)
	assert.ErrorIs(t, err, ErrArgumentInvalid)
}

func TestSetLimits_TriggersResizeWhenOutOfBounds(t *testing.T) {
	p, err := New(Config{InitialCount: 6, MinThreads: 1, MaxThreads: 8})
	require.NoError(t, err)
	defer p.Destroy()

	require.NoError(t, p.SetLimits(1, 4))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && p.Stats().ThreadCount != 4 {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 4, p.Stats().ThreadCount)
}

func TestSetLimits_NoResizeWhenWithinBounds(t *testing.T) {
	p, err := New(Config{InitialCount: 4, MinThreads: 1, MaxThreads: 8})
	require.NoError(t, err)
	defer p.Destroy()

	require.NoError(t, p.SetLimits(2, 6))
	assert.Equal(t, 4, p.Stats().ThreadCount)
}
