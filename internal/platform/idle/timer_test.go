package idle

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerFiresOnceAfterQuietPeriod(t *testing.T) {
	var calls atomic.Int32
	timer := New(30*time.Millisecond, func() { calls.Add(1) })

	for i := 0; i < 5; i++ {
		timer.Touch()
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, int32(0), calls.Load(), "touches keep postponing the callback")

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, timer.Pending())
}

func TestTimerStopPreventsLateFire(t *testing.T) {
	var calls atomic.Int32
	timer := New(10*time.Millisecond, func() { calls.Add(1) })

	timer.Touch()
	assert.True(t, timer.Stop())
	timer.Touch()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
	assert.False(t, timer.Stop())
}

func TestTimerFlushRunsPendingCallback(t *testing.T) {
	var calls atomic.Int32
	timer := New(time.Hour, func() { calls.Add(1) })

	timer.Flush()
	assert.Equal(t, int32(0), calls.Load(), "nothing pending")

	timer.Touch()
	timer.Flush()
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, timer.Pending())
}
