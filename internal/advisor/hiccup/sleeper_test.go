package hiccup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerSleeperCompletesFullDuration(t *testing.T) {
	stop := make(chan struct{})
	started := time.Now()

	completed, err := TimerSleeper{}.Sleep(10*time.Millisecond, stop)

	require.NoError(t, err)
	assert.True(t, completed)
	assert.GreaterOrEqual(t, time.Since(started), 10*time.Millisecond)
}

func TestTimerSleeperWakesOnStop(t *testing.T) {
	stop := make(chan struct{})
	close(stop)

	completed, err := TimerSleeper{}.Sleep(time.Hour, stop)

	require.NoError(t, err)
	assert.False(t, completed)
}
