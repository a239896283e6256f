package hiccup

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advisorproject/advisor/internal/advisor/configuration"
	"github.com/advisorproject/advisor/internal/common/agenterrors"
)

func TestMonitorRejectsNonPositiveResolution(t *testing.T) {
	for _, resolution := range []time.Duration{0, -time.Millisecond} {
		config := configuration.HiccupConfiguration{Resolution: resolution}
		monitor := NewMonitor(config, SystemClock{}, TimerSleeper{}).WithLogger(nullLogger())

		err := monitor.Start()
		require.Error(t, err)
		var invalid *agenterrors.ErrInvalidArgument
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, "hiccup.resolution", invalid.Name)
		assert.Equal(t, Stopped, monitor.State())
	}
}

func TestMonitorRejectsInvalidBucketLadder(t *testing.T) {
	config := configuration.HiccupConfiguration{
		Resolution: time.Millisecond,
		Buckets:    configuration.BucketsConfiguration{Start: time.Microsecond, Factor: 1, Count: 3},
	}
	monitor := NewMonitor(config, SystemClock{}, TimerSleeper{}).WithLogger(nullLogger())

	err := monitor.Start()
	require.Error(t, err)
	var invalid *agenterrors.ErrInvalidArgument
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "hiccup.buckets", invalid.Name)
}

func TestMonitorAppliesDefaultBucketLadder(t *testing.T) {
	config := configuration.HiccupConfiguration{Resolution: time.Hour}
	monitor := NewMonitor(config, SystemClock{}, TimerSleeper{}).WithLogger(nullLogger())

	require.NoError(t, monitor.Start())
	defer monitor.Stop()

	snapshot := monitor.Snapshot()
	require.Len(t, snapshot.Buckets, configuration.DefaultHiccupBuckets.Count)
	assert.Equal(t, configuration.DefaultHiccupBuckets.Start, snapshot.Buckets[0].UpperBound)
}

func TestMonitorLifecycleAndHealth(t *testing.T) {
	config := configuration.HiccupConfiguration{Resolution: time.Hour, ShutdownTimeout: time.Second}
	monitor := NewMonitor(config, SystemClock{}, TimerSleeper{}).WithLogger(nullLogger())

	healthy, reason, err := monitor.IsHealthy()
	require.NoError(t, err)
	assert.False(t, healthy)
	assert.Equal(t, SamplerStoppedReason, reason)

	require.NoError(t, monitor.Start())
	assert.Error(t, monitor.Start())

	healthy, _, err = monitor.IsHealthy()
	require.NoError(t, err)
	assert.True(t, healthy)

	monitor.Stop()
	assert.Equal(t, Terminated, monitor.State())

	healthy, reason, err = monitor.IsHealthy()
	require.NoError(t, err)
	assert.False(t, healthy)
	assert.Equal(t, SamplerStoppedReason, reason)
}

func TestMonitorReportsDegradedReason(t *testing.T) {
	sleepErr := errors.New("scripted sleep failure")
	sleeper := newScriptedSleeper(sleepErr, sleepErr, sleepErr)
	clock := &scriptedClock{times: []time.Time{time.Now()}}
	config := configuration.HiccupConfiguration{Resolution: 100 * time.Nanosecond}
	monitor := NewMonitor(config, clock, sleeper).WithLogger(nullLogger())

	require.NoError(t, monitor.Start())
	require.Eventually(t, func() bool { return monitor.State() == Terminated }, 5*time.Second, time.Millisecond)

	healthy, reason, err := monitor.IsHealthy()
	require.NoError(t, err)
	assert.False(t, healthy)
	assert.Equal(t, SamplerDegradedReason, reason)
	assert.True(t, monitor.Degraded())
	assert.Equal(t, uint64(3), monitor.TotalSleepFailures())
}

func TestMonitorSnapshotBeforeStart(t *testing.T) {
	monitor := NewMonitor(configuration.HiccupConfiguration{}, SystemClock{}, TimerSleeper{}).WithLogger(nullLogger())
	snapshot := monitor.Snapshot()
	assert.Equal(t, uint64(0), snapshot.Count)
	assert.Empty(t, snapshot.Buckets)
	assert.Equal(t, uint64(0), monitor.TotalSleepFailures())
	assert.False(t, monitor.Degraded())
}
