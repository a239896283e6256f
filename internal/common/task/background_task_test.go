package task

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTaskRunsImmediatelyAndOnInterval(t *testing.T) {
	manager := NewBackgroundTaskManager("test_immediate_")

	var runs atomic.Int64
	manager.Register(func() { runs.Add(1) }, 5*time.Millisecond, "counting_task")

	assert.Eventually(t, func() bool {
		return runs.Load() >= 3
	}, time.Second, time.Millisecond)

	timedOut := manager.StopAll(time.Second)
	assert.False(t, timedOut)
}

func TestStopAllStopsTasks(t *testing.T) {
	manager := NewBackgroundTaskManager("test_stop_")

	var runs atomic.Int64
	manager.Register(func() { runs.Add(1) }, time.Millisecond, "stoppable_task")

	timedOut := manager.StopAll(time.Second)
	assert.False(t, timedOut)

	after := runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

func TestStopAllReportsTimeout(t *testing.T) {
	manager := NewBackgroundTaskManager("test_timeout_")

	blocker := make(chan struct{})
	manager.Register(func() { <-blocker }, time.Millisecond, "blocking_task")

	timedOut := manager.StopAll(10 * time.Millisecond)
	assert.True(t, timedOut)

	close(blocker)
}
