package hiccup

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/advisorproject/advisor/internal/advisor/configuration"
	"github.com/advisorproject/advisor/internal/common/agenterrors"
)

const (
	// DefaultShutdownTimeout bounds Stop when no timeout is configured.
	DefaultShutdownTimeout = 5 * time.Second

	// Reasons reported by IsHealthy.
	SamplerDegradedReason = "samplerDegraded"
	SamplerStoppedReason  = "samplerStopped"
)

// Monitor owns the sampler lifecycle: it validates configuration, builds the
// histogram and sampler, and coordinates bounded graceful shutdown. Snapshots
// remain readable after the sampler terminates, so a degraded sampler keeps
// serving its last valid distribution.
type Monitor struct {
	config  configuration.HiccupConfiguration
	clock   Clock
	sleeper Sleeper
	log     *logrus.Entry

	mu        sync.Mutex
	histogram *LatencyHistogram
	sampler   *Sampler
}

func NewMonitor(config configuration.HiccupConfiguration, clock Clock, sleeper Sleeper) *Monitor {
	return &Monitor{
		config:  config,
		clock:   clock,
		sleeper: sleeper,
		log:     logrus.NewEntry(logrus.StandardLogger()).WithField("service", "HiccupMonitor"),
	}
}

func (m *Monitor) WithLogger(log *logrus.Entry) *Monitor {
	m.log = log
	return m
}

// Start validates the configured resolution and bucket ladder, constructs the
// sampler and sets it running on its own goroutine. It returns
// ErrInvalidArgument without starting anything if the configuration is
// unusable; the caller decides whether that disables the feature or aborts.
func (m *Monitor) Start() error {
	if m.config.Resolution <= 0 {
		return errors.WithStack(&agenterrors.ErrInvalidArgument{
			Name:    "hiccup.resolution",
			Value:   m.config.Resolution,
			Message: "sampling resolution must be strictly positive",
		})
	}
	buckets := m.config.Buckets
	if buckets == (configuration.BucketsConfiguration{}) {
		buckets = configuration.DefaultHiccupBuckets
	}
	if buckets.Start <= 0 || buckets.Factor <= 1 || buckets.Count < 1 {
		return errors.WithStack(&agenterrors.ErrInvalidArgument{
			Name:    "hiccup.buckets",
			Value:   fmt.Sprintf("start=%s factor=%v count=%d", buckets.Start, buckets.Factor, buckets.Count),
			Message: "bucket ladder needs start > 0, factor > 1 and count >= 1",
		})
	}

	m.mu.Lock()
	if m.sampler != nil {
		state := m.sampler.State().String()
		m.mu.Unlock()
		return errors.WithStack(&agenterrors.ErrInvalidArgument{
			Name:    "state",
			Value:   state,
			Message: "monitor already started",
		})
	}
	m.histogram = NewLatencyHistogram(ExponentialBuckets(buckets.Start, buckets.Factor, buckets.Count))
	m.sampler = NewSampler(m.config.Resolution, m.histogram, m.clock, m.sleeper).
		WithMaxConsecutiveSleepFailures(m.config.MaxConsecutiveSleepFailures).
		WithLogger(m.log)
	sampler := m.sampler
	m.mu.Unlock()

	m.log.Infof("Starting hiccup monitoring with resolution %s", m.config.Resolution)
	return sampler.Start()
}

// Stop signals the sampler to drain and waits up to the configured shutdown
// timeout. A sampler that fails to terminate in time is logged and abandoned;
// the caller is tearing the process down regardless.
func (m *Monitor) Stop() {
	sampler := m.currentSampler()
	if sampler == nil {
		return
	}
	timeout := m.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	if !sampler.Stop(timeout) {
		m.log.Warnf("Hiccup sampler did not terminate within %s", timeout)
		return
	}
	m.log.Info("Hiccup monitoring stopped")
}

// Snapshot returns the current hiccup distribution, or an empty one if the
// monitor never started.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	histogram := m.histogram
	m.mu.Unlock()
	if histogram == nil {
		return Snapshot{}
	}
	return histogram.Snapshot()
}

func (m *Monitor) State() State {
	if sampler := m.currentSampler(); sampler != nil {
		return sampler.State()
	}
	return Stopped
}

func (m *Monitor) Degraded() bool {
	if sampler := m.currentSampler(); sampler != nil {
		return sampler.Degraded()
	}
	return false
}

func (m *Monitor) TotalSleepFailures() uint64 {
	if sampler := m.currentSampler(); sampler != nil {
		return sampler.TotalSleepFailures()
	}
	return 0
}

// IsHealthy reports whether the sampler is still producing samples, with a
// reason when it is not.
func (m *Monitor) IsHealthy() (bool, string, error) {
	if m.Degraded() {
		return false, SamplerDegradedReason, nil
	}
	if m.State() != Running {
		return false, SamplerStoppedReason, nil
	}
	return true, "", nil
}

func (m *Monitor) currentSampler() *Sampler {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sampler
}
