// Package hiccup measures process scheduling hiccups by repeatedly sleeping
// for a fixed resolution and recording how far past the deadline each wake
// actually lands. The resulting distribution is a direct proxy for the delay
// any goroutine in the process would have experienced at that moment.
package hiccup

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/advisorproject/advisor/internal/common/agenterrors"
	"github.com/advisorproject/advisor/internal/common/logging"
)

// State of the sampler lifecycle. Transitions are one-way:
// Stopped, Running, Draining, Terminated. A sampler never re-enters Running;
// construct a fresh one to restart sampling.
type State int

const (
	Stopped State = iota
	Running
	Draining
	Terminated
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Running:
		return "Running"
	case Draining:
		return "Draining"
	case Terminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// DefaultMaxConsecutiveSleepFailures is the number of consecutive sleep
// failures after which a sampler declares itself degraded and stops.
const DefaultMaxConsecutiveSleepFailures = 3

// Sampler runs the measurement loop: sleep for resolution, read the clock,
// record the overshoot. Each iteration sleeps for resolution from now rather
// than until the next multiple of resolution; the accumulated drift is itself
// scheduling delay and is exactly what ends up in the histogram.
type Sampler struct {
	resolution                  time.Duration
	histogram                   *LatencyHistogram
	clock                       Clock
	sleeper                     Sleeper
	maxConsecutiveSleepFailures int
	log                         *logrus.Entry

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	mu                  sync.Mutex
	state               State
	spawned             bool
	degraded            bool
	consecutiveFailures int
	totalSleepFailures  uint64
}

func NewSampler(resolution time.Duration, histogram *LatencyHistogram, clock Clock, sleeper Sleeper) *Sampler {
	return &Sampler{
		resolution:                  resolution,
		histogram:                   histogram,
		clock:                       clock,
		sleeper:                     sleeper,
		maxConsecutiveSleepFailures: DefaultMaxConsecutiveSleepFailures,
		log:                         logrus.NewEntry(logrus.StandardLogger()).WithField("service", "HiccupSampler"),
		stop:                        make(chan struct{}),
		done:                        make(chan struct{}),
		state:                       Stopped,
	}
}

func (s *Sampler) WithLogger(log *logrus.Entry) *Sampler {
	s.log = log
	return s
}

// WithMaxConsecutiveSleepFailures overrides the failure threshold at which the
// sampler stops itself. Values below one keep the default.
func (s *Sampler) WithMaxConsecutiveSleepFailures(limit int) *Sampler {
	if limit >= 1 {
		s.maxConsecutiveSleepFailures = limit
	}
	return s
}

// Start transitions the sampler from Stopped to Running and spawns the
// sampling loop on its own goroutine. Starting any sampler twice, or one that
// has already terminated, is an error.
func (s *Sampler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Stopped {
		return errors.WithStack(&agenterrors.ErrInvalidArgument{
			Name:    "state",
			Value:   s.state.String(),
			Message: "sampler can only be started once, from Stopped",
		})
	}
	s.state = Running
	s.spawned = true
	go s.run()
	return nil
}

// Stop signals the sampler to drain and waits for it to terminate, or for
// timeout to elapse. The signal interrupts an in-flight sleep, so a healthy
// sampler terminates within roughly one resolution interval. Returns false if
// the timeout was hit. Stopping a sampler that never started, or one that has
// already terminated, returns true immediately.
func (s *Sampler) Stop(timeout time.Duration) bool {
	s.mu.Lock()
	spawned := s.spawned
	if !spawned {
		s.state = Terminated
	}
	s.mu.Unlock()

	s.stopOnce.Do(func() { close(s.stop) })
	if !spawned {
		return true
	}

	select {
	case <-s.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (s *Sampler) run() {
	defer close(s.done)
	s.log.Infof("Hiccup sampler running with resolution %s", s.resolution)
	for {
		start := s.clock.Now()
		completed, err := s.sleeper.Sleep(s.resolution, s.stop)
		if err != nil {
			// One failed sleep is one dropped sample, not a reason to die.
			if s.recordSleepFailure(err) {
				return
			}
		} else if !completed {
			s.drain()
			return
		} else {
			elapsed := s.clock.Now().Sub(start)
			s.resetSleepFailures()
			s.histogram.Record(elapsed - s.resolution)
		}

		// Checked once per iteration, so a stop request is honoured even when
		// every sleep errors out.
		select {
		case <-s.stop:
			s.drain()
			return
		default:
		}
	}
}

// drain passes through Draining to Terminated. The histogram is updated
// eagerly on every sample, so there is nothing left to flush; the intermediate
// state gives any buffered recording added later a defined drain point.
func (s *Sampler) drain() {
	s.setState(Draining)
	s.setState(Terminated)
	s.log.Info("Hiccup sampler terminated")
}

// recordSleepFailure counts a failed sleep and reports whether the sampler hit
// its consecutive-failure limit and terminated itself. Already-recorded
// samples stay readable after termination.
func (s *Sampler) recordSleepFailure(err error) bool {
	s.mu.Lock()
	s.consecutiveFailures++
	s.totalSleepFailures++
	failures := s.consecutiveFailures
	degraded := failures >= s.maxConsecutiveSleepFailures
	if degraded {
		s.degraded = true
	}
	s.mu.Unlock()

	logging.WithStacktrace(s.log, err).Warnf("Sampling sleep failed; dropping sample (%d consecutive failures)", failures)
	if degraded {
		degradedErr := &agenterrors.ErrSamplerDegraded{ConsecutiveFailures: failures}
		logging.WithStacktrace(s.log, degradedErr).Error("Stopping hiccup sampler")
		s.drain()
		return true
	}
	return false
}

func (s *Sampler) resetSleepFailures() {
	s.mu.Lock()
	s.consecutiveFailures = 0
	s.mu.Unlock()
}

func (s *Sampler) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Sampler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Degraded reports whether the sampler stopped itself after too many
// consecutive sleep failures.
func (s *Sampler) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *Sampler) ConsecutiveSleepFailures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consecutiveFailures
}

func (s *Sampler) TotalSleepFailures() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalSleepFailures
}
