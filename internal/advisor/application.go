package advisor

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/advisorproject/advisor/internal/advisor/configuration"
	"github.com/advisorproject/advisor/internal/advisor/hiccup"
	"github.com/advisorproject/advisor/internal/advisor/hostmetrics"
	"github.com/advisorproject/advisor/internal/common/agenterrors"
	"github.com/advisorproject/advisor/internal/common/logging"
	"github.com/advisorproject/advisor/internal/common/task"
)

const backgroundTaskShutdownTimeout = 10 * time.Second

// StartUp wires the agent together: it validates the runtime clock, starts
// hiccup sampling, registers the Prometheus collectors and schedules the host
// statistics refresh. It returns a shutdown function and the WaitGroup the
// caller blocks on; the WaitGroup completes once shutdown has run.
//
// An unusable clock is fatal. An unusable hiccup configuration only disables
// hiccup monitoring: the agent still exports host statistics.
func StartUp(config configuration.AdvisorConfiguration) (func(), *sync.WaitGroup, error) {
	wg := &sync.WaitGroup{}
	wg.Add(1)

	if err := hiccup.ValidateClock(hiccup.SystemClock{}); err != nil {
		return nil, nil, errors.WithMessage(err, "refusing to start without a usable monotonic clock")
	}

	monitor := hiccup.NewMonitor(config.Hiccup, hiccup.SystemClock{}, hiccup.TimerSleeper{})
	if err := monitor.Start(); err != nil {
		var invalid *agenterrors.ErrInvalidArgument
		if !errors.As(err, &invalid) {
			return nil, nil, err
		}
		logging.WithStacktrace(log.NewEntry(log.StandardLogger()), err).Error("Hiccup monitoring disabled")
		monitor = nil
	}
	if monitor != nil {
		prometheus.MustRegister(hiccup.NewCollector(monitor))
	}

	statsProvider := hostmetrics.NewGopsutilStatsProvider(config.HostMetrics.DiskPaths)
	hostCollector := hostmetrics.NewCollector(statsProvider, config.HostMetrics.CollectionTimeout)
	prometheus.MustRegister(hostCollector)

	taskManager := task.NewBackgroundTaskManager("advisor_")
	taskManager.Register(hostCollector.Refresh, config.HostMetrics.CollectionInterval, "host_metrics_refresh")

	shutdown := func() {
		defer wg.Done()
		if timedOut := taskManager.StopAll(backgroundTaskShutdownTimeout); timedOut {
			log.Warnf("Background tasks did not stop within %s", backgroundTaskShutdownTimeout)
		}
		if monitor != nil {
			monitor.Stop()
		}
		log.Info("Shutdown complete")
	}
	return shutdown, wg, nil
}
