package hostmetrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/advisorproject/advisor/internal/common/logging"
)

// Collector caches the most recent host statistics reading and exposes it in
// the Prometheus exposition model. Refresh is driven by a background task
// rather than by scrapes, so a slow gopsutil call can never stall the metrics
// endpoint.
type Collector struct {
	provider          StatsProvider
	collectionTimeout time.Duration
	metricsPrefix     string
	log               *logrus.Entry

	mu              sync.Mutex
	latest          *HostStats
	refreshFailures uint64

	cpuPercentDesc        *prometheus.Desc
	memoryTotalDesc       *prometheus.Desc
	memoryUsedDesc        *prometheus.Desc
	memoryUsedPercentDesc *prometheus.Desc
	diskTotalDesc         *prometheus.Desc
	diskUsedDesc          *prometheus.Desc
	diskUsedPercentDesc   *prometheus.Desc
	load1Desc             *prometheus.Desc
	load5Desc             *prometheus.Desc
	load15Desc            *prometheus.Desc
	uptimeDesc            *prometheus.Desc
	refreshFailuresDesc   *prometheus.Desc
}

func NewCollector(provider StatsProvider, collectionTimeout time.Duration) *Collector {
	c := &Collector{
		provider:          provider,
		collectionTimeout: collectionTimeout,
		metricsPrefix:     "advisor_",
		log:               logrus.NewEntry(logrus.StandardLogger()).WithField("service", "HostMetrics"),
	}
	c.initialise()
	return c
}

func (c *Collector) WithMetricsPrefix(prefix string) *Collector {
	c.metricsPrefix = prefix
	c.initialise()
	return c
}

func (c *Collector) WithLogger(log *logrus.Entry) *Collector {
	c.log = log
	return c
}

func (c *Collector) initialise() {
	c.cpuPercentDesc = prometheus.NewDesc(
		c.metricsPrefix+"host_cpu_percent",
		"Host CPU utilisation in percent, across all cores.",
		nil,
		nil,
	)
	c.memoryTotalDesc = prometheus.NewDesc(
		c.metricsPrefix+"host_memory_total_bytes",
		"Total physical memory of the host.",
		nil,
		nil,
	)
	c.memoryUsedDesc = prometheus.NewDesc(
		c.metricsPrefix+"host_memory_used_bytes",
		"Physical memory in use on the host.",
		nil,
		nil,
	)
	c.memoryUsedPercentDesc = prometheus.NewDesc(
		c.metricsPrefix+"host_memory_used_percent",
		"Physical memory in use on the host, in percent.",
		nil,
		nil,
	)
	c.diskTotalDesc = prometheus.NewDesc(
		c.metricsPrefix+"host_disk_total_bytes",
		"Size of the filesystem mounted at path.",
		[]string{"path"},
		nil,
	)
	c.diskUsedDesc = prometheus.NewDesc(
		c.metricsPrefix+"host_disk_used_bytes",
		"Bytes in use on the filesystem mounted at path.",
		[]string{"path"},
		nil,
	)
	c.diskUsedPercentDesc = prometheus.NewDesc(
		c.metricsPrefix+"host_disk_used_percent",
		"Usage of the filesystem mounted at path, in percent.",
		[]string{"path"},
		nil,
	)
	c.load1Desc = prometheus.NewDesc(
		c.metricsPrefix+"host_load1",
		"Host load average over the last minute.",
		nil,
		nil,
	)
	c.load5Desc = prometheus.NewDesc(
		c.metricsPrefix+"host_load5",
		"Host load average over the last five minutes.",
		nil,
		nil,
	)
	c.load15Desc = prometheus.NewDesc(
		c.metricsPrefix+"host_load15",
		"Host load average over the last fifteen minutes.",
		nil,
		nil,
	)
	c.uptimeDesc = prometheus.NewDesc(
		c.metricsPrefix+"host_uptime_seconds",
		"Seconds since the host booted.",
		nil,
		nil,
	)
	c.refreshFailuresDesc = prometheus.NewDesc(
		c.metricsPrefix+"host_refresh_failures_total",
		"Total number of failed host statistics refreshes.",
		nil,
		nil,
	)
}

// Refresh reads fresh host statistics, bounded by the collection timeout. On
// failure the previous reading is kept: stale gauges beat gauges flapping to
// zero on every transient error.
func (c *Collector) Refresh() {
	ctx := context.Background()
	if c.collectionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.collectionTimeout)
		defer cancel()
	}
	stats, err := c.provider.Collect(ctx)
	if err != nil {
		c.mu.Lock()
		c.refreshFailures++
		c.mu.Unlock()
		logging.WithStacktrace(c.log, err).Warn("Failed to refresh host statistics")
		return
	}
	c.mu.Lock()
	c.latest = stats
	c.mu.Unlock()
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.cpuPercentDesc
	ch <- c.memoryTotalDesc
	ch <- c.memoryUsedDesc
	ch <- c.memoryUsedPercentDesc
	ch <- c.diskTotalDesc
	ch <- c.diskUsedDesc
	ch <- c.diskUsedPercentDesc
	ch <- c.load1Desc
	ch <- c.load5Desc
	ch <- c.load15Desc
	ch <- c.uptimeDesc
	ch <- c.refreshFailuresDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	stats := c.latest
	failures := c.refreshFailures
	c.mu.Unlock()

	ch <- prometheus.MustNewConstMetric(c.refreshFailuresDesc, prometheus.CounterValue, float64(failures))
	if stats == nil {
		// Nothing read yet; exporting zeros would be indistinguishable
		// from an idle host.
		return
	}
	ch <- prometheus.MustNewConstMetric(c.cpuPercentDesc, prometheus.GaugeValue, stats.CpuPercent)
	ch <- prometheus.MustNewConstMetric(c.memoryTotalDesc, prometheus.GaugeValue, float64(stats.MemoryTotalBytes))
	ch <- prometheus.MustNewConstMetric(c.memoryUsedDesc, prometheus.GaugeValue, float64(stats.MemoryUsedBytes))
	ch <- prometheus.MustNewConstMetric(c.memoryUsedPercentDesc, prometheus.GaugeValue, stats.MemoryUsedPercent)
	ch <- prometheus.MustNewConstMetric(c.load1Desc, prometheus.GaugeValue, stats.Load1)
	ch <- prometheus.MustNewConstMetric(c.load5Desc, prometheus.GaugeValue, stats.Load5)
	ch <- prometheus.MustNewConstMetric(c.load15Desc, prometheus.GaugeValue, stats.Load15)
	ch <- prometheus.MustNewConstMetric(c.uptimeDesc, prometheus.GaugeValue, float64(stats.UptimeSeconds))
	for _, diskStats := range stats.Disks {
		ch <- prometheus.MustNewConstMetric(c.diskTotalDesc, prometheus.GaugeValue, float64(diskStats.TotalBytes), diskStats.Path)
		ch <- prometheus.MustNewConstMetric(c.diskUsedDesc, prometheus.GaugeValue, float64(diskStats.UsedBytes), diskStats.Path)
		ch <- prometheus.MustNewConstMetric(c.diskUsedPercentDesc, prometheus.GaugeValue, diskStats.UsedPercent, diskStats.Path)
	}
}
