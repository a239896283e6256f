package hiccup

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	durationMetricName      = "hiccups_duration_seconds"
	maxDurationMetricName   = "hiccups_max_duration_seconds"
	sleepFailuresMetricName = "hiccups_sleep_failures_total"
	degradedMetricName      = "hiccups_sampler_degraded"

	componentLabel = "component"
	componentName  = "advisor"
)

// Collector exposes the monitor's state in the Prometheus exposition model.
// Collect reads a single consistent snapshot and emits only const metrics, so
// two scrapes with no samples in between render identically and a scrape can
// never observe a torn histogram.
type Collector struct {
	monitor       *Monitor
	metricsPrefix string

	durationDesc      *prometheus.Desc
	maxDurationDesc   *prometheus.Desc
	sleepFailuresDesc *prometheus.Desc
	degradedDesc      *prometheus.Desc
}

func NewCollector(monitor *Monitor) *Collector {
	c := &Collector{monitor: monitor}
	c.initialise()
	return c
}

func (c *Collector) WithMetricsPrefix(prefix string) *Collector {
	c.metricsPrefix = prefix
	c.initialise()
	return c
}

func (c *Collector) initialise() {
	constLabels := prometheus.Labels{componentLabel: componentName}
	c.durationDesc = prometheus.NewDesc(
		c.metricsPrefix+durationMetricName,
		"Distribution of detected process scheduling hiccups.",
		nil,
		constLabels,
	)
	c.maxDurationDesc = prometheus.NewDesc(
		c.metricsPrefix+maxDurationMetricName,
		"Largest scheduling hiccup observed since startup.",
		nil,
		constLabels,
	)
	c.sleepFailuresDesc = prometheus.NewDesc(
		c.metricsPrefix+sleepFailuresMetricName,
		"Total number of sampling sleeps that failed.",
		nil,
		constLabels,
	)
	c.degradedDesc = prometheus.NewDesc(
		c.metricsPrefix+degradedMetricName,
		"Whether the hiccup sampler stopped itself after repeated sleep failures (1 = degraded).",
		nil,
		constLabels,
	)
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.durationDesc
	ch <- c.maxDurationDesc
	ch <- c.sleepFailuresDesc
	ch <- c.degradedDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snapshot := c.monitor.Snapshot()

	buckets := make(map[float64]uint64, len(snapshot.Buckets))
	for _, bucket := range snapshot.Buckets {
		buckets[bucket.UpperBound.Seconds()] = bucket.CumulativeCount
	}
	ch <- prometheus.MustNewConstHistogram(c.durationDesc, snapshot.Count, snapshot.Sum.Seconds(), buckets)
	ch <- prometheus.MustNewConstMetric(c.maxDurationDesc, prometheus.GaugeValue, snapshot.Max.Seconds())
	ch <- prometheus.MustNewConstMetric(c.sleepFailuresDesc, prometheus.CounterValue, float64(c.monitor.TotalSleepFailures()))

	degraded := 0.0
	if c.monitor.Degraded() {
		degraded = 1.0
	}
	ch <- prometheus.MustNewConstMetric(c.degradedDesc, prometheus.GaugeValue, degraded)
}
