package hostmetrics

import (
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advisorproject/advisor/internal/common/logging"
)

func testStats() *HostStats {
	return &HostStats{
		CpuPercent:        12.5,
		MemoryTotalBytes:  1024,
		MemoryUsedBytes:   512,
		MemoryUsedPercent: 50,
		Load1:             1.5,
		Load5:             1.25,
		Load15:            1,
		UptimeSeconds:     3600,
		Disks: []DiskStats{
			{Path: "/", TotalBytes: 2048, UsedBytes: 1024, UsedPercent: 50},
		},
	}
}

func nullLogger() *logrus.Entry {
	return logrus.NewEntry(logging.NullLogger)
}

func TestCollectorExportsLatestReading(t *testing.T) {
	provider := NewManualStatsProvider().WithStats(testStats())
	collector := NewCollector(provider, time.Second).WithLogger(nullLogger())

	collector.Refresh()

	expected := `
# HELP advisor_host_cpu_percent Host CPU utilisation in percent, across all cores.
# TYPE advisor_host_cpu_percent gauge
advisor_host_cpu_percent 12.5
# HELP advisor_host_disk_used_percent Usage of the filesystem mounted at path, in percent.
# TYPE advisor_host_disk_used_percent gauge
advisor_host_disk_used_percent{path="/"} 50
# HELP advisor_host_memory_used_bytes Physical memory in use on the host.
# TYPE advisor_host_memory_used_bytes gauge
advisor_host_memory_used_bytes 512
# HELP advisor_host_refresh_failures_total Total number of failed host statistics refreshes.
# TYPE advisor_host_refresh_failures_total counter
advisor_host_refresh_failures_total 0
`
	require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected),
		"advisor_host_cpu_percent",
		"advisor_host_disk_used_percent",
		"advisor_host_memory_used_bytes",
		"advisor_host_refresh_failures_total"))
}

func TestCollectorExportsNothingBeforeFirstReading(t *testing.T) {
	provider := NewManualStatsProvider().WithStats(testStats())
	collector := NewCollector(provider, time.Second).WithLogger(nullLogger())

	// Only the failure counter exists until the first refresh lands.
	assert.Equal(t, 1, testutil.CollectAndCount(collector))
}

func TestCollectorKeepsPreviousReadingOnFailure(t *testing.T) {
	provider := NewManualStatsProvider().WithStats(testStats())
	collector := NewCollector(provider, time.Second).WithLogger(nullLogger())

	collector.Refresh()
	provider.WithError(errors.New("scripted collection failure"))
	collector.Refresh()

	expected := `
# HELP advisor_host_cpu_percent Host CPU utilisation in percent, across all cores.
# TYPE advisor_host_cpu_percent gauge
advisor_host_cpu_percent 12.5
# HELP advisor_host_refresh_failures_total Total number of failed host statistics refreshes.
# TYPE advisor_host_refresh_failures_total counter
advisor_host_refresh_failures_total 1
`
	require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected),
		"advisor_host_cpu_percent",
		"advisor_host_refresh_failures_total"))
}

func TestCollectorBoundsSlowCollections(t *testing.T) {
	provider := NewManualStatsProvider().WithStats(testStats()).WithCollectionDelay(time.Second)
	collector := NewCollector(provider, 10*time.Millisecond).WithLogger(nullLogger())

	started := time.Now()
	collector.Refresh()

	assert.Less(t, time.Since(started), time.Second)
	assert.Equal(t, 1, testutil.CollectAndCount(collector))
}

func TestCollectorAppliesMetricsPrefix(t *testing.T) {
	provider := NewManualStatsProvider().WithStats(testStats())
	collector := NewCollector(provider, time.Second).WithMetricsPrefix("custom_").WithLogger(nullLogger())

	collector.Refresh()

	expected := `
# HELP custom_host_uptime_seconds Seconds since the host booted.
# TYPE custom_host_uptime_seconds gauge
custom_host_uptime_seconds 3600
`
	require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected), "custom_host_uptime_seconds"))
}
