package configuration

import "time"

type AdvisorConfiguration struct {
	// Port the Prometheus metrics endpoint binds to.
	MetricsPort uint16 `validate:"required"`
	// Port the health endpoints bind to.
	HttpPort uint16 `validate:"required"`

	Hiccup      HiccupConfiguration
	HostMetrics HostMetricsConfiguration
}

type HiccupConfiguration struct {
	// Sampling resolution: how long each measurement sleep requests. Plain
	// integers in config files are read as nanoseconds. Deliberately carries no
	// validate tag: a missing or non-positive resolution disables hiccup
	// monitoring at startup instead of failing the whole agent.
	Resolution time.Duration
	// How long a graceful shutdown waits for the sampler to terminate.
	ShutdownTimeout time.Duration
	// Consecutive sleep failures after which the sampler declares itself
	// degraded and stops. Zero selects the built-in default.
	MaxConsecutiveSleepFailures int
	Buckets                     BucketsConfiguration
}

// BucketsConfiguration describes the exponential bucket ladder hiccups are
// recorded into: Count bounds starting at Start, each Factor apart.
type BucketsConfiguration struct {
	Start  time.Duration
	Factor float64
	Count  int
}

type HostMetricsConfiguration struct {
	// How often host statistics are refreshed.
	CollectionInterval time.Duration `validate:"required"`
	// Upper bound on a single refresh; gopsutil calls are cancelled past it.
	CollectionTimeout time.Duration
	// Mount points to report disk usage for.
	DiskPaths []string
}

// DefaultHiccupBuckets spans 50ns to roughly 1.7s in powers of two, wide
// enough to catch both scheduler jitter and multi-second GC or VM pauses.
var DefaultHiccupBuckets = BucketsConfiguration{
	Start:  50 * time.Nanosecond,
	Factor: 2,
	Count:  26,
}
