package hiccup

import (
	"sync"
	"time"

	"golang.org/x/exp/slices"
)

// Bucket is one cumulative histogram bucket: the number of recorded values
// less than or equal to UpperBound.
type Bucket struct {
	UpperBound      time.Duration
	CumulativeCount uint64
}

// Snapshot is a consistent point-in-time copy of histogram state. It shares no
// memory with the histogram and is safe to read without synchronization.
type Snapshot struct {
	Count   uint64
	Sum     time.Duration
	Max     time.Duration
	Buckets []Bucket
}

// LatencyHistogram accumulates a latency distribution over a fixed bucket
// ladder. A single mutex guards all state; writes arrive at most once per
// sampling interval and reads once per scrape, so contention is negligible.
type LatencyHistogram struct {
	mu     sync.Mutex
	bounds []time.Duration
	counts []uint64
	count  uint64
	sum    time.Duration
	max    time.Duration
}

// NewLatencyHistogram returns a histogram over the given bucket bounds. The
// bounds are copied and sorted, so the caller's slice stays untouched. Values
// above the highest bound still contribute to the count, sum and max, exactly
// as a value past the last finite bucket of a Prometheus histogram would.
func NewLatencyHistogram(bounds []time.Duration) *LatencyHistogram {
	sorted := make([]time.Duration, len(bounds))
	copy(sorted, bounds)
	slices.Sort(sorted)
	return &LatencyHistogram{
		bounds: sorted,
		counts: make([]uint64, len(sorted)),
	}
}

// ExponentialBuckets returns count bucket bounds, the first equal to start and
// each subsequent one larger by factor, truncated to whole nanoseconds.
func ExponentialBuckets(start time.Duration, factor float64, count int) []time.Duration {
	bounds := make([]time.Duration, 0, count)
	bound := float64(start)
	for i := 0; i < count; i++ {
		bounds = append(bounds, time.Duration(bound))
		bound *= factor
	}
	return bounds
}

// Record adds one value to the distribution. Negative values are recorded as
// zero: an early wake is the absence of a hiccup, not a negative one.
func (h *LatencyHistogram) Record(v time.Duration) {
	if v < 0 {
		v = 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += v
	if v > h.max {
		h.max = v
	}
	i, _ := slices.BinarySearch(h.bounds, v)
	if i < len(h.counts) {
		h.counts[i]++
	}
}

// Snapshot returns a copy of the current distribution with cumulative bucket
// counts. Cumulation happens outside the lock; monotonicity over the ascending
// bounds holds by construction.
func (h *LatencyHistogram) Snapshot() Snapshot {
	h.mu.Lock()
	counts := make([]uint64, len(h.counts))
	copy(counts, h.counts)
	snapshot := Snapshot{Count: h.count, Sum: h.sum, Max: h.max}
	h.mu.Unlock()

	buckets := make([]Bucket, len(counts))
	var cumulative uint64
	for i, c := range counts {
		cumulative += c
		buckets[i] = Bucket{UpperBound: h.bounds[i], CumulativeCount: cumulative}
	}
	snapshot.Buckets = buckets
	return snapshot
}
