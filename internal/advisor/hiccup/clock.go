package hiccup

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/advisorproject/advisor/internal/common/agenterrors"
)

// Clock supplies the timestamps hiccups are measured with. Readings must be
// monotonically non-decreasing: subtracting two of them may never go negative,
// regardless of wall-clock adjustments.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the runtime clock. time.Now carries a monotonic reading,
// so differences between two readings are immune to NTP step changes.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// ValidateClock probes c with two consecutive readings and returns
// ErrClockUnavailable if they lack a monotonic component or run backwards.
// Sampling on a wall-only clock would let a step change corrupt the
// distribution, so callers must treat a validation failure as fatal rather
// than fall back to wall time.
func ValidateClock(c Clock) error {
	first := c.Now()
	second := c.Now()
	if !hasMonotonicReading(first) || !hasMonotonicReading(second) {
		return errors.WithStack(&agenterrors.ErrClockUnavailable{
			Message: "clock readings carry no monotonic component",
		})
	}
	if second.Sub(first) < 0 {
		return errors.WithStack(&agenterrors.ErrClockUnavailable{
			Message: "consecutive clock readings ran backwards",
		})
	}
	return nil
}

// The monotonic reading is not addressable through the time API; its presence
// is only visible in the "m=±<value>" suffix appended by time.Time.String.
func hasMonotonicReading(t time.Time) bool {
	return strings.Contains(t.String(), " m=")
}
