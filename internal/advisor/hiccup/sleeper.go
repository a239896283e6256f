package hiccup

import "time"

// Sleeper is the suspension primitive the sampler measures against. Sleep must
// genuinely yield the goroutine to the scheduler; a busy-wait would mask the
// very scheduling delay being measured.
type Sleeper interface {
	// Sleep suspends the caller for d or until stop is closed, whichever comes
	// first. It returns true if the full duration elapsed and false if the
	// sleep was interrupted.
	Sleep(d time.Duration, stop <-chan struct{}) (bool, error)
}

// TimerSleeper suspends on a runtime timer.
type TimerSleeper struct{}

func (TimerSleeper) Sleep(d time.Duration, stop <-chan struct{}) (bool, error) {
	timer := time.NewTimer(d)
	select {
	case <-timer.C:
		return true, nil
	case <-stop:
		if !timer.Stop() {
			<-timer.C
		}
		return false, nil
	}
}
