package health

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

// StartupCompleteChecker reports unhealthy until MarkComplete is called,
// so load balancers and orchestrators hold traffic until startup finishes.
type StartupCompleteChecker struct {
	complete atomic.Bool
}

func NewStartupCompleteChecker() *StartupCompleteChecker {
	return &StartupCompleteChecker{}
}

func (checker *StartupCompleteChecker) Check() error {
	if checker.complete.Load() {
		return nil
	}
	return errors.New("startup not complete")
}

func (checker *StartupCompleteChecker) MarkComplete() {
	checker.complete.Store(true)
}
