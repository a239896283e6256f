package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/advisorproject/advisor/internal/advisor/hiccup"
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and probe the runtime clock, then exit",
		RunE:  runChecks,
	}
	return cmd
}

// runChecks performs the same preflight the agent runs at startup: it loads
// and validates configuration, probes the clock for a monotonic reading and
// round-trips one sampler start/stop.
func runChecks(_ *cobra.Command, _ []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	if err := hiccup.ValidateClock(hiccup.SystemClock{}); err != nil {
		return err
	}
	monitor := hiccup.NewMonitor(config.Hiccup, hiccup.SystemClock{}, hiccup.TimerSleeper{})
	if err := monitor.Start(); err != nil {
		return err
	}
	monitor.Stop()
	log.Info("Configuration and clock checks passed")
	return nil
}
