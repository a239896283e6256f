package cmd

import (
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/advisorproject/advisor/internal/advisor"
	"github.com/advisorproject/advisor/internal/common"
	"github.com/advisorproject/advisor/internal/common/app"
	"github.com/advisorproject/advisor/internal/common/health"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the metrics agent until interrupted",
		RunE:  runAgent,
	}
	return cmd
}

func runAgent(_ *cobra.Command, _ []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}

	log.Info("Starting...")

	ctx := app.CreateContextWithShutdown()

	shutdownMetricServer := common.ServeMetrics(config.MetricsPort)
	defer shutdownMetricServer()

	mux := http.NewServeMux()
	startupComplete := health.NewStartupCompleteChecker()
	health.SetupHttpMux(mux, startupComplete)
	shutdownHttpServer := common.ServeHttp(config.HttpPort, mux)
	defer shutdownHttpServer()

	shutdown, wg, err := advisor.StartUp(config)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		shutdown()
	}()
	startupComplete.MarkComplete()
	wg.Wait()
	return nil
}
