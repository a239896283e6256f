package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/advisorproject/advisor/internal/advisor/configuration"
	"github.com/advisorproject/advisor/internal/common"
	commonconfig "github.com/advisorproject/advisor/internal/common/config"
)

const CustomConfigLocation string = "config"

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "advisor",
		SilenceUsage: true,
		Short:        "Resident metrics agent measuring process scheduling hiccups and host health",
	}

	// Flags are declared on pflag.CommandLine so viper bindings see the
	// parsed values; Cobra parses the same flag instances.
	cmd.PersistentFlags().AddFlagSet(pflag.CommandLine)

	cmd.AddCommand(
		runCmd(),
		checkCmd(),
	)

	return cmd
}

func loadConfig() (configuration.AdvisorConfiguration, error) {
	var config configuration.AdvisorConfiguration
	userSpecifiedConfigs := viper.GetStringSlice(CustomConfigLocation)

	common.LoadConfig(&config, "./config/advisor", userSpecifiedConfigs)

	err := commonconfig.Validate(config)
	if err != nil {
		commonconfig.LogValidationErrors(err)
	}
	return config, err
}
