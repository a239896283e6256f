package main

import (
	"os"

	"github.com/spf13/pflag"

	"github.com/advisorproject/advisor/cmd/advisor/cmd"
	"github.com/advisorproject/advisor/internal/common"
)

func init() {
	pflag.StringSlice(
		cmd.CustomConfigLocation,
		[]string{},
		"Fully qualified path to application configuration file (for multiple config files repeat this arg or separate paths with commas)",
	)
}

func main() {
	common.ConfigureLogging()
	common.BindCommandlineArguments()
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
