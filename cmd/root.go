package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/crusher/cmd/demo"
	"github.com/ValentinKolb/crusher/cmd/inspect"
	"github.com/ValentinKolb/crusher/cmd/perf"
	"github.com/ValentinKolb/crusher/cmd/run"
	"github.com/ValentinKolb/crusher/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.92.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "crusher",
		Short: "fault-injecting key-value store",
		Long: fmt.Sprintf(`crusher (v%s)

A key-value store that corrupts data on purpose. Every read and write passes
through noisy channels, a lossy cache and an exact database, so that client
code can be tested against realistic storage and transmission failures.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of crusher",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "crusher v%s\n", Version)
		},
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(run.RunCmd)
	RootCmd.AddCommand(inspect.InspectCmd)
	RootCmd.AddCommand(demo.DemoCmd)
	RootCmd.AddCommand(perf.PerfCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
