package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// cfgFile is the cleanenv yaml file read by the commands that need services.
var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pmsync",
	Short: "Utility data ingestion and ENERGY STAR Portfolio Manager sync",
	Long: `pmsync validates and stores utility bills of buildings and keeps them in
sync with ENERGY STAR Portfolio Manager properties and meters.

Example Usage:
  pmsync serve                                   # run the HTTP API
  pmsync validate bills.csv --util-type electric # check a file before upload
  pmsync sync export --org acme                  # push an organization's buildings`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the command line; main calls it once.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yml", "path to the configuration file")
}
