package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"pmsync/internal/config"
	"pmsync/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the upload and Portfolio Manager sync API",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		cs, err := server.NewCentralSystem(conf)
		if err != nil {
			return fmt.Errorf("central system initialization failed: %w", err)
		}
		defer cs.Close()
		return cs.Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
