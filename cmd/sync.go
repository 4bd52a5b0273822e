package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pmsync/internal/config"
	"pmsync/models"
	"pmsync/server"
)

var syncOrg string

var syncCmd = &cobra.Command{
	Use:       "sync import|export",
	Short:     "Run a Portfolio Manager import or export for an organization and print the log",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(models.ImportJob), string(models.ExportJob)},
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

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var results []models.BuildingResult
		switch models.JobKind(args[0]) {
		case models.ImportJob:
			results, err = cs.Portfolio().ImportOrganization(ctx, syncOrg)
		default:
			results, err = cs.Portfolio().ExportOrganization(ctx, syncOrg)
		}
		if printErr := printResults(cmd, results); printErr != nil {
			return printErr
		}
		return err
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncOrg, "org", "", "organization id")
	_ = syncCmd.MarkFlagRequired("org")
	rootCmd.AddCommand(syncCmd)
}

func printResults(cmd *cobra.Command, results []models.BuildingResult) error {
	if len(results) == 0 {
		return nil
	}
	encoder := yaml.NewEncoder(cmd.OutOrStdout())
	defer func() {
		_ = encoder.Close()
	}()
	return encoder.Encode(results)
}
