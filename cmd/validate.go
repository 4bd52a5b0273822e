package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pmsync/ingest"
	"pmsync/models"
)

type validateOptions struct {
	utilType string
	kind     string
	sheet    string
	output   string
}

// validationReport is what validate prints for one file.
type validationReport struct {
	File     string   `yaml:"file"`
	UtilType string   `yaml:"util_type"`
	Kind     string   `yaml:"kind"`
	Valid    bool     `yaml:"valid"`
	Error    string   `yaml:"error,omitempty"`
	Readings int      `yaml:"readings"`
	Warnings []string `yaml:"warnings,omitempty"`
}

var validateOpts validateOptions

var validateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Check a utility CSV or XLSX file the way the upload endpoint does",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd.OutOrStdout(), args[0], validateOpts)
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateOpts.utilType, "util-type", string(models.Electric), "utility type of the readings")
	validateCmd.Flags().StringVar(&validateOpts.kind, "kind", string(models.ConsumptionKind), "consumption or delivery")
	validateCmd.Flags().StringVar(&validateOpts.sheet, "sheet", "", "worksheet to read from an xlsx file, the first one by default")
	validateCmd.Flags().StringVarP(&validateOpts.output, "output", "o", "text", "report format: text or yaml")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(out io.Writer, path string, opts validateOptions) error {
	utilType, ok := models.ParseUtilType(opts.utilType)
	if !ok {
		return fmt.Errorf("unknown utility type %q", opts.utilType)
	}
	kind, ok := models.ParseReadingKind(opts.kind)
	if !ok {
		return fmt.Errorf("unknown reading kind %q", opts.kind)
	}
	if opts.output != "text" && opts.output != "yaml" {
		return fmt.Errorf("unknown output format %q", opts.output)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	report := validationReport{File: filepath.Base(path), UtilType: string(utilType), Kind: string(kind)}
	var rows [][]string
	if opts.sheet != "" {
		rows, err = ingest.ReadXLSX(bytes.NewReader(data), opts.sheet)
	} else {
		rows, err = ingest.ReadFile(path, data)
	}
	if err == nil {
		layout := ingest.NewLayout(kind, utilType)
		report.Warnings, err = ingest.Validate(rows, layout)
		if err == nil {
			report.Readings = ingest.Transform(rows, layout).Len()
		}
	}
	report.Valid = err == nil
	if err != nil {
		report.Error = err.Error()
	}

	if err = writeReport(out, report, opts.output); err != nil {
		return err
	}
	if !report.Valid {
		return fmt.Errorf("%s is not valid", report.File)
	}
	return nil
}

func writeReport(out io.Writer, report validationReport, format string) error {
	if format == "yaml" {
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		if err := encoder.Encode(report); err != nil {
			return err
		}
		return encoder.Close()
	}
	status := "valid"
	if !report.Valid {
		status = "invalid: " + report.Error
	}
	_, err := fmt.Fprintf(out, "%s (%s %s): %s\nreadings: %d\n", report.File, report.UtilType, report.Kind, status, report.Readings)
	if err != nil {
		return err
	}
	if len(report.Warnings) > 0 {
		_, err = fmt.Fprintf(out, "warnings:\n  %s\n", strings.Join(report.Warnings, "\n  "))
	}
	return err
}
