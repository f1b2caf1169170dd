package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"gomaic/internal/config"
	"gomaic/internal/container"
	"gomaic/internal/errors"

	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		configPath   string
		correlations string
		xlsxPath     string
		solver       string
		jsonOut      bool
		workers      int
		sampleSize   int
		seed         int64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the correlation scan",
		Long: `Run the correlation scan and print one row per correlation value.

Rows whose cohort could not be balanced are reported as failed with the reason;
the rest of the scan is unaffected.

Example: maicscan run --correlations=-0.7,0,0.7 --workers 4 --xlsx scan.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("correlations") {
				list, err := config.ParseFloatList(correlations)
				if err != nil {
					return errors.InvalidInput(fmt.Sprintf("--correlations: %v", err))
				}
				cfg.Scan.Correlations = list
			}
			if flags.Changed("sample-size") {
				cfg.Scan.SampleSize = sampleSize
			}
			if flags.Changed("workers") {
				cfg.Scan.Workers = workers
			}
			if flags.Changed("solver") {
				cfg.Scan.Solver = solver
			}
			if flags.Changed("seed") {
				cfg.Scan.Seed = seed
			}
			if flags.Changed("json") {
				cfg.Output.JSON = jsonOut
			}
			if flags.Changed("xlsx") {
				cfg.Output.XLSXPath = xlsxPath
			}

			return runScan(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML scenario file (default $MAIC_CONFIG)")
	cmd.Flags().StringVar(&correlations, "correlations", "", "Comma-separated correlation values, scanned in the given order")
	cmd.Flags().IntVar(&sampleSize, "sample-size", 1000, "Observations per group")
	cmd.Flags().IntVar(&workers, "workers", 1, "Correlation values processed concurrently")
	cmd.Flags().StringVar(&solver, "solver", "newton", "Dual solver: newton or optimize")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Base seed for deterministic simulation")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the full report as JSON")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also export the results to this .xlsx file")

	return cmd
}

func runScan(ctx context.Context, out, errOut io.Writer, cfg *config.Config) error {
	c, err := container.NewWithLogOutput(cfg, errOut)
	if err != nil {
		return err
	}

	report, err := c.Scanner.Run(ctx, cfg.Scan)
	if err != nil {
		return err
	}

	if cfg.Output.XLSXPath != "" {
		if err := c.Writer.Write(ctx, report, cfg.Output.XLSXPath); err != nil {
			return err
		}
	}

	if cfg.Output.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return printReport(out, report)
}
