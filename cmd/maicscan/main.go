package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gomaic/internal/errors"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "maicscan: %v\n", err)
		stop()
		os.Exit(errors.ExitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "maicscan",
		Short: "Scan how covariate correlation affects effective sample size under entropy balancing",
		Long: `maicscan simulates two bivariate-normal cohorts for each correlation value,
reweights one cohort so its covariate means match the other (entropy balancing),
and reports the effective sample size of the weights.

Configuration comes from defaults, an optional YAML scenario file (--config or
MAIC_CONFIG) and MAIC_* environment variables. Flags override all of them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newESSCmd(),
		newProfileCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "maicscan %s\n", version)
		},
	}
}
