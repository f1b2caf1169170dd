package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"gomaic/internal/diagnostics"
	"gomaic/internal/errors"

	"github.com/spf13/cobra"
)

func newESSCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ess [weight...]",
		Short: "Compute Kish's effective sample size of a weight vector",
		Long: `Compute (sum w)^2 / sum w^2 for the given weights.

Weights are taken from the arguments, or read whitespace-separated from stdin
when no arguments are given.

Example: echo "0.5 1 1.5 2" | maicscan ess`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var weights []float64
			var err error
			if len(args) > 0 {
				weights, err = parseWeights(args)
			} else {
				weights, err = readWeights(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}

			ess, err := diagnostics.ESS(weights)
			if err != nil {
				return errors.InvalidInput(err.Error())
			}
			summary, err := diagnostics.SummarizeWeights(weights)
			if err != nil {
				return errors.InvalidInput(err.Error())
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "n=%d ESS=%.4f ESS/n=%.4f\n", len(weights), ess, ess/float64(len(weights)))
			fmt.Fprintf(out, "weights: min=%.4g max=%.4g cv=%.4f\n", summary.Min, summary.Max, summary.CV)
			return nil
		},
	}
}

func parseWeights(fields []string) ([]float64, error) {
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("weight %q is not a number", f))
		}
		out = append(out, v)
	}
	return out, nil
}

func readWeights(r io.Reader) ([]float64, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	var fields []string
	for scanner.Scan() {
		fields = append(fields, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read weights")
	}
	if len(fields) == 0 {
		return nil, errors.InvalidInput("no weights given")
	}
	return parseWeights(fields)
}
