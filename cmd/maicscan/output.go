package main

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"gomaic/domain/cohort"
	"gomaic/domain/scan"
)

func printReport(w io.Writer, report *scan.Report) error {
	cfg := report.Config
	fmt.Fprintf(w, "scan %s  fingerprint %s\n", report.ScanID, report.Fingerprint.Short())
	fmt.Fprintf(w, "n=%d per group, SD %g/%g, reweighting group %s to group %s, solver %s\n\n",
		cfg.SampleSize, cfg.StdDevs[0], cfg.StdDevs[1],
		cfg.ReweightGroup, cfg.ReweightGroup.Other(), cfg.Solver)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "rho\tstatus\tESS\tESS/n\titer\tmax |SMD| before\tmax |SMD| after\t")
	for _, r := range report.Results {
		if !r.OK() {
			reason := "unknown"
			if r.Failure != nil {
				reason = string(r.Failure.Kind)
			}
			fmt.Fprintf(tw, "%g\t%s\tno data\t-\t%d\t-\t-\t(%s)\n", r.Correlation, r.Status, r.Iterations, reason)
			continue
		}
		d := r.Diagnostics
		fmt.Fprintf(tw, "%g\t%s\t%.2f\t%.4f\t%d\t%.3f\t%.2g\t\n",
			r.Correlation, r.Status, d.ESS, d.ESS/float64(d.GroupSize), r.Iterations,
			maxAbsSMD(d.SMDBefore), maxAbsSMD(d.SMDAfter))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if t := report.Trend; t != nil {
		fmt.Fprintf(w, "\ntrend: ESS = %.2f + %.2f*rho over %d points (R^2 %.3f, strictly increasing: %t)\n",
			t.Intercept, t.Slope, t.Points, t.RSquared, t.Increasing)
	}
	if failed := report.Failed(); failed > 0 {
		fmt.Fprintf(w, "%d of %d correlation values failed\n", failed, len(report.Results))
	}
	return nil
}

func maxAbsSMD(m scan.GroupMeans) float64 {
	out := 0.0
	for _, key := range cohort.Covariates {
		out = math.Max(out, math.Abs(m[key]))
	}
	return out
}
