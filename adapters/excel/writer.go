package excel

import (
	"context"
	"fmt"
	"time"

	"gomaic/domain/cohort"
	"gomaic/domain/scan"
	"gomaic/internal"
	"gomaic/internal/errors"

	"github.com/xuri/excelize/v2"
)

const (
	ResultsSheet = "Results"
	RunSheet     = "Run"

	// FailedMarker replaces every numeric diagnostic of a failed row.
	FailedMarker = "FAILED"
)

// ResultHeader is the header row of the Results sheet.
var ResultHeader = []string{
	"index", "correlation", "status", "seed", "iterations", "group_size",
	"ess", "ess_fraction",
	"weighted_mean_x1", "weighted_mean_x2", "target_mean_x1", "target_mean_x2",
	"smd_before_x1", "smd_before_x2", "smd_after_x1", "smd_after_x2",
	"weight_min", "weight_max", "weight_cv",
	"sample_corr_a", "sample_corr_b", "max_residual",
	"failure_kind", "failure_message",
}

// numericColumns counts the diagnostic columns between iterations and failure_kind.
const numericColumns = 17

// ResultWriter exports a scan report to an .xlsx workbook.
type ResultWriter struct {
	logger *internal.Logger
}

// NewResultWriter creates a workbook writer
func NewResultWriter(logger *internal.Logger) *ResultWriter {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ResultWriter{logger: logger}
}

// Write saves the report to path, replacing any existing file.
func (w *ResultWriter) Write(ctx context.Context, report *scan.Report, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if report == nil {
		return errors.InvalidInput("no report to export")
	}
	startTime := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ResultsSheet); err != nil {
		return errors.ExportFailed(path, err)
	}
	if err := writeRows(f, ResultsSheet, resultRows(report)); err != nil {
		return errors.ExportFailed(path, err)
	}

	if _, err := f.NewSheet(RunSheet); err != nil {
		return errors.ExportFailed(path, err)
	}
	if err := writeRows(f, RunSheet, runRows(report)); err != nil {
		return errors.ExportFailed(path, err)
	}

	if err := f.SaveAs(path); err != nil {
		return errors.ExportFailed(path, err)
	}
	w.logger.Info("exported %d rows of scan %s to %s in %.2fms",
		len(report.Results), report.ScanID, path, float64(time.Since(startTime).Nanoseconds())/1e6)
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func resultRows(report *scan.Report) [][]interface{} {
	header := make([]interface{}, len(ResultHeader))
	for i, h := range ResultHeader {
		header[i] = h
	}
	rows := [][]interface{}{header}

	for _, r := range report.Results {
		row := []interface{}{r.Index, r.Correlation, string(r.Status), fmt.Sprintf("%d", r.Seed), r.Iterations}
		if !r.OK() {
			for i := 0; i < numericColumns; i++ {
				row = append(row, FailedMarker)
			}
			kind, msg := "", ""
			if r.Failure != nil {
				kind, msg = string(r.Failure.Kind), r.Failure.Message
			}
			rows = append(rows, append(row, kind, msg))
			continue
		}

		d := r.Diagnostics
		target := d.UnweightedMeans[report.Config.ReweightGroup.Other()]
		row = append(row,
			d.GroupSize, d.ESS, d.ESS/float64(d.GroupSize),
			d.WeightedMeans[cohort.X1], d.WeightedMeans[cohort.X2],
			target[cohort.X1], target[cohort.X2],
			d.SMDBefore[cohort.X1], d.SMDBefore[cohort.X2],
			d.SMDAfter[cohort.X1], d.SMDAfter[cohort.X2],
			d.Weights.Min, d.Weights.Max, d.Weights.CV,
			d.SampleCorr[cohort.GroupSource], d.SampleCorr[cohort.GroupTarget],
			d.MaxResidual,
			"", "",
		)
		rows = append(rows, row)
	}
	return rows
}

func runRows(report *scan.Report) [][]interface{} {
	cfg := report.Config
	rows := [][]interface{}{
		{"scan_id", report.ScanID.String()},
		{"fingerprint", report.Fingerprint.String()},
		{"created_at", report.CreatedAt.Format(time.RFC3339)},
		{"sample_size", cfg.SampleSize},
		{"std_devs", fmt.Sprintf("%g,%g", cfg.StdDevs[0], cfg.StdDevs[1])},
		{"mean_a", fmt.Sprintf("%g,%g", cfg.MeanA[0], cfg.MeanA[1])},
		{"mean_b", fmt.Sprintf("%g,%g", cfg.MeanB[0], cfg.MeanB[1])},
		{"reweight_group", cfg.ReweightGroup.String()},
		{"tolerance", cfg.Tolerance},
		{"max_iterations", cfg.MaxIterations},
		{"solver", cfg.Solver},
		{"seed", cfg.Seed},
		{"workers", cfg.Workers},
		{"correlations", len(cfg.Correlations)},
		{"failed", report.Failed()},
	}
	if t := report.Trend; t != nil {
		rows = append(rows,
			[]interface{}{"trend_slope", t.Slope},
			[]interface{}{"trend_intercept", t.Intercept},
			[]interface{}{"trend_r_squared", t.RSquared},
			[]interface{}{"trend_increasing", t.Increasing},
		)
	}
	return rows
}
