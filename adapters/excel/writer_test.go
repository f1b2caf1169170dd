package excel

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"gomaic/domain/cohort"
	"gomaic/domain/core"
	"gomaic/domain/scan"
	"gomaic/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleReport() *scan.Report {
	cfg := testkit.ReferenceConfig(-0.5, 0.5)
	return &scan.Report{
		ScanID:      core.NewScanID(),
		Fingerprint: cfg.Fingerprint(),
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Config:      cfg,
		Results: []scan.Result{
			{
				Index: 0, Correlation: -0.5, Seed: 11, Status: scan.StatusFailed,
				Failure: &scan.Failure{Kind: core.KindBalanceInfeasible, Message: "iteration budget exhausted"},
			},
			{
				Index: 1, Correlation: 0.5, Seed: 12, Status: scan.StatusOK, Iterations: 9,
				Diagnostics: &scan.Diagnostics{
					GroupSize: 1000,
					ESS:       250,
					UnweightedMeans: map[cohort.Group]scan.GroupMeans{
						cohort.GroupSource: {cohort.X1: 0.01, cohort.X2: -0.02},
						cohort.GroupTarget: {cohort.X1: 2.03, cohort.X2: 1.98},
					},
					WeightedMeans: scan.GroupMeans{cohort.X1: 2.03, cohort.X2: 1.98},
					SMDBefore:     scan.GroupMeans{cohort.X1: -1.0, cohort.X2: -1.0},
					SMDAfter:      scan.GroupMeans{cohort.X1: 0, cohort.X2: 0},
					Weights:       scan.WeightSummary{Min: 0.01, Max: 20, CV: 1.7},
					SampleCorr:    map[cohort.Group]float64{cohort.GroupSource: 0.49, cohort.GroupTarget: 0.51},
				},
			},
		},
		Trend: &scan.Trend{Points: 1},
	}
}

func TestResultWriter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.xlsx")
	report := sampleReport()

	require.NoError(t, NewResultWriter(testkit.QuietLogger()).Write(context.Background(), report, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ResultsSheet, RunSheet}, f.GetSheetList())

	rows, err := f.GetRows(ResultsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ResultHeader, rows[0])

	failed := rows[1]
	require.Len(t, failed, len(ResultHeader))
	assert.Equal(t, "failed", failed[2])
	for i := 5; i < 5+numericColumns; i++ {
		assert.Equal(t, FailedMarker, failed[i], "column %s", ResultHeader[i])
	}
	assert.Equal(t, string(core.KindBalanceInfeasible), failed[len(failed)-2])
	assert.Equal(t, "iteration budget exhausted", failed[len(failed)-1])

	ok := rows[2]
	assert.Equal(t, "ok", ok[2])
	assert.Equal(t, "12", ok[3])
	ess, err := strconv.ParseFloat(ok[6], 64)
	require.NoError(t, err)
	assert.Equal(t, 250.0, ess)
	frac, err := strconv.ParseFloat(ok[7], 64)
	require.NoError(t, err)
	assert.Equal(t, 0.25, frac)

	run, err := f.GetRows(RunSheet)
	require.NoError(t, err)
	values := map[string]string{}
	for _, r := range run {
		require.Len(t, r, 2)
		values[r[0]] = r[1]
	}
	assert.Equal(t, report.ScanID.String(), values["scan_id"])
	assert.Equal(t, report.Fingerprint.String(), values["fingerprint"])
	assert.Equal(t, "1", values["failed"])
	assert.Equal(t, "newton", values["solver"])
	assert.Contains(t, values, "trend_slope")
}

func TestResultWriter_Errors(t *testing.T) {
	w := NewResultWriter(testkit.QuietLogger())

	err := w.Write(context.Background(), nil, filepath.Join(t.TempDir(), "x.xlsx"))
	assert.Error(t, err)

	err = w.Write(context.Background(), sampleReport(), filepath.Join(t.TempDir(), "missing", "dir", "x.xlsx"))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = w.Write(ctx, sampleReport(), filepath.Join(t.TempDir(), "x.xlsx"))
	assert.ErrorIs(t, err, context.Canceled)
}
