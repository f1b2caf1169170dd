package config

import (
	"os"
	"path/filepath"
	"testing"

	"gomaic/domain/cohort"
	"gomaic/domain/scan"
	"gomaic/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MAIC_CONFIG", "MAIC_CORRELATIONS", "MAIC_SAMPLE_SIZE", "MAIC_STD_DEVS", "MAIC_MEAN_A",
		"MAIC_MEAN_B", "MAIC_TOLERANCE", "MAIC_MAX_ITERATIONS", "MAIC_REWEIGHT_GROUP",
		"MAIC_SEED", "MAIC_WORKERS", "MAIC_SOLVER", "MAIC_XLSX", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	s := cfg.Scan
	assert.Equal(t, ReferenceCorrelations, s.Correlations)
	assert.Equal(t, 1000, s.SampleSize)
	assert.Equal(t, [2]float64{2, 2}, s.StdDevs)
	assert.Equal(t, [2]float64{0, 0}, s.MeanA)
	assert.Equal(t, [2]float64{2, 2}, s.MeanB)
	assert.Equal(t, 1e-8, s.Tolerance)
	assert.Equal(t, 200, s.MaxIterations)
	assert.Equal(t, cohort.GroupSource, s.ReweightGroup)
	assert.Equal(t, int64(42), s.Seed)
	assert.Equal(t, scan.SolverNewton, s.Solver)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAIC_CORRELATIONS", "0.7, 0, -0.7")
	t.Setenv("MAIC_SAMPLE_SIZE", "500")
	t.Setenv("MAIC_MEAN_B", "1,3")
	t.Setenv("MAIC_REWEIGHT_GROUP", "1")
	t.Setenv("MAIC_WORKERS", "4")
	t.Setenv("MAIC_SOLVER", "optimize")
	t.Setenv("MAIC_XLSX", "out.xlsx")

	cfg, err := Load("")
	require.NoError(t, err)

	// input order is kept, never sorted
	assert.Equal(t, []float64{0.7, 0, -0.7}, cfg.Scan.Correlations)
	assert.Equal(t, 500, cfg.Scan.SampleSize)
	assert.Equal(t, [2]float64{1, 3}, cfg.Scan.MeanB)
	assert.Equal(t, cohort.GroupTarget, cfg.Scan.ReweightGroup)
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.Equal(t, scan.SolverOptimize, cfg.Scan.Solver)
	assert.Equal(t, "out.xlsx", cfg.Output.XLSXPath)
}

func TestLoadScenarioFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scan:
  correlations: [-0.7, 0, 0.7]
  sample_size: 250
  std_devs: [1, 3]
  tolerance: 1.0e-9
output:
  json: true
log_level: debug
`), 0o644))

	t.Setenv("MAIC_SAMPLE_SIZE", "300")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []float64{-0.7, 0, 0.7}, cfg.Scan.Correlations)
	assert.Equal(t, 300, cfg.Scan.SampleSize, "environment wins over the file")
	assert.Equal(t, [2]float64{1, 3}, cfg.Scan.StdDevs)
	assert.Equal(t, 1e-9, cfg.Scan.Tolerance)
	assert.Equal(t, 200, cfg.Scan.MaxIterations, "unset fields keep defaults")
	assert.True(t, cfg.Output.JSON)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"non-integer sample size", map[string]string{"MAIC_SAMPLE_SIZE": "lots"}},
		{"zero sample size", map[string]string{"MAIC_SAMPLE_SIZE": "0"}},
		{"negative std dev", map[string]string{"MAIC_STD_DEVS": "2,-1"}},
		{"single mean", map[string]string{"MAIC_MEAN_A": "1"}},
		{"zero tolerance", map[string]string{"MAIC_TOLERANCE": "0"}},
		{"zero workers", map[string]string{"MAIC_WORKERS": "0"}},
		{"unknown solver", map[string]string{"MAIC_SOLVER": "simplex"}},
		{"third group", map[string]string{"MAIC_REWEIGHT_GROUP": "2"}},
		{"bad correlation list", map[string]string{"MAIC_CORRELATIONS": "0.1,abc"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load("")
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestLoadRejectsUnknownYAMLField(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan:\n  sample_sise: 10\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestValidateScanAllowsOutOfRangeCorrelations(t *testing.T) {
	s := DefaultScan()
	s.Correlations = []float64{-1, 0, 1.5}
	assert.NoError(t, ValidateScan(s))

	s.Correlations = nil
	assert.Error(t, ValidateScan(s))
}

func TestParseFloatList(t *testing.T) {
	got, err := ParseFloatList(" -0.9, 0 ,0.9,")
	require.NoError(t, err)
	assert.Equal(t, []float64{-0.9, 0, 0.9}, got)

	_, err = ParseFloatList(" , ")
	assert.Error(t, err)
}
