package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gomaic/domain/core"
	"gomaic/domain/scan"
	"gomaic/internal/profiling"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "ERROR")
	t.Setenv("MAIC_CONFIG", "")

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestRunCommand_JSON(t *testing.T) {
	out, _, err := execute(t, "", "run", "--correlations=-0.3,0.3", "--sample-size", "300", "--json")
	require.NoError(t, err)

	var report scan.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Results, 2)
	assert.Equal(t, -0.3, report.Results[0].Correlation)
	assert.Equal(t, 300, report.Config.SampleSize)
	for _, r := range report.Results {
		require.True(t, r.OK())
		assert.LessOrEqual(t, r.Diagnostics.ESS, 300.0)
	}
}

func TestRunCommand_TableMarksFailures(t *testing.T) {
	out, _, err := execute(t, "", "run", "--correlations", "0.2,1,0.4", "--sample-size", "200")
	require.NoError(t, err)

	assert.Contains(t, out, "no data")
	assert.Contains(t, out, string(core.KindInvalidParameter))
	assert.Contains(t, out, "1 of 3 correlation values failed")
	assert.Contains(t, out, "trend:")
}

func TestRunCommand_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.xlsx")
	_, _, err := execute(t, "", "run", "--correlations", "0", "--sample-size", "100", "--xlsx", path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRunCommand_Errors(t *testing.T) {
	_, _, err := execute(t, "", "run", "--correlations", "a,b")
	assert.Error(t, err)

	_, _, err = execute(t, "", "run", "--correlations", "0", "--solver", "simplex")
	assert.Error(t, err)

	_, _, err = execute(t, "", "run", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestESSCommand(t *testing.T) {
	out, _, err := execute(t, "", "ess", "1", "1", "1", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "n=4 ESS=4.0000 ESS/n=1.0000")

	// (1+3)^2 / (1+9) = 1.6
	out, _, err = execute(t, "1\n3\n", "ess")
	require.NoError(t, err)
	assert.Contains(t, out, "ESS=1.6000")

	_, _, err = execute(t, "", "ess")
	assert.Error(t, err)
	_, _, err = execute(t, "", "ess", "--", "1", "-2")
	assert.Error(t, err)
	_, _, err = execute(t, "", "ess", "0", "0")
	assert.Error(t, err)
}

func TestProfileCommand(t *testing.T) {
	out, _, err := execute(t, "", "profile", "--correlations", "0.5", "--sample-size", "500", "--json")
	require.NoError(t, err)

	var profiles []profiling.CohortProfile
	require.NoError(t, json.Unmarshal([]byte(out), &profiles))
	require.Len(t, profiles, 1)
	assert.Equal(t, 0.5, profiles[0].Requested)
	for _, gp := range profiles[0].Groups {
		assert.Equal(t, 500, gp.Size)
		assert.InDelta(t, 0.5, gp.Correlation, 0.15)
	}

	_, _, err = execute(t, "", "profile", "--correlations", "1")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "maicscan dev\n", out)
}
