package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/extractor"
)

// workspace writes two extractor JSON sources and a config pointing at them,
// and returns the config path.
func workspace(t *testing.T) string {
	t.Helper()
	for _, v := range []string{
		"SERVER_HOST", "SERVER_PORT", "DATABASE_URL", "REDIS_URL", "SOURCE_DIR",
		"DIAGRAM_DIR", "MAX_CONCURRENT_EXTRACTIONS", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(v, "")
	}
	dir := t.TempDir()
	t.Chdir(dir)

	for name, voltage := range map[string]string{"HSR-520R.json": "24", "HSR-540F.json": "30"} {
		out := extractor.Output{
			PageText: "Relay datasheet",
			Tables:   []extractor.Table{{{"Voltage", "Nominal", "volts", voltage}}},
		}
		b, err := json.Marshal(out)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), b, 0o644))
	}

	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := `
database:
  driver: sqlite
  sqlite:
    path: ` + filepath.Join(dir, "specs.db") + `
extraction:
  source_dir: .
  diagram_dir: .
observability:
  log_level: error
  metrics_enabled: false
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return cfgPath
}

func decodeCompare(t *testing.T, out string) compareOutput {
	t.Helper()
	var got compareOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotNil(t, got.Comparison)
	return got
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestUnitsCommand_JSON(t *testing.T) {
	cfgPath := workspace(t)

	out, _, err := run(t, "--config", cfgPath, "--json", "units", "volts", "Ohms - maximum", "furlong")
	require.NoError(t, err)

	var results []unitResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	assert.Equal(t, []unitResult{
		{Raw: "volts", Standard: "V", Type: "voltage"},
		{Raw: "Ohms - maximum", Standard: "Ω - max", Type: "resistance"},
		{Raw: "furlong", Standard: "furlong"},
	}, results)
}

func TestUnitsCommand_Table(t *testing.T) {
	cfgPath := workspace(t)

	out, errOut, err := run(t, "--config", cfgPath, "--no-color", "units", "volts", "furlong")
	require.NoError(t, err)
	assert.Contains(t, out, "│ volts ")
	assert.Contains(t, out, "voltage")
	assert.Contains(t, errOut, `"furlong" is not a known unit`)
}

func TestCompareCommand_JSON(t *testing.T) {
	cfgPath := workspace(t)

	out, _, err := run(t, "--config", cfgPath, "--json", "compare", "520R", "540F")
	require.NoError(t, err)

	got := decodeCompare(t, out)
	assert.Empty(t, got.Failed)
	resp := got.Comparison
	assert.Equal(t, []string{"520R", "540F"}, resp.ModelNumbers)
	require.Equal(t, 1, resp.DifferencesCount)
	assert.Equal(t, "540F", resp.Differences[0].Model)
	assert.Equal(t, "Value of 30.0 vs 24.0", resp.Differences[0].Description)
}

func TestCompareCommand_Table(t *testing.T) {
	cfgPath := workspace(t)

	out, _, err := run(t, "--config", cfgPath, "--no-color", "compare", "520R", "540F")
	require.NoError(t, err)
	assert.Contains(t, out, "24 V")
	assert.Contains(t, out, "30 V")
	assert.Contains(t, out, "1 differences across 2 models")
}

func TestCompareCommand_Errors(t *testing.T) {
	cfgPath := workspace(t)

	_, _, err := run(t, "--config", cfgPath, "compare", "520R")
	require.Error(t, err)

	// Only one source resolves, which leaves nothing to compare against.
	_, errOut, err := run(t, "--config", cfgPath, "--no-color", "compare", "520R", "999")
	require.Error(t, err)
	assert.Contains(t, errOut, "999")
}

func TestExtractStoreThenCompareStored(t *testing.T) {
	cfgPath := workspace(t)

	out, _, err := run(t, "--config", cfgPath, "--json", "extract", "--store", "520R", "540F", "999")
	require.NoError(t, err)

	var extracted struct {
		Documents []struct {
			ModelNumber string `json:"model_number"`
			SourceHash  string `json:"source_hash"`
			Stored      bool   `json:"stored"`
		} `json:"documents"`
		Failed []failedSource `json:"failed_sources"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &extracted))
	require.Len(t, extracted.Documents, 2)
	for _, d := range extracted.Documents {
		assert.True(t, d.Stored, d.ModelNumber)
		assert.NotEmpty(t, d.SourceHash, d.ModelNumber)
	}
	require.Len(t, extracted.Failed, 1)
	assert.Equal(t, "999", extracted.Failed[0].Source)

	out, _, err = run(t, "--config", cfgPath, "--json", "compare", "--stored", "520R", "540F", "999")
	require.NoError(t, err)
	got := decodeCompare(t, out)
	assert.Equal(t, 1, got.Comparison.DifferencesCount)
	assert.Equal(t, []failedSource{{Source: "999", Error: "not stored"}}, got.Failed)
}

func TestCompareCommand_JSONReportsFailedSources(t *testing.T) {
	cfgPath := workspace(t)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(cfgPath), "HSR-560W.json"), []byte("{not json"), 0o644))

	out, _, err := run(t, "--config", cfgPath, "--json", "compare", "520R", "540F", "560W")
	require.NoError(t, err)

	got := decodeCompare(t, out)
	assert.Equal(t, []string{"520R", "540F"}, got.Comparison.ModelNumbers)
	require.Len(t, got.Failed, 1)
	assert.Equal(t, "560W", got.Failed[0].Source)
	assert.NotEmpty(t, got.Failed[0].Error)
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "--config", "/does/not/exist.yaml", "version")
	require.NoError(t, err)
	assert.Equal(t, "spec-compare-cli dev\n", out)
}
