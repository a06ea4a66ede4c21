package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goldenDir = "../harness/testdata/golden"

func TestTestCommandMissingArgs(t *testing.T) {
	_, _, err := execute(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentDir(t *testing.T) {
	_, _, err := execute(t, "test", filepath.Join(t.TempDir(), "none"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommand_AllPass(t *testing.T) {
	stdout, _, err := execute(t, "test", scenariosDir)
	require.NoError(t, err)

	assert.Contains(t, stdout, "ok   threshold_autoflush")
	assert.Contains(t, stdout, "ok   pixels_roundtrip")
	assert.Contains(t, stdout, "Test Summary: 4 passed, 0 failed, 4 total")
}

func TestTestCommand_Filter(t *testing.T) {
	stdout, _, err := execute(t, "test", scenariosDir, "--filter", "query")
	require.NoError(t, err)
	assert.Contains(t, stdout, "ok   query_mid_batch")
	assert.Contains(t, stdout, "1 total")
}

func TestTestCommand_EmptyDir(t *testing.T) {
	stdout, _, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, stdout, "No scenarios found.")
}

func TestTestCommand_GoldenMatches(t *testing.T) {
	_, _, err := execute(t, "test", scenariosDir, "--golden", goldenDir)
	require.NoError(t, err)
}

func TestTestCommand_GoldenMismatch(t *testing.T) {
	golden := t.TempDir()
	writeFile(t, filepath.Join(golden, "query_mid_batch.golden"), `{"batches":[],"scenario":"query_mid_batch"}`)

	stdout, _, err := execute(t, "test", scenariosDir, "--filter", "query", "--golden", golden, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp, data := decode(t, stdout)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 1.0, data["failed"])
	assert.Equal(t, 0.0, data["passed"])
	failures := data["failures"].([]any)
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].(map[string]any)["errors"], "trace does not match "+filepath.Join(golden, "query_mid_batch.golden")+" (run with --update to regenerate)")
}

func TestTestCommand_GoldenMissing(t *testing.T) {
	stdout, _, err := execute(t, "test", scenariosDir, "--filter", "threshold", "--golden", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, stdout, "FAIL threshold_autoflush")
	assert.Contains(t, stdout, "golden file missing")
}

func TestTestCommand_Update(t *testing.T) {
	golden := filepath.Join(t.TempDir(), "golden")

	stdout, _, err := execute(t, "test", scenariosDir, "--golden", golden, "--update")
	require.NoError(t, err)
	assert.Contains(t, stdout, "(golden updated)")

	for _, name := range []string{"pixels_roundtrip", "query_mid_batch", "state_and_queries", "threshold_autoflush"} {
		got, err := os.ReadFile(filepath.Join(golden, name+".golden"))
		require.NoError(t, err)
		want, err := os.ReadFile(filepath.Join(goldenDir, name+".golden"))
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got), name)
	}

	_, _, err = execute(t, "test", scenariosDir, "--golden", golden)
	require.NoError(t, err)
}

func TestTestCommand_UpdateRequiresGolden(t *testing.T) {
	_, _, err := execute(t, "test", scenariosDir, "--update")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_LoadFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken.yaml"), "name: [")

	stdout, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "--- "+filepath.Join(dir, "broken.yaml"))
	assert.Contains(t, stdout, "failed to load scenario")
}
