package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/drawseq/internal/store"
)

// journalRun runs a scenario into a fresh journal and returns its path.
func journalRun(t *testing.T, name, session string) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "journal.db")
	_, _, err := execute(t, "run", scenario(name), "--journal", db, "--session", session)
	require.NoError(t, err)
	return db
}

func TestTraceCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	trace, _, err := cmd.Find([]string{"trace"})
	require.NoError(t, err)

	db := trace.Flags().Lookup("db")
	require.NotNil(t, db)
	assert.Equal(t, "", db.DefValue)
	assert.NotNil(t, trace.Flags().Lookup("session"))
	assert.NotNil(t, trace.Flags().Lookup("target"))
	assert.Equal(t, "0", trace.Flags().Lookup("limit").DefValue)
}

func TestTrace_RequiresDB(t *testing.T) {
	_, _, err := execute(t, "trace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
}

func TestTrace_MissingJournal(t *testing.T) {
	_, _, err := execute(t, "trace", "--db", filepath.Join(t.TempDir(), "none.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "journal not found")
}

func TestTrace_ListsJournaledBatches(t *testing.T) {
	db := journalRun(t, "query_mid_batch", "demo")

	stdout, _, err := execute(t, "trace", "--db", db, "--format", "json")
	require.NoError(t, err)

	resp, data := decode(t, stdout)
	assert.Equal(t, "ok", resp.Status)
	stats := data["stats"].(map[string]any)
	assert.Equal(t, 1.0, stats["sessions"])
	assert.Equal(t, 2.0, stats["batches"])
	assert.Equal(t, 4.0, stats["instructions"])

	batches := data["batches"].([]any)
	require.Len(t, batches, 2)
	first := batches[0].(map[string]any)
	assert.Equal(t, "demo", first["session"])
	assert.Equal(t, "canvas-1", first["target"])
	assert.Equal(t, 3.0, first["count"])
	assert.Nil(t, first["instructions"])
}

func TestTrace_ReusedSessionAppends(t *testing.T) {
	db := journalRun(t, "query_mid_batch", "demo")
	_, _, err := execute(t, "run", scenario("query_mid_batch"), "--journal", db, "--session", "demo")
	require.NoError(t, err)

	stdout, _, err := execute(t, "trace", "--db", db, "--format", "json")
	require.NoError(t, err)

	_, data := decode(t, stdout)
	batches := data["batches"].([]any)
	require.Len(t, batches, 4)
	for i, b := range batches {
		assert.Equal(t, float64(i+1), b.(map[string]any)["seq"])
	}
}

func TestTrace_Limit(t *testing.T) {
	db := journalRun(t, "query_mid_batch", "demo")

	stdout, _, err := execute(t, "trace", "--db", db, "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "SESSION  TARGET")
	assert.Contains(t, stdout, "Batches:      2")
	assert.NotContains(t, stdout, "=== Batch ")
}

func TestTrace_OneBatch(t *testing.T) {
	db := journalRun(t, "query_mid_batch", "demo")

	stdout, _, err := execute(t, "trace", "--db", db, "--session", "demo", "--seq", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "=== Batch 1 ===")
	assert.Contains(t, stdout, `measure_text`)
	assert.Contains(t, stdout, `{"code_page":65001,"text":"hi"}`)
}

func TestTrace_SeqRequiresSession(t *testing.T) {
	_, _, err := execute(t, "trace", "--db", "x.db", "--seq", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTrace_UnknownBatch(t *testing.T) {
	db := journalRun(t, "query_mid_batch", "demo")

	_, _, err := execute(t, "trace", "--db", db, "--session", "demo", "--seq", "9")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "no batch 9 in session demo")
}

func TestVerify_Clean(t *testing.T) {
	db := journalRun(t, "state_and_queries", "s1")

	stdout, _, err := execute(t, "verify", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "ok   1 session(s) verified")
}

func TestVerify_DetectsTampering(t *testing.T) {
	db := journalRun(t, "state_and_queries", "s1")

	st, err := store.Open(db)
	require.NoError(t, err)
	_, err = st.DB().Exec(`UPDATE batches SET hash = 'tampered' WHERE session = 's1' AND seq = 2`)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	stdout, _, err := execute(t, "verify", "--db", db, "--session", "s1", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp, data := decode(t, stdout)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeVerify, resp.Error.Code)
	mismatches := data["mismatches"].([]any)
	require.Len(t, mismatches, 1)
	m := mismatches[0].(map[string]any)
	assert.Equal(t, 2.0, m["seq"])
	assert.Equal(t, "tampered", m["stored"])
}

func TestTrace_FailedFilter(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "journal.db")
	path := writeFile(t, filepath.Join(dir, "bad_gradient.yaml"), `
name: bad_gradient
description: "an unknown gradient id fails the second batch"
steps:
  - op: fill_rect
    args: {x: 0, y: 0, w: 1, h: 1}
  - op: flush
  - op: set_fill_style_gradient
    args: {id: 99}
  - op: flush
    error: "unknown id"
assertions:
  - {type: dispatch_count, count: 2}
`)
	_, _, err := execute(t, "run", path, "--journal", db, "--session", "g")
	require.NoError(t, err)

	stdout, _, err := execute(t, "trace", "--db", db, "--failed", "--format", "json")
	require.NoError(t, err)
	_, data := decode(t, stdout)
	batches := data["batches"].([]any)
	require.Len(t, batches, 1)
	b := batches[0].(map[string]any)
	assert.Equal(t, 2.0, b["seq"])
	assert.NotEmpty(t, b["error"])

	stdout, _, err = execute(t, "trace", "--db", db, "--from-seq", "2", "--format", "json")
	require.NoError(t, err)
	_, data = decode(t, stdout)
	assert.Len(t, data["batches"], 1)
}
