package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	cfg := writeFile(t, filepath.Join(t.TempDir(), "drawseq.cue"), `
flush_threshold: 250
code_page: "cp437"
journal: "./journal.db"
`)

	stdout, _, err := execute(t, "validate", cfg)
	require.NoError(t, err)
	assert.Contains(t, stdout, "ok   config valid")
	assert.Contains(t, stdout, "flush_threshold: 250")
	assert.Contains(t, stdout, "surface:         640x480")
	assert.Contains(t, stdout, "allocator:       heap")
	assert.Contains(t, stdout, "journal:         ./journal.db")
}

func TestValidate_JSONDefaults(t *testing.T) {
	cfg := writeFile(t, filepath.Join(t.TempDir(), "empty.cue"), "")

	stdout, _, err := execute(t, "validate", cfg, "--format", "json")
	require.NoError(t, err)

	resp, data := decode(t, stdout)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, true, data["valid"])
	config := data["config"].(map[string]any)
	assert.Equal(t, 1000.0, config["flush_threshold"])
	assert.Equal(t, "utf-8", config["code_page"])
	assert.Equal(t, "info", config["log_level"])
	assert.Equal(t, "heap", config["allocator"])
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantCode string
	}{
		{"syntax", "flush_threshold: [\n", "E002"},
		{"schema", "flush_threshold: -4\n", "E003"},
		{"unknown field", "flush_thresold: 4\n", "E003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := writeFile(t, filepath.Join(t.TempDir(), "bad.cue"), tt.content)

			stdout, _, err := execute(t, "validate", cfg, "--format", "json")
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			resp, data := decode(t, stdout)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, false, data["valid"])
		})
	}
}

func TestValidate_TextErrorShowsPosition(t *testing.T) {
	cfg := writeFile(t, filepath.Join(t.TempDir(), "bad.cue"), "log_level: \"loud\"\n")

	stdout, _, err := execute(t, "validate", cfg)
	require.Error(t, err)
	assert.Contains(t, stdout, "FAIL validation failed")
	assert.Contains(t, stdout, "E003:")
}

func TestValidate_MissingFile(t *testing.T) {
	_, _, err := execute(t, "validate", filepath.Join(t.TempDir(), "none.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E001")
}
