package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKinds_Text(t *testing.T) {
	stdout, _, err := execute(t, "kinds")
	require.NoError(t, err)
	assert.Contains(t, stdout, "CODE")
	assert.Regexp(t, `(?m)^1\s+fill_rect\s*$`, stdout)
	assert.Regexp(t, `(?m)^\d+\s+measure_text\s+query$`, stdout)
	assert.NotContains(t, stdout, "Scenario steps:")
}

func TestKinds_JSONWithSteps(t *testing.T) {
	stdout, _, err := execute(t, "kinds", "--steps", "--format", "json")
	require.NoError(t, err)

	_, data := decode(t, stdout)
	kinds := data["kinds"].([]any)
	require.NotEmpty(t, kinds)
	first := kinds[0].(map[string]any)
	assert.Equal(t, 1.0, first["code"])
	assert.Equal(t, "fill_rect", first["name"])
	assert.Equal(t, false, first["query"])

	steps := data["steps"].([]any)
	assert.Contains(t, steps, "load_image")
	assert.Contains(t, steps, "fill_rect")
}

func TestKinds_RejectsArgs(t *testing.T) {
	_, _, err := execute(t, "kinds", "extra")
	require.Error(t, err)
}
