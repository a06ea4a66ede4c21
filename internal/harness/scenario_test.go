package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
name: minimal
description: "one rectangle"
steps:
  - op: fill_rect
    args: {x: 0, y: 0, w: 1, h: 1}
assertions:
  - {type: dispatch_count, count: 1}
`

func TestParseScenario_Minimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Zero(t, s.Threshold)
	require.Len(t, s.Steps, 1)
	assert.Equal(t, "fill_rect", s.Steps[0].Op)
	assert.Equal(t, 1, s.Steps[0].Args["w"])
	require.Len(t, s.Assertions, 1)
	require.NotNil(t, s.Assertions[0].Count)
	assert.Equal(t, 1, *s.Assertions[0].Count)
}

func TestParseScenario_HexColorDecodesAsInteger(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: hex
description: "hex color"
steps:
  - op: set_fill_color
    args: {color: 0xFF0000FF}
assertions:
  - {type: no_leaks}
`))
	require.NoError(t, err)

	a := &stepArgs{op: "set_fill_color", m: s.Steps[0].Args}
	assert.Equal(t, uint32(0xFF0000FF), uint32(a.color("color")))
	assert.NoError(t, a.err)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\nsteps: [{op: fill}]\nassertions: [{type: no_leaks}]",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\nsteps: [{op: fill}]\nassertions: [{type: no_leaks}]",
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			yaml:    "name: n\ndescription: d\nassertions: [{type: no_leaks}]",
			wantErr: "steps list is required",
		},
		{
			name:    "no assertions",
			yaml:    "name: n\ndescription: d\nsteps: [{op: fill}]",
			wantErr: "assertions list is required",
		},
		{
			name:    "unknown field",
			yaml:    "name: n\ndescription: d\nstep: [{op: fill}]\nassertions: [{type: no_leaks}]",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "unknown op",
			yaml:    "name: n\ndescription: d\nsteps: [{op: paint}]\nassertions: [{type: no_leaks}]",
			wantErr: `unknown op "paint"`,
		},
		{
			name:    "bad code page",
			yaml:    "name: n\ndescription: d\ncode_page: koi8-r\nsteps: [{op: fill}]\nassertions: [{type: no_leaks}]",
			wantErr: "koi8-r",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: n\ndescription: d\nsteps: [{op: fill}]\nassertions: [{type: trace_order}]",
			wantErr: `unknown assertion type "trace_order"`,
		},
		{
			name:    "dispatch_count without count",
			yaml:    "name: n\ndescription: d\nsteps: [{op: fill}]\nassertions: [{type: dispatch_count}]",
			wantErr: "non-negative count is required",
		},
		{
			name:    "batch_kinds with unknown kind",
			yaml:    "name: n\ndescription: d\nsteps: [{op: fill}]\nassertions: [{type: batch_kinds, batch: 1, kinds: [paint]}]",
			wantErr: "assertions[0]",
		},
		{
			name:    "batch_kinds without batch",
			yaml:    "name: n\ndescription: d\nsteps: [{op: fill}]\nassertions: [{type: batch_kinds, kinds: [fill]}]",
			wantErr: "batch must be >= 1",
		},
		{
			name:    "query_result step out of range",
			yaml:    "name: n\ndescription: d\nsteps: [{op: fill}]\nassertions: [{type: query_result, step: 3, expect: 1}]",
			wantErr: "step must index a step",
		},
		{
			name:    "query_result without expectation",
			yaml:    "name: n\ndescription: d\nsteps: [{op: fill}]\nassertions: [{type: query_result, step: 0}]",
			wantErr: "expect or min is required",
		},
		{
			name:    "pixel with bad color",
			yaml:    "name: n\ndescription: d\nsteps: [{op: fill}]\nassertions: [{type: pixel, x: 0, y: 0, rgba: red}]",
			wantErr: "#rrggbb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_Testdata(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/threshold_autoflush.yaml")
	require.NoError(t, err)
	assert.Equal(t, "threshold_autoflush", s.Name)
	assert.Equal(t, 3, s.Threshold)
	assert.Equal(t, SurfaceSize{Width: 32, Height: 32}, s.Surface)
	assert.Len(t, s.Steps, 4)
}
