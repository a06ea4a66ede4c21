package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/drawseq/internal/ir"
)

// Scenario drives one Sequence through a list of facade calls and then
// checks what reached the host.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Threshold is the autoflush threshold. Zero means the configured
	// default.
	Threshold int `yaml:"threshold,omitempty"`

	// CodePage names the text encoding ("utf-8", "cp437", ...). Empty means
	// the configured default.
	CodePage string `yaml:"code_page,omitempty"`

	// Surface is the size of the host canvas. Zero fields use the configured
	// default.
	Surface SurfaceSize `yaml:"surface,omitempty"`

	// Target is the handle the surface is attached under. Empty means
	// DefaultTarget so traces stay deterministic.
	Target string `yaml:"target,omitempty"`

	// Steps are the facade calls, in order.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after every step has run and the Sequence has
	// been closed.
	Assertions []Assertion `yaml:"assertions"`
}

// SurfaceSize is the canvas size of a scenario.
type SurfaceSize struct {
	Width  int `yaml:"width,omitempty"`
	Height int `yaml:"height,omitempty"`
}

// Step is one call on the Sequence.
type Step struct {
	// Op is the call name in snake_case, e.g. "fill_rect", "set_fill_color",
	// "measure_text", "flush" or "close".
	Op string `yaml:"op"`

	// Args holds the call arguments by name.
	Args map[string]any `yaml:"args,omitempty"`

	// Error, when set, marks the step as expected to fail with an error whose
	// text contains this substring.
	Error string `yaml:"error,omitempty"`
}

// Assertion checks one property of a finished run. Which fields apply
// depends on Type.
type Assertion struct {
	Type string `yaml:"type"`

	// Batch is the 1-based batch number (batch_kinds, batch_size).
	Batch int `yaml:"batch,omitempty"`

	// Count is the expected number (dispatch_count, batch_size, pending).
	Count *int `yaml:"count,omitempty"`

	// Kinds is the expected kind list of a batch (batch_kinds).
	Kinds []string `yaml:"kinds,omitempty"`

	// Reason is the expected flush reason of a batch (batch_kinds, optional).
	Reason string `yaml:"reason,omitempty"`

	// Step is the 0-based index of a query step (query_result).
	Step *int `yaml:"step,omitempty"`

	// Expect is the expected query value. Objects match as a subset.
	Expect any `yaml:"expect,omitempty"`

	// Min maps numeric query result fields to their lower bound.
	Min map[string]float64 `yaml:"min,omitempty"`

	// X and Y locate a pixel (pixel).
	X int `yaml:"x,omitempty"`
	Y int `yaml:"y,omitempty"`

	// RGBA is the expected pixel as "#rrggbbaa" (pixel).
	RGBA string `yaml:"rgba,omitempty"`

	// Tolerance is the largest per-channel difference accepted (pixel).
	Tolerance int `yaml:"tolerance,omitempty"`
}

// Assertion type constants.
const (
	AssertDispatchCount = "dispatch_count"
	AssertBatchKinds    = "batch_kinds"
	AssertBatchSize     = "batch_size"
	AssertPending       = "pending"
	AssertQueryResult   = "query_result"
	AssertNoLeaks       = "no_leaks"
	AssertPixel         = "pixel"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML and validates it.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Threshold < 0 {
		return fmt.Errorf("threshold must be non-negative")
	}
	if s.CodePage != "" {
		if _, err := ir.ParseCodePage(s.CodePage); err != nil {
			return err
		}
	}
	if s.Surface.Width < 0 || s.Surface.Height < 0 {
		return fmt.Errorf("surface size must be non-negative")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Op == "" {
			return fmt.Errorf("steps[%d]: op is required", i)
		}
		if _, ok := stepTable[step.Op]; !ok {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], len(s.Steps)); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, steps int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertDispatchCount, AssertPending:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for %s", index, a.Type)
		}
	case AssertBatchKinds:
		if a.Batch < 1 {
			return fmt.Errorf("assertions[%d]: batch must be >= 1 for batch_kinds", index)
		}
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for batch_kinds", index)
		}
		for _, name := range a.Kinds {
			if _, err := ir.ParseKind(name); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertBatchSize:
		if a.Batch < 1 {
			return fmt.Errorf("assertions[%d]: batch must be >= 1 for batch_size", index)
		}
		if a.Count == nil || *a.Count < 1 {
			return fmt.Errorf("assertions[%d]: positive count is required for batch_size", index)
		}
	case AssertQueryResult:
		if a.Step == nil || *a.Step < 0 || *a.Step >= steps {
			return fmt.Errorf("assertions[%d]: step must index a step for query_result", index)
		}
		if a.Expect == nil && len(a.Min) == 0 {
			return fmt.Errorf("assertions[%d]: expect or min is required for query_result", index)
		}
	case AssertNoLeaks:
	case AssertPixel:
		if a.RGBA == "" {
			return fmt.Errorf("assertions[%d]: rgba is required for pixel", index)
		}
		if _, err := parsePixel(a.RGBA); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if a.Tolerance < 0 {
			return fmt.Errorf("assertions[%d]: tolerance must be non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
