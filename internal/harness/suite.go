package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SuiteResult summarizes a directory of scenarios.
type SuiteResult struct {
	Total    int               `json:"total"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Results  []*Result         `json:"results"`
	Failures []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure is one scenario that did not pass.
type ScenarioFailure struct {
	Path   string   `json:"path"`
	Name   string   `json:"name,omitempty"`
	Errors []string `json:"errors"`
}

// FindScenarios returns the .yaml and .yml files directly under dir in
// lexical order.
func FindScenarios(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// RunDir loads and runs every scenario in dir whose name contains filter.
// A scenario that fails to load counts as a failure; the suite keeps going.
func (h *Harness) RunDir(dir, filter string) (*SuiteResult, error) {
	paths, err := FindScenarios(dir)
	if err != nil {
		return nil, err
	}

	suite := &SuiteResult{Results: []*Result{}}
	for _, path := range paths {
		scenario, err := LoadScenario(path)
		if err != nil {
			suite.Total++
			suite.Failed++
			suite.Failures = append(suite.Failures, ScenarioFailure{
				Path:   path,
				Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
			})
			continue
		}
		if filter != "" && !strings.Contains(scenario.Name, filter) {
			continue
		}

		suite.Total++
		result, err := h.Run(scenario)
		if err != nil {
			suite.Failed++
			suite.Failures = append(suite.Failures, ScenarioFailure{
				Path:   path,
				Name:   scenario.Name,
				Errors: []string{fmt.Sprintf("scenario execution failed: %v", err)},
			})
			continue
		}
		suite.Results = append(suite.Results, result)

		if !result.Pass {
			suite.Failed++
			suite.Failures = append(suite.Failures, ScenarioFailure{
				Path:   path,
				Name:   scenario.Name,
				Errors: result.Errors,
			})
			continue
		}
		suite.Passed++
	}
	return suite, nil
}
