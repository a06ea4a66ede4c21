package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/drawseq/internal/ir"
)

// TraceSnapshot is the golden form of a run: the batches the host received,
// in order, with their canonical descriptions. Query answers and pixels are
// left out; assertions cover those.
func TraceSnapshot(result *Result) ([]byte, error) {
	batches := make(ir.IRArray, len(result.Batches))
	for i, b := range result.Batches {
		obj := ir.Obj(
			ir.O("seq", ir.IRInt(b.Seq)),
			ir.O("reason", ir.IRString(b.Reason)),
			ir.O("count", ir.IRInt(b.Count)),
			ir.O("entries", b.Entries),
		)
		if b.Error != "" {
			obj["error"] = ir.IRString(b.Error)
		}
		batches[i] = obj
	}
	snapshot := ir.Obj(
		ir.O("scenario", ir.IRString(result.Scenario)),
		ir.O("batches", batches),
	)
	return ir.MarshalCanonical(snapshot)
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	traceJSON, err := TraceSnapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, traceJSON)
	return nil
}
