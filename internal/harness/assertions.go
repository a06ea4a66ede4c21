package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/drawseq/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Batches  []BatchTrace // Dispatched batches for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Batches) > 0 {
		fmt.Fprintf(&buf, "\nBatches:\n")
		for _, b := range e.Batches {
			fmt.Fprintf(&buf, "  [%d] %s %v\n", b.Seq, b.Reason, b.Kinds)
		}
	}
	return buf.String()
}

func assertDispatchCount(r *Result, a Assertion) error {
	if len(r.Batches) != *a.Count {
		return &AssertionError{
			Type:     AssertDispatchCount,
			Expected: fmt.Sprintf("%d dispatches", *a.Count),
			Actual:   fmt.Sprintf("%d dispatches", len(r.Batches)),
			Batches:  r.Batches,
		}
	}
	return nil
}

func batchAt(r *Result, a Assertion) (BatchTrace, error) {
	if a.Batch > len(r.Batches) {
		return BatchTrace{}, &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("batch %d", a.Batch),
			Actual:   fmt.Sprintf("only %d batches dispatched", len(r.Batches)),
			Batches:  r.Batches,
		}
	}
	return r.Batches[a.Batch-1], nil
}

// assertBatchKinds checks the exact kind sequence of one batch and,
// optionally, why it was flushed.
func assertBatchKinds(r *Result, a Assertion) error {
	b, err := batchAt(r, a)
	if err != nil {
		return err
	}
	if !slices.Equal(b.Kinds, a.Kinds) {
		return &AssertionError{
			Type:     AssertBatchKinds,
			Expected: fmt.Sprintf("batch %d kinds %v", a.Batch, a.Kinds),
			Actual:   fmt.Sprintf("batch %d kinds %v", a.Batch, b.Kinds),
			Batches:  r.Batches,
		}
	}
	if a.Reason != "" && string(b.Reason) != a.Reason {
		return &AssertionError{
			Type:     AssertBatchKinds,
			Expected: fmt.Sprintf("batch %d flushed by %s", a.Batch, a.Reason),
			Actual:   fmt.Sprintf("batch %d flushed by %s", a.Batch, b.Reason),
			Batches:  r.Batches,
		}
	}
	return nil
}

func assertBatchSize(r *Result, a Assertion) error {
	b, err := batchAt(r, a)
	if err != nil {
		return err
	}
	if b.Count != *a.Count {
		return &AssertionError{
			Type:     AssertBatchSize,
			Expected: fmt.Sprintf("batch %d with %d instructions", a.Batch, *a.Count),
			Actual:   fmt.Sprintf("%d instructions", b.Count),
			Batches:  r.Batches,
		}
	}
	return nil
}

func assertPending(r *Result, a Assertion) error {
	if r.Pending != *a.Count {
		return &AssertionError{
			Type:     AssertPending,
			Expected: fmt.Sprintf("%d pending after the last step", *a.Count),
			Actual:   fmt.Sprintf("%d pending", r.Pending),
		}
	}
	return nil
}

// assertQueryResult compares a query's value with expect. Objects match as
// a subset; every other value must be equal. Numbers compare by canonical
// JSON, so 3 and 3.0 are equal.
func assertQueryResult(r *Result, a Assertion) error {
	actual, ok := r.Queries[*a.Step]
	if !ok {
		return &AssertionError{
			Type:     AssertQueryResult,
			Expected: fmt.Sprintf("step %d to return a value", *a.Step),
			Actual:   "no value recorded",
		}
	}

	if a.Expect != nil {
		want, err := toIR(a.Expect)
		if err != nil {
			return fmt.Errorf("query_result step %d: %w", *a.Step, err)
		}
		if !matchValue(actual, want) {
			return &AssertionError{
				Type:     AssertQueryResult,
				Expected: fmt.Sprintf("step %d returns %s", *a.Step, canonical(want)),
				Actual:   canonical(actual),
			}
		}
	}

	for _, key := range sortedKeys(a.Min) {
		obj, ok := actual.(ir.IRObject)
		if !ok {
			return &AssertionError{
				Type:     AssertQueryResult,
				Expected: fmt.Sprintf("step %d returns an object", *a.Step),
				Actual:   canonical(actual),
			}
		}
		got, ok := number(obj[key])
		if !ok || got < a.Min[key] {
			return &AssertionError{
				Type:     AssertQueryResult,
				Expected: fmt.Sprintf("step %d field %q >= %v", *a.Step, key, a.Min[key]),
				Actual:   canonical(actual),
			}
		}
	}
	return nil
}

func assertNoLeaks(r *Result) error {
	if r.Live != 0 || len(r.Faults) != 0 {
		return &AssertionError{
			Type:     AssertNoLeaks,
			Expected: "every node and buffer freed exactly once",
			Actual:   fmt.Sprintf("%d live, faults %v", r.Live, r.Faults),
		}
	}
	return nil
}

func assertPixel(r *Result, a Assertion) error {
	if r.Surface == nil {
		return fmt.Errorf("pixel assertion requires a surface")
	}
	want, err := parsePixel(a.RGBA)
	if err != nil {
		return err
	}
	if a.X < 0 || a.Y < 0 || a.X >= r.Surface.Width() || a.Y >= r.Surface.Height() {
		return &AssertionError{
			Type:     AssertPixel,
			Expected: fmt.Sprintf("pixel (%d,%d) inside the %dx%d surface", a.X, a.Y, r.Surface.Width(), r.Surface.Height()),
			Actual:   "out of bounds",
		}
	}

	cr, cg, cb, ca := r.Surface.Pixel(a.X, a.Y)
	got := ir.RGBA(cr, cg, cb, ca)
	if !within(want.R(), cr, a.Tolerance) || !within(want.G(), cg, a.Tolerance) ||
		!within(want.B(), cb, a.Tolerance) || !within(want.A(), ca, a.Tolerance) {
		return &AssertionError{
			Type:     AssertPixel,
			Expected: fmt.Sprintf("pixel (%d,%d) = %s (tolerance %d)", a.X, a.Y, want.CSS(), a.Tolerance),
			Actual:   got.CSS(),
		}
	}
	return nil
}

func within(want, got uint8, tolerance int) bool {
	d := int(want) - int(got)
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertDispatchCount:
			err = assertDispatchCount(result, a)
		case AssertBatchKinds:
			err = assertBatchKinds(result, a)
		case AssertBatchSize:
			err = assertBatchSize(result, a)
		case AssertPending:
			err = assertPending(result, a)
		case AssertQueryResult:
			err = assertQueryResult(result, a)
		case AssertNoLeaks:
			err = assertNoLeaks(result)
		case AssertPixel:
			err = assertPixel(result, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

// toIR converts a YAML-decoded value. Nulls are rejected since canonical
// JSON has no null.
func toIR(v any) (ir.IRValue, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return nil, err
	}
	var obj ir.IRObject
	if err := obj.UnmarshalJSON([]byte(`{"v":` + string(data) + `}`)); err != nil {
		return nil, err
	}
	return obj["v"], nil
}

// matchValue reports whether actual matches expected. Objects match when
// every expected key matches; extra keys in actual are ignored.
func matchValue(actual, expected ir.IRValue) bool {
	if exp, ok := expected.(ir.IRObject); ok {
		act, ok := actual.(ir.IRObject)
		if !ok {
			return false
		}
		for key, want := range exp {
			got, exists := act[key]
			if !exists || !matchValue(got, want) {
				return false
			}
		}
		return true
	}
	return canonical(actual) == canonical(expected)
}

func canonical(v ir.IRValue) string {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(data)
}

func number(v ir.IRValue) (float64, bool) {
	switch n := v.(type) {
	case ir.IRFloat:
		return float64(n), true
	case ir.IRInt:
		return float64(n), true
	}
	return 0, false
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
