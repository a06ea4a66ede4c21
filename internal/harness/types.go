package harness

import (
	"github.com/roach88/drawseq/internal/engine"
	"github.com/roach88/drawseq/internal/host"
	"github.com/roach88/drawseq/internal/ir"
)

// BatchTrace is one dispatched batch as the host received it.
type BatchTrace struct {
	Seq     int64              `json:"seq"`
	Reason  engine.FlushReason `json:"reason"`
	Count   int                `json:"count"`
	Kinds   []string           `json:"kinds"`
	Entries ir.IRArray         `json:"entries"`
	Error   string             `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when no step failed unexpectedly and every assertion
	// held.
	Pass bool `json:"pass"`

	Scenario string        `json:"scenario"`
	Target   engine.Target `json:"target"`

	// Batches holds every dispatch in order.
	Batches []BatchTrace `json:"batches"`

	// Queries maps a step index to the value its query returned.
	Queries map[int]ir.IRValue `json:"queries,omitempty"`

	// Pending is the pending count after the last step, before the final
	// close.
	Pending int `json:"pending"`

	// Live counts nodes and buffers still allocated after the Sequence was
	// closed. Faults lists double and foreign frees.
	Live   int      `json:"live"`
	Faults []string `json:"faults,omitempty"`

	Stats engine.Stats `json:"stats"`

	// Errors contains unexpected step failures and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Surface is the host canvas after the run.
	Surface *host.Surface `json:"-"`
}

// NewResult creates a new passing result.
func NewResult(name string) *Result {
	return &Result{
		Pass:     true,
		Scenario: name,
		Batches:  []BatchTrace{},
		Queries:  make(map[int]ir.IRValue),
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
