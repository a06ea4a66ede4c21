package testutil

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/roach88/drawseq/internal/engine"
	"github.com/roach88/drawseq/internal/ir"
)

// RecordedBatch is what a RecordingDispatcher saw in one Dispatch call.
// Entries are descriptions taken while the chain was live, so they stay
// valid after teardown.
type RecordedBatch struct {
	Target  engine.Target
	Kinds   []ir.Kind
	Entries ir.IRArray
}

// LoadRequest is one LoadImage call.
type LoadRequest struct {
	Target engine.Target
	URL    string
	ID     int32
}

// RecordingDispatcher records every batch and answers queries from a small
// model of host state: the last dash pattern, the transform built from
// set_transform/transform/reset_transform, and canvas properties.
//
// Fields may be set before use:
//   - FailWith, when non-nil, is called with the 1-based batch number and
//     its returned error is the result of Dispatch
//   - During runs inside Dispatch, for reentrancy tests
type RecordingDispatcher struct {
	mu      sync.Mutex
	batches []RecordedBatch
	loads   []LoadRequest

	dash      []float64
	transform ir.Matrix
	doubles   map[string]float64
	strings   map[string]string

	FailWith func(batch int) error
	During   func(target engine.Target, head *engine.Node)
	LoadErr  error
}

var (
	_ engine.Dispatcher  = (*RecordingDispatcher)(nil)
	_ engine.ImageLoader = (*RecordingDispatcher)(nil)
)

// NewRecordingDispatcher returns a dispatcher with an identity transform and
// no properties.
func NewRecordingDispatcher() *RecordingDispatcher {
	return &RecordingDispatcher{
		transform: ir.IdentityMatrix(),
		doubles:   make(map[string]float64),
		strings:   make(map[string]string),
	}
}

// Dispatch records the chain and answers its queries. Query outputs are
// written even when FailWith reports an error.
func (d *RecordingDispatcher) Dispatch(target engine.Target, head *engine.Node) error {
	d.mu.Lock()
	batch := RecordedBatch{Target: target}
	for n := head; n != nil; n = n.Next() {
		batch.Kinds = append(batch.Kinds, n.Op.Kind())
		batch.Entries = append(batch.Entries, ir.Entry(n.Op))
		d.apply(n.Op)
	}
	d.batches = append(d.batches, batch)
	number := len(d.batches)
	fail, during := d.FailWith, d.During
	d.mu.Unlock()

	if during != nil {
		during(target, head)
	}
	if fail != nil {
		return fail(number)
	}
	return nil
}

// LoadImage records the request and returns LoadErr.
func (d *RecordingDispatcher) LoadImage(target engine.Target, url string, id int32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loads = append(d.loads, LoadRequest{Target: target, URL: url, ID: id})
	return d.LoadErr
}

func (d *RecordingDispatcher) apply(op ir.Op) {
	switch o := op.(type) {
	case ir.SetLineDash:
		d.dash = append(d.dash[:0], o.Segments...)
	case ir.SetTransform:
		d.transform = o.Matrix
	case ir.Transform:
		d.transform = d.transform.Multiply(o.Matrix)
	case ir.ResetTransform, ir.Reset:
		d.transform = ir.IdentityMatrix()
	case ir.SetCanvasPropDouble:
		d.doubles[string(o.Name)] = o.Value
	case ir.SetCanvasPropString:
		d.strings[string(o.Name)] = string(o.Value)

	case ir.MeasureText:
		// 8px per character is enough for tests to tell strings apart.
		*o.Out = ir.TextMetrics{Width: 8 * float64(utf8.RuneCountInString(o.CodePage.Decode(o.Text)))}
	case ir.GetTransform:
		*o.Out = d.transform
	case ir.GetLineDash:
		*o.Length = len(d.dash)
		copy(o.Buffer, d.dash)
	case ir.GetLineDashLength:
		*o.Out = len(d.dash)
	case ir.ImageDataToBuffer:
		for i := range o.Buffer {
			o.Buffer[i] = byte(o.ID)
		}
		*o.Written = len(o.Buffer)
	case ir.GetCanvasPropDouble:
		*o.Out = d.doubles[o.Name]
	case ir.GetCanvasPropString:
		*o.Out = d.strings[o.Name]
	}
}

// Batches returns every recorded batch in dispatch order.
func (d *RecordingDispatcher) Batches() []RecordedBatch {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]RecordedBatch(nil), d.batches...)
}

// Count returns the number of Dispatch calls.
func (d *RecordingDispatcher) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.batches)
}

// Loads returns every LoadImage request.
func (d *RecordingDispatcher) Loads() []LoadRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]LoadRequest(nil), d.loads...)
}

// KindNames returns the kinds of batch i (0-based) as names.
func (d *RecordingDispatcher) KindNames(i int) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i >= len(d.batches) {
		panic(fmt.Sprintf("RecordingDispatcher: batch %d of %d", i, len(d.batches)))
	}
	names := make([]string, len(d.batches[i].Kinds))
	for j, k := range d.batches[i].Kinds {
		names[j] = k.String()
	}
	return names
}
