package engine

// Dispatcher crosses the boundary to a host surface.
//
// Dispatch executes every instruction of the chain in order and, for query
// instructions, writes results through the op's output pointers before it
// returns. It must not retain head or any op buffer after returning: the
// Sequence tears the chain down immediately afterwards. Dispatch only reads
// the chain.
type Dispatcher interface {
	Dispatch(target Target, head *Node) error
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(target Target, head *Node) error

// Dispatch calls f(target, head).
func (f DispatcherFunc) Dispatch(target Target, head *Node) error {
	return f(target, head)
}

// ImageLoader is implemented by dispatchers whose host can load images by
// URL outside of a batch.
type ImageLoader interface {
	LoadImage(target Target, url string, id int32) error
}

// FlushReason records why a batch was dispatched.
type FlushReason string

const (
	ReasonThreshold FlushReason = "threshold"
	ReasonQuery     FlushReason = "query"
	ReasonExplicit  FlushReason = "explicit"
	ReasonClose     FlushReason = "close"
	ReasonLoadImage FlushReason = "load_image"
)

// FlushEvent describes one completed dispatch.
type FlushEvent struct {
	Seq    int64
	Target Target
	Count  int
	Reason FlushReason
	Err    error
}

// Observer is notified after every dispatch, once teardown has finished.
type Observer func(FlushEvent)
