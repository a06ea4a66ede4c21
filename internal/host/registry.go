package host

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/drawseq/internal/engine"
)

// Registry routes batches to the surfaces attached under each target. It is
// the in-process Dispatcher: a Sequence bound to a target dispatches into
// the surface registered for it.
type Registry struct {
	mu       sync.Mutex
	surfaces map[engine.Target]*Surface
	gen      engine.TargetGenerator
	logger   *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithTargetGenerator sets how Attach names new targets. Defaults to UUIDv7.
func WithTargetGenerator(g engine.TargetGenerator) RegistryOption {
	return func(r *Registry) {
		r.gen = g
	}
}

// WithRegistryLogger sets the logger passed to surfaces created by Open.
func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = l
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		surfaces: make(map[engine.Target]*Surface),
		gen:      engine.UUIDv7Generator{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Attach registers s under a fresh target.
func (r *Registry) Attach(s *Surface) engine.Target {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.gen.Generate()
	r.surfaces[t] = s
	return t
}

// AttachAs registers s under a caller-chosen target. It fails if the target
// is already attached.
func (r *Registry) AttachAs(t engine.Target, s *Surface) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.surfaces[t]; ok {
		return fmt.Errorf("target %q already attached", t)
	}
	r.surfaces[t] = s
	return nil
}

// Open creates a width x height surface and attaches it.
func (r *Registry) Open(width, height int) (engine.Target, *Surface, error) {
	s, err := NewSurface(width, height, WithSurfaceLogger(r.logger))
	if err != nil {
		return "", nil, err
	}
	return r.Attach(s), s, nil
}

// Surface returns the surface attached under t.
func (r *Registry) Surface(t engine.Target) (*Surface, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surfaces[t]
	return s, ok
}

// Detach forgets t. Detaching an unknown target is a no-op.
func (r *Registry) Detach(t engine.Target) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.surfaces, t)
}

// Dispatch implements engine.Dispatcher.
func (r *Registry) Dispatch(t engine.Target, head *engine.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surfaces[t]
	if !ok {
		return unknownTarget(t)
	}
	return s.Execute(head)
}

// LoadImage implements engine.ImageLoader.
func (r *Registry) LoadImage(t engine.Target, url string, id int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surfaces[t]
	if !ok {
		return unknownTarget(t)
	}
	return s.LoadImage(url, id)
}

var (
	_ engine.Dispatcher  = (*Registry)(nil)
	_ engine.ImageLoader = (*Registry)(nil)
)
