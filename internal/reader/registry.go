package reader

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xtxerr/seriesmux/internal/archive/segment"
)

// Kind identifies an archive format.
type Kind string

const (
	KindFixedStep  Kind = "fixed-step"
	KindGzipped    Kind = "fixed-step-gz"
	KindSegmented  Kind = "segmented"
	KindRoundRobin Kind = "round-robin"
)

// Factory builds a reader for one archive path and metric key.
type Factory func(path, metric string) (Reader, error)

// Registry maps archive formats to reader factories. A format whose
// backing dependency is not wired up is simply never registered, so
// availability is decided at registration time rather than by probing
// imports.
type Registry struct {
	mu        sync.RWMutex
	factories map[Kind]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Kind]Factory)}
}

// Register adds a factory for a format, replacing any previous one.
func (r *Registry) Register(k Kind, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[k] = f
}

// Supported reports whether a factory is registered for the format.
func (r *Registry) Supported(k Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[k]
	return ok
}

// Kinds returns the registered formats in stable order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]Kind, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Open detects the archive format at path and builds a reader for it.
func (r *Registry) Open(path, metric string) (Reader, error) {
	kind, ok := DetectKind(path)
	if !ok {
		return nil, fmt.Errorf("%w: unrecognized archive at %s", ErrUnsupportedFormat, path)
	}

	r.mu.RLock()
	factory, registered := r.factories[kind]
	r.mu.RUnlock()

	if !registered {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind)
	}
	return factory(path, metric)
}

// DetectKind identifies the archive format stored at path.
func DetectKind(path string) (Kind, bool) {
	switch {
	case strings.HasSuffix(path, ".fsa.gz"):
		return KindGzipped, true
	case strings.HasSuffix(path, ".fsa"):
		return KindFixedStep, true
	case strings.HasSuffix(path, ".rrd"):
		return KindRoundRobin, true
	case segment.IsNodeDir(path):
		return KindSegmented, true
	default:
		return "", false
	}
}
