package minify

import (
	"sort"
	"sync"

	"github.com/vango-dev/combine/internal/errors"
)

// Built-in minifier names.
const (
	DefaultJSMinifier  = "tdewolff/js"
	DefaultCSSMinifier = "tdewolff/css"
	Passthrough        = "passthrough"
)

// DefaultClass returns the built-in minifier name for kind.
func DefaultClass(kind Kind) string {
	if kind == KindCSS {
		return DefaultCSSMinifier
	}
	return DefaultJSMinifier
}

// Factory constructs a Minifier from its configuration block.
type Factory func(Block) (Minifier, error)

// Registry maps minifier names to factories. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a Registry with the built-in minifiers registered.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(DefaultJSMinifier, newTdewolffFactory(KindJS))
	r.Register(DefaultCSSMinifier, newTdewolffFactory(KindCSS))
	r.Register(Passthrough, func(Block) (Minifier, error) {
		return MinifierFunc(func(source, _ string, _ map[string]any) (string, error) {
			return source, nil
		}), nil
	})
	return r
}

// Register adds or replaces a factory.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[name] = f
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.factories[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New constructs the minifier registered as name.
func (r *Registry) New(name string, block Block) (Minifier, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.New("E104").
			WithDetailf("minifier %q is not registered", name).
			WithSuggestion("Use one of the registered minifiers or register a factory before startup")
	}
	m, err := f(block)
	if err != nil {
		return nil, errors.New("E104").WithDetailf("minifier %q", name).Wrap(err)
	}
	return m, nil
}

// Validate checks that block's class (or the default for kind) is
// registered.
func (r *Registry) Validate(kind Kind, block Block) error {
	name := block.Class
	if name == "" {
		name = DefaultClass(kind)
	}
	if !r.Has(name) {
		return errors.New("E104").
			WithDetailf("%s minifier %q is not registered", kind, name).
			WithSuggestionf("Registered minifiers: %v", r.Names())
	}
	return nil
}
