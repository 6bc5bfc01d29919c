package minify

import (
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/vango-dev/combine/internal/errors"
)

// DispatcherConfig configures inline minification.
type DispatcherConfig struct {
	// Enabled turns minification on; when false every call is the identity.
	Enabled bool

	// JS and CSS are the per-language minifier blocks.
	JS  Block
	CSS Block

	// Logger receives minification failures. Defaults to slog.Default().
	Logger *slog.Logger

	// OnResult, if set, is called after every minification attempt with
	// the kind and the error (nil on success).
	OnResult func(kind Kind, err error)
}

// Dispatcher routes inline sources to the configured minifiers.
type Dispatcher struct {
	enabled  bool
	js       Minifier
	css      Minifier
	jsBlock  Block
	cssBlock Block
	logger   *slog.Logger
	onResult func(Kind, error)
}

// NewDispatcher resolves and constructs both minifiers. Unknown classes are
// reported here, even when minification is disabled, so a bad configuration
// fails at startup.
func NewDispatcher(reg *Registry, cfg DispatcherConfig) (*Dispatcher, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		enabled:  cfg.Enabled,
		jsBlock:  cfg.JS,
		cssBlock: cfg.CSS,
		logger:   logger,
		onResult: cfg.OnResult,
	}

	var err error
	if d.js, err = newFor(reg, KindJS, cfg.JS); err != nil {
		return nil, err
	}
	if d.css, err = newFor(reg, KindCSS, cfg.CSS); err != nil {
		return nil, err
	}
	return d, nil
}

func newFor(reg *Registry, kind Kind, block Block) (Minifier, error) {
	if err := reg.Validate(kind, block); err != nil {
		return nil, err
	}
	name := block.Class
	if name == "" {
		name = DefaultClass(kind)
	}
	return reg.New(name, block)
}

// Fingerprint describes how sources of kind are minified: "off" when the
// dispatcher is disabled, otherwise the class, method and options. Caches
// of minified output key on it so a configuration change invalidates them.
func (d *Dispatcher) Fingerprint(kind Kind) string {
	if !d.enabled {
		return "off"
	}
	block := d.jsBlock
	if kind == KindCSS {
		block = d.cssBlock
	}
	class := block.Class
	if class == "" {
		class = DefaultClass(kind)
	}
	// fmt prints maps with sorted keys.
	return fmt.Sprintf("%s|%s|%v", class, block.Method, block.Options)
}

// Enabled reports whether minification is on.
func (d *Dispatcher) Enabled() bool {
	return d.enabled
}

// InlineJS minifies inline script source.
func (d *Dispatcher) InlineJS(source string) (string, error) {
	return d.Minify(KindJS, source)
}

// InlineCSS minifies inline style source.
func (d *Dispatcher) InlineCSS(source string) (string, error) {
	return d.Minify(KindCSS, source)
}

// Minify minifies source of the given kind with the configured method and
// options. It returns source unchanged when the dispatcher is disabled.
func (d *Dispatcher) Minify(kind Kind, source string) (string, error) {
	if !d.enabled {
		return source, nil
	}

	m, block := d.js, d.jsBlock
	if kind == KindCSS {
		m, block = d.css, d.cssBlock
	}

	out, err := m.Minify(source, block.Method, block.Options)
	if d.onResult != nil {
		d.onResult(kind, err)
	}
	if err != nil {
		code := "E201"
		if stderrors.Is(err, ErrUnknownMethod) {
			code = "E202"
		}
		d.logger.Warn("minification failed", "kind", kind, "error", err)
		return "", errors.New(code).WithDetailf("inline %s", kind).Wrap(err)
	}
	return out, nil
}
