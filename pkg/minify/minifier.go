package minify

import (
	"errors"
	"fmt"
	"strconv"
)

// Kind identifies the asset language.
type Kind string

const (
	KindJS  Kind = "js"
	KindCSS Kind = "css"
)

// ParseKind parses "js" or "css".
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindJS, KindCSS:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown asset kind %q", s)
	}
}

// ContentType returns the HTTP content type for the kind.
func (k Kind) ContentType() string {
	if k == KindCSS {
		return "text/css; charset=utf-8"
	}
	return "application/javascript; charset=utf-8"
}

// ErrUnknownMethod is returned when a minifier does not implement the
// requested method.
var ErrUnknownMethod = errors.New("unknown minification method")

// Minifier shrinks script or style source. method selects a variant of the
// minifier ("" for its default) and options tune it.
type Minifier interface {
	Minify(source, method string, options map[string]any) (string, error)
}

// MinifierFunc adapts a function to the Minifier interface.
type MinifierFunc func(source, method string, options map[string]any) (string, error)

// Minify calls f.
func (f MinifierFunc) Minify(source, method string, options map[string]any) (string, error) {
	return f(source, method, options)
}

// Block is the per-language minifier configuration.
type Block struct {
	// Class names the registered minifier; empty selects the default.
	Class string `json:"class,omitempty" yaml:"class,omitempty"`

	// Method is passed to Minify on every call.
	Method string `json:"method,omitempty" yaml:"method,omitempty"`

	// Options are passed to Minify on every call.
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// intOption reads an integer option, accepting the numeric types JSON and
// YAML decoders produce as well as numeric strings.
func intOption(options map[string]any, key string) (int, bool, error) {
	v, ok := options[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case int:
		return n, true, nil
	case int64:
		return int(n), true, nil
	case float64:
		return int(n), true, nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, false, fmt.Errorf("option %q: %w", key, err)
		}
		return i, true, nil
	default:
		return 0, false, fmt.Errorf("option %q: unsupported type %T", key, v)
	}
}

// boolOption reads a boolean option.
func boolOption(options map[string]any, key string) (bool, error) {
	v, ok := options[key]
	if !ok || v == nil {
		return false, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false, fmt.Errorf("option %q: %w", key, err)
		}
		return parsed, nil
	default:
		return false, fmt.Errorf("option %q: unsupported type %T", key, v)
	}
}
