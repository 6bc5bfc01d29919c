// Package minify dispatches inline script and style minification to
// pluggable minifiers.
//
// Minifiers are registered by name in a Registry and constructed from a
// configuration Block. A Dispatcher builds the JS and CSS minifiers once, at
// startup, so an unknown name fails early instead of on the first request:
//
//	reg := minify.NewRegistry()
//	d, err := minify.NewDispatcher(reg, minify.DispatcherConfig{
//	    Enabled: true,
//	    JS:      minify.Block{Class: minify.DefaultJSMinifier},
//	    CSS:     minify.Block{Method: "default", Options: map[string]any{"precision": 3}},
//	})
//	out, err := d.InlineJS(`var  answer = 42 ;`)
//
// A disabled Dispatcher returns its input unchanged.
//
// # Built-in minifiers
//
//   - tdewolff/js: github.com/tdewolff/minify/v2 JavaScript minifier
//   - tdewolff/css: github.com/tdewolff/minify/v2 CSS minifier
//   - passthrough: returns the source unchanged
package minify
