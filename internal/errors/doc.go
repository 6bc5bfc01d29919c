// Package errors provides coded, structured errors for combine.
//
// Every error that leaves a package boundary outside the asset layer carries
// a code (e.g. "E301") registered in this package. The code maps to:
//   - a category (config, minify, bundle, server, cli)
//   - a short message
//   - a longer explanation
//
// Callers refine an error with detail, a suggestion and the underlying cause:
//
//	return errors.New("E102").
//	    WithDetail("Failed to parse combine.yaml: " + err.Error()).
//	    WithSuggestion("Check the YAML indentation").
//	    Wrap(err)
//
// The CLI renders errors with Format; logs and HTTP responses use
// FormatCompact.
package errors
