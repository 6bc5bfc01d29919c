package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the area of the system an error belongs to.
type Category string

const (
	CategoryConfig Category = "config"
	CategoryMinify Category = "minify"
	CategoryBundle Category = "bundle"
	CategoryServer Category = "server"
	CategoryCLI    Category = "cli"
)

// CombineError is a structured error with a code, explanation and hint.
type CombineError struct {
	// Code is a unique error identifier (e.g., "E301").
	Code string

	// Category is the error area.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of this occurrence.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *CombineError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *CombineError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a CombineError with the same code.
func (e *CombineError) Is(target error) bool {
	t, ok := target.(*CombineError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithDetail adds a detailed explanation to the error.
func (e *CombineError) WithDetail(d string) *CombineError {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted detail to the error.
func (e *CombineError) WithDetailf(format string, args ...any) *CombineError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *CombineError) WithSuggestion(s string) *CombineError {
	e.Suggestion = s
	return e
}

// WithSuggestionf adds a formatted fix suggestion to the error.
func (e *CombineError) WithSuggestionf(format string, args ...any) *CombineError {
	e.Suggestion = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *CombineError) Wrap(err error) *CombineError {
	e.Wrapped = err
	return e
}

// New creates a CombineError from a registered error code.
func New(code string) *CombineError {
	template, ok := registry[code]
	if !ok {
		return &CombineError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &CombineError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
	}
}

// Newf creates a new CombineError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *CombineError {
	return &CombineError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a CombineError.
// A CombineError anywhere in err's chain is returned as-is.
func FromError(err error, code string) *CombineError {
	if err == nil {
		return nil
	}
	var ce *CombineError
	if stderrors.As(err, &ce) {
		return ce
	}
	return New(code).Wrap(err)
}

// HasCode reports whether err is, or wraps, a CombineError with code.
func HasCode(err error, code string) bool {
	var ce *CombineError
	for err != nil {
		if !stderrors.As(err, &ce) {
			return false
		}
		if ce.Code == code {
			return true
		}
		err = ce.Wrapped
	}
	return false
}
