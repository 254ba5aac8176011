// Package lsperrors defines the typed error hierarchy used across the
// Kconfig language server: parse failures, malformed .conf entries,
// context-lookup failures and aggregates of any of the above.
package lsperrors

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an error for callers that branch on error category
// (e.g. the LSP Adapter's error-code mapping) without type-asserting.
type Kind string

const (
	KindParseFailed Kind = "parse_failed"
	KindConfEntry   Kind = "conf_entry"
	KindContext     Kind = "context"
	KindInternal    Kind = "internal"
)

// ParseFailedError wraps a failure to parse the Kconfig declaration
// tree rooted at a context's root file.
type ParseFailedError struct {
	Kind       Kind
	File       string
	Line       int
	Underlying error
	Timestamp  time.Time
}

// NewParseFailedError creates a ParseFailedError wrapping err.
func NewParseFailedError(err error) *ParseFailedError {
	return &ParseFailedError{Kind: KindParseFailed, Underlying: err, Timestamp: time.Now()}
}

// WithLocation attaches the file/line the failure occurred at.
func (e *ParseFailedError) WithLocation(file string, line int) *ParseFailedError {
	e.File = file
	e.Line = line
	return e
}

func (e *ParseFailedError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d: parsing failed: %v", e.File, e.Line, e.Underlying)
	}
	return fmt.Sprintf("parsing failed: %v", e.Underlying)
}

func (e *ParseFailedError) Unwrap() error { return e.Underlying }

// ConfEntryError reports a malformed or rejected .conf assignment, or
// (with an empty Symbol) a .conf file that could not be read at all.
type ConfEntryError struct {
	Kind       Kind
	File       string
	Line       int
	Symbol     string
	Underlying error
	Timestamp  time.Time
}

// NewConfEntryError creates a ConfEntryError for symbol in file at
// line. An empty symbol marks a file-level failure.
func NewConfEntryError(file string, line int, symbol string, err error) *ConfEntryError {
	return &ConfEntryError{
		Kind:       KindConfEntry,
		File:       file,
		Line:       line,
		Symbol:     symbol,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

func (e *ConfEntryError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("%s: %v", e.File, e.Underlying)
	}
	return fmt.Sprintf("%s:%d: %s: %v", e.File, e.Line, e.Symbol, e.Underlying)
}

func (e *ConfEntryError) Unwrap() error { return e.Underlying }

// ContextError reports a failure resolving or operating on a Context
// (unknown context id, unknown node id, desynced menu id).
type ContextError struct {
	Kind       Kind
	ContextID  int
	Underlying error
	Timestamp  time.Time
	Desync     bool // true when caused by a stale parse-version node id
}

// NewContextError creates a ContextError for ctxID.
func NewContextError(ctxID int, err error) *ContextError {
	return &ContextError{Kind: KindContext, ContextID: ctxID, Underlying: err, Timestamp: time.Now()}
}

// WithDesync marks the error as a node-id/parse-version desync.
func (e *ContextError) WithDesync() *ContextError {
	e.Desync = true
	return e
}

func (e *ContextError) Error() string {
	return fmt.Sprintf("context %d: %v", e.ContextID, e.Underlying)
}

func (e *ContextError) Unwrap() error { return e.Underlying }

// MultiError aggregates independent errors raised while processing a
// batch (e.g. several conf files in one addBuild call).
type MultiError struct {
	Errors []error
}

// NewMultiError builds a MultiError, dropping any nil entries.
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

func (e *MultiError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
	}
}

func (e *MultiError) Unwrap() []error { return e.Errors }

// IsDesync reports whether err is (or wraps) a desynced ContextError,
// the case the LSP Adapter maps to JSON-RPC error code 2.
func IsDesync(err error) bool {
	var ce *ContextError
	return errors.As(err, &ce) && ce.Desync
}
