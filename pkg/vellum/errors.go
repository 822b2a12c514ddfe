package vellum

import "fmt"

// ConfigurationError reports missing or invalid caller input. It is
// returned before any file or network I/O happens.
type ConfigurationError struct {
	Reason string
	Err    error
}

// NewConfigurationError creates a ConfigurationError with no cause.
func NewConfigurationError(reason string) *ConfigurationError {
	return &ConfigurationError{Reason: reason}
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
	}
	return "configuration error: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ConversionError reports a failure while preparing page images: fetching
// the source, converting it to PDF, counting pages, or rendering.
type ConversionError struct {
	Stage string // fetch, convert, count, render
	Err   error
}

// NewConversionError attributes err to a preparation stage.
func NewConversionError(stage string, err error) *ConversionError {
	return &ConversionError{Stage: stage, Err: err}
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// AdapterError reports a completion failure attributed to the work unit
// and resolved page number that caused it. Page is 0 when the failure is
// not tied to a single page (structured extraction).
type AdapterError struct {
	Index int
	Page  int
	Err   error
}

// NewAdapterError attributes err to a work unit.
func NewAdapterError(index, page int, err error) *AdapterError {
	return &AdapterError{Index: index, Page: page, Err: err}
}

func (e *AdapterError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("completion failed for page %d: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("completion failed: %v", e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// IOError reports a workspace or output-file failure.
type IOError struct {
	Op   string
	Path string
	Err  error
}

// NewIOError attributes err to a filesystem operation on path.
func NewIOError(op, path string, err error) *IOError {
	return &IOError{Op: op, Path: path, Err: err}
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
