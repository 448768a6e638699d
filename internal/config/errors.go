package config

import "fmt"

// IOError reports a configuration document that could not be read or
// written because of the filesystem. It is fatal for the current operation.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("CFG_IO: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Diagnostic records a malformed stored document that was replaced by its
// default, or a stored value that fell back to a documented default.
type Diagnostic struct {
	Code    string `json:"code"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Code, d.Path, d.Message)
}

const (
	CodeMalformed       = "CFG_MALFORMED"
	CodeIntervalDefault = "CFG_INTERVAL_DEFAULT"
)
