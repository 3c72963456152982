// Package apperr defines the error taxonomy shared by the ingestion stages.
//
// Errors are plain structs implementing error and Unwrap, so callers inspect
// them with errors.As and errors.Is:
//
//	var fe *apperr.FormatError
//	if errors.As(err, &fe) {
//	    // malformed input line, fe.Line tells which one
//	}
package apperr

import (
	"fmt"
	"strings"
)

// Stage names a pipeline stage for error reporting.
type Stage string

const (
	StageFetch    Stage = "fetch"
	StageDecode   Stage = "decode"
	StageFilter   Stage = "filter"
	StageCompress Stage = "compress"
	StageLoad     Stage = "load"
)

// FormatError reports a malformed fixed-width line or an unparseable field.
//
// Line is the 1-based physical line number in the source file (the header is
// line 1). Field is empty when the whole line is rejected (e.g. too short).
type FormatError struct {
	Line   int
	Field  string
	Value  string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("format error on line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("format error on line %d, field %s (%q): %s", e.Line, e.Field, e.Value, e.Reason)
}

// SchemaError reports a target table whose existing shape does not match
// the persisted row.
type SchemaError struct {
	Table    string
	Mismatch []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("table %s has incompatible schema: %s", e.Table, strings.Join(e.Mismatch, "; "))
}

// TransientError wraps network or database connectivity failures. Callers may
// retry the failed file or batch; nothing in this module retries on its own.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure during %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IntegrityError wraps a constraint violation raised by the database.
type IntegrityError struct {
	Constraint string
	Err        error
}

func (e *IntegrityError) Error() string {
	if e.Constraint == "" {
		return fmt.Sprintf("integrity violation: %v", e.Err)
	}
	return fmt.Sprintf("integrity violation on %s: %v", e.Constraint, e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// BatchError identifies the loader batch that was in flight when a load
// failed. Index is 1-based; Offset is the 0-based position of the batch's
// first row in the record set. Batches before Index stay committed.
type BatchError struct {
	Index  int
	Offset int
	Size   int
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d (rows %d-%d) failed: %v", e.Index, e.Offset, e.Offset+e.Size-1, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// StageError tags an error with the pipeline stage (and file, when one is
// involved) that produced it.
type StageError struct {
	Stage Stage
	File  string
	Err   error
}

func (e *StageError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s stage (%s): %v", e.Stage, e.File, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Wrap returns nil for a nil err, otherwise a *StageError.
func Wrap(stage Stage, file string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, File: file, Err: err}
}
