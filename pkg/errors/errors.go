package errors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
)

// Pipeline stages named in StageError.
const (
	StageConfig    = "config"
	StageIngest    = "ingest"
	StageNormalize = "normalize"
	StageJoin      = "join"
	StageAggregate = "aggregate"
	StageAssemble  = "assemble"
	StageWrite     = "write"
	StagePersist   = "persist"
	StagePublish   = "publish"
)

// StageError is a fatal pipeline error. It records where the run stopped so
// the operator can tell which stage and which file caused it.
type StageError struct {
	Stage   string
	File    string
	Column  string
	Key     string
	Message string
	cause   error
}

func NewStageError(msg string) *StageError {
	return &StageError{Message: msg}
}

// NewStageErrorf creates a StageError with a formatted message. The error
// bound to the first %w verb is kept as the cause.
func NewStageErrorf(format string, args ...any) *StageError {
	formatted := fmt.Errorf(format, args...)

	var cause error
	switch w := formatted.(type) {
	case interface{ Unwrap() error }:
		cause = w.Unwrap()
	case interface{ Unwrap() []error }:
		if errs := w.Unwrap(); len(errs) > 0 {
			cause = errs[0]
		}
	}

	return &StageError{
		Message: formatted.Error(),
		cause:   cause,
	}
}

// WrapStageError returns e as a StageError, keeping an existing one untouched.
func WrapStageError(e error) *StageError {
	if e == nil {
		return nil
	}

	if stageError, ok := e.(*StageError); ok {
		return stageError
	}

	return &StageError{
		Message: e.Error(),
		cause:   e,
	}
}

func (e *StageError) Error() string {
	path := []string{}
	if e.Stage != "" {
		path = append(path, fmt.Sprintf("stage '%s'", e.Stage))
	}
	if e.File != "" {
		path = append(path, fmt.Sprintf("file '%s'", e.File))
	}
	if e.Column != "" {
		path = append(path, fmt.Sprintf("column '%s'", e.Column))
	}
	if e.Key != "" {
		path = append(path, fmt.Sprintf("key '%s'", e.Key))
	}

	if len(path) == 0 {
		return e.Message
	}

	return strings.Join(path, " -> ") + ": " + e.Message
}

func (e *StageError) Unwrap() error {
	return e.cause
}

func (e *StageError) AddStage(stage string) *StageError {
	e.Stage = stage
	return e
}

func (e *StageError) AddFile(file string) *StageError {
	e.File = file
	return e
}

func (e *StageError) AddColumn(column string) *StageError {
	e.Column = column
	return e
}

func (e *StageError) AddKey(key string) *StageError {
	e.Key = key
	return e
}

func (e *StageError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusInternalServerError, e.Error()).
		AddMetaValue("stage", e.Stage).
		AddMetaValue("file", e.File).
		AddMetaValue("column", e.Column).
		AddMetaValue("key", e.Key)
}

func IsStageError(err error) bool {
	_, ok := err.(*StageError)
	return ok
}
