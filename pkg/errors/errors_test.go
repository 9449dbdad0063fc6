package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/stretchr/testify/assert"
)

func TestStageErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *StageError
		expected string
	}{
		{
			name:     "message only",
			err:      NewStageError("boom"),
			expected: "boom",
		},
		{
			name:     "stage and file",
			err:      NewStageError("file not found").AddStage(StageIngest).AddFile("caract-2024.csv"),
			expected: "stage 'ingest' -> file 'caract-2024.csv': file not found",
		},
		{
			name:     "full path",
			err:      NewStageError("duplicate key").AddStage(StageJoin).AddFile("lieux.csv").AddColumn("Num_Acc").AddKey("42"),
			expected: "stage 'join' -> file 'lieux.csv' -> column 'Num_Acc' -> key '42': duplicate key",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, test.err.Error())
		})
	}
}

func TestNewStageErrorfKeepsCause(t *testing.T) {
	denied := errors.New("permission denied")
	missing := errors.New("no such file")

	tests := []struct {
		name     string
		format   string
		args     []any
		message  string
		cause    error
		notCause error
	}{
		{
			name:    "single wrap",
			format:  "failed to open: %w",
			args:    []any{denied},
			message: "failed to open: permission denied",
			cause:   denied,
		},
		{
			name:     "wrap after a plain error",
			format:   "after %v: %w",
			args:     []any{missing, denied},
			message:  "after no such file: permission denied",
			cause:    denied,
			notCause: missing,
		},
		{
			name:     "wrap before a plain error",
			format:   "%w (ignored %v)",
			args:     []any{denied, missing},
			message:  "permission denied (ignored no such file)",
			cause:    denied,
			notCause: missing,
		},
		{
			name:    "two wraps keep the first",
			format:  "%w then %w",
			args:    []any{denied, missing},
			message: "permission denied then no such file",
			cause:   denied,
		},
		{
			name:     "no wrap verb",
			format:   "failed: %v",
			args:     []any{denied},
			message:  "failed: permission denied",
			notCause: denied,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := NewStageErrorf(test.format, test.args...)
			assert.Equal(t, test.message, err.Message)
			assert.Equal(t, test.cause, errors.Unwrap(err))
			if test.notCause != nil {
				assert.False(t, errors.Is(err, test.notCause))
			}
		})
	}
}

func TestWrapStageError(t *testing.T) {
	assert.Nil(t, WrapStageError(nil))

	original := NewStageError("x").AddStage(StageWrite)
	assert.Same(t, original, WrapStageError(original))

	wrapped := WrapStageError(errors.New("plain"))
	assert.Equal(t, "plain", wrapped.Message)
	assert.True(t, IsStageError(wrapped))
	assert.False(t, IsStageError(errors.New("plain")))
}

func TestToHTTPError(t *testing.T) {
	httpErr := NewStageError("nope").AddStage(StagePersist).ToHTTPError()
	assert.True(t, httperror.IsHTTPError(httpErr))
	assert.Equal(t, http.StatusInternalServerError, httperror.GetStatusCode(httpErr))
	assert.Equal(t, StagePersist, httpErr.Meta["stage"])
}
