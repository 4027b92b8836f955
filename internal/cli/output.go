package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Process exit codes. A command exits ExitFailure when the tree itself is
// at fault and ExitCommandError when the request never reached the engine
// or named something that does not exist.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // partial move, non-contiguous group, failed scenario
	ExitCommandError = 2 // bad flags, unknown node, duplicate ID, database unreachable
)

// Error codes carried in the JSON envelope.
const (
	CodeCommand     = "E_COMMAND"     // engine rejected the request
	CodeConflict    = "E_CONFLICT"    // add: the node ID is taken
	CodeInvariant   = "E_INVARIANT"   // a sibling group is not 0..n-1
	CodePersistence = "E_PERSISTENCE" // a write failed after earlier writes of the move landed
	CodeTestFailed  = "E_TEST_FAILED" // test: at least one scenario failed
)

// ExitError carries the process exit code out of a command's RunE so that
// main can tell a broken sibling group apart from a mistyped node ID.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError returns an ExitError with no underlying engine or store error.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code to an engine or store error.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the exit code carried by err, or ExitFailure for an
// error that never passed through a command's classification.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter renders command results as text or as one JSON envelope
// per invocation. Verbose progress (per-group verify marks, per-scenario
// test lines) goes to ErrWriter so stdout stays a single parseable document.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // falls back to Writer when nil
	Verbose   bool
}

// CLIResponse is the JSON envelope. Data holds the command's payload:
// the placed node for add, a GroupListing for list, a MoveResult for move
// and a VerifyResult for verify.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error half of the envelope. Code is one of the Code*
// constants; Details is the wrapped engine error text, or the VerifyResult
// listing every broken group.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success writes data, as the envelope's payload in JSON mode.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error writes an error envelope. In text mode details are shown only
// with --verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog writes one progress line when --verbose is set.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
