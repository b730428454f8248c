package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/jsondb"
	"github.com/roach88/jsondb/internal/ir"
	"github.com/roach88/jsondb/internal/loader"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Query matched nothing, verification or scenario failure
	ExitCommandError = 2 // Bad arguments, missing database, malformed path
)

// Error codes reported in CLIError.Code.
const (
	CodeSyntax       = "E_SYNTAX"
	CodeUnsupported  = "E_UNSUPPORTED"
	CodeStructure    = "E_STRUCTURE"
	CodeIndex        = "E_INDEX"
	CodeNotFound     = "E_NOT_FOUND"
	CodeLinkCycle    = "E_LINK_CYCLE"
	CodeLoad         = "E_LOAD"
	CodeVerifyFailed = "E_VERIFY_FAILED"
	CodeTestFailed   = "E_TEST_FAILED"
	CodeGeneric      = "E_ERROR"
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	reported bool // already written by an OutputFormatter
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

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// reportedExit is an ExitError for a failure the command has already
// written out.
func reportedExit(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message, reported: true}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Reported reports whether err was already written to the user by an
// OutputFormatter.
func Reported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.reported
}

// ErrorCode maps a document error to the code reported in JSON output.
func ErrorCode(err error) string {
	var loadErr *loader.LoadError
	switch {
	case errors.As(err, &loadErr):
		return CodeLoad
	case errors.Is(err, jsondb.ErrSyntax):
		return CodeSyntax
	case errors.Is(err, jsondb.ErrLinkCycle):
		return CodeLinkCycle
	case errors.Is(err, jsondb.ErrUnsupportedType), errors.Is(err, jsondb.ErrUnsupportedOperation):
		return CodeUnsupported
	case errors.Is(err, jsondb.ErrIllegalStructure):
		return CodeStructure
	case errors.Is(err, jsondb.ErrIndex):
		return CodeIndex
	case errors.Is(err, jsondb.ErrNotFound):
		return CodeNotFound
	}
	return CodeGeneric
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Diagnostics go here so JSON output stays parseable
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success outputs a successful result. In text mode data is printed as is.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Value outputs a document value: canonical JSON in text mode, the value
// itself as the response data in JSON mode.
func (f *OutputFormatter) Value(v any) error {
	if f.Format == "json" {
		return f.Success(v)
	}
	b, err := ir.MarshalCanonical(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f.Writer, string(b))
	return err
}

// Error outputs an error in the configured format.
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

	fmt.Fprintf(f.GetErrWriter(), "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.GetErrWriter(), "Details: %v\n", details)
	}
	return nil
}

// Fail reports err and returns it as an ExitError carrying exitCode.
func (f *OutputFormatter) Fail(exitCode int, message string, err error) error {
	if outErr := f.Error(ErrorCode(err), fmt.Sprintf("%s: %v", message, err), nil); outErr != nil {
		return outErr
	}
	exitErr := reportedExit(exitCode, message)
	exitErr.Err = err
	return exitErr
}

// VerboseLog outputs a message only if verbose mode is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
