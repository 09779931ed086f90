package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/warp/inventory-ledger/inventory"
	"github.com/warp/inventory-ledger/report"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Domain failure (insufficient stock, invalid input, conflict)
	ExitCommandError = 2 // Command error (storage, bad flags, unknown command)
)

// Error codes used in JSON error responses.
const (
	CodeInsufficientStock = "insufficient_stock"
	CodeInvalidInput      = "invalid_input"
	CodeConflict          = "conflict"
	CodeStoreBusy         = "store_busy"
	CodeStorage           = "storage"
)

// ExitError represents an error with a specific exit code.
// An empty Message means the failure was already reported on stdout.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil && e.Message != "" {
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

// GetExitCode extracts the exit code from an error.
// Returns ExitCommandError if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
	Currency  string
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
	RunID  string    `json:"run_id,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "insufficient_stock", "invalid_input", ...
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Printer returns a text report writer bound to the formatter's output.
func (f *OutputFormatter) Printer() *report.Printer {
	return report.New(f.Writer, f.Currency)
}

// Success outputs data as JSON, or runs text against the report printer.
func (f *OutputFormatter) Success(data any, text func(p *report.Printer)) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	text(f.Printer())
	return nil
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

	// Human-readable error
	fmt.Fprintf(f.GetErrWriter(), "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.GetErrWriter(), "Details: %v\n", details)
	}
	return nil
}

// LedgerError reports a ledger failure and returns the matching ExitError.
// Insufficient stock in text mode prints the informational sale message.
func (f *OutputFormatter) LedgerError(err error) error {
	var short *inventory.InsufficientStockError
	var invalid *inventory.ValidationError

	switch {
	case errors.As(err, &short):
		if f.Format == "json" {
			f.Error(CodeInsufficientStock, err.Error(), short)
		} else {
			f.Printer().InsufficientStock(short.ProductName)
		}
		return &ExitError{Code: ExitFailure, Err: err}

	case errors.As(err, &invalid):
		f.Error(CodeInvalidInput, err.Error(), invalid.Fields)
		return &ExitError{Code: ExitFailure, Err: err}

	case errors.Is(err, inventory.ErrInvalidInput):
		f.Error(CodeInvalidInput, err.Error(), nil)
		return &ExitError{Code: ExitFailure, Err: err}

	case errors.Is(err, inventory.ErrConflict):
		f.Error(CodeConflict, err.Error(), nil)
		return &ExitError{Code: ExitFailure, Err: err}

	case inventory.IsRetryable(err):
		f.Error(CodeStoreBusy, err.Error(), "retry the command")
		return &ExitError{Code: ExitCommandError, Err: err}

	default:
		f.Error(CodeStorage, err.Error(), nil)
		return &ExitError{Code: ExitCommandError, Err: err}
	}
}

// VerboseLog outputs a message only if verbose mode is enabled.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
