package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/memrouter/internal/governance"
	"github.com/zero-day-ai/memrouter/internal/lockmgr"
	"github.com/zero-day-ai/memrouter/internal/router"
	"github.com/zero-day-ai/memrouter/internal/tier"
	"github.com/zero-day-ai/memrouter/internal/types"
)

// Exit code constants for the CLI
const (
	ExitSuccess = 0
	ExitError   = 1
	// ExitPartialFailure means a dual-required write landed on one store only.
	ExitPartialFailure = 2
	ExitTimeout        = 3
	ExitCancelled      = 4
	ExitConfigError    = 10
	// ExitBackendError covers offline backends and failed backend operations.
	ExitBackendError = 11
	// ExitRejected covers governance rejections and unknown resources.
	ExitRejected = 12
)

// CLIError represents a CLI-specific error with an exit code
type CLIError struct {
	Code    int
	Message string
	Cause   error
}

// Error implements the error interface
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// WrapError creates a new CLIError wrapping an existing error
func WrapError(code int, message string, err error) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// NewCLIError creates a new CLIError with the given code and message
func NewCLIError(code int, message string) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
	}
}

// HandleError prints err to the command's error output and returns the exit
// code for it.
func HandleError(cmd *cobra.Command, err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, context.Canceled) {
		cmd.PrintErrln("Operation cancelled")
		return ExitCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		cmd.PrintErrln("Operation timed out")
		return ExitTimeout
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		cmd.PrintErrln("Error:", cliErr.Message)
		if cliErr.Cause != nil && verboseRequested(cmd) {
			cmd.PrintErrln("Cause:", cliErr.Cause)
		}
		if cliErr.Code == ExitError {
			return ExitCodeFor(cliErr.Cause)
		}
		return cliErr.Code
	}

	cmd.PrintErrln("Error:", err)
	return ExitCodeFor(err)
}

// ExitCodeFor maps a *types.Error code to an exit code. Errors without a code
// map to ExitError.
func ExitCodeFor(err error) int {
	code := types.CodeOf(err)
	switch {
	case code == "":
		return ExitError
	case code == router.ErrCodePartialTierFailure:
		return ExitPartialFailure
	case code == router.ErrCodeBackendUnavailable,
		code == router.ErrCodeBackendOperationFailed,
		strings.HasPrefix(string(code), "DB_"):
		return ExitBackendError
	case code == governance.ErrCodeGovernanceRejected,
		code == governance.ErrCodeNotSerializable,
		code == tier.ErrCodeUnknownResource:
		return ExitRejected
	case code == lockmgr.ErrCodeLockCancelled:
		return ExitCancelled
	case strings.HasPrefix(string(code), "CONFIG_"),
		code == governance.ErrCodeInvalidConfig,
		code == tier.ErrCodeInvalidMembership:
		return ExitConfigError
	default:
		return ExitError
	}
}

func verboseRequested(cmd *cobra.Command) bool {
	f := cmd.Flag("verbose")
	return f != nil && f.Changed
}

// IsVerbose checks if verbose mode is enabled via environment variable or flag.
// Used by panic recovery before cobra has parsed flags.
func IsVerbose() bool {
	if os.Getenv("MEMROUTER_VERBOSE") != "" {
		return true
	}
	for _, arg := range os.Args {
		if arg == "-v" || arg == "--verbose" {
			return true
		}
	}
	return false
}
