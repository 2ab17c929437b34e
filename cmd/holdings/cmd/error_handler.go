package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	pkgerrors "github.com/MalyanDon/data-pipeline-sub002/pkg/errors"
	"github.com/MalyanDon/data-pipeline-sub002/pkg/logger"
)

// CLIErrorHandler turns command errors into user-facing messages and
// process exit codes.
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a handler bound to the current verbosity.
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError prints a user-friendly description of the error and
// returns the exit code the process should finish with.
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Error("Command failed")

	if pipelineErr, ok := pkgerrors.AsPipelineError(err); ok {
		return h.handlePipelineError(pipelineErr)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

func (h *CLIErrorHandler) handlePipelineError(err *pkgerrors.PipelineError) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	if help := categoryHelp(err.Category); help != "" {
		fmt.Fprintf(os.Stderr, "\n%s\n", help)
	}

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

func categoryHelp(category pkgerrors.ErrorCategory) string {
	switch category {
	case pkgerrors.CategoryFile:
		return `File error help:
  - Check that the upload directory exists and is readable
  - Verify the file path is correct
  - Ensure you have read access to the custodian exports`

	case pkgerrors.CategoryFormat:
		return `Format error help:
  - Verify the file is a valid custodian export and not corrupted
  - Check whether the custodian renamed the holdings sheet
  - Confirm the header row offset still matches the export layout`

	case pkgerrors.CategoryMapping, pkgerrors.CategoryValidation:
		return `Data error help:
  - Inspect the validation errors in the run summary for affected rows
  - Check whether the custodian renamed or dropped columns
  - Verify the filename carries a readable record date`

	case pkgerrors.CategoryLoad:
		return `Load error help:
  - Check the DSN and that the database is reachable
  - Verify the database user has the required privileges
  - The failed partition was rolled back; rerun once resolved`

	case pkgerrors.CategoryConfiguration:
		return `Configuration error help:
  - Review command-line flags and HOLDINGS_* environment variables
  - Check the configuration file syntax if using --config
  - Use 'holdings ingest --help' to see all available options`

	default:
		return ""
	}
}
