package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/josephgoksu/weekplan/internal/memory"
	"github.com/josephgoksu/weekplan/internal/planner"
	"github.com/josephgoksu/weekplan/internal/task"
	"github.com/josephgoksu/weekplan/internal/util"
	"github.com/spf13/viper"
)

// PrintError prints an error message without exiting, allowing for recovery.
// The technical error is shown only with --verbose.
func PrintError(userMsg string, technicalErr error) {
	if viper.GetBool("verbose") && technicalErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", technicalErr)
	} else {
		fmt.Fprintln(os.Stderr, userMsg)
	}
}

// LogError logs an error without printing to stderr if verbose mode is off.
func LogError(msg string, err error) {
	if viper.GetBool("verbose") {
		if err != nil {
			fmt.Fprintf(os.Stderr, "[DEBUG] %s: %v\n", msg, err)
		} else {
			fmt.Fprintf(os.Stderr, "[DEBUG] %s\n", msg)
		}
	}
}

// userMessage maps known failures to a message the user can act on.
func userMessage(err error) string {
	var genErr *planner.GenerationError
	switch {
	case errors.Is(err, planner.ErrEmptyBacklog):
		return "Nothing to plan yet. Add a task with `weekplan task add \"Title\"`."
	case errors.Is(err, planner.ErrOracleTimeout):
		return "The planner did not answer in time. Try again, or raise planner.oracle_timeout."
	case errors.Is(err, planner.ErrMalformedCandidate):
		return "The planner returned a plan that could not be read. Try again."
	case errors.As(err, &genErr):
		return "Plan generation failed. Run with --verbose for details."
	case errors.Is(err, util.ErrAmbiguousID):
		return fmt.Sprintf("Error: %v", err)
	case errors.Is(err, memory.ErrNotFound):
		return fmt.Sprintf("Not found: %v", err)
	case errors.Is(err, task.ErrTitleRequired),
		errors.Is(err, task.ErrInvalidPriority),
		errors.Is(err, task.ErrInvalidDeadline),
		errors.Is(err, task.ErrInvalidMinutes):
		return fmt.Sprintf("Invalid task: %v", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

// errorType classifies a generation failure for telemetry without leaking
// any task content.
func errorType(err error) string {
	var genErr *planner.GenerationError
	switch {
	case errors.Is(err, planner.ErrEmptyBacklog):
		return "empty_backlog"
	case errors.Is(err, planner.ErrOracleTimeout):
		return "timeout"
	case errors.Is(err, planner.ErrMalformedCandidate):
		return "malformed"
	case errors.As(err, &genErr):
		return "generation"
	default:
		return "other"
	}
}
