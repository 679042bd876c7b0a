package supervise

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
)

const (
	loggerNotConfiguredMessageConstant   = "logger not configured"
	commandNameRequiredMessageConstant   = "command name required"
	indeterminateOutcomeMessageConstant  = "child process outcome is indeterminate"
	launchFailureMessageTemplateConstant = "unable to start %s: %v"
	indeterminateWrapTemplateConstant    = "%w: %v"
)

// Exported sentinel errors surfaced by Runner construction and execution.
var (
	// ErrLoggerNotConfigured indicates a Runner was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandNameRequired indicates a run specification omitted the command to launch.
	ErrCommandNameRequired = errors.New(commandNameRequiredMessageConstant)
	// ErrIndeterminateOutcome indicates the child terminated in a way that maps to
	// neither a timed out nor an exited outcome, so no exit code can be reported.
	ErrIndeterminateOutcome = errors.New(indeterminateOutcomeMessageConstant)
)

// LaunchError reports that the child process never started.
type LaunchError struct {
	CommandName string
	Cause       error
}

// Error describes the launch failure including the underlying cause.
func (launchError *LaunchError) Error() string {
	return fmt.Sprintf(launchFailureMessageTemplateConstant, launchError.CommandName, launchError.Cause)
}

// Unwrap exposes the underlying cause for errors.Is and errors.As inspection.
func (launchError *LaunchError) Unwrap() error {
	return launchError.Cause
}

// CommandNotFound reports whether the launch failed because the executable does not exist.
func (launchError *LaunchError) CommandNotFound() bool {
	if launchError == nil || launchError.Cause == nil {
		return false
	}
	if errors.Is(launchError.Cause, exec.ErrNotFound) {
		return true
	}
	return errors.Is(launchError.Cause, fs.ErrNotExist)
}

func newIndeterminateOutcomeError(cause error) error {
	return fmt.Errorf(indeterminateWrapTemplateConstant, ErrIndeterminateOutcome, cause)
}
