package run

import "fmt"

const exitStatusMessageTemplateConstant = "exit status %d"

// ExitCodeError instructs the process entry point to terminate with a
// specific exit code. A nil Cause means the code already tells the whole
// story, such as a child exit code propagated verbatim, and nothing further
// should be printed.
type ExitCodeError struct {
	ExitCode int
	Cause    error
}

// Error describes the failure, falling back to the bare exit status.
func (exitCodeError *ExitCodeError) Error() string {
	if exitCodeError == nil {
		return ""
	}
	if exitCodeError.Cause != nil {
		return exitCodeError.Cause.Error()
	}
	return fmt.Sprintf(exitStatusMessageTemplateConstant, exitCodeError.ExitCode)
}

// Unwrap exposes the underlying cause for errors.Is and errors.As inspection.
func (exitCodeError *ExitCodeError) Unwrap() error {
	if exitCodeError == nil {
		return nil
	}
	return exitCodeError.Cause
}
