package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/vanderbilt-design-studio/soakrun/cmd/cli"
	"github.com/vanderbilt-design-studio/soakrun/cmd/cli/run"
)

const (
	exitErrorTemplateConstant       = "%v\n"
	internalFailureExitCodeConstant = 125
)

// main executes the soakrun command-line application. Exit codes mirror the
// shell's conventions: the supervised command's own code when it stopped
// early, 127/126 for launch failures, and 125 for supervisor-internal errors
// so callers can always tell the supervisor's failures from the command's.
func main() {
	executionError := cli.Execute()
	if executionError == nil {
		return
	}

	var exitCodeError *run.ExitCodeError
	if errors.As(executionError, &exitCodeError) {
		if exitCodeError.Cause != nil {
			fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, exitCodeError.Cause)
		}
		os.Exit(exitCodeError.ExitCode)
	}

	fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
	os.Exit(internalFailureExitCodeConstant)
}
