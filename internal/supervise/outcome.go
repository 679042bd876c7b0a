package supervise

import (
	"fmt"
	"time"
)

const (
	outcomeTimedOutStringConstant      = "timed_out"
	outcomeExitedStringConstant        = "exited"
	timedOutDescriptionConstant        = "timed out"
	timedOutForcedDescriptionConstant  = "timed out (force killed)"
	exitedDescriptionTemplateConstant  = "exited with code %d"
	unknownOutcomeDescriptionConstant  = "unknown outcome"
	timedOutProcessExitCodeConstant    = 0
	signalTerminationExitCodeBaseValue = 128
)

// OutcomeKind enumerates the two ways a supervised run can resolve.
type OutcomeKind string

// Exported outcome kinds for reuse across packages.
const (
	// OutcomeTimedOut records that the child was still running when the window elapsed.
	OutcomeTimedOut OutcomeKind = OutcomeKind(outcomeTimedOutStringConstant)
	// OutcomeExited records that the child terminated on its own before the window elapsed.
	OutcomeExited OutcomeKind = OutcomeKind(outcomeExitedStringConstant)
)

// Outcome captures the single resolution of a supervised run.
//
// ExitCode is meaningful only when Kind is OutcomeExited. Children terminated
// by a signal of their own report the shell convention of 128 plus the signal
// number. ForcedKill is meaningful only when Kind is OutcomeTimedOut and
// records that the child ignored the deadline signal and had to be killed.
type Outcome struct {
	Kind       OutcomeKind
	ExitCode   int
	ForcedKill bool
}

// ProcessExitCode translates the outcome into the supervisor's own exit code.
//
// Surviving the window is the success condition, so a timed out child maps to
// zero. A child that exited early propagates its exit code verbatim.
func (outcome Outcome) ProcessExitCode() int {
	if outcome.Kind == OutcomeTimedOut {
		return timedOutProcessExitCodeConstant
	}
	return outcome.ExitCode
}

// String renders a short human-readable description of the outcome.
func (outcome Outcome) String() string {
	switch outcome.Kind {
	case OutcomeTimedOut:
		if outcome.ForcedKill {
			return timedOutForcedDescriptionConstant
		}
		return timedOutDescriptionConstant
	case OutcomeExited:
		return fmt.Sprintf(exitedDescriptionTemplateConstant, outcome.ExitCode)
	default:
		return unknownOutcomeDescriptionConstant
	}
}

// RunReport describes a completed supervised run.
type RunReport struct {
	// Outcome is the single resolution of the run.
	Outcome Outcome
	// ProcessIdentifier is the operating system process identifier of the child.
	ProcessIdentifier int
	// Runtime measures how long the child was observed before the run resolved.
	Runtime time.Duration
}

func signalTerminationExitCode(signalNumber int) int {
	return signalTerminationExitCodeBaseValue + signalNumber
}
