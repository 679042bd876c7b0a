package supervise

import (
	"syscall"
	"time"
)

// RunStartEvent describes a child process that has just been started.
type RunStartEvent struct {
	CommandName       string
	CommandArguments  []string
	WorkingDirectory  string
	ProcessIdentifier int
	WindowDuration    time.Duration
}

// DeadlineEvent describes the window deadline elapsing while the child was still running.
type DeadlineEvent struct {
	ProcessIdentifier int
	SignalSent        syscall.Signal
}

// ForceKillEvent describes the escalation to SIGKILL after the grace delay elapsed.
type ForceKillEvent struct {
	ProcessIdentifier int
	ForceKillDelay    time.Duration
}

// RunCompletionEvent describes a run that resolved to an outcome.
type RunCompletionEvent struct {
	CommandName string
	Report      RunReport
}

// RunFailureEvent describes a run that failed before an outcome could be determined.
type RunFailureEvent struct {
	CommandName string
	Failure     error
}

// RunEventObserver receives lifecycle notifications for supervised runs.
type RunEventObserver interface {
	// RunStarted notifies observers that the child process has been launched.
	RunStarted(event RunStartEvent)
	// DeadlineReached notifies observers that the window elapsed and a signal was delivered.
	DeadlineReached(event DeadlineEvent)
	// ForceKillIssued notifies observers that the child outlived the grace delay and was killed.
	ForceKillIssued(event ForceKillEvent)
	// RunCompleted notifies observers that the run resolved and supplies the report.
	RunCompleted(event RunCompletionEvent)
	// RunFailed reports failures that prevented the run from resolving to an outcome.
	RunFailed(event RunFailureEvent)
}

// noopRunEventObserver discards all run events.
type noopRunEventObserver struct{}

// RunStarted implements RunEventObserver for the no-op observer.
func (noopRunEventObserver) RunStarted(RunStartEvent) {}

// DeadlineReached implements RunEventObserver for the no-op observer.
func (noopRunEventObserver) DeadlineReached(DeadlineEvent) {}

// ForceKillIssued implements RunEventObserver for the no-op observer.
func (noopRunEventObserver) ForceKillIssued(ForceKillEvent) {}

// RunCompleted implements RunEventObserver for the no-op observer.
func (noopRunEventObserver) RunCompleted(RunCompletionEvent) {}

// RunFailed implements RunEventObserver for the no-op observer.
func (noopRunEventObserver) RunFailed(RunFailureEvent) {}
