package supervise

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	environmentAssignmentSeparatorConstant = "="
	environmentAssignmentTemplateConstant  = "%s%s%s"

	runStartedLogMessageConstant           = "child process started"
	runExitedLogMessageConstant            = "child process exited before the window elapsed"
	deadlineReachedLogMessageConstant      = "window elapsed; deadline signal sent"
	signalRaceLogMessageConstant           = "deadline signal undeliverable; reconciling actual exit status"
	forceKillLogMessageConstant            = "child ignored deadline signal; process group killed"
	runOutlivedWindowLogMessageConstant    = "child outlived the window"
	runCanceledLogMessageConstant          = "run canceled before resolution"
	launchFailedLogMessageConstant         = "unable to start child process"
	outcomeIndeterminateLogMessageConstant = "child terminated without a classifiable status"

	logFieldCommandNameConstant       = "command_name"
	logFieldCommandArgumentsConstant  = "command_arguments"
	logFieldProcessIdentifierConstant = "process_id"
	logFieldWindowDurationConstant    = "window_duration"
	logFieldExitCodeConstant          = "exit_code"
	logFieldRuntimeConstant           = "runtime"
	logFieldSignalConstant            = "signal"
	logFieldForceKillDelayConstant    = "force_kill_delay"
)

// RunSpecification describes the child process to launch and the window it must survive.
type RunSpecification struct {
	// CommandName is the executable to launch, resolved through PATH when it has no separator.
	CommandName string
	// CommandArguments are passed to the child verbatim.
	CommandArguments []string
	// WorkingDirectory sets the child's working directory when non-empty.
	WorkingDirectory string
	// EnvironmentVariables are merged over the supervisor's own environment.
	EnvironmentVariables map[string]string
	// StandardInput, StandardOutput, and StandardError are connected to the child unchanged.
	StandardInput  io.Reader
	StandardOutput io.Writer
	StandardError  io.Writer
	// WindowDuration is how long the child must keep running. Zero or negative
	// windows are treated as already elapsed.
	WindowDuration time.Duration
	// DeadlineSignal is delivered to the child's process group when the window
	// elapses. Zero selects DefaultDeadlineSignal.
	DeadlineSignal syscall.Signal
	// ForceKillDelay bounds how long the runner waits for the child to honor
	// the deadline signal before killing the process group. Zero waits
	// indefinitely.
	ForceKillDelay time.Duration
}

func (specification RunSpecification) normalize() (RunSpecification, error) {
	normalized := specification
	normalized.CommandName = strings.TrimSpace(specification.CommandName)
	if len(normalized.CommandName) == 0 {
		return RunSpecification{}, ErrCommandNameRequired
	}

	normalized.WorkingDirectory = strings.TrimSpace(specification.WorkingDirectory)

	if normalized.DeadlineSignal == 0 {
		normalized.DeadlineSignal = DefaultDeadlineSignal
	}

	if normalized.ForceKillDelay < 0 {
		normalized.ForceKillDelay = 0
	}

	return normalized, nil
}

// Runner supervises child processes against a time window and resolves each
// run to exactly one outcome.
type Runner struct {
	logger        *zap.Logger
	eventObserver RunEventObserver
}

// NewRunner constructs a Runner using the supplied logger and optional event observer.
func NewRunner(logger *zap.Logger, eventObserver RunEventObserver) (*Runner, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if eventObserver == nil {
		eventObserver = noopRunEventObserver{}
	}
	return &Runner{logger: logger, eventObserver: eventObserver}, nil
}

// Run launches the child described by the specification and races its exit
// against the window deadline.
//
// A child that is still running when the window elapses receives the deadline
// signal on its process group and resolves to a TimedOut outcome. A child that
// terminates first resolves to an Exited outcome carrying its exit code. When
// the signal cannot be delivered because the child terminated in the instant
// the deadline fired, the run is reconciled against the child's actual exit
// status instead of guessing. Context cancellation tears the child down and
// surfaces the context error without an outcome.
func (runner *Runner) Run(executionContext context.Context, specification RunSpecification) (RunReport, error) {
	normalizedSpecification, validationError := specification.normalize()
	if validationError != nil {
		return RunReport{}, validationError
	}

	command := exec.Command(normalizedSpecification.CommandName, normalizedSpecification.CommandArguments...)
	command.Dir = normalizedSpecification.WorkingDirectory
	command.Stdin = normalizedSpecification.StandardInput
	command.Stdout = normalizedSpecification.StandardOutput
	command.Stderr = normalizedSpecification.StandardError
	command.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if len(normalizedSpecification.EnvironmentVariables) > 0 {
		command.Env = mergedEnvironment(normalizedSpecification.EnvironmentVariables)
	}

	if normalizedSpecification.ForceKillDelay > 0 {
		command.WaitDelay = normalizedSpecification.ForceKillDelay
	}

	startTime := time.Now()
	if startError := command.Start(); startError != nil {
		launchError := &LaunchError{CommandName: normalizedSpecification.CommandName, Cause: startError}
		runner.logger.Error(
			launchFailedLogMessageConstant,
			zap.String(logFieldCommandNameConstant, normalizedSpecification.CommandName),
			zap.Error(startError),
		)
		runner.eventObserver.RunFailed(RunFailureEvent{CommandName: normalizedSpecification.CommandName, Failure: launchError})
		return RunReport{}, launchError
	}

	processIdentifier := command.Process.Pid

	runner.logger.Debug(
		runStartedLogMessageConstant,
		zap.String(logFieldCommandNameConstant, normalizedSpecification.CommandName),
		zap.Strings(logFieldCommandArgumentsConstant, normalizedSpecification.CommandArguments),
		zap.Int(logFieldProcessIdentifierConstant, processIdentifier),
		zap.Duration(logFieldWindowDurationConstant, normalizedSpecification.WindowDuration),
	)
	runner.eventObserver.RunStarted(RunStartEvent{
		CommandName:       normalizedSpecification.CommandName,
		CommandArguments:  normalizedSpecification.CommandArguments,
		WorkingDirectory:  normalizedSpecification.WorkingDirectory,
		ProcessIdentifier: processIdentifier,
		WindowDuration:    normalizedSpecification.WindowDuration,
	})

	waitResults := make(chan error, 1)
	go func() {
		waitResults <- command.Wait()
	}()

	deadlineTimer := time.NewTimer(normalizedSpecification.WindowDuration)
	defer deadlineTimer.Stop()

	select {
	case waitError := <-waitResults:
		return runner.resolveEarlyExit(normalizedSpecification, processIdentifier, startTime, waitError)
	case <-executionContext.Done():
		return runner.resolveCancellation(executionContext, normalizedSpecification, processIdentifier, startTime, waitResults)
	case <-deadlineTimer.C:
		return runner.resolveDeadline(normalizedSpecification, processIdentifier, startTime, waitResults)
	}
}

// resolveEarlyExit classifies a child that terminated before the window elapsed.
func (runner *Runner) resolveEarlyExit(specification RunSpecification, processIdentifier int, startTime time.Time, waitError error) (RunReport, error) {
	observedRuntime := time.Since(startTime)

	outcome, classificationError := classifyWaitResult(waitError)
	if classificationError != nil {
		runner.logger.Error(
			outcomeIndeterminateLogMessageConstant,
			zap.Int(logFieldProcessIdentifierConstant, processIdentifier),
			zap.Error(waitError),
		)
		runner.eventObserver.RunFailed(RunFailureEvent{CommandName: specification.CommandName, Failure: classificationError})
		return RunReport{}, classificationError
	}

	report := RunReport{Outcome: outcome, ProcessIdentifier: processIdentifier, Runtime: observedRuntime}

	runner.logger.Info(
		runExitedLogMessageConstant,
		zap.Int(logFieldProcessIdentifierConstant, processIdentifier),
		zap.Int(logFieldExitCodeConstant, outcome.ExitCode),
		zap.Duration(logFieldRuntimeConstant, observedRuntime),
	)
	runner.eventObserver.RunCompleted(RunCompletionEvent{CommandName: specification.CommandName, Report: report})

	return report, nil
}

// resolveDeadline handles an elapsed window: it rechecks whether the child beat
// the deadline, delivers the deadline signal, and waits for the child to die.
func (runner *Runner) resolveDeadline(specification RunSpecification, processIdentifier int, startTime time.Time, waitResults <-chan error) (RunReport, error) {
	select {
	case waitError := <-waitResults:
		// The child terminated in the same instant the deadline fired; its
		// own exit status wins.
		return runner.resolveEarlyExit(specification, processIdentifier, startTime, waitError)
	default:
	}

	if signalError := signalProcessGroup(processIdentifier, specification.DeadlineSignal); signalError != nil {
		// The child vanished between the deadline firing and signal delivery,
		// so reconcile against the exit status it actually produced.
		runner.logger.Debug(
			signalRaceLogMessageConstant,
			zap.Int(logFieldProcessIdentifierConstant, processIdentifier),
			zap.Error(signalError),
		)
		waitError := <-waitResults
		return runner.resolveEarlyExit(specification, processIdentifier, startTime, waitError)
	}

	runner.logger.Info(
		deadlineReachedLogMessageConstant,
		zap.Int(logFieldProcessIdentifierConstant, processIdentifier),
		zap.String(logFieldSignalConstant, FormatSignal(specification.DeadlineSignal)),
	)
	runner.eventObserver.DeadlineReached(DeadlineEvent{ProcessIdentifier: processIdentifier, SignalSent: specification.DeadlineSignal})

	forcedKill := runner.awaitTermination(specification, processIdentifier, waitResults)

	report := RunReport{
		Outcome:           Outcome{Kind: OutcomeTimedOut, ForcedKill: forcedKill},
		ProcessIdentifier: processIdentifier,
		Runtime:           time.Since(startTime),
	}

	runner.logger.Info(
		runOutlivedWindowLogMessageConstant,
		zap.Int(logFieldProcessIdentifierConstant, processIdentifier),
		zap.Duration(logFieldWindowDurationConstant, specification.WindowDuration),
		zap.Duration(logFieldRuntimeConstant, report.Runtime),
	)
	runner.eventObserver.RunCompleted(RunCompletionEvent{CommandName: specification.CommandName, Report: report})

	return report, nil
}

// resolveCancellation tears the child down after context cancellation and
// surfaces the context error instead of an outcome. A child that already
// terminated keeps its real outcome.
func (runner *Runner) resolveCancellation(executionContext context.Context, specification RunSpecification, processIdentifier int, startTime time.Time, waitResults <-chan error) (RunReport, error) {
	select {
	case waitError := <-waitResults:
		return runner.resolveEarlyExit(specification, processIdentifier, startTime, waitError)
	default:
	}

	if signalError := signalProcessGroup(processIdentifier, specification.DeadlineSignal); signalError == nil {
		runner.awaitTermination(specification, processIdentifier, waitResults)
	} else {
		<-waitResults
	}

	cancellationError := executionContext.Err()
	runner.logger.Warn(
		runCanceledLogMessageConstant,
		zap.Int(logFieldProcessIdentifierConstant, processIdentifier),
		zap.Error(cancellationError),
	)
	runner.eventObserver.RunFailed(RunFailureEvent{CommandName: specification.CommandName, Failure: cancellationError})

	return RunReport{}, cancellationError
}

// awaitTermination reaps the signaled child, escalating to SIGKILL on the
// whole process group once the configured grace delay elapses. It reports
// whether the escalation was needed.
func (runner *Runner) awaitTermination(specification RunSpecification, processIdentifier int, waitResults <-chan error) bool {
	if specification.ForceKillDelay <= 0 {
		<-waitResults
		return false
	}

	killTimer := time.NewTimer(specification.ForceKillDelay)
	defer killTimer.Stop()

	select {
	case <-waitResults:
		return false
	case <-killTimer.C:
	}

	_ = signalProcessGroup(processIdentifier, syscall.SIGKILL)
	runner.logger.Warn(
		forceKillLogMessageConstant,
		zap.Int(logFieldProcessIdentifierConstant, processIdentifier),
		zap.Duration(logFieldForceKillDelayConstant, specification.ForceKillDelay),
	)
	runner.eventObserver.ForceKillIssued(ForceKillEvent{ProcessIdentifier: processIdentifier, ForceKillDelay: specification.ForceKillDelay})

	<-waitResults
	return true
}

// classifyWaitResult maps the error returned by Wait onto an Exited outcome.
func classifyWaitResult(waitError error) (Outcome, error) {
	if waitError == nil {
		return Outcome{Kind: OutcomeExited, ExitCode: 0}, nil
	}

	if errors.Is(waitError, exec.ErrWaitDelay) {
		// The child exited cleanly but something it spawned still holds its
		// output pipes; the child's own status is success.
		return Outcome{Kind: OutcomeExited, ExitCode: 0}, nil
	}

	exitError := &exec.ExitError{}
	if errors.As(waitError, &exitError) {
		if exitCode := exitError.ExitCode(); exitCode >= 0 {
			return Outcome{Kind: OutcomeExited, ExitCode: exitCode}, nil
		}
		if waitStatus, hasWaitStatus := exitError.Sys().(syscall.WaitStatus); hasWaitStatus && waitStatus.Signaled() {
			return Outcome{Kind: OutcomeExited, ExitCode: signalTerminationExitCode(int(waitStatus.Signal()))}, nil
		}
	}

	return Outcome{}, newIndeterminateOutcomeError(waitError)
}

// signalProcessGroup delivers the signal to the child's whole process group so
// descendants spawned by the child receive it as well.
func signalProcessGroup(processIdentifier int, signalToSend syscall.Signal) error {
	return syscall.Kill(-processIdentifier, signalToSend)
}

func mergedEnvironment(environmentVariables map[string]string) []string {
	merged := append([]string{}, os.Environ()...)
	for environmentKey, environmentValue := range environmentVariables {
		merged = append(merged, fmt.Sprintf(environmentAssignmentTemplateConstant, environmentKey, environmentAssignmentSeparatorConstant, environmentValue))
	}
	return merged
}
