package ui

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vanderbilt-design-studio/soakrun/internal/supervise"
)

const (
	runStartedMessageTemplateConstant      = "Running %s for %s"
	deadlineMessageTemplateConstant        = "Window elapsed; sent %s to process %d"
	forceKillMessageTemplateConstant       = "Process %d ignored the deadline signal; killed after %s"
	survivedMessageTemplateConstant        = "%s survived the window (ran %s)"
	earlyExitMessageTemplateConstant       = "%s exited with code %d after %s"
	runFailureMessageTemplateConstant      = "%s failed: %s"
	workingDirectorySuffixTemplateConstant = " (in %s)"
	commandArgumentsJoinSeparatorConstant  = " "
	unknownFailureMessageConstant          = "unknown error"
	runtimeRoundingUnitConstant            = time.Millisecond
)

// RunEventFormatter builds human-readable messages for supervised run lifecycle events.
type RunEventFormatter struct{}

// BuildStartedMessage formats the message describing a child that is about to be supervised.
func (formatter RunEventFormatter) BuildStartedMessage(event supervise.RunStartEvent) string {
	return fmt.Sprintf(runStartedMessageTemplateConstant, formatter.formatCommandLabel(event), event.WindowDuration)
}

// BuildDeadlineMessage formats the message describing the window elapsing.
func (formatter RunEventFormatter) BuildDeadlineMessage(event supervise.DeadlineEvent) string {
	return fmt.Sprintf(deadlineMessageTemplateConstant, supervise.FormatSignal(event.SignalSent), event.ProcessIdentifier)
}

// BuildForceKillMessage formats the message describing the SIGKILL escalation.
func (formatter RunEventFormatter) BuildForceKillMessage(event supervise.ForceKillEvent) string {
	return fmt.Sprintf(forceKillMessageTemplateConstant, event.ProcessIdentifier, event.ForceKillDelay)
}

// BuildCompletionMessage formats the message describing a resolved run.
func (formatter RunEventFormatter) BuildCompletionMessage(event supervise.RunCompletionEvent) string {
	roundedRuntime := event.Report.Runtime.Round(runtimeRoundingUnitConstant)
	if event.Report.Outcome.Kind == supervise.OutcomeTimedOut {
		return fmt.Sprintf(survivedMessageTemplateConstant, event.CommandName, roundedRuntime)
	}
	return fmt.Sprintf(earlyExitMessageTemplateConstant, event.CommandName, event.Report.Outcome.ExitCode, roundedRuntime)
}

// BuildFailureMessage formats the message describing a run that never resolved.
func (formatter RunEventFormatter) BuildFailureMessage(event supervise.RunFailureEvent) string {
	failureMessage := unknownFailureMessageConstant
	if event.Failure != nil {
		failureMessage = event.Failure.Error()
	}
	return fmt.Sprintf(runFailureMessageTemplateConstant, event.CommandName, failureMessage)
}

func (formatter RunEventFormatter) formatCommandLabel(event supervise.RunStartEvent) string {
	commandParts := []string{event.CommandName}
	if len(event.CommandArguments) > 0 {
		commandParts = append(commandParts, strings.Join(event.CommandArguments, commandArgumentsJoinSeparatorConstant))
	}

	commandLabel := strings.Join(commandParts, commandArgumentsJoinSeparatorConstant)
	trimmedWorkingDirectory := strings.TrimSpace(event.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return commandLabel
	}
	return commandLabel + fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

// ConsoleRunEventLogger renders run lifecycle events using a zap logger configured for human-readable output.
type ConsoleRunEventLogger struct {
	logger    *zap.Logger
	formatter RunEventFormatter
}

// NewConsoleRunEventLogger constructs a console event logger backed by the provided zap logger.
func NewConsoleRunEventLogger(logger *zap.Logger) *ConsoleRunEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleRunEventLogger{logger: logger, formatter: RunEventFormatter{}}
}

// RunStarted implements supervise.RunEventObserver by logging launch notifications.
func (eventLogger *ConsoleRunEventLogger) RunStarted(event supervise.RunStartEvent) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Info(eventLogger.formatter.BuildStartedMessage(event))
}

// DeadlineReached implements supervise.RunEventObserver by logging deadline notifications.
func (eventLogger *ConsoleRunEventLogger) DeadlineReached(event supervise.DeadlineEvent) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Info(eventLogger.formatter.BuildDeadlineMessage(event))
}

// ForceKillIssued implements supervise.RunEventObserver by logging SIGKILL escalations.
func (eventLogger *ConsoleRunEventLogger) ForceKillIssued(event supervise.ForceKillEvent) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Warn(eventLogger.formatter.BuildForceKillMessage(event))
}

// RunCompleted implements supervise.RunEventObserver by logging resolved runs.
func (eventLogger *ConsoleRunEventLogger) RunCompleted(event supervise.RunCompletionEvent) {
	if eventLogger == nil {
		return
	}
	if event.Report.Outcome.Kind == supervise.OutcomeTimedOut {
		eventLogger.logger.Info(eventLogger.formatter.BuildCompletionMessage(event))
		return
	}
	eventLogger.logger.Warn(eventLogger.formatter.BuildCompletionMessage(event))
}

// RunFailed implements supervise.RunEventObserver by logging unresolved failures.
func (eventLogger *ConsoleRunEventLogger) RunFailed(event supervise.RunFailureEvent) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Error(eventLogger.formatter.BuildFailureMessage(event))
}
