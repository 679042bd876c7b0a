package run

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vanderbilt-design-studio/soakrun/internal/supervise"
	"github.com/vanderbilt-design-studio/soakrun/internal/ui"
	"github.com/vanderbilt-design-studio/soakrun/internal/utils"
	flagutils "github.com/vanderbilt-design-studio/soakrun/internal/utils/flags"
)

const (
	commandUseConstant               = "run [flags] -- <command> [arguments...]"
	commandShortDescriptionConstant  = "Run a command and prove it survives a time window"
	commandLongDescriptionConstant   = "run launches the given command, waits up to --for, and sends --signal to its process group when the window elapses. Surviving the window is the success condition: the run exits 0. A command that stops early propagates its own exit code instead."
	forFlagNameConstant              = "for"
	forFlagDescriptionConstant       = "Window the command must survive (Go duration or bare seconds)"
	signalFlagNameConstant           = "signal"
	signalFlagShorthandConstant      = "s"
	signalFlagDescriptionConstant    = "Signal sent when the window elapses (name or number)"
	killAfterFlagNameConstant        = "kill-after"
	killAfterFlagDescriptionConstant = "Kill the process group when the deadline signal is ignored this long (0 waits indefinitely)"
	dirFlagNameConstant              = "dir"
	dirFlagDescriptionConstant       = "Working directory for the command"
	quietFlagNameConstant            = "quiet"
	quietFlagDescriptionConstant     = "Suppress the verdict line"

	targetCommandRequiredMessageConstant       = "target command required; provide arguments after -- or configure tools.run.target"
	configurationFileAppliedLogMessageConstant = "configuration file applied"
	logFieldConfigurationFileConstant          = "configuration_file"

	launchNotFoundExitCodeConstant  = 127
	launchFailureExitCodeConstant   = 126
	internalFailureExitCodeConstant = 125
)

// SupervisingRunner launches a child process and resolves it against a window.
type SupervisingRunner interface {
	Run(executionContext context.Context, specification supervise.RunSpecification) (supervise.RunReport, error)
}

// CommandBuilder assembles the run command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	Runner                       SupervisingRunner
}

// Build constructs the run command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.ArbitraryArgs,
		RunE:  builder.run,
	}

	flagutils.AddDurationFlag(command.Flags(), nil, forFlagNameConstant, "", defaultWindowDurationConstant, forFlagDescriptionConstant)
	command.Flags().VarP(newSignalFlagValue(defaultDeadlineSignalNameConstant), signalFlagNameConstant, signalFlagShorthandConstant, signalFlagDescriptionConstant)
	flagutils.AddDurationFlag(command.Flags(), nil, killAfterFlagNameConstant, "", defaultForceKillDelayConstant, killAfterFlagDescriptionConstant)
	command.Flags().String(dirFlagNameConstant, "", dirFlagDescriptionConstant)
	flagutils.AddToggleFlag(command.Flags(), nil, quietFlagNameConstant, "", false, quietFlagDescriptionConstant)

	// The first positional argument ends flag parsing so the target command
	// keeps its own flags even without a -- separator.
	command.Flags().SetInterspersed(false)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()

	targetCommandLine := append([]string{}, arguments...)
	if len(targetCommandLine) == 0 {
		targetCommandLine = append([]string{}, configuration.Target...)
	}
	if len(targetCommandLine) == 0 {
		if helpError := displayCommandHelp(command); helpError != nil {
			return helpError
		}
		return &ExitCodeError{ExitCode: internalFailureExitCodeConstant, Cause: errors.New(targetCommandRequiredMessageConstant)}
	}

	windowDuration := configuration.For
	if command.Flags().Changed(forFlagNameConstant) {
		windowDuration, _ = command.Flags().GetDuration(forFlagNameConstant)
	}

	signalName := configuration.Signal
	if command.Flags().Changed(signalFlagNameConstant) {
		signalName, _ = command.Flags().GetString(signalFlagNameConstant)
	}

	forceKillDelay := configuration.KillAfter
	if command.Flags().Changed(killAfterFlagNameConstant) {
		forceKillDelay, _ = command.Flags().GetDuration(killAfterFlagNameConstant)
	}

	workingDirectory := configuration.WorkingDirectory
	if command.Flags().Changed(dirFlagNameConstant) {
		directoryValue, _ := command.Flags().GetString(dirFlagNameConstant)
		workingDirectory = configurationWorkingDirectoryExpander.Expand(strings.TrimSpace(directoryValue))
	}

	quiet := configuration.Quiet
	if command.Flags().Changed(quietFlagNameConstant) {
		quiet, _ = command.Flags().GetBool(quietFlagNameConstant)
	}

	deadlineSignal, signalParseError := supervise.ParseSignal(signalName)
	if signalParseError != nil {
		return &ExitCodeError{ExitCode: internalFailureExitCodeConstant, Cause: signalParseError}
	}

	logger := resolveLogger(builder.LoggerProvider)

	contextAccessor := utils.NewCommandContextAccessor()
	if configurationFilePath, configurationFileAvailable := contextAccessor.ConfigurationFilePath(command.Context()); configurationFileAvailable && len(configurationFilePath) > 0 {
		logger.Debug(configurationFileAppliedLogMessageConstant, zap.String(logFieldConfigurationFileConstant, configurationFilePath))
	}

	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}

	var eventObserver supervise.RunEventObserver
	if humanReadableLogging {
		eventObserver = ui.NewConsoleRunEventLogger(logger)
	}

	supervisingRunner := builder.Runner
	if supervisingRunner == nil {
		constructedRunner, runnerError := supervise.NewRunner(logger, eventObserver)
		if runnerError != nil {
			return &ExitCodeError{ExitCode: internalFailureExitCodeConstant, Cause: runnerError}
		}
		supervisingRunner = constructedRunner
	}

	runSpecification := supervise.RunSpecification{
		CommandName:      targetCommandLine[0],
		CommandArguments: append([]string{}, targetCommandLine[1:]...),
		WorkingDirectory: workingDirectory,
		StandardInput:    command.InOrStdin(),
		StandardOutput:   command.OutOrStdout(),
		StandardError:    command.ErrOrStderr(),
		WindowDuration:   windowDuration,
		DeadlineSignal:   deadlineSignal,
		ForceKillDelay:   forceKillDelay,
	}

	report, runError := supervisingRunner.Run(command.Context(), runSpecification)
	if runError != nil {
		return classifyRunFailure(runError)
	}

	if !quiet {
		completionEvent := supervise.RunCompletionEvent{CommandName: runSpecification.CommandName, Report: report}
		formatter := ui.RunEventFormatter{}
		verdictWriter := utils.NewFlushingWriter(command.OutOrStdout())
		if _, writeError := fmt.Fprintln(verdictWriter, formatter.BuildCompletionMessage(completionEvent)); writeError != nil {
			return writeError
		}
	}

	if processExitCode := report.Outcome.ProcessExitCode(); processExitCode != 0 {
		return &ExitCodeError{ExitCode: processExitCode}
	}

	return nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration().Sanitize()
	}

	return builder.ConfigurationProvider().Sanitize()
}

func classifyRunFailure(runError error) error {
	var launchError *supervise.LaunchError
	if errors.As(runError, &launchError) {
		exitCode := launchFailureExitCodeConstant
		if launchError.CommandNotFound() {
			exitCode = launchNotFoundExitCodeConstant
		}
		return &ExitCodeError{ExitCode: exitCode, Cause: runError}
	}

	if errors.Is(runError, supervise.ErrIndeterminateOutcome) || errors.Is(runError, supervise.ErrCommandNameRequired) {
		return &ExitCodeError{ExitCode: internalFailureExitCodeConstant, Cause: runError}
	}

	return runError
}
