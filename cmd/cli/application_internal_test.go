package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vanderbilt-design-studio/soakrun/internal/utils"
)

const (
	testConfigurationFileNameConstant      = "config.yaml"
	testConfigurationWarnLevelConstant     = "warn"
	testConfigurationConsoleFormatConstant = "console"
	testConfigurationFileContentConstant   = "common:\n" +
		"  log_level: warn\n" +
		"  log_format: console\n" +
		"tools:\n" +
		"  run:\n" +
		"    for: 90s\n" +
		"    signal: TERM\n" +
		"    kill_after: 5s\n" +
		"    quiet: true\n" +
		"    target:\n" +
		"      - ./worker\n" +
		"      - --once\n"
)

func isolateConfigurationEnvironment(t *testing.T) {
	t.Helper()

	isolatedHomeDirectory := t.TempDir()
	t.Setenv("HOME", isolatedHomeDirectory)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(isolatedHomeDirectory, "config"))
	t.Setenv(configurationSearchPathEnvironmentVariableConstant, "")
}

func TestNewApplicationRegistersRunCommand(t *testing.T) {
	isolateConfigurationEnvironment(t)

	application := NewApplication()

	registeredCommandNames := make([]string, 0)
	for _, registeredCommand := range application.rootCommand.Commands() {
		registeredCommandNames = append(registeredCommandNames, registeredCommand.Name())
	}

	require.Contains(t, registeredCommandNames, "run")
}

func TestInitializeConfigurationAppliesEmbeddedDefaults(t *testing.T) {
	isolateConfigurationEnvironment(t)

	application := NewApplication()
	application.rootCommand.SetContext(context.Background())

	require.NoError(t, application.initializeConfiguration(application.rootCommand))

	require.Equal(t, string(utils.LogLevelInfo), application.configuration.Common.LogLevel)
	require.Equal(t, string(utils.LogFormatStructured), application.configuration.Common.LogFormat)
	require.False(t, application.humanReadableLoggingEnabled())

	runConfiguration := application.configuration.Tools.Run
	require.Equal(t, 10*time.Second, runConfiguration.For)
	require.Equal(t, "INT", runConfiguration.Signal)
	require.Equal(t, time.Duration(0), runConfiguration.KillAfter)
	require.False(t, runConfiguration.Quiet)
	require.Empty(t, runConfiguration.Target)
}

func TestInitializeConfigurationLoadsFileAndAttachesContext(t *testing.T) {
	isolateConfigurationEnvironment(t)

	configurationDirectory := t.TempDir()
	configurationFilePath := filepath.Join(configurationDirectory, testConfigurationFileNameConstant)
	require.NoError(t, os.WriteFile(configurationFilePath, []byte(testConfigurationFileContentConstant), 0o600))

	application := NewApplication()
	application.configurationFilePath = configurationFilePath
	application.rootCommand.SetContext(context.Background())

	require.NoError(t, application.initializeConfiguration(application.rootCommand))

	require.Equal(t, testConfigurationWarnLevelConstant, application.configuration.Common.LogLevel)
	require.Equal(t, testConfigurationConsoleFormatConstant, application.configuration.Common.LogFormat)
	require.True(t, application.humanReadableLoggingEnabled())

	runConfiguration := application.configuration.Tools.Run
	require.Equal(t, 90*time.Second, runConfiguration.For)
	require.Equal(t, "TERM", runConfiguration.Signal)
	require.Equal(t, 5*time.Second, runConfiguration.KillAfter)
	require.True(t, runConfiguration.Quiet)
	require.Equal(t, []string{"./worker", "--once"}, runConfiguration.Target)

	attachedConfigurationPath, configurationPathAvailable := application.commandContextAccessor.ConfigurationFilePath(application.rootCommand.Context())
	require.True(t, configurationPathAvailable)
	require.Equal(t, configurationFilePath, attachedConfigurationPath)
}

func TestInitializeConfigurationPrefersPersistentFlags(t *testing.T) {
	isolateConfigurationEnvironment(t)

	application := NewApplication()
	application.rootCommand.SetContext(context.Background())

	require.NoError(t, application.rootCommand.PersistentFlags().Set(logLevelFlagNameConstant, string(utils.LogLevelError)))
	require.NoError(t, application.rootCommand.PersistentFlags().Set(logFormatFlagNameConstant, string(utils.LogFormatConsole)))

	require.NoError(t, application.initializeConfiguration(application.rootCommand))

	require.Equal(t, string(utils.LogLevelError), application.configuration.Common.LogLevel)
	require.Equal(t, string(utils.LogFormatConsole), application.configuration.Common.LogFormat)
	require.True(t, application.humanReadableLoggingEnabled())
}

func TestResolveConfigurationSearchPathsHonorsEnvironment(t *testing.T) {
	isolateConfigurationEnvironment(t)

	environmentSearchPath := t.TempDir()
	t.Setenv(configurationSearchPathEnvironmentVariableConstant, environmentSearchPath)

	searchPaths := resolveConfigurationSearchPaths()
	require.NotEmpty(t, searchPaths)
	require.Equal(t, environmentSearchPath, searchPaths[0])
	require.Contains(t, searchPaths, defaultConfigurationSearchPathConstant)
}
