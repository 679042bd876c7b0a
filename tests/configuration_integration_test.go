package tests

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	integrationConfigurationFileNameConstant = "config.yaml"
	integrationConfigurationContentConstant  = `tools:
  run:
    for: 5s
    target:
      - /bin/sh
      - -c
      - exit 7
`
	integrationWindowEnvironmentEntryConstant   = "SOAKRUN_TOOLS_RUN_FOR=300ms"
	integrationLogLevelEnvironmentEntryConstant = "SOAKRUN_COMMON_LOG_LEVEL=error"
	integrationStructuredLogMarkerConstant      = `"msg":"`
)

func TestRunIntegrationConfigurationSuppliesTarget(testInstance *testing.T) {
	configurationDirectory := testInstance.TempDir()
	configurationPath := filepath.Join(configurationDirectory, integrationConfigurationFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(integrationConfigurationContentConstant), 0o600))

	result := runSoakrun(testInstance, isolatedEnvironment(testInstance),
		"run", "--config", configurationPath)

	require.Equal(testInstance, 7, result.exitCode, result.standardError)
	require.Contains(testInstance, result.standardOutput, "exited with code 7")
	require.Less(testInstance, result.runtime, 5*time.Second)
}

func TestRunIntegrationEnvironmentOverridesWindow(testInstance *testing.T) {
	environment := append(isolatedEnvironment(testInstance), integrationWindowEnvironmentEntryConstant)

	result := runSoakrun(testInstance, environment,
		"run", "--", integrationShellCommandConstant, integrationShellFlagConstant, integrationSleepScriptConstant)

	require.Equal(testInstance, 0, result.exitCode, result.standardError)
	require.Contains(testInstance, result.standardOutput, integrationSurvivedFragmentConstant)
	require.GreaterOrEqual(testInstance, result.runtime, 300*time.Millisecond)
	require.Less(testInstance, result.runtime, 5*time.Second)
}

func TestRunIntegrationLogLevelControlsDiagnostics(testInstance *testing.T) {
	testCases := []struct {
		name               string
		extraEnvironment   []string
		extraArguments     []string
		expectsDiagnostics bool
	}{
		{
			name:               "default_level_emits_structured_logs",
			expectsDiagnostics: true,
		},
		{
			name:               "error_level_flag_silences_run_logs",
			extraArguments:     []string{"--log-level", "error"},
			expectsDiagnostics: false,
		},
		{
			name:               "error_level_environment_silences_run_logs",
			extraEnvironment:   []string{integrationLogLevelEnvironmentEntryConstant},
			expectsDiagnostics: false,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			environment := append(isolatedEnvironment(subTest), testCase.extraEnvironment...)
			arguments := append([]string{"run"}, testCase.extraArguments...)
			arguments = append(arguments, "--", integrationShellCommandConstant, integrationShellFlagConstant, "exit 0")

			result := runSoakrun(subTest, environment, arguments...)

			require.Equal(subTest, 0, result.exitCode, result.standardError)
			if testCase.expectsDiagnostics {
				require.Contains(subTest, result.standardError, integrationStructuredLogMarkerConstant)
			} else {
				require.NotContains(subTest, result.standardError, integrationStructuredLogMarkerConstant)
			}
		})
	}
}
