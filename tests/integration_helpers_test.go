package tests

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const (
	integrationCommandTimeoutConstant    = 30 * time.Second
	integrationEnvironmentPrefixConstant = "SOAKRUN"
	integrationHomeVariableConstant      = "HOME"
	integrationXDGVariableConstant       = "XDG_CONFIG_HOME"
)

type integrationRunResult struct {
	exitCode       int
	standardOutput string
	standardError  string
	runtime        time.Duration
}

// isolatedEnvironment strips soakrun variables from the inherited environment
// and points the home directories at a throwaway location so stray user
// configuration cannot leak into assertions.
func isolatedEnvironment(testInstance *testing.T) []string {
	testInstance.Helper()

	isolatedHomeDirectory := testInstance.TempDir()
	environment := make([]string, 0, len(os.Environ())+2)
	for _, environmentEntry := range os.Environ() {
		if strings.HasPrefix(environmentEntry, integrationEnvironmentPrefixConstant) {
			continue
		}
		if strings.HasPrefix(environmentEntry, integrationHomeVariableConstant+"=") {
			continue
		}
		if strings.HasPrefix(environmentEntry, integrationXDGVariableConstant+"=") {
			continue
		}
		environment = append(environment, environmentEntry)
	}
	environment = append(environment, integrationHomeVariableConstant+"="+isolatedHomeDirectory)
	environment = append(environment, integrationXDGVariableConstant+"="+filepath.Join(isolatedHomeDirectory, "config"))
	return environment
}

func runSoakrun(testInstance *testing.T, environment []string, arguments ...string) integrationRunResult {
	testInstance.Helper()

	executionContext, cancelFunction := context.WithTimeout(context.Background(), integrationCommandTimeoutConstant)
	defer cancelFunction()

	command := exec.CommandContext(executionContext, integrationBinaryPath, arguments...)
	command.Dir = testInstance.TempDir()
	command.Env = environment

	standardOutputBuffer := &bytes.Buffer{}
	standardErrorBuffer := &bytes.Buffer{}
	command.Stdout = standardOutputBuffer
	command.Stderr = standardErrorBuffer

	startTime := time.Now()
	runError := command.Run()
	observedRuntime := time.Since(startTime)

	exitCode := 0
	if runError != nil {
		var exitError *exec.ExitError
		if !errors.As(runError, &exitError) {
			testInstance.Fatalf("unable to run soakrun: %v\nstderr: %s", runError, standardErrorBuffer.String())
		}
		exitCode = exitError.ExitCode()
	}

	return integrationRunResult{
		exitCode:       exitCode,
		standardOutput: standardOutputBuffer.String(),
		standardError:  standardErrorBuffer.String(),
		runtime:        observedRuntime,
	}
}
