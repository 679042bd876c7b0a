package tests

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

const (
	integrationBinaryNameConstant            = "soakrun"
	integrationBuildDirectoryPatternConstant = "soakrun-integration-*"
	integrationBuildTargetConstant           = ".."
	integrationBuildFailureTemplateConstant  = "unable to build soakrun binary: %v\n%s"
)

var integrationBinaryPath string

func TestMain(m *testing.M) {
	temporaryDirectory, temporaryDirectoryError := os.MkdirTemp("", integrationBuildDirectoryPatternConstant)
	if temporaryDirectoryError != nil {
		fmt.Fprintln(os.Stderr, temporaryDirectoryError)
		os.Exit(1)
	}

	integrationBinaryPath = filepath.Join(temporaryDirectory, integrationBinaryNameConstant)
	buildCommand := exec.Command("go", "build", "-o", integrationBinaryPath, integrationBuildTargetConstant)
	buildOutput, buildError := buildCommand.CombinedOutput()
	if buildError != nil {
		fmt.Fprintf(os.Stderr, integrationBuildFailureTemplateConstant, buildError, buildOutput)
		os.RemoveAll(temporaryDirectory)
		os.Exit(1)
	}

	exitCode := m.Run()
	os.RemoveAll(temporaryDirectory)
	os.Exit(exitCode)
}
