package flags

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestAddToggleFlagParsesValues(t *testing.T) {
	testCases := []struct {
		name            string
		arguments       []string
		expectedValue   bool
		expectedChanged bool
	}{
		{name: "DefaultFalse", arguments: []string{}, expectedValue: false, expectedChanged: false},
		{name: "ImplicitTrue", arguments: []string{"--toggle"}, expectedValue: true, expectedChanged: true},
		{name: "AssignedYes", arguments: []string{"--toggle=yes"}, expectedValue: true, expectedChanged: true},
		{name: "AssignedTrueUppercase", arguments: []string{"--toggle=TRUE"}, expectedValue: true, expectedChanged: true},
		{name: "AssignedNo", arguments: []string{"--toggle=no"}, expectedValue: false, expectedChanged: true},
		{name: "AssignedFalseUppercase", arguments: []string{"--toggle=FALSE"}, expectedValue: false, expectedChanged: true},
		{name: "AssignedOff", arguments: []string{"--toggle=off"}, expectedValue: false, expectedChanged: true},
		{name: "AssignedOne", arguments: []string{"--toggle=1"}, expectedValue: true, expectedChanged: true},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			command := &cobra.Command{}

			var toggleValue bool
			AddToggleFlag(command.Flags(), &toggleValue, "toggle", "", false, "Toggle flag")

			parseError := command.ParseFlags(testCase.arguments)
			require.NoError(t, parseError)

			require.Equal(t, testCase.expectedValue, toggleValue)

			flag := command.Flags().Lookup("toggle")
			require.NotNil(t, flag)
			require.Equal(t, testCase.expectedChanged, flag.Changed)
		})
	}
}

func TestAddToggleFlagRejectsInvalidValues(t *testing.T) {
	command := &cobra.Command{}

	var toggleValue bool
	AddToggleFlag(command.Flags(), &toggleValue, "toggle", "", false, "Toggle flag")

	parseError := command.ParseFlags([]string{"--toggle=maybe"})
	require.Error(t, parseError)

	require.Equal(t, false, toggleValue)

	flag := command.Flags().Lookup("toggle")
	require.NotNil(t, flag)
	require.False(t, flag.Changed)
}

func TestAddToggleFlagHandlesShorthand(t *testing.T) {
	command := &cobra.Command{}

	var toggleValue bool
	AddToggleFlag(command.Flags(), &toggleValue, "toggle", "t", true, "Toggle flag")

	parseError := command.ParseFlags([]string{"-t=no"})
	require.NoError(t, parseError)

	require.False(t, toggleValue)

	flag := command.Flags().Lookup("toggle")
	require.NotNil(t, flag)
	require.True(t, flag.Changed)
}

func TestAddToggleFlagLeavesPositionalArgumentsAlone(t *testing.T) {
	command := &cobra.Command{}
	command.Flags().SetInterspersed(false)

	var toggleValue bool
	AddToggleFlag(command.Flags(), &toggleValue, "toggle", "", false, "Toggle flag")

	parseError := command.ParseFlags([]string{"--toggle", "./worker", "--toggle=no"})
	require.NoError(t, parseError)

	require.True(t, toggleValue)
	require.Equal(t, []string{"./worker", "--toggle=no"}, command.Flags().Args())
}
