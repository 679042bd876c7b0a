package flags

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatChoiceUsage(t *testing.T) {
	testCases := []struct {
		name           string
		defaultChoice  string
		choices        []string
		description    string
		expectedOutput string
	}{
		{
			name:           "DefaultFirstChoice",
			defaultChoice:  "structured",
			choices:        []string{"structured", "console"},
			description:    "Log output format.",
			expectedOutput: "`<STRUCTURED|console>` Log output format.",
		},
		{
			name:           "DefaultSecondChoice",
			defaultChoice:  "console",
			choices:        []string{"structured", "console"},
			description:    "Log output format.",
			expectedOutput: "`<structured|CONSOLE>` Log output format.",
		},
		{
			name:           "EmptyDescription",
			defaultChoice:  "info",
			choices:        []string{"debug", "info", "warn", "error"},
			description:    "",
			expectedOutput: "`<debug|INFO|warn|error>`",
		},
		{
			name:           "DuplicateChoicesIgnored",
			defaultChoice:  "info",
			choices:        []string{"info", "info", "debug", "debug"},
			description:    "Minimum level to emit.",
			expectedOutput: "`<INFO|debug>` Minimum level to emit.",
		},
		{
			name:           "WhitespaceTrimmed",
			defaultChoice:  "warn",
			choices:        []string{" warn ", " error "},
			description:    "Minimum level to emit.",
			expectedOutput: "`<WARN|error>` Minimum level to emit.",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			actual := FormatChoiceUsage(testCase.defaultChoice, testCase.choices, testCase.description)
			require.Equal(t, testCase.expectedOutput, actual)
		})
	}
}
