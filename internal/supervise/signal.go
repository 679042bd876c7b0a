package supervise

import (
	"fmt"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

const (
	signalNamePrefixConstant               = "SIG"
	fallbackSignalNameTemplateConstant     = "SIG%d"
	signalNumberInvalidTemplateConstant    = "invalid signal number %d"
	signalNameUnrecognizedTemplateConstant = "unrecognized signal name %q"
	maximumSignalNumberConstant            = 64
	minimumSignalNumberConstant            = 1
)

// DefaultDeadlineSignal is delivered when a run specification does not name a signal.
const DefaultDeadlineSignal = syscall.SIGINT

// ParseSignal interprets a signal argument as either a signal number or a
// signal name. Names are matched case-insensitively with or without the SIG
// prefix, so TERM, term, and SIGTERM all resolve to syscall.SIGTERM.
func ParseSignal(signalArgument string) (syscall.Signal, error) {
	trimmedArgument := strings.TrimSpace(signalArgument)
	if len(trimmedArgument) == 0 {
		return 0, fmt.Errorf(signalNameUnrecognizedTemplateConstant, signalArgument)
	}

	if signalNumber, numberParseError := strconv.Atoi(trimmedArgument); numberParseError == nil {
		if signalNumber < minimumSignalNumberConstant || signalNumber > maximumSignalNumberConstant {
			return 0, fmt.Errorf(signalNumberInvalidTemplateConstant, signalNumber)
		}
		return syscall.Signal(signalNumber), nil
	}

	normalizedName := strings.ToUpper(trimmedArgument)
	if !strings.HasPrefix(normalizedName, signalNamePrefixConstant) {
		normalizedName = signalNamePrefixConstant + normalizedName
	}

	if resolvedSignal := unix.SignalNum(normalizedName); resolvedSignal != 0 {
		return resolvedSignal, nil
	}

	return 0, fmt.Errorf(signalNameUnrecognizedTemplateConstant, signalArgument)
}

// FormatSignal renders a signal using its conventional SIG-prefixed name,
// falling back to the numeric form for signals without a known name.
func FormatSignal(signalValue syscall.Signal) string {
	if signalName := unix.SignalName(signalValue); len(signalName) > 0 {
		return signalName
	}
	return fmt.Sprintf(fallbackSignalNameTemplateConstant, int(signalValue))
}
