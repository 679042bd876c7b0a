package run

import (
	"github.com/vanderbilt-design-studio/soakrun/internal/supervise"
)

const signalFlagTypeNameConstant = "string"

// signalFlagValue validates --signal arguments at parse time while the
// configured name is still resolved in run, so configuration-sourced
// signals go through the same validation.
type signalFlagValue struct {
	currentName string
}

func newSignalFlagValue(defaultName string) *signalFlagValue {
	return &signalFlagValue{currentName: defaultName}
}

func (value *signalFlagValue) Set(rawValue string) error {
	if _, parseError := supervise.ParseSignal(rawValue); parseError != nil {
		return parseError
	}

	value.currentName = rawValue
	return nil
}

func (value *signalFlagValue) String() string {
	if value == nil {
		return ""
	}
	return value.currentName
}

func (value *signalFlagValue) Type() string {
	return signalFlagTypeNameConstant
}
