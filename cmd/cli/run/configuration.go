package run

import (
	"strings"
	"time"

	pathutils "github.com/vanderbilt-design-studio/soakrun/internal/utils/path"
)

const (
	configurationForKeyConstant       = "for"
	configurationSignalKeyConstant    = "signal"
	configurationKillAfterKeyConstant = "kill_after"
	configurationDirKeyConstant       = "dir"
	configurationQuietKeyConstant     = "quiet"
	configurationKeySeparatorConstant = "."
	defaultWindowDurationConstant     = 10 * time.Second
	defaultDeadlineSignalNameConstant = "INT"
	defaultForceKillDelayConstant     = time.Duration(0)
)

var configurationWorkingDirectoryExpander = pathutils.NewHomeExpander()

// CommandConfiguration captures configuration values for run.
type CommandConfiguration struct {
	For              time.Duration `mapstructure:"for"`
	Signal           string        `mapstructure:"signal"`
	KillAfter        time.Duration `mapstructure:"kill_after"`
	WorkingDirectory string        `mapstructure:"dir"`
	Quiet            bool          `mapstructure:"quiet"`
	Target           []string      `mapstructure:"target"`
}

// DefaultCommandConfiguration provides default run command settings.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		For:       defaultWindowDurationConstant,
		Signal:    defaultDeadlineSignalNameConstant,
		KillAfter: defaultForceKillDelayConstant,
		Quiet:     false,
	}
}

// DefaultConfigurationValues produces Viper defaults for the run command.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + configurationKeySeparatorConstant + configurationForKeyConstant:       defaults.For,
		rootKey + configurationKeySeparatorConstant + configurationSignalKeyConstant:    defaults.Signal,
		rootKey + configurationKeySeparatorConstant + configurationKillAfterKeyConstant: defaults.KillAfter,
		rootKey + configurationKeySeparatorConstant + configurationDirKeyConstant:       defaults.WorkingDirectory,
		rootKey + configurationKeySeparatorConstant + configurationQuietKeyConstant:     defaults.Quiet,
	}
}

// Sanitize normalizes configuration values.
//
// The window duration is kept as provided: zero and negative windows mean an
// already elapsed deadline rather than an unset value, since the defaults are
// merged before configuration is decoded.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.Signal = strings.TrimSpace(configuration.Signal)
	if len(sanitized.Signal) == 0 {
		sanitized.Signal = defaultDeadlineSignalNameConstant
	}
	if sanitized.KillAfter < 0 {
		sanitized.KillAfter = defaultForceKillDelayConstant
	}
	sanitized.WorkingDirectory = configurationWorkingDirectoryExpander.Expand(strings.TrimSpace(configuration.WorkingDirectory))
	sanitized.Target = compactTarget(configuration.Target)
	return sanitized
}

// compactTarget drops whitespace-only argv entries while keeping survivors verbatim.
func compactTarget(raw []string) []string {
	compacted := make([]string, 0, len(raw))
	for _, candidate := range raw {
		if len(strings.TrimSpace(candidate)) == 0 {
			continue
		}
		compacted = append(compacted, candidate)
	}
	if len(compacted) == 0 {
		return nil
	}
	return compacted
}
