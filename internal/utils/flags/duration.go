package flags

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
)

const (
	durationParseErrorTemplateConstant  = "invalid duration value %q"
	durationArgumentPlaceholderConstant = "<DURATION>"
	durationFlagTypeNameConstant        = "duration"
	durationSecondsBitSizeConstant      = 64
)

// AddDurationFlag registers a duration flag that accepts Go duration strings and bare numbers of seconds.
func AddDurationFlag(flagSet *pflag.FlagSet, target *time.Duration, name string, shorthand string, defaultValue time.Duration, usage string) {
	if flagSet == nil {
		return
	}
	if len(name) == 0 {
		return
	}

	durationValue := newDurationFlagValue(defaultValue, target)
	if len(shorthand) > 0 {
		flagSet.VarP(durationValue, name, shorthand, usage)
	} else {
		flagSet.Var(durationValue, name, usage)
	}

	flag := flagSet.Lookup(name)
	if flag == nil {
		return
	}
	flag.Usage = formatDurationUsage(usage)
}

func formatDurationUsage(description string) string {
	trimmed := strings.TrimSpace(description)
	if len(trimmed) == 0 {
		return fmt.Sprintf("`%s`", durationArgumentPlaceholderConstant)
	}
	return fmt.Sprintf("`%s` %s", durationArgumentPlaceholderConstant, trimmed)
}

type durationFlagValue struct {
	currentValue time.Duration
	target       *time.Duration
}

func newDurationFlagValue(defaultValue time.Duration, target *time.Duration) *durationFlagValue {
	if target != nil {
		*target = defaultValue
	}
	return &durationFlagValue{currentValue: defaultValue, target: target}
}

func (value *durationFlagValue) Set(rawValue string) error {
	parsedValue, parseError := ParseDurationValue(rawValue)
	if parseError != nil {
		return parseError
	}

	value.currentValue = parsedValue
	if value.target != nil {
		*value.target = parsedValue
	}

	return nil
}

func (value *durationFlagValue) String() string {
	if value == nil {
		return time.Duration(0).String()
	}
	return value.currentValue.String()
}

func (value *durationFlagValue) Type() string {
	return durationFlagTypeNameConstant
}

// DurationDecodeHook decodes configuration values into time.Duration using the
// same syntax duration flags accept: Go duration strings and bare numbers of
// seconds. Values already typed as time.Duration pass through untouched.
func DurationDecodeHook() mapstructure.DecodeHookFuncType {
	durationType := reflect.TypeOf(time.Duration(0))
	return func(fromType reflect.Type, toType reflect.Type, rawValue any) (any, error) {
		if toType != durationType || fromType == durationType {
			return rawValue, nil
		}

		switch fromType.Kind() {
		case reflect.String,
			reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return ParseDurationValue(fmt.Sprintf("%v", rawValue))
		default:
			return rawValue, nil
		}
	}
}

// ParseDurationValue interprets rawValue as a Go duration string, falling back to a bare number of seconds.
func ParseDurationValue(rawValue string) (time.Duration, error) {
	trimmedValue := strings.TrimSpace(rawValue)
	if len(trimmedValue) == 0 {
		return 0, fmt.Errorf(durationParseErrorTemplateConstant, rawValue)
	}

	if secondsValue, numericError := strconv.ParseFloat(trimmedValue, durationSecondsBitSizeConstant); numericError == nil {
		if !durationSecondsRepresentable(secondsValue) {
			return 0, fmt.Errorf(durationParseErrorTemplateConstant, rawValue)
		}
		return time.Duration(secondsValue * float64(time.Second)), nil
	}

	parsedDuration, parseError := time.ParseDuration(trimmedValue)
	if parseError != nil {
		return 0, fmt.Errorf(durationParseErrorTemplateConstant, rawValue)
	}

	return parsedDuration, nil
}

func durationSecondsRepresentable(secondsValue float64) bool {
	if math.IsNaN(secondsValue) || math.IsInf(secondsValue, 0) {
		return false
	}

	maximumSeconds := float64(math.MaxInt64) / float64(time.Second)
	return secondsValue >= -maximumSeconds && secondsValue <= maximumSeconds
}
