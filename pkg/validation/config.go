package validation

import (
	"strings"

	"github.com/rotisserie/eris"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"json", "console"}
)

// ValidateLogLevel checks a configured log level. An empty level is allowed
// and means the default.
func ValidateLogLevel(level string) error {
	return oneOf("log level", level, logLevels)
}

// ValidateLogFormat checks a configured log encoding. An empty format is
// allowed and means the default.
func ValidateLogFormat(format string) error {
	return oneOf("log format", format, logFormats)
}

// ValidateInputFiles returns a warning for every path listed more than once.
func ValidateInputFiles(paths []string) []string {
	var warnings []string
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if seen[p] {
			warnings = append(warnings, "input file '"+p+"' listed more than once, checking it again")
			continue
		}
		seen[p] = true
	}
	return warnings
}

func oneOf(what, value string, allowed []string) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return nil
		}
	}
	return eris.Errorf("unsupported %s %q, expected one of %s", what, value, strings.Join(allowed, ", "))
}
