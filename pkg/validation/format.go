// Package validation provides common validation utilities.
package validation

import (
	"github.com/iwvelando/prebid-integrity/pkg/constants"
	"github.com/rotisserie/eris"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	if format != constants.OutputFormatPretty && format != constants.OutputFormatJSON {
		return eris.Errorf("expected output format of %s or %s, got %s",
			constants.OutputFormatPretty, constants.OutputFormatJSON, format)
	}
	return nil
}
