// Package format renders record values for reports. Amounts are in
// thousands of dollars, as extracted.
package format

import (
	"fmt"
	"math"
	"strings"
)

// Missing is printed in place of a null value.
const Missing = "n/a"

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	formatted := formatPositiveCurrency(math.Abs(amount))
	if amount < 0 {
		return "-$" + formatted
	}
	return "$" + formatted
}

// Thousands renders an amount in $000s with a K suffix, dropping a zero
// fraction (e.g., "$147,500K", "-$1,300.50K").
func Thousands(amount *float64) string {
	if amount == nil {
		return Missing
	}
	s := strings.TrimSuffix(Currency(*amount), ".00")
	return s + "K"
}

// Percent renders a ratio as a percentage with one decimal (0.2091 -> "20.9%").
func Percent(ratio *float64) string {
	if ratio == nil {
		return Missing
	}
	return fmt.Sprintf("%.1f%%", *ratio*100)
}

// Multiple renders a valuation or leverage multiple (5 -> "5.0x").
func Multiple(m *float64) string {
	if m == nil {
		return Missing
	}
	return fmt.Sprintf("%.1fx", *m)
}

// Label dereferences a nullable label.
func Label(s *string) string {
	if s == nil {
		return Missing
	}
	return *s
}

func formatPositiveCurrency(value float64) string {
	formatted := fmt.Sprintf("%.2f", value)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}
