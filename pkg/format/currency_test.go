package format

import (
	"testing"

	"github.com/iwvelando/prebid-integrity/pkg/mathutil"
	"github.com/stretchr/testify/assert"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		want   string
	}{
		{name: "Small", amount: 12.5, want: "$12.50"},
		{name: "Separators", amount: 1234567.891, want: "$1,234,567.89"},
		{name: "Negative", amount: -1300, want: "-$1,300.00"},
		{name: "Zero", amount: 0, want: "$0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Currency(tt.amount))
		})
	}
}

func TestThousands(t *testing.T) {
	assert.Equal(t, "$147,500K", Thousands(mathutil.Ptr(147500)))
	assert.Equal(t, "-$1,300.50K", Thousands(mathutil.Ptr(-1300.5)))
	assert.Equal(t, Missing, Thousands(nil))
}

func TestRatios(t *testing.T) {
	assert.Equal(t, "20.9%", Percent(mathutil.Ptr(0.2091)))
	assert.Equal(t, "5.0x", Multiple(mathutil.Ptr(5)))
	assert.Equal(t, "2.4x", Multiple(mathutil.Ptr(2.37)))
	assert.Equal(t, Missing, Percent(nil))
	assert.Equal(t, Missing, Multiple(nil))
}

func TestLabel(t *testing.T) {
	year := "FY23A"
	assert.Equal(t, "FY23A", Label(&year))
	assert.Equal(t, Missing, Label(nil))
}
