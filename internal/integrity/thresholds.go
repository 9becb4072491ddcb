package integrity

import (
	"github.com/iwvelando/prebid-integrity/pkg/constants"
	"github.com/rotisserie/eris"
)

// Thresholds holds every calibration value the pipeline consults. Ratios are
// fractions of revenue (or of EBITDA for the collision tolerances).
type Thresholds struct {
	SGARatioMin                  float64 `mapstructure:"sgaRatioMin" yaml:"sgaRatioMin" json:"sgaRatioMin"`
	SGARatioMax                  float64 `mapstructure:"sgaRatioMax" yaml:"sgaRatioMax" json:"sgaRatioMax"`
	AddBackRevenueMax            float64 `mapstructure:"addBackRevenueMax" yaml:"addBackRevenueMax" json:"addBackRevenueMax"`
	EBITDAForPriceTolerance      float64 `mapstructure:"ebitdaForPriceTolerance" yaml:"ebitdaForPriceTolerance" json:"ebitdaForPriceTolerance"`
	EBITDAMarginWarn             float64 `mapstructure:"ebitdaMarginWarn" yaml:"ebitdaMarginWarn" json:"ebitdaMarginWarn"`
	CapexRevenueWarn             float64 `mapstructure:"capexRevenueWarn" yaml:"capexRevenueWarn" json:"capexRevenueWarn"`
	DepreciationRevenueMax       float64 `mapstructure:"depreciationRevenueMax" yaml:"depreciationRevenueMax" json:"depreciationRevenueMax"`
	ProjDepreciationCollisionRel float64 `mapstructure:"projDepreciationCollisionRel" yaml:"projDepreciationCollisionRel" json:"projDepreciationCollisionRel"`
	ProjDepreciationCollisionAbs float64 `mapstructure:"projDepreciationCollisionAbs" yaml:"projDepreciationCollisionAbs" json:"projDepreciationCollisionAbs"`
	HistDepreciationCollisionRel float64 `mapstructure:"histDepreciationCollisionRel" yaml:"histDepreciationCollisionRel" json:"histDepreciationCollisionRel"`
	HistDepreciationCollisionAbs float64 `mapstructure:"histDepreciationCollisionAbs" yaml:"histDepreciationCollisionAbs" json:"histDepreciationCollisionAbs"`
	EntryMultipleMin             float64 `mapstructure:"entryMultipleMin" yaml:"entryMultipleMin" json:"entryMultipleMin"`
	EntryMultipleMax             float64 `mapstructure:"entryMultipleMax" yaml:"entryMultipleMax" json:"entryMultipleMax"`
	DefaultABLRate               float64 `mapstructure:"defaultAblRate" yaml:"defaultAblRate" json:"defaultAblRate"`
	DefaultTermRate              float64 `mapstructure:"defaultTermRate" yaml:"defaultTermRate" json:"defaultTermRate"`
	DefaultARAdvanceRate         float64 `mapstructure:"defaultArAdvanceRate" yaml:"defaultArAdvanceRate" json:"defaultArAdvanceRate"`
	DefaultInventoryAdvanceRate  float64 `mapstructure:"defaultInventoryAdvanceRate" yaml:"defaultInventoryAdvanceRate" json:"defaultInventoryAdvanceRate"`
	DefaultPctAcquired           float64 `mapstructure:"defaultPctAcquired" yaml:"defaultPctAcquired" json:"defaultPctAcquired"`
}

// DefaultThresholds returns the calibrated defaults from pkg/constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SGARatioMin:                  constants.SGARatioMin,
		SGARatioMax:                  constants.SGARatioMax,
		AddBackRevenueMax:            constants.AddBackRevenueMax,
		EBITDAForPriceTolerance:      constants.EBITDAForPriceTolerance,
		EBITDAMarginWarn:             constants.EBITDAMarginWarn,
		CapexRevenueWarn:             constants.CapexRevenueWarn,
		DepreciationRevenueMax:       constants.DepreciationRevenueMax,
		ProjDepreciationCollisionRel: constants.ProjDepreciationCollisionRel,
		ProjDepreciationCollisionAbs: constants.ProjDepreciationCollisionAbs,
		HistDepreciationCollisionRel: constants.HistDepreciationCollisionRel,
		HistDepreciationCollisionAbs: constants.HistDepreciationCollisionAbs,
		EntryMultipleMin:             constants.EntryMultipleMin,
		EntryMultipleMax:             constants.EntryMultipleMax,
		DefaultABLRate:               constants.DefaultABLRate,
		DefaultTermRate:              constants.DefaultTermRate,
		DefaultARAdvanceRate:         constants.DefaultARAdvanceRate,
		DefaultInventoryAdvanceRate:  constants.DefaultInventoryAdvanceRate,
		DefaultPctAcquired:           constants.DefaultPctAcquired,
	}
}

// Validate checks that the thresholds describe a usable calibration.
func (t Thresholds) Validate() error {
	fractions := []struct {
		name  string
		value float64
	}{
		{"sgaRatioMin", t.SGARatioMin},
		{"sgaRatioMax", t.SGARatioMax},
		{"addBackRevenueMax", t.AddBackRevenueMax},
		{"ebitdaForPriceTolerance", t.EBITDAForPriceTolerance},
		{"ebitdaMarginWarn", t.EBITDAMarginWarn},
		{"capexRevenueWarn", t.CapexRevenueWarn},
		{"depreciationRevenueMax", t.DepreciationRevenueMax},
		{"projDepreciationCollisionRel", t.ProjDepreciationCollisionRel},
		{"histDepreciationCollisionRel", t.HistDepreciationCollisionRel},
		{"defaultAblRate", t.DefaultABLRate},
		{"defaultTermRate", t.DefaultTermRate},
		{"defaultArAdvanceRate", t.DefaultARAdvanceRate},
		{"defaultInventoryAdvanceRate", t.DefaultInventoryAdvanceRate},
		{"defaultPctAcquired", t.DefaultPctAcquired},
	}
	for _, f := range fractions {
		if f.value <= 0 || f.value > 1 {
			return eris.Errorf("threshold %s must be in (0, 1], got %g", f.name, f.value)
		}
	}

	if t.SGARatioMin >= t.SGARatioMax {
		return eris.Errorf("sgaRatioMin (%g) must be below sgaRatioMax (%g)", t.SGARatioMin, t.SGARatioMax)
	}
	if t.ProjDepreciationCollisionAbs < 0 || t.HistDepreciationCollisionAbs < 0 {
		return eris.New("depreciation collision floors must not be negative")
	}
	if t.EntryMultipleMin <= 0 || t.EntryMultipleMin >= t.EntryMultipleMax {
		return eris.Errorf("entry multiple range [%g, %g] is invalid", t.EntryMultipleMin, t.EntryMultipleMax)
	}
	return nil
}

// sgaPlausible reports whether sga is a believable share of rev. A missing or
// non-positive revenue cannot disprove SG&A, so it passes.
func (t Thresholds) sgaPlausible(sga float64, rev *float64) bool {
	if rev == nil || *rev <= 0 {
		return true
	}
	ratio := sga / *rev
	return ratio >= t.SGARatioMin && ratio <= t.SGARatioMax
}
