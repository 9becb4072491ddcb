// Package constants provides shared constants for the prebid-integrity application.
package constants

// Period counts. Historical arrays run oldest to newest and the last index is
// the LTM period.
const (
	// HistoricalPeriods is the fixed length of every *_hist array.
	HistoricalPeriods = 3

	// ProjectionPeriods is the fixed length of every *_proj array and of
	// projection_years.
	ProjectionPeriods = 5

	// LTMIndex is the index of the most recent historical period.
	LTMIndex = HistoricalPeriods - 1
)

// SG&A plausibility band as a fraction of revenue. Values outside the band
// are treated as a mis-read row.
const (
	// SGARatioMin is the lowest plausible SG&A / revenue ratio.
	SGARatioMin = 0.05

	// SGARatioMax is the highest plausible SG&A / revenue ratio.
	SGARatioMax = 0.60
)

// Plausibility thresholds used by the validator and the derivation engine.
const (
	// AddBackRevenueMax caps EBITDA add-backs as a fraction of revenue.
	AddBackRevenueMax = 0.25

	// EBITDAForPriceTolerance is the relative difference allowed between the
	// LTM EBITDA and the EBITDA used for pricing.
	EBITDAForPriceTolerance = 0.30

	// EBITDAMarginWarn flags EBITDA margins above this fraction of revenue.
	EBITDAMarginWarn = 0.45

	// CapexRevenueWarn flags annual CapEx above this fraction of revenue.
	CapexRevenueWarn = 0.10

	// DepreciationRevenueMax bounds derived D&A as a fraction of revenue.
	DepreciationRevenueMax = 0.15

	// ProjDepreciationCollisionRel is the relative tolerance for projected
	// D&A that equals projected EBITDA.
	ProjDepreciationCollisionRel = 0.10

	// ProjDepreciationCollisionAbs is the absolute floor of that tolerance ($000s).
	ProjDepreciationCollisionAbs = 1.0

	// HistDepreciationCollisionRel is the relative tolerance for historical
	// D&A that equals historical EBITDA.
	HistDepreciationCollisionRel = 0.15

	// HistDepreciationCollisionAbs is the absolute floor of that tolerance ($000s).
	HistDepreciationCollisionAbs = 100.0

	// EntryMultipleMin is the lowest accepted EV / EBITDA multiple.
	EntryMultipleMin = 2.0

	// EntryMultipleMax is the highest accepted EV / EBITDA multiple.
	EntryMultipleMax = 15.0
)

// Deal, collateral and rate defaults.
const (
	// DefaultABLRate is used when the revolver rate is missing or zero.
	DefaultABLRate = 0.0675

	// DefaultTermRate is used when the term loan rate is missing or zero.
	DefaultTermRate = 0.07

	// DefaultARAdvanceRate applies when no receivables advance rate is given.
	DefaultARAdvanceRate = 0.75

	// DefaultInventoryAdvanceRate applies when no inventory advance rate is given.
	DefaultInventoryAdvanceRate = 0.70

	// DefaultPctAcquired applies when the acquired stake is missing or zero.
	DefaultPctAcquired = 1.0
)

// Rounding precision (decimal places) for computed values.
const (
	// RatioPlaces is used for margins and growth rates.
	RatioPlaces = 4

	// AmountPlaces is used for corrected and computed amounts ($000s).
	AmountPlaces = 2

	// MultiplePlaces is used for derived entry multiples.
	MultiplePlaces = 1
)

// Confidence weights used when the overall score must be recomputed.
const (
	FinancialSummaryWeight = 0.35
	DealOverviewWeight     = 0.20
	ProjectionsWeight      = 0.20
	DealMetricsWeight      = 0.15
	CollateralWeight       = 0.10
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatJSON is the corrected-record JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultCheckConcurrency is the number of records the check command
	// processes in parallel.
	DefaultCheckConcurrency = 4

	// EnvPrefix prefixes environment overrides, e.g. PREBID_LOGGING_LEVEL.
	EnvPrefix = "PREBID"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum size of an uploaded record (2 MB)
	DefaultMaxUploadSizeBytes int64 = 2 * 1024 * 1024
)
