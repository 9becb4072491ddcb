package record

import (
	"github.com/iwvelando/prebid-integrity/pkg/constants"
	"github.com/iwvelando/prebid-integrity/pkg/mathutil"
)

// Summary holds the per-document columns stored next to the corrected JSON.
type Summary struct {
	CompanyName     *string  `json:"company_name"`
	FiscalYear1     *string  `json:"fiscal_year_1"`
	FiscalYear2     *string  `json:"fiscal_year_2"`
	FiscalYear3     *string  `json:"fiscal_year_3"`
	EBITDALTM       *float64 `json:"ebitda_ltm"`
	RevenueLTM      *float64 `json:"revenue_ltm"`
	EntryMultiple   *float64 `json:"entry_multiple"`
	PurchasePrice   *float64 `json:"purchase_price"`
	ConfidenceScore *float64 `json:"confidence_score"`
}

// Summarize extracts the summary columns from a (corrected) record.
func Summarize(r Record) Summary {
	s := Summary{
		CompanyName:   r.CompanyName,
		EBITDALTM:     r.Deal.EBITDALTM,
		RevenueLTM:    r.Deal.RevenueLTM,
		EntryMultiple: r.Deal.EntryMultiple,
		PurchasePrice: r.Deal.PurchasePriceCalculated,
	}
	years := []*string{nil, nil, nil}
	for i := 0; i < len(years) && i < len(r.HistoricalYears); i++ {
		years[i] = r.HistoricalYears[i]
	}
	s.FiscalYear1, s.FiscalYear2, s.FiscalYear3 = years[0], years[1], years[2]

	if r.Confidence != nil {
		s.ConfidenceScore = r.Confidence.Score()
	}
	return s
}

// OverallScore returns the reported overall confidence, or the weighted
// category score when none was reported. Missing categories count as zero.
// It returns nil when no score of any kind is present.
func (c *Confidence) OverallScore() *float64 {
	if c == nil {
		return nil
	}
	if c.Overall != nil {
		return c.Overall
	}
	parts := []struct {
		score  *float64
		weight float64
	}{
		{c.FinancialSummary, constants.FinancialSummaryWeight},
		{c.DealOverview, constants.DealOverviewWeight},
		{c.Projections, constants.ProjectionsWeight},
		{c.DealMetrics, constants.DealMetricsWeight},
		{c.Collateral, constants.CollateralWeight},
	}
	total, seen := 0.0, false
	for _, p := range parts {
		if p.score != nil {
			seen = true
			total += *p.score * p.weight
		}
	}
	if !seen {
		return nil
	}
	return mathutil.Ptr(mathutil.Round(total))
}

// Score returns the overall confidence on a 0-1 scale. Scores above 1 are
// read as percentages.
func (c *Confidence) Score() *float64 {
	overall := c.OverallScore()
	if overall == nil {
		return nil
	}
	v := *overall
	if v > 1 {
		v /= 100
	}
	return mathutil.Ptr(mathutil.RoundTo(v, constants.RatioPlaces))
}
