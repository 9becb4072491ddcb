package record

import "fmt"

// Source records how a field value was obtained.
type Source string

// Provenance values.
const (
	SourceDirect   Source = "direct"
	SourceDerived  Source = "derived"
	SourceInferred Source = "inferred"
	SourceNotFound Source = "not_found"
)

// FieldSources maps "<array_name>_<index>" or a scalar field name to its Source.
type FieldSources map[string]Source

// Clone returns an independent copy; a nil map clones to an empty map.
func (fs FieldSources) Clone() FieldSources {
	out := make(FieldSources, len(fs))
	for k, v := range fs {
		out[k] = v
	}
	return out
}

// Key builds the provenance key for element i of the named array.
func Key(array string, i int) string {
	return fmt.Sprintf("%s_%d", array, i)
}

// Array names as they appear in JSON.
const (
	NetRevenueHist    = "net_revenue_hist"
	GrossProfitHist   = "gross_profit_hist"
	SGAHist           = "sga_hist"
	AdjustmentsHist   = "adjustments_hist"
	AdjEBITDAHist     = "adj_ebitda_hist"
	OtherIncomeHist   = "other_income_hist"
	DepreciationHist  = "depreciation_hist"
	CapexHist         = "capex_hist"
	EBITDAMarginHist  = "ebitda_margin_hist"
	GMPctHist         = "gm_pct_hist"
	RevenueGrowthHist = "revenue_growth_hist"

	NetRevenueProj   = "net_revenue_proj"
	GrossProfitProj  = "gross_profit_proj"
	SGAProj          = "sga_proj"
	AdjustmentsProj  = "adjustments_proj"
	AdjEBITDAProj    = "adj_ebitda_proj"
	DepreciationProj = "depreciation_proj"
	CapexProj        = "capex_proj"
	MgmtFeesProj     = "mgmt_fees_proj"
	EBITDAMarginProj = "ebitda_margin_proj"
	GMPctProj        = "gm_pct_proj"
)

// Scalar field names used as provenance keys.
const (
	ARValue                 = "ar_value"
	InventoryValue          = "inventory_value"
	EntryMultiple           = "entry_multiple"
	PurchasePriceCalculated = "purchase_price_calculated"
	EnterpriseValue         = "enterprise_value"
	EBITDAForPrice          = "ebitda_for_price"
)

// NamedSeries pairs an array name with a pointer to the array inside a
// Financials value.
type NamedSeries struct {
	Name   string
	Series *Series
}

// Historical returns every historical array in JSON order.
func (f *Financials) Historical() []NamedSeries {
	return []NamedSeries{
		{NetRevenueHist, &f.NetRevenueHist},
		{GrossProfitHist, &f.GrossProfitHist},
		{SGAHist, &f.SGAHist},
		{AdjustmentsHist, &f.AdjustmentsHist},
		{AdjEBITDAHist, &f.AdjEBITDAHist},
		{OtherIncomeHist, &f.OtherIncomeHist},
		{DepreciationHist, &f.DepreciationHist},
		{CapexHist, &f.CapexHist},
		{EBITDAMarginHist, &f.EBITDAMarginHist},
		{GMPctHist, &f.GMPctHist},
		{RevenueGrowthHist, &f.RevenueGrowthHist},
	}
}

// Projection returns every projection array in JSON order.
func (f *Financials) Projection() []NamedSeries {
	return []NamedSeries{
		{NetRevenueProj, &f.NetRevenueProj},
		{GrossProfitProj, &f.GrossProfitProj},
		{SGAProj, &f.SGAProj},
		{AdjustmentsProj, &f.AdjustmentsProj},
		{AdjEBITDAProj, &f.AdjEBITDAProj},
		{DepreciationProj, &f.DepreciationProj},
		{CapexProj, &f.CapexProj},
		{MgmtFeesProj, &f.MgmtFeesProj},
		{EBITDAMarginProj, &f.EBITDAMarginProj},
		{GMPctProj, &f.GMPctProj},
	}
}

// All returns the historical arrays followed by the projection arrays.
func (f *Financials) All() []NamedSeries {
	return append(f.Historical(), f.Projection()...)
}

// Clone returns a deep copy of the record. Scalar pointers are shared; see
// the package documentation.
func (r Record) Clone() Record {
	out := r

	out.HistoricalYears = r.HistoricalYears.Clone()
	out.ProjectionYears = r.ProjectionYears.Clone()

	for _, ns := range out.Financials.All() {
		*ns.Series = ns.Series.Clone()
	}

	if r.Fees != nil {
		fees := *r.Fees
		out.Fees = &fees
	}
	if r.Qualitative != nil {
		q := *r.Qualitative
		q.KeyHighlights = cloneStrings(r.Qualitative.KeyHighlights)
		q.Risks = cloneStrings(r.Qualitative.Risks)
		out.Qualitative = &q
	}
	if r.Confidence != nil {
		c := *r.Confidence
		if r.Confidence.FieldLevel != nil {
			c.FieldLevel = make(map[string]string, len(r.Confidence.FieldLevel))
			for k, v := range r.Confidence.FieldLevel {
				c.FieldLevel[k] = v
			}
		}
		out.Confidence = &c
	}

	if r.FieldSources != nil {
		out.FieldSources = r.FieldSources.Clone()
	}
	out.Corrections = cloneStrings(r.Corrections)
	out.Derivations = cloneStrings(r.Derivations)
	out.Warnings = cloneStrings(r.Warnings)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
