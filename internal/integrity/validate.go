package integrity

import (
	"math"

	"github.com/iwvelando/prebid-integrity/pkg/constants"
	"github.com/iwvelando/prebid-integrity/pkg/mathutil"
	"github.com/iwvelando/prebid-integrity/pkg/normalize"
	"github.com/iwvelando/prebid-integrity/pkg/record"
)

// check is one plausibility rule of the validator. Checks run in order and
// later checks see the values earlier ones nulled, clamped or recomputed.
type check struct {
	name  string
	apply func(st *State, th Thresholds)
}

var checks = []check{
	{"ebitda_for_price_consistency", checkEBITDAForPrice},
	{"sga_hist_plausibility", checkSGAHist},
	{"addback_plausibility", checkAddBacks},
	{"ebitda_gross_profit_bound", checkEBITDABound},
	{"depreciation_proj_collision", checkDepreciationProj},
	{"depreciation_hist_collision", checkDepreciationHist},
	{"ebitda_margin_outlier", checkMarginOutliers},
	{"ltm_pointers", checkLTM},
	{"rate_defaults", checkRates},
	{"projection_lengths", checkProjectionLengths},
	{"ebitda_for_price_default", checkEBITDAForPriceDefault},
	{"purchase_price", checkPurchasePrice},
	{"capex_plausibility", checkCapex},
	{"sga_proj_plausibility", checkSGAProj},
}

// Validate runs the ordered battery of plausibility checks. Each check that
// acts records a correction note.
func Validate(in State, th Thresholds) State {
	st := in.Clone()
	st.Record.Financials = normalize.Financials(st.Record.Financials)
	for _, c := range checks {
		c.apply(&st, th)
	}
	return st
}

// checkEBITDAForPrice trusts the independently extracted pricing EBITDA over
// a diverging LTM EBITDA, unless the pricing figure is itself below the
// GP - SG&A subtotal.
func checkEBITDAForPrice(st *State, th Thresholds) {
	f, d := &st.Record.Financials, &st.Record.Deal
	i := constants.LTMIndex
	ebitda := f.AdjEBITDAHist[i]
	if !mathutil.NonZero(d.EBITDAForPrice) || ebitda == nil {
		return
	}
	efp := *d.EBITDAForPrice
	diff := mathutil.RelativeDiff(*ebitda, efp)
	if diff <= th.EBITDAForPriceTolerance {
		return
	}

	if opInc, ok := th.operatingSubtotal(f.GrossProfitHist[i], f.SGAHist[i], f.NetRevenueHist[i]); ok && opInc > efp && opInc > 0 {
		st.Notes.correct("adj_ebitda_hist[2] = %s vs ebitda_for_price = %s (diff %.0f%%), kept: ebitda_for_price is below GP-SGA = %s",
			num(*ebitda), num(efp), diff*100, num(opInc))
		return
	}

	st.Notes.correct("adj_ebitda_hist[2] = %s vs ebitda_for_price = %s (diff %.0f%%), restoring year 2 EBITDA to %s",
		num(*ebitda), num(efp), diff*100, num(efp))
	f.AdjEBITDAHist[i] = d.EBITDAForPrice
	if m := mathutil.RoundedRatio(d.EBITDAForPrice, f.NetRevenueHist[i], constants.RatioPlaces); m != nil {
		f.EBITDAMarginHist = f.EBITDAMarginHist.Set(i, m)
	}
}

func checkSGAHist(st *State, th Thresholds) {
	nullLowSGA(st, th, record.SGAHist, &st.Record.Financials.SGAHist, st.Record.Financials.NetRevenueHist, "revenue")
}

func checkSGAProj(st *State, th Thresholds) {
	nullLowSGA(st, th, record.SGAProj, &st.Record.Financials.SGAProj, st.Record.Financials.NetRevenueProj, "proj revenue")
}

// nullLowSGA nulls SG&A figures below the plausible share of revenue; such a
// value was almost always read from the wrong row.
func nullLowSGA(st *State, th Thresholds, name string, sga *record.Series, rev record.Series, label string) {
	for i, v := range *sga {
		if !mathutil.NonZero(v) || !mathutil.NonZero(rev.At(i)) {
			continue
		}
		ratio := *v / *rev.At(i)
		if ratio >= th.SGARatioMin {
			continue
		}
		st.Notes.correct("%s[%d] = %s is only %s of %s, likely wrong row, setting null", name, i, num(*v), pct(ratio), label)
		(*sga)[i] = nil
		delete(st.Sources, record.Key(name, i))
	}
}

func checkAddBacks(st *State, th Thresholds) {
	f := &st.Record.Financials
	for i, adj := range f.AdjustmentsHist {
		rev := f.NetRevenueHist.At(i)
		if !mathutil.NonZero(adj) || !mathutil.NonZero(rev) || *adj <= *rev*th.AddBackRevenueMax {
			continue
		}
		st.Notes.correct("adjustments_hist[%d] = %s exceeds %.0f%% of revenue, likely confusion with EBITDA, setting 0",
			i, num(*adj), th.AddBackRevenueMax*100)
		f.AdjustmentsHist[i] = mathutil.Ptr(0)
	}
}

// checkEBITDABound recomputes EBITDA that exceeds gross profit, keeping its
// margin in step.
func checkEBITDABound(st *State, _ Thresholds) {
	f := &st.Record.Financials
	for i, ebitda := range f.AdjEBITDAHist {
		gp := f.GrossProfitHist.At(i)
		if !mathutil.NonZero(gp) || !mathutil.NonZero(ebitda) || *ebitda <= *gp {
			continue
		}
		st.Notes.correct("adj_ebitda_hist[%d] = %s > gross_profit = %s, recalculating", i, num(*ebitda), num(*gp))
		recalculateEBITDA(st, i)
	}
}

// recalculateEBITDA sets period i's EBITDA to GP - SG&A + add-backs and its
// margin to match. It does nothing while SG&A is unknown.
func recalculateEBITDA(st *State, i int) bool {
	f := &st.Record.Financials
	gp, sga := f.GrossProfitHist.At(i), f.SGAHist.At(i)
	if !mathutil.NonZero(gp) || !mathutil.NonZero(sga) {
		return false
	}
	fixed := mathutil.Round(*gp - *sga + mathutil.Value(f.AdjustmentsHist.At(i), 0))
	f.AdjEBITDAHist[i] = mathutil.Ptr(fixed)
	st.Sources[record.Key(record.AdjEBITDAHist, i)] = record.SourceDerived
	f.EBITDAMarginHist = f.EBITDAMarginHist.Set(i,
		mathutil.RoundedRatio(f.AdjEBITDAHist[i], f.NetRevenueHist.At(i), constants.RatioPlaces))
	return true
}

// collides reports whether depreciation is indistinguishable from EBITDA.
func collides(dep, ebitda, rel, floor float64) bool {
	return math.Abs(dep-ebitda) < math.Max(math.Abs(ebitda)*rel, floor)
}

// positiveAverage returns the whole-number mean of the positive values in s.
func positiveAverage(s record.Series) *float64 {
	var vals []float64
	for _, v := range s {
		if v != nil && *v > 0 {
			vals = append(vals, *v)
		}
	}
	avg, ok := mathutil.Average(vals)
	if !ok {
		return nil
	}
	return mathutil.Ptr(mathutil.RoundWhole(avg))
}

// nonZeroAverage returns the whole-number mean of the non-zero values in s.
func nonZeroAverage(s record.Series) *float64 {
	var vals []float64
	for _, v := range s {
		if mathutil.NonZero(v) {
			vals = append(vals, *v)
		}
	}
	avg, ok := mathutil.Average(vals)
	if !ok {
		return nil
	}
	return mathutil.Ptr(mathutil.RoundWhole(avg))
}

func checkDepreciationProj(st *State, th Thresholds) {
	f := &st.Record.Financials
	for i, dep := range f.DepreciationProj {
		ebitda := f.AdjEBITDAProj.At(i)
		if !mathutil.NonZero(dep) || !mathutil.NonZero(ebitda) {
			continue
		}
		if !collides(*dep, *ebitda, th.ProjDepreciationCollisionRel, th.ProjDepreciationCollisionAbs) {
			continue
		}
		avg := positiveAverage(f.DepreciationHist)
		st.Notes.correct("depreciation_proj[%d] = %s ~= adj_ebitda_proj[%d] = %s, copy error, using historical avg %s",
			i, num(*dep), i, num(*ebitda), numPtr(avg))
		f.DepreciationProj[i] = avg
		key := record.Key(record.DepreciationProj, i)
		if avg == nil {
			delete(st.Sources, key)
		} else {
			st.Sources[key] = record.SourceDerived
		}
	}
}

func checkDepreciationHist(st *State, th Thresholds) {
	f := &st.Record.Financials
	for i, dep := range f.DepreciationHist {
		ebitda := f.AdjEBITDAHist.At(i)
		if !mathutil.NonZero(dep) || !mathutil.NonZero(ebitda) {
			continue
		}
		if !collides(*dep, *ebitda, th.HistDepreciationCollisionRel, th.HistDepreciationCollisionAbs) {
			continue
		}
		st.Notes.correct("depreciation_hist[%d] = %s ~= adj_ebitda_hist[%d] = %s, likely confused with EBITDA, setting null",
			i, num(*dep), i, num(*ebitda))
		f.DepreciationHist[i] = nil
		delete(st.Sources, record.Key(record.DepreciationHist, i))
	}
}

// checkMarginOutliers flags, but never changes, unusually high margins.
func checkMarginOutliers(st *State, th Thresholds) {
	f := &st.Record.Financials
	for i, ebitda := range f.AdjEBITDAHist {
		m := mathutil.Ratio(ebitda, f.NetRevenueHist.At(i))
		if m == nil || *m <= th.EBITDAMarginWarn {
			continue
		}
		st.Notes.correct("adj_ebitda_hist[%d] margin = %s, abnormally high, flagging", i, pct(*m))
		st.Notes.warn("EBITDA margin %s in year %d is unusually high", pct(*m), i+1)
	}
}

func checkLTM(st *State, _ Thresholds) {
	revChanged, ebitdaChanged := syncLTM(&st.Record)
	if revChanged {
		st.Notes.correct("revenue_ltm re-pointed to net_revenue_hist[2] = %s", num(*st.Record.Deal.RevenueLTM))
	}
	if ebitdaChanged {
		st.Notes.correct("ebitda_ltm re-pointed to adj_ebitda_hist[2] = %s", num(*st.Record.Deal.EBITDALTM))
	}
}

// checkRates replaces missing or zero financing rates with the defaults.
func checkRates(st *State, th Thresholds) {
	r := &st.Record.Rates
	if !mathutil.NonZero(r.ABLRate) {
		r.ABLRate = mathutil.Ptr(th.DefaultABLRate)
		st.Notes.correct("abl_rate was 0, set to default %s", num(th.DefaultABLRate))
	}
	if !mathutil.NonZero(r.TermRate) {
		r.TermRate = mathutil.Ptr(th.DefaultTermRate)
		st.Notes.correct("term_rate was 0, set to default %s", num(th.DefaultTermRate))
	}
}

func checkProjectionLengths(st *State, _ Thresholds) {
	for _, ns := range st.Record.Financials.Projection() {
		if len(*ns.Series) < constants.ProjectionPeriods {
			*ns.Series = normalize.Pad(*ns.Series, constants.ProjectionPeriods)
			st.Notes.correct("%s padded to length %d", ns.Name, constants.ProjectionPeriods)
		}
	}
	if len(st.Record.ProjectionYears) < constants.ProjectionPeriods {
		st.Record.ProjectionYears = normalize.PadLabels(st.Record.ProjectionYears, constants.ProjectionPeriods)
		st.Notes.correct("projection_years padded to length %d", constants.ProjectionPeriods)
	}
}

// checkEBITDAForPriceDefault prices the deal off LTM EBITDA when no pricing
// EBITDA was extracted, and refreshes the leverage that depends on it.
func checkEBITDAForPriceDefault(st *State, _ Thresholds) {
	d := &st.Record.Deal
	ltm := st.Record.Financials.AdjEBITDAHist.At(constants.LTMIndex)
	if mathutil.NonZero(d.EBITDAForPrice) || !mathutil.NonZero(ltm) {
		return
	}
	d.EBITDAForPrice = ltm
	st.Sources[record.EBITDAForPrice] = record.SourceDerived
	st.Notes.correct("ebitda_for_price was null, set to adj_ebitda_hist[2] = %s", num(*ltm))
	if lev := leverage(*d); lev != nil {
		d.LeverageRatio = lev
	}
}

// checkPurchasePrice computes a missing purchase price and mirrors it into
// enterprise value.
func checkPurchasePrice(st *State, th Thresholds) {
	d := &st.Record.Deal
	if mathutil.NonZero(d.PurchasePriceCalculated) || !mathutil.NonZero(d.EBITDAForPrice) || !mathutil.NonZero(d.EntryMultiple) {
		return
	}
	pctAcq := mathutil.ValueOrDefault(d.PctAcquired, th.DefaultPctAcquired)
	price := mathutil.RoundWhole(*d.EBITDAForPrice * *d.EntryMultiple * pctAcq)
	d.PurchasePriceCalculated = mathutil.Ptr(price)
	d.EnterpriseValue = mathutil.Ptr(price)
	st.Sources[record.PurchasePriceCalculated] = record.SourceDerived
	st.Notes.correct("purchase_price calculated: %s x %s = %s", num(*d.EBITDAForPrice), num(*d.EntryMultiple), num(price))
}

// checkCapex flags CapEx that looks cumulative rather than annual.
func checkCapex(st *State, th Thresholds) {
	f := &st.Record.Financials
	for i, capex := range f.CapexHist {
		rev := f.NetRevenueHist.At(i)
		if !mathutil.NonZero(capex) || !mathutil.NonZero(rev) {
			continue
		}
		if ratio := math.Abs(*capex) / *rev; ratio > th.CapexRevenueWarn {
			st.Notes.correct("capex_hist[%d] = %s is %s of revenue, may be cumulative", i, num(*capex), pct(ratio))
		}
	}
}
