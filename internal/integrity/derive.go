package integrity

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/iwvelando/prebid-integrity/pkg/constants"
	"github.com/iwvelando/prebid-integrity/pkg/mathutil"
	"github.com/iwvelando/prebid-integrity/pkg/normalize"
	"github.com/iwvelando/prebid-integrity/pkg/record"
)

// Year labels such as "2024E" or "Dec-24F". Four-digit years are tried first
// so "2024E" is not read as year 24 with prefix "20".
var (
	fourDigitYear = regexp.MustCompile(`(\d{4})([FE])`)
	twoDigitYear  = regexp.MustCompile(`(\d{2})([FE])`)
)

// Derive fills the remaining gaps from accounting identities, extends the
// projection labels and lines, trims every array to its period count and
// finalizes field provenance.
func Derive(in State, th Thresholds) State {
	st := in.Clone()
	rec := &st.Record

	extendProjectionYears(&st)
	rec.Financials = normalize.Financials(rec.Financials)
	// Extrapolation can pair an earlier SG&A with a later, lower EBITDA.
	extrapolated := extrapolateProjections(&st)
	if swapProjections(&st, th) || extrapolated {
		f := &rec.Financials
		f.EBITDAMarginProj = margins(f.AdjEBITDAProj, f.NetRevenueProj, constants.ProjectionPeriods)
		f.GMPctProj = margins(f.GrossProfitProj, f.NetRevenueProj, constants.ProjectionPeriods)
	}
	defaultManagementFees(&st)

	boundDerivedEBITDA(&st, deriveSGA(&st, th))
	opInc := operatingIncome(rec.Financials)
	deriveAdjustments(&st, th, opInc)
	deriveDepreciation(&st, th, opInc)
	deriveProjectionFromHistory(&st)

	deriveEntryMultiple(&st, th)
	derivePurchasePrice(&st, th)

	trimPeriods(&st)
	finalizeSources(&st)
	return st
}

// extendProjectionYears continues the year sequence of the last projection
// label until five labels exist. Labels without a recognisable year are
// padded with nulls instead.
func extendProjectionYears(st *State) {
	labels := st.Record.ProjectionYears.NonNull()
	have := len(labels)
	if have < 1 || have >= constants.ProjectionPeriods {
		return
	}

	last := labels[have-1]
	match := fourDigitYear.FindStringSubmatchIndex(last)
	if match == nil {
		match = twoDigitYear.FindStringSubmatchIndex(last)
	}

	out := make(record.Labels, 0, constants.ProjectionPeriods)
	for i := range labels {
		out = append(out, &labels[i])
	}
	if match != nil {
		prefix, suffix, rest := last[:match[0]], last[match[4]:match[5]], last[match[1]:]
		digits := last[match[2]:match[3]]
		year, _ := strconv.Atoi(digits)
		for len(out) < constants.ProjectionPeriods {
			year++
			label := prefix + padYear(year, len(digits)) + suffix + rest
			out = append(out, &label)
		}
	}
	st.Record.ProjectionYears = normalize.PadLabels(out, constants.ProjectionPeriods)

	if grown := len(out); grown > have {
		st.Notes.derive("projection_years extended from %d to %d entries", have, grown)
	}
}

// padYear formats year with the label's digit count, wrapping two-digit
// years from 99 to 00.
func padYear(year, digits int) string {
	if digits == 2 {
		year %= 100
	}
	s := strconv.Itoa(year)
	if len(s) < digits {
		s = strings.Repeat("0", digits-len(s)) + s
	}
	return s
}

// defaultManagementFees sets an entirely missing management fee line to zero.
// Sponsor fees are set after close and never appear in a CIM.
func defaultManagementFees(st *State) {
	f := &st.Record.Financials
	if !f.MgmtFeesProj.AllNull() {
		return
	}
	fees := make(record.Series, constants.ProjectionPeriods)
	for i := range fees {
		fees[i] = mathutil.Ptr(0)
		st.Sources[record.Key(record.MgmtFeesProj, i)] = record.SourceDerived
	}
	f.MgmtFeesProj = fees
	st.Notes.derive("mgmt_fees_proj defaulted to 0 for all %d projection years", constants.ProjectionPeriods)
}

// deriveSGA solves adj_ebitda = (GP - SGA) + D&A + adjustments for SG&A and
// returns the periods it filled.
func deriveSGA(st *State, th Thresholds) []int {
	f := &st.Record.Financials
	var filled []int
	for i := 0; i < constants.HistoricalPeriods; i++ {
		gp, ebitda, dep, adj := f.GrossProfitHist[i], f.AdjEBITDAHist[i], f.DepreciationHist[i], f.AdjustmentsHist[i]
		if f.SGAHist[i] != nil || gp == nil || ebitda == nil || dep == nil || adj == nil {
			continue
		}
		// A negative D&A plus add-backs would put EBITDA below GP - SG&A.
		if *dep+*adj < 0 {
			continue
		}
		sga := mathutil.Round(*gp + *dep + *adj - *ebitda)
		rev := f.NetRevenueHist[i]
		if !mathutil.NonZero(rev) || *rev <= 0 || !th.sgaPlausible(sga, rev) {
			continue
		}
		f.SGAHist[i] = mathutil.Ptr(sga)
		st.Sources[record.Key(record.SGAHist, i)] = record.SourceDerived
		st.Notes.derive("sga_hist[%d] derived: GP(%s) + D&A(%s) + Adj(%s) - EBITDA(%s) = %s",
			i, num(*gp), num(*dep), num(*adj), num(*ebitda), num(sga))
		filled = append(filled, i)
	}
	return filled
}

// boundDerivedEBITDA applies the gross profit bound to periods whose SG&A
// was just derived, since the validator skips the recalculation while SG&A
// is unknown. A recalculated LTM period is re-pointed, along with a pricing
// EBITDA that was taken from it.
func boundDerivedEBITDA(st *State, periods []int) {
	f, d := &st.Record.Financials, &st.Record.Deal
	for _, i := range periods {
		gp, ebitda := f.GrossProfitHist.At(i), f.AdjEBITDAHist.At(i)
		if !mathutil.NonZero(gp) || !mathutil.NonZero(ebitda) || *ebitda <= *gp {
			continue
		}
		if !recalculateEBITDA(st, i) {
			continue
		}
		st.Notes.correct("adj_ebitda_hist[%d] = %s > gross_profit = %s, recalculated with derived SG&A = %s",
			i, num(*ebitda), num(*gp), num(*f.AdjEBITDAHist[i]))
		if i != constants.LTMIndex {
			continue
		}
		syncLTM(&st.Record)
		if st.Sources[record.EBITDAForPrice] == record.SourceDerived && mathutil.Equal(d.EBITDAForPrice, ebitda) {
			d.EBITDAForPrice = f.AdjEBITDAHist[i]
			if lev := leverage(*d); lev != nil {
				d.LeverageRatio = lev
			}
		}
	}
}

// operatingIncome is GP - SG&A per historical period. It is an intermediate
// value and is not stored on the record.
func operatingIncome(f record.Financials) record.Series {
	out := make(record.Series, constants.HistoricalPeriods)
	for i := range out {
		gp, sga := f.GrossProfitHist.At(i), f.SGAHist.At(i)
		if gp != nil && sga != nil {
			out[i] = mathutil.Ptr(mathutil.Round(*gp - *sga))
		}
	}
	return out
}

// deriveAdjustments fills add-backs as EBITDA - OpInc. Values the validator
// would reject as a share of revenue are left null.
func deriveAdjustments(st *State, th Thresholds, opInc record.Series) {
	f := &st.Record.Financials
	for i := 0; i < constants.HistoricalPeriods; i++ {
		ebitda, op, rev := f.AdjEBITDAHist[i], opInc[i], f.NetRevenueHist[i]
		if f.AdjustmentsHist[i] != nil || ebitda == nil || op == nil {
			continue
		}
		adj := mathutil.Round(*ebitda - *op)
		if adj < 0 {
			continue
		}
		if mathutil.NonZero(rev) && adj > *rev*th.AddBackRevenueMax {
			continue
		}
		f.AdjustmentsHist[i] = mathutil.Ptr(adj)
		st.Sources[record.Key(record.AdjustmentsHist, i)] = record.SourceDerived
		st.Notes.derive("adjustments_hist[%d] derived: EBITDA(%s) - OpInc(%s) = %s", i, num(*ebitda), num(*op), num(adj))
	}
}

func deriveDepreciation(st *State, th Thresholds, opInc record.Series) {
	f := &st.Record.Financials
	for i := 0; i < constants.HistoricalPeriods; i++ {
		ebitda, op, rev := f.AdjEBITDAHist[i], opInc[i], f.NetRevenueHist[i]
		if f.DepreciationHist[i] != nil || ebitda == nil || op == nil {
			continue
		}
		adj := mathutil.Value(f.AdjustmentsHist[i], 0)
		dep := mathutil.Round(*ebitda - *op - adj)
		if dep <= 0 || !mathutil.NonZero(rev) {
			continue
		}
		if share := dep / *rev; share >= th.DepreciationRevenueMax {
			continue
		}
		f.DepreciationHist[i] = mathutil.Ptr(dep)
		st.Sources[record.Key(record.DepreciationHist, i)] = record.SourceDerived
		st.Notes.derive("depreciation_hist[%d] derived: EBITDA(%s) - OpInc(%s) - Adj(%s) = %s",
			i, num(*ebitda), num(*op), num(adj), num(dep))
	}
}

// deriveProjectionFromHistory fills projected D&A and CapEx from their
// historical averages where the paired projection line is known.
func deriveProjectionFromHistory(st *State) {
	f := &st.Record.Financials
	if avg := positiveAverage(f.DepreciationHist); avg != nil {
		for i, dep := range f.DepreciationProj {
			if dep != nil || f.AdjEBITDAProj.At(i) == nil {
				continue
			}
			f.DepreciationProj[i] = avg
			st.Sources[record.Key(record.DepreciationProj, i)] = record.SourceDerived
			st.Notes.derive("depreciation_proj[%d] set to historical avg D&A = %s", i, num(*avg))
		}
	}
	if avg := nonZeroAverage(f.CapexHist); avg != nil {
		for i, capex := range f.CapexProj {
			if capex != nil || f.NetRevenueProj.At(i) == nil {
				continue
			}
			f.CapexProj[i] = avg
			st.Sources[record.Key(record.CapexProj, i)] = record.SourceDerived
			st.Notes.derive("capex_proj[%d] set to historical avg CapEx = %s", i, num(*avg))
		}
	}
}

// deriveEntryMultiple backs the multiple out of the headline price.
func deriveEntryMultiple(st *State, th Thresholds) {
	d := &st.Record.Deal
	if d.EntryMultiple != nil {
		return
	}
	price := d.EnterpriseValue
	if !mathutil.NonZero(price) {
		price = d.PurchasePriceCalculated
	}
	if !mathutil.NonZero(price) || !mathutil.NonZero(d.EBITDAForPrice) || *d.EBITDAForPrice <= 0 {
		return
	}
	multiple := mathutil.RoundTo(*price / *d.EBITDAForPrice, constants.MultiplePlaces)
	if multiple < th.EntryMultipleMin || multiple > th.EntryMultipleMax {
		return
	}
	d.EntryMultiple = mathutil.Ptr(multiple)
	st.Sources[record.EntryMultiple] = record.SourceDerived
	st.Notes.derive("entry_multiple derived: EV(%s) / EBITDA(%s) = %sx", num(*price), num(*d.EBITDAForPrice), num(multiple))
}

func derivePurchasePrice(st *State, th Thresholds) {
	d := &st.Record.Deal
	if d.PurchasePriceCalculated != nil || !mathutil.NonZero(d.EBITDAForPrice) || !mathutil.NonZero(d.EntryMultiple) {
		return
	}
	pctAcq := mathutil.ValueOrDefault(d.PctAcquired, th.DefaultPctAcquired)
	price := mathutil.RoundWhole(*d.EBITDAForPrice * *d.EntryMultiple * pctAcq)
	d.PurchasePriceCalculated = mathutil.Ptr(price)
	if d.EnterpriseValue == nil {
		d.EnterpriseValue = mathutil.Ptr(price)
	}
	st.Sources[record.PurchasePriceCalculated] = record.SourceDerived
	st.Notes.derive("purchase_price derived: %s x %s x %s = %s",
		num(*d.EBITDAForPrice), num(*d.EntryMultiple), num(pctAcq), num(price))
}

// trimPeriods cuts over-long arrays and labels to their period counts and
// drops the provenance of the removed slots.
func trimPeriods(st *State) {
	rec := &st.Record
	trim := func(lines []record.NamedSeries, n int) {
		for _, ns := range lines {
			before := len(*ns.Series)
			trimmed, cut := normalize.Truncate(*ns.Series, n)
			if !cut {
				continue
			}
			*ns.Series = trimmed
			for i := n; i < before; i++ {
				delete(st.Sources, record.Key(ns.Name, i))
			}
			st.Notes.correct("%s trimmed from %d to %d entries", ns.Name, before, n)
		}
	}
	trim(rec.Financials.Historical(), constants.HistoricalPeriods)
	trim(rec.Financials.Projection(), constants.ProjectionPeriods)

	var cut bool
	if rec.HistoricalYears, cut = normalize.TruncateLabels(rec.HistoricalYears, constants.HistoricalPeriods); cut {
		st.Notes.correct("historical_years trimmed to %d entries", constants.HistoricalPeriods)
	}
	if rec.ProjectionYears, cut = normalize.TruncateLabels(rec.ProjectionYears, constants.ProjectionPeriods); cut {
		st.Notes.correct("projection_years trimmed to %d entries", constants.ProjectionPeriods)
	}
}
