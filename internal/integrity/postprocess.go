package integrity

import (
	"math"

	"github.com/iwvelando/prebid-integrity/pkg/constants"
	"github.com/iwvelando/prebid-integrity/pkg/mathutil"
	"github.com/iwvelando/prebid-integrity/pkg/normalize"
	"github.com/iwvelando/prebid-integrity/pkg/record"
)

// PostProcess re-establishes sign conventions, backfills EBITDA from its
// components and computes the convenience fields: margins, growth, ABL
// availability, leverage, purchase price and the LTM pointers.
func PostProcess(in State, th Thresholds) State {
	st := in.Clone()
	normalizeSigns(&st)

	rec := &st.Record
	rec.Financials = normalize.Financials(rec.Financials)
	f := &rec.Financials
	d := &rec.Deal

	if d.PurchasePriceCalculated == nil && mathutil.NonZero(d.EBITDAForPrice) && mathutil.NonZero(d.EntryMultiple) {
		pctAcq := mathutil.ValueOrDefault(d.PctAcquired, th.DefaultPctAcquired)
		price := mathutil.Round(*d.EBITDAForPrice * *d.EntryMultiple * pctAcq)
		d.PurchasePriceCalculated = mathutil.Ptr(price)
		st.Sources[record.PurchasePriceCalculated] = record.SourceDerived
		if d.EnterpriseValue == nil {
			d.EnterpriseValue = mathutil.Ptr(price)
		}
		st.Notes.derive("purchase_price_calculated: %s x %s x %s = %s",
			num(*d.EBITDAForPrice), num(*d.EntryMultiple), num(pctAcq), num(price))
	}

	for i := 0; i < constants.HistoricalPeriods; i++ {
		gp, sga := f.GrossProfitHist[i], f.SGAHist[i]
		if f.AdjEBITDAHist[i] != nil || gp == nil || sga == nil {
			continue
		}
		adj := mathutil.ValueOrDefault(f.AdjustmentsHist[i], 0)
		ebitda := mathutil.Round(*gp - *sga + adj)
		f.AdjEBITDAHist[i] = mathutil.Ptr(ebitda)
		st.Sources[record.Key(record.AdjEBITDAHist, i)] = record.SourceDerived
		st.Notes.derive("adj_ebitda_hist[%d] backfilled: GP(%s) - SGA(%s) + Adj(%s) = %s",
			i, num(*gp), num(*sga), num(adj), num(ebitda))
	}

	f.EBITDAMarginHist = margins(f.AdjEBITDAHist, f.NetRevenueHist, constants.HistoricalPeriods)
	f.GMPctHist = margins(f.GrossProfitHist, f.NetRevenueHist, constants.HistoricalPeriods)
	f.RevenueGrowthHist = growth(f.NetRevenueHist)
	f.EBITDAMarginProj = margins(f.AdjEBITDAProj, f.NetRevenueProj, constants.ProjectionPeriods)
	f.GMPctProj = margins(f.GrossProfitProj, f.NetRevenueProj, constants.ProjectionPeriods)

	rec.Collateral.ABLAvailabilityCalculated = ablAvailability(rec.Collateral, th)
	if lev := leverage(*d); lev != nil {
		d.LeverageRatio = lev
	}
	syncLTM(rec)

	return st
}

// normalizeSigns negates positive CapEx and management fees and makes
// negative add-backs positive.
func normalizeSigns(st *State) {
	f := &st.Record.Financials
	lines := []struct {
		name     string
		series   *record.Series
		negative bool
	}{
		{record.CapexHist, &f.CapexHist, true},
		{record.CapexProj, &f.CapexProj, true},
		{record.MgmtFeesProj, &f.MgmtFeesProj, true},
		{record.AdjustmentsHist, &f.AdjustmentsHist, false},
		{record.AdjustmentsProj, &f.AdjustmentsProj, false},
	}
	for _, line := range lines {
		for i, v := range *line.series {
			if v == nil {
				continue
			}
			if line.negative && *v > 0 {
				(*line.series)[i] = mathutil.Ptr(-*v)
				st.Notes.correct("%s[%d] = %s is positive, stored as outflow %s", line.name, i, num(*v), num(-*v))
			}
			if !line.negative && *v < 0 {
				(*line.series)[i] = mathutil.Ptr(math.Abs(*v))
				st.Notes.correct("%s[%d] = %s is negative, add-backs are stored as %s", line.name, i, num(*v), num(math.Abs(*v)))
			}
		}
	}
}

// margins returns part[i]/rev[i] rounded to four places for n periods.
func margins(part, rev record.Series, n int) record.Series {
	out := make(record.Series, n)
	for i := range out {
		out[i] = mathutil.RoundedRatio(part.At(i), rev.At(i), constants.RatioPlaces)
	}
	return out
}

// growth returns period-over-period revenue growth; the first period is
// always null.
func growth(rev record.Series) record.Series {
	out := make(record.Series, constants.HistoricalPeriods)
	for i := 1; i < len(out); i++ {
		prev, curr := rev.At(i-1), rev.At(i)
		if !mathutil.NonZero(prev) || !mathutil.NonZero(curr) {
			continue
		}
		change := *curr - *prev
		out[i] = mathutil.Ptr(mathutil.RoundTo(change / *prev, constants.RatioPlaces))
	}
	return out
}

// ablAvailability is receivables and inventory times their advance rates.
// It is nil when neither contributes a positive amount.
func ablAvailability(c record.Collateral, th Thresholds) *float64 {
	avail := 0.0
	if mathutil.NonZero(c.ARValue) {
		avail += *c.ARValue * mathutil.ValueOrDefault(c.ARAdvanceRate, th.DefaultARAdvanceRate)
	}
	if mathutil.NonZero(c.InventoryValue) {
		avail += *c.InventoryValue * mathutil.ValueOrDefault(c.InventoryAdvanceRate, th.DefaultInventoryAdvanceRate)
	}
	if avail <= 0 {
		return nil
	}
	return mathutil.Ptr(mathutil.Round(avail))
}

// leverage is funded debt over pricing EBITDA, or nil when EBITDA is not
// positive.
func leverage(d record.Deal) *float64 {
	if !mathutil.NonZero(d.EBITDAForPrice) || *d.EBITDAForPrice <= 0 {
		return nil
	}
	debt := mathutil.Value(d.TermLoanAmount, 0) + mathutil.Value(d.SellerNoteAmount, 0)
	return mathutil.Ptr(mathutil.Round(debt / *d.EBITDAForPrice))
}

// syncLTM points the deal LTM figures at the most recent historical period.
// It reports which of the two values changed.
func syncLTM(rec *record.Record) (revChanged, ebitdaChanged bool) {
	f, d := &rec.Financials, &rec.Deal
	if rev := f.NetRevenueHist.At(constants.LTMIndex); rev != nil && !mathutil.Equal(d.RevenueLTM, rev) {
		d.RevenueLTM = rev
		revChanged = true
	}
	if ebitda := f.AdjEBITDAHist.At(constants.LTMIndex); ebitda != nil && !mathutil.Equal(d.EBITDALTM, ebitda) {
		d.EBITDALTM = ebitda
		ebitdaChanged = true
	}
	return revChanged, ebitdaChanged
}
