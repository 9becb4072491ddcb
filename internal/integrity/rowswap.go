package integrity

import (
	"github.com/iwvelando/prebid-integrity/pkg/mathutil"
	"github.com/iwvelando/prebid-integrity/pkg/record"
)

// operatingSubtotal returns GP - SG&A for a period when both are known and
// the SG&A figure passes the plausibility gate.
func (t Thresholds) operatingSubtotal(gp, sga, rev *float64) (float64, bool) {
	if gp == nil || sga == nil {
		return 0, false
	}
	if !t.sgaPlausible(*sga, rev) {
		return 0, false
	}
	return *gp - *sga, true
}

// swapped reports whether a reported EBITDA is really the after-D&A
// operating income: EBITDA can never be below GP - SG&A.
func (t Thresholds) swapped(gp, sga, rev, ebitda *float64) (float64, bool) {
	if ebitda == nil {
		return 0, false
	}
	opInc, ok := t.operatingSubtotal(gp, sga, rev)
	if !ok {
		return 0, false
	}
	return opInc, opInc > *ebitda && opInc > 0
}

// RowSwap repairs periods where the operating income row was read into the
// EBITDA slot, replacing EBITDA with the GP - SG&A subtotal.
func RowSwap(in State, th Thresholds) State {
	st := in.Clone()
	f := &st.Record.Financials

	for i := range f.AdjEBITDAHist {
		gp, sga, ebitda := f.GrossProfitHist.At(i), f.SGAHist.At(i), f.AdjEBITDAHist.At(i)
		opInc, ok := th.swapped(gp, sga, f.NetRevenueHist.At(i), ebitda)
		if !ok {
			continue
		}
		fixed := mathutil.Round(opInc)
		f.AdjEBITDAHist[i] = mathutil.Ptr(fixed)
		st.Sources[record.Key(record.AdjEBITDAHist, i)] = record.SourceDerived
		st.Notes.correct("SWAPPED hist[%d]: GP(%s)-SGA(%s)=%s > reported EBITDA(%s), impossible. Setting adj_ebitda=%s (the larger value)",
			i, num(*gp), num(*sga), num(opInc), num(*ebitda), num(fixed))
	}

	swapProjections(&st, th)
	return st
}

// swapProjections applies the row-swap repair to every projection period and
// reports whether any EBITDA changed.
func swapProjections(st *State, th Thresholds) bool {
	f := &st.Record.Financials
	changed := false
	for i := range f.AdjEBITDAProj {
		ebitda := f.AdjEBITDAProj.At(i)
		opInc, ok := th.swapped(f.GrossProfitProj.At(i), f.SGAProj.At(i), f.NetRevenueProj.At(i), ebitda)
		if !ok {
			continue
		}
		fixed := mathutil.Round(opInc)
		f.AdjEBITDAProj[i] = mathutil.Ptr(fixed)
		st.Sources[record.Key(record.AdjEBITDAProj, i)] = record.SourceDerived
		st.Notes.correct("SWAPPED proj[%d]: OpInc(%s) > EBITDA(%s), swapped", i, num(opInc), num(*ebitda))
		changed = true
	}
	return changed
}
