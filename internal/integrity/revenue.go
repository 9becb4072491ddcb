package integrity

import (
	"github.com/iwvelando/prebid-integrity/pkg/constants"
	"github.com/iwvelando/prebid-integrity/pkg/mathutil"
	"github.com/iwvelando/prebid-integrity/pkg/record"
)

// InferRevenue back-fills historical revenue that was skipped after the first
// column, using the average gross margin of the periods where both revenue
// and gross profit are known. Gross profit is never modified.
func InferRevenue(in State, _ Thresholds) State {
	st := in.Clone()
	f := &st.Record.Financials

	known := f.NetRevenueHist.Count()
	if known == 0 || known >= constants.HistoricalPeriods || f.GrossProfitHist.Count() < 2 {
		return st
	}

	var margins []float64
	for i := 0; i < constants.HistoricalPeriods; i++ {
		if m := mathutil.Ratio(f.GrossProfitHist.At(i), f.NetRevenueHist.At(i)); m != nil {
			margins = append(margins, *m)
		}
	}
	avg, ok := mathutil.Average(margins)
	if !ok || avg == 0 {
		return st
	}

	for i := 0; i < constants.HistoricalPeriods; i++ {
		gp := f.GrossProfitHist.At(i)
		if f.NetRevenueHist.At(i) != nil || gp == nil {
			continue
		}
		inferred := mathutil.RoundWhole(*gp / avg)
		f.NetRevenueHist = f.NetRevenueHist.Set(i, mathutil.Ptr(inferred))
		st.Sources[record.Key(record.NetRevenueHist, i)] = record.SourceInferred
		st.Notes.derive("net_revenue_hist[%d] inferred: GP(%s) / avg_gm_pct(%.3f) = %s",
			i, num(*gp), avg, num(inferred))
	}

	return st
}
