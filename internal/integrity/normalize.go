package integrity

import (
	"github.com/iwvelando/prebid-integrity/pkg/constants"
	"github.com/iwvelando/prebid-integrity/pkg/normalize"
	"github.com/iwvelando/prebid-integrity/pkg/record"
)

// Normalize pads every historical array to three periods, every projection
// array to five and flat-extrapolates the projection lines. projection_years
// is padded with nulls; its labels are extended by Derive.
func Normalize(in State, _ Thresholds) State {
	st := in.Clone()
	st.Record.Financials = normalize.Financials(st.Record.Financials)
	st.Record.ProjectionYears = normalize.PadLabels(st.Record.ProjectionYears, constants.ProjectionPeriods)
	extrapolateProjections(&st)
	return st
}

// projectionLines returns the projection arrays that hold reported amounts.
// The margin arrays are recomputed from these rather than extrapolated.
func projectionLines(f *record.Financials) []record.NamedSeries {
	lines := make([]record.NamedSeries, 0, 8)
	for _, ns := range f.Projection() {
		if ns.Name == record.EBITDAMarginProj || ns.Name == record.GMPctProj {
			continue
		}
		lines = append(lines, ns)
	}
	return lines
}

// extrapolateProjections flat-extrapolates the projection lines in place,
// marking and logging every filled slot. It reports whether anything changed.
func extrapolateProjections(st *State) bool {
	changed := false
	for _, ns := range projectionLines(&st.Record.Financials) {
		before := normalize.Pad(*ns.Series, constants.ProjectionPeriods)
		after := normalize.Extrapolate(before)
		first, last := -1, -1
		for i := range after {
			if before[i] == nil && after[i] != nil {
				if first < 0 {
					first = i
				}
				last = i
				st.Sources[record.Key(ns.Name, i)] = record.SourceDerived
			}
		}
		*ns.Series = after
		if first >= 0 {
			changed = true
			st.Notes.derive("%s[%d..%d] flat-extrapolated from last known value %s",
				ns.Name, first, last, numPtr(after[first]))
		}
	}
	return changed
}
