// Package normalize guarantees the fixed period lengths of a record's arrays.
package normalize

import (
	"github.com/iwvelando/prebid-integrity/pkg/constants"
	"github.com/iwvelando/prebid-integrity/pkg/record"
)

// Pad returns a copy of s right-padded with nulls to length n. It never
// truncates.
func Pad(s record.Series, n int) record.Series {
	out := make(record.Series, len(s), max(len(s), n))
	copy(out, s)
	for len(out) < n {
		out = append(out, nil)
	}
	return out
}

// Extrapolate returns a copy of s in which every null after the last known
// value is set to that value. An all-null series is returned unchanged.
func Extrapolate(s record.Series) record.Series {
	out := s.Clone()
	last := -1
	for i, v := range out {
		if v != nil {
			last = i
		}
	}
	if last < 0 {
		return out
	}
	for i := last + 1; i < len(out); i++ {
		out[i] = out[last]
	}
	return out
}

// PadLabels returns a copy of l right-padded with nulls to length n.
func PadLabels(l record.Labels, n int) record.Labels {
	out := make(record.Labels, len(l), max(len(l), n))
	copy(out, l)
	for len(out) < n {
		out = append(out, nil)
	}
	return out
}

// Truncate returns s cut to at most n elements, and whether anything was cut.
func Truncate(s record.Series, n int) (record.Series, bool) {
	if len(s) <= n {
		return s, false
	}
	return s[:n:n].Clone(), true
}

// TruncateLabels returns l cut to at most n elements, and whether anything
// was cut.
func TruncateLabels(l record.Labels, n int) (record.Labels, bool) {
	if len(l) <= n {
		return l, false
	}
	return l[:n:n].Clone(), true
}

// Financials returns a copy of f with every historical array padded to the
// historical length and every projection array padded to the projection
// length.
func Financials(f record.Financials) record.Financials {
	out := f
	for _, ns := range out.Historical() {
		*ns.Series = Pad(*ns.Series, constants.HistoricalPeriods)
	}
	for _, ns := range out.Projection() {
		*ns.Series = Pad(*ns.Series, constants.ProjectionPeriods)
	}
	return out
}
