package integrity

import (
	"github.com/iwvelando/prebid-integrity/pkg/record"
)

// computed lists the arrays the pipeline always calculates from other lines.
var computed = map[string]bool{
	record.EBITDAMarginHist:  true,
	record.GMPctHist:         true,
	record.RevenueGrowthHist: true,
	record.EBITDAMarginProj:  true,
	record.GMPctProj:         true,
}

// finalizeSources marks every array slot and the collateral values that no
// stage has claimed: extracted values are direct, calculated ones derived and
// missing ones not_found.
func finalizeSources(st *State) {
	for _, ns := range st.Record.Financials.All() {
		for i, v := range *ns.Series {
			key := record.Key(ns.Name, i)
			if _, ok := st.Sources[key]; ok {
				continue
			}
			switch {
			case v == nil:
				st.Sources[key] = record.SourceNotFound
			case computed[ns.Name]:
				st.Sources[key] = record.SourceDerived
			default:
				st.Sources[key] = record.SourceDirect
			}
		}
	}

	c := st.Record.Collateral
	scalars := []struct {
		key   string
		value *float64
	}{
		{record.ARValue, c.ARValue},
		{record.InventoryValue, c.InventoryValue},
	}
	for _, s := range scalars {
		if _, ok := st.Sources[s.key]; ok {
			continue
		}
		if s.value == nil {
			st.Sources[s.key] = record.SourceNotFound
		} else {
			st.Sources[s.key] = record.SourceDirect
		}
	}
}
