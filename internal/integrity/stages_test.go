package integrity

import (
	"testing"

	"github.com/iwvelando/prebid-integrity/pkg/mathutil"
	"github.com/iwvelando/prebid-integrity/pkg/record"
	"github.com/iwvelando/prebid-integrity/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newState(rec record.Record) State {
	return State{Record: rec, Sources: record.FieldSources{}}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	in := newState(record.Record{
		Financials: record.Financials{
			NetRevenueHist: testutil.Series(100),
			NetRevenueProj: testutil.Series(110, 120, nil),
		},
	})

	out := Normalize(in, DefaultThresholds())

	assert.Equal(t, []interface{}{100.0, nil, nil}, testutil.Values(out.Record.Financials.NetRevenueHist))
	assert.Equal(t, []interface{}{110.0, 120.0, 120.0, 120.0, 120.0}, testutil.Values(out.Record.Financials.NetRevenueProj))
	assert.Len(t, out.Record.ProjectionYears, 5)
	assert.Equal(t, record.SourceDerived, out.Sources["net_revenue_proj_4"])
	_, marked := out.Sources["net_revenue_proj_1"]
	assert.False(t, marked)

	note, ok := testutil.FindNote(out.Notes.Derivations, "net_revenue_proj[2..4]")
	require.True(t, ok)
	assert.Contains(t, note, "120")

	// margins are not extrapolated
	assert.Equal(t, []interface{}{nil, nil, nil, nil, nil}, testutil.Values(out.Record.Financials.EBITDAMarginProj))
	// input untouched
	assert.Len(t, in.Record.Financials.NetRevenueProj, 3)
}

func TestRowSwap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		financials record.Financials
		expected   []interface{}
		proj       []interface{}
		note       string
	}{
		{
			name: "Operating income reported as EBITDA",
			financials: record.Financials{
				GrossProfitHist: testutil.Series(44800, nil, nil),
				SGAHist:         testutil.Series(20800, nil, nil),
				AdjEBITDAHist:   testutil.Series(21600, nil, nil),
			},
			expected: []interface{}{24000.0, nil, nil},
			note:     "SWAPPED hist[0]: GP(44800)-SGA(20800)=24000 > reported EBITDA(21600)",
		},
		{
			name: "Plausible SG&A share still swaps",
			financials: record.Financials{
				NetRevenueHist:  testutil.Series(100000, nil, nil),
				GrossProfitHist: testutil.Series(44800, nil, nil),
				SGAHist:         testutil.Series(20800, nil, nil),
				AdjEBITDAHist:   testutil.Series(21600, nil, nil),
			},
			expected: []interface{}{24000.0, nil, nil},
			note:     "SWAPPED hist[0]",
		},
		{
			name: "Implausible SG&A skips the period",
			financials: record.Financials{
				NetRevenueHist:  testutil.Series(92452, nil, nil),
				GrossProfitHist: testutil.Series(44800, nil, nil),
				SGAHist:         testutil.Series(1000, nil, nil),
				AdjEBITDAHist:   testutil.Series(21600, nil, nil),
			},
			expected: []interface{}{21600.0, nil, nil},
		},
		{
			name: "Negative EBITDA below a positive subtotal swaps",
			financials: record.Financials{
				NetRevenueHist:  testutil.Series(100000, nil, nil),
				GrossProfitHist: testutil.Series(44800, nil, nil),
				SGAHist:         testutil.Series(20800, nil, nil),
				AdjEBITDAHist:   testutil.Series(-5000, nil, nil),
			},
			expected: []interface{}{24000.0, nil, nil},
			note:     "SWAPPED hist[0]: GP(44800)-SGA(20800)=24000 > reported EBITDA(-5000)",
		},
		{
			name: "EBITDA above subtotal is kept",
			financials: record.Financials{
				GrossProfitHist: testutil.Series(44800, nil, nil),
				SGAHist:         testutil.Series(20800, nil, nil),
				AdjEBITDAHist:   testutil.Series(25000, nil, nil),
			},
			expected: []interface{}{25000.0, nil, nil},
		},
		{
			name: "Negative subtotal is never swapped in",
			financials: record.Financials{
				GrossProfitHist: testutil.Series(1000, nil, nil),
				SGAHist:         testutil.Series(3000, nil, nil),
				AdjEBITDAHist:   testutil.Series(-2500, nil, nil),
			},
			expected: []interface{}{-2500.0, nil, nil},
		},
		{
			name: "Projection period",
			financials: record.Financials{
				AdjEBITDAHist:   testutil.Series(nil, nil, nil),
				GrossProfitProj: testutil.Series(60000, 62000),
				SGAProj:         testutil.Series(25000, 26000),
				AdjEBITDAProj:   testutil.Series(33000, 35000),
			},
			expected: []interface{}{nil, nil, nil},
			proj:     []interface{}{35000.0, 36000.0},
			note:     "SWAPPED proj[0]: OpInc(35000) > EBITDA(33000), swapped",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newState(record.Record{Financials: tt.financials})
			out := RowSwap(in, DefaultThresholds())

			assert.Equal(t, tt.expected, testutil.Values(out.Record.Financials.AdjEBITDAHist))
			if tt.proj != nil {
				assert.Equal(t, tt.proj, testutil.Values(out.Record.Financials.AdjEBITDAProj))
			}
			if tt.note == "" {
				assert.Empty(t, out.Notes.Corrections)
				return
			}
			_, ok := testutil.FindNote(out.Notes.Corrections, tt.note)
			assert.True(t, ok, "missing note %q in %v", tt.note, out.Notes.Corrections)
			// the stage input is never modified
			assert.Empty(t, in.Notes.Corrections)
		})
	}
}

func TestRowSwapMarksProvenance(t *testing.T) {
	t.Parallel()

	in := newState(record.Record{Financials: record.Financials{
		GrossProfitHist: testutil.Series(44800, nil, nil),
		SGAHist:         testutil.Series(20800, nil, nil),
		AdjEBITDAHist:   testutil.Series(21600, nil, nil),
	}})
	out := RowSwap(in, DefaultThresholds())

	assert.Equal(t, record.SourceDerived, out.Sources["adj_ebitda_hist_0"])
	assert.Equal(t, 21600.0, *in.Record.Financials.AdjEBITDAHist[0])

	again := RowSwap(out, DefaultThresholds())
	assert.Equal(t, testutil.Values(out.Record.Financials.AdjEBITDAHist), testutil.Values(again.Record.Financials.AdjEBITDAHist))
	assert.Len(t, again.Notes.Corrections, 1)
}

func TestInferRevenue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		revenue  record.Series
		gross    record.Series
		expected []interface{}
		inferred []int
	}{
		{
			name:     "First column skipped",
			revenue:  testutil.Series(nil, 99086, 92452),
			gross:    testutil.Series(46000, 40680, 36843),
			expected: []interface{}{113712.0, 99086.0, 92452.0},
			inferred: []int{0},
		},
		{
			name:     "Only one revenue column",
			revenue:  testutil.Series(100000, nil, nil),
			gross:    testutil.Series(40000, 44000, 48000),
			expected: []interface{}{100000.0, 110000.0, 120000.0},
			inferred: []int{1, 2},
		},
		{
			name:     "No revenue at all",
			revenue:  testutil.Series(nil, nil, nil),
			gross:    testutil.Series(40000, 44000, 48000),
			expected: []interface{}{nil, nil, nil},
		},
		{
			name:     "Complete revenue",
			revenue:  testutil.Series(1, 2, 3),
			gross:    testutil.Series(1, 1, 1),
			expected: []interface{}{1.0, 2.0, 3.0},
		},
		{
			name:     "Too little gross profit",
			revenue:  testutil.Series(nil, 99086, nil),
			gross:    testutil.Series(nil, 40680, nil),
			expected: []interface{}{nil, 99086.0, nil},
		},
		{
			name:     "Gap without gross profit stays null",
			revenue:  testutil.Series(nil, 99086, 92452),
			gross:    testutil.Series(nil, 40680, 36843),
			expected: []interface{}{nil, 99086.0, 92452.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newState(record.Record{Financials: record.Financials{
				NetRevenueHist:  tt.revenue,
				GrossProfitHist: tt.gross,
			}})
			out := InferRevenue(in, DefaultThresholds())

			assert.Equal(t, tt.expected, testutil.Values(out.Record.Financials.NetRevenueHist))
			assert.Len(t, out.Notes.Derivations, len(tt.inferred))
			for _, i := range tt.inferred {
				assert.Equal(t, record.SourceInferred, out.Sources[record.Key(record.NetRevenueHist, i)])
			}
			// gross profit is authoritative
			assert.Equal(t, testutil.Values(tt.gross), testutil.Values(out.Record.Financials.GrossProfitHist))
		})
	}
}

func TestInferRevenueNote(t *testing.T) {
	t.Parallel()

	in := newState(record.Record{Financials: record.Financials{
		NetRevenueHist:  testutil.Series(nil, 99086, 92452),
		GrossProfitHist: testutil.Series(46000, 40680, 36843),
	}})
	out := InferRevenue(in, DefaultThresholds())

	require.Len(t, out.Notes.Derivations, 1)
	assert.Equal(t, "net_revenue_hist[0] inferred: GP(46000) / avg_gm_pct(0.405) = 113712", out.Notes.Derivations[0])
	assert.InDelta(t, 115000, *out.Record.Financials.NetRevenueHist[0], 2500)
}

func TestPostProcess(t *testing.T) {
	t.Parallel()

	in := newState(record.Record{
		Financials: record.Financials{
			NetRevenueHist:  testutil.Series(100000, 110000, 121000),
			GrossProfitHist: testutil.Series(40000, 44000, 48400),
			SGAHist:         testutil.Series(20000, 22000, 24200),
			AdjustmentsHist: testutil.Series(1000, nil, -700),
			AdjEBITDAHist:   testutil.Series(nil, 23000, 25000),
			CapexHist:       testutil.Series(500, -300, nil),
			NetRevenueProj:  testutil.Series(130000, 140000),
			AdjEBITDAProj:   testutil.Series(26000, 0),
			MgmtFeesProj:    testutil.Series(100),
		},
		Deal: record.Deal{
			EBITDAForPrice:   mathutil.Ptr(8000),
			EntryMultiple:    mathutil.Ptr(4),
			PctAcquired:      mathutil.Ptr(0.8),
			TermLoanAmount:   mathutil.Ptr(10000),
			SellerNoteAmount: mathutil.Ptr(2000),
		},
		Collateral: record.Collateral{
			ARValue:              mathutil.Ptr(1000),
			InventoryValue:       mathutil.Ptr(2000),
			InventoryAdvanceRate: mathutil.Ptr(0.5),
		},
	})

	out := PostProcess(in, DefaultThresholds())
	f := out.Record.Financials
	d := out.Record.Deal

	t.Run("Signs", func(t *testing.T) {
		assert.Equal(t, []interface{}{-500.0, -300.0, nil}, testutil.Values(f.CapexHist))
		assert.Equal(t, -100.0, *f.MgmtFeesProj[0])
		assert.Equal(t, 700.0, *f.AdjustmentsHist[2])
		_, ok := testutil.FindNote(out.Notes.Corrections, "capex_hist[0] = 500 is positive")
		assert.True(t, ok)
	})

	t.Run("Padding", func(t *testing.T) {
		for _, ns := range f.Projection() {
			assert.Len(t, *ns.Series, 5, ns.Name)
		}
		// no extrapolation at this stage
		assert.Nil(t, f.NetRevenueProj[2])
	})

	t.Run("EBITDA backfill", func(t *testing.T) {
		assert.Equal(t, 21000.0, *f.AdjEBITDAHist[0])
		assert.Equal(t, record.SourceDerived, out.Sources["adj_ebitda_hist_0"])
	})

	t.Run("Margins and growth", func(t *testing.T) {
		assert.Equal(t, []interface{}{0.21, 0.2091, 0.2066}, testutil.Values(f.EBITDAMarginHist))
		assert.Equal(t, []interface{}{0.4, 0.4, 0.4}, testutil.Values(f.GMPctHist))
		assert.Equal(t, []interface{}{nil, 0.1, 0.1}, testutil.Values(f.RevenueGrowthHist))
		assert.Equal(t, []interface{}{0.2, nil, nil, nil, nil}, testutil.Values(f.EBITDAMarginProj))
		assert.Equal(t, []interface{}{nil, nil, nil, nil, nil}, testutil.Values(f.GMPctProj))
	})

	t.Run("Deal fields", func(t *testing.T) {
		assert.Equal(t, 25600.0, *d.PurchasePriceCalculated)
		assert.Equal(t, 25600.0, *d.EnterpriseValue)
		assert.Equal(t, 1.5, *d.LeverageRatio)
		assert.Equal(t, 121000.0, *d.RevenueLTM)
		assert.Equal(t, 25000.0, *d.EBITDALTM)
	})

	t.Run("ABL availability", func(t *testing.T) {
		assert.Equal(t, 1750.0, *out.Record.Collateral.ABLAvailabilityCalculated)
	})
}

func TestPostProcessScenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		rec   record.Record
		check func(t *testing.T, out State)
	}{
		{
			name: "Purchase price from pricing EBITDA",
			rec: record.Record{Deal: record.Deal{
				EBITDAForPrice: mathutil.Ptr(8580),
				EntryMultiple:  mathutil.Ptr(3.0),
			}},
			check: func(t *testing.T, out State) {
				assert.Equal(t, 25740.0, *out.Record.Deal.PurchasePriceCalculated)
				assert.Equal(t, 25740.0, *out.Record.Deal.EnterpriseValue)
				assert.Equal(t, 0.0, *out.Record.Deal.LeverageRatio)
			},
		},
		{
			name: "Enterprise value is not overwritten",
			rec: record.Record{Deal: record.Deal{
				EBITDAForPrice:  mathutil.Ptr(8580),
				EntryMultiple:   mathutil.Ptr(3.0),
				EnterpriseValue: mathutil.Ptr(30000),
			}},
			check: func(t *testing.T, out State) {
				assert.Equal(t, 25740.0, *out.Record.Deal.PurchasePriceCalculated)
				assert.Equal(t, 30000.0, *out.Record.Deal.EnterpriseValue)
			},
		},
		{
			name: "No collateral gives no availability",
			rec:  record.Record{},
			check: func(t *testing.T, out State) {
				assert.Nil(t, out.Record.Collateral.ABLAvailabilityCalculated)
				assert.Nil(t, out.Record.Deal.LeverageRatio)
				assert.Nil(t, out.Record.Deal.RevenueLTM)
			},
		},
		{
			name: "Missing LTM does not clear reported value",
			rec: record.Record{Deal: record.Deal{
				RevenueLTM: mathutil.Ptr(500),
			}},
			check: func(t *testing.T, out State) {
				assert.Equal(t, 500.0, *out.Record.Deal.RevenueLTM)
			},
		},
		{
			name: "Zero revenue gives null margin",
			rec: record.Record{Financials: record.Financials{
				NetRevenueHist: testutil.Series(0, 100, 110),
				AdjEBITDAHist:  testutil.Series(10, 10, 11),
			}},
			check: func(t *testing.T, out State) {
				assert.Equal(t, []interface{}{nil, 0.1, 0.1}, testutil.Values(out.Record.Financials.EBITDAMarginHist))
				assert.Equal(t, []interface{}{nil, nil, 0.1}, testutil.Values(out.Record.Financials.RevenueGrowthHist))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, PostProcess(newState(tt.rec), DefaultThresholds()))
		})
	}
}
