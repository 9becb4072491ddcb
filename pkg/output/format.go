// Package output provides utilities for formatting and displaying integrity
// results.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/prebid-integrity/internal/integrity"
	"github.com/iwvelando/prebid-integrity/pkg/format"
	"github.com/iwvelando/prebid-integrity/pkg/record"
	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Named pairs a result with the input it came from.
type Named struct {
	Name   string
	Result integrity.Result
}

// PrettyFormat writes a human-readable report per result.
func PrettyFormat(w io.Writer, results []Named) {
	p := message.NewPrinter(language.English)
	for n, named := range results {
		res := named.Result
		rec := res.Record
		company := format.Label(rec.CompanyName)

		_, _ = fmt.Fprintf(w, "--- Integrity report for %s (%s) ---\n", company, named.Name)
		_, _ = fmt.Fprintf(w, "Run %s\n\n", res.RunID)

		periodTable(w, "Historical", rec.HistoricalYears, res.Sources, []column{
			{"Revenue", record.NetRevenueHist, rec.Financials.NetRevenueHist, format.Thousands},
			{"Gross Profit", record.GrossProfitHist, rec.Financials.GrossProfitHist, format.Thousands},
			{"SG&A", record.SGAHist, rec.Financials.SGAHist, format.Thousands},
			{"Adj. EBITDA", record.AdjEBITDAHist, rec.Financials.AdjEBITDAHist, format.Thousands},
			{"Margin", record.EBITDAMarginHist, rec.Financials.EBITDAMarginHist, format.Percent},
		})
		periodTable(w, "Projection", rec.ProjectionYears, res.Sources, []column{
			{"Revenue", record.NetRevenueProj, rec.Financials.NetRevenueProj, format.Thousands},
			{"Adj. EBITDA", record.AdjEBITDAProj, rec.Financials.AdjEBITDAProj, format.Thousands},
			{"D&A", record.DepreciationProj, rec.Financials.DepreciationProj, format.Thousands},
			{"CapEx", record.CapexProj, rec.Financials.CapexProj, format.Thousands},
		})

		d := rec.Deal
		_, _ = fmt.Fprintf(w, "Deal: EBITDA for price %s | Entry multiple %s | Purchase price %s | Leverage %s\n",
			format.Thousands(d.EBITDAForPrice), format.Multiple(d.EntryMultiple),
			format.Thousands(d.PurchasePriceCalculated), format.Multiple(d.LeverageRatio))
		_, _ = fmt.Fprintf(w, "Collateral: ABL availability %s | Rates: ABL %s, term %s\n\n",
			format.Thousands(rec.Collateral.ABLAvailabilityCalculated),
			format.Percent(rec.Rates.ABLRate), format.Percent(rec.Rates.TermRate))

		noteList(w, p, "Corrections", res.Corrections)
		noteList(w, p, "Derivations", res.Derivations)
		noteList(w, p, "Warnings", res.Warnings)

		if n < len(results)-1 {
			_, _ = fmt.Fprintf(w, "\n")
		}
	}
}

// JSONFormat writes the corrected records as a JSON array.
func JSONFormat(w io.Writer, results []Named) error {
	records := make([]record.Record, 0, len(results))
	for _, named := range results {
		records = append(records, named.Result.Record)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return eris.Wrap(err, "output: encode records")
	}
	return nil
}

type column struct {
	title  string
	name   string
	values record.Series
	render func(*float64) string
}

func periodTable(w io.Writer, title string, labels record.Labels, sources record.FieldSources, cols []column) {
	header := []string{title}
	rule := []string{strings.Repeat("_", len(title))}
	for _, c := range cols {
		header = append(header, c.title)
		rule = append(rule, strings.Repeat("_", len(c.title)))
	}
	_, _ = fmt.Fprintln(w, strings.Join(header, " | "))
	_, _ = fmt.Fprintln(w, strings.Join(rule, " | "))

	for i := range labels {
		row := []string{format.Label(labels[i])}
		for _, c := range cols {
			cell := c.render(c.values.At(i))
			if src := sources[record.Key(c.name, i)]; src == record.SourceDerived || src == record.SourceInferred {
				cell += "*"
			}
			row = append(row, cell)
		}
		_, _ = fmt.Fprintln(w, strings.Join(row, " | "))
	}
	_, _ = fmt.Fprintln(w, "(* derived or inferred)")
	_, _ = fmt.Fprintln(w)
}

func noteList(w io.Writer, p *message.Printer, title string, notes []string) {
	_, _ = p.Fprintf(w, "%s (%d):\n", title, len(notes))
	for _, note := range notes {
		_, _ = fmt.Fprintf(w, "  - %s\n", note)
	}
}
