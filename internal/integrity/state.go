// Package integrity implements the post-extraction integrity pipeline: a
// fixed sequence of pure stages that repair, derive and annotate the fields of
// an extracted financial record.
package integrity

import (
	"fmt"
	"strconv"

	"github.com/iwvelando/prebid-integrity/pkg/record"
)

// Notes are the human-readable, append-only logs of a pipeline run.
type Notes struct {
	Corrections []string `json:"corrections"`
	Derivations []string `json:"derivations"`
	Warnings    []string `json:"warnings"`
}

// Len returns the total number of notes.
func (n Notes) Len() int {
	return len(n.Corrections) + len(n.Derivations) + len(n.Warnings)
}

func (n *Notes) correct(format string, args ...interface{}) {
	n.Corrections = append(n.Corrections, fmt.Sprintf(format, args...))
}

func (n *Notes) derive(format string, args ...interface{}) {
	n.Derivations = append(n.Derivations, fmt.Sprintf(format, args...))
}

func (n *Notes) warn(format string, args ...interface{}) {
	n.Warnings = append(n.Warnings, fmt.Sprintf(format, args...))
}

func (n Notes) clone() Notes {
	return Notes{
		Corrections: append([]string(nil), n.Corrections...),
		Derivations: append([]string(nil), n.Derivations...),
		Warnings:    append([]string(nil), n.Warnings...),
	}
}

// State is what flows between stages. Sources is kept apart from the record
// until the run finishes.
type State struct {
	Record  record.Record
	Sources record.FieldSources
	Notes   Notes
}

// Clone returns a State that can be modified without affecting s.
func (s State) Clone() State {
	return State{
		Record:  s.Record.Clone(),
		Sources: s.Sources.Clone(),
		Notes:   s.Notes.clone(),
	}
}

// StageFunc is a pure transformation of the pipeline state.
type StageFunc func(State, Thresholds) State

// Stage is a named pipeline step.
type Stage struct {
	Name  string
	Apply StageFunc
}

// num renders an amount the way it appears in notes: no exponent, no
// trailing zeros.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func numPtr(p *float64) string {
	if p == nil {
		return "null"
	}
	return num(*p)
}

func pct(ratio float64) string {
	return strconv.FormatFloat(ratio*100, 'f', 1, 64) + "%"
}
