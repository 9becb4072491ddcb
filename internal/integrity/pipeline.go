package integrity

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/iwvelando/prebid-integrity/pkg/record"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Stage names as they appear in logs.
const (
	StageNormalize        = "normalize"
	StageRowSwap          = "row_swap"
	StageRevenueInference = "revenue_inference"
	StagePostProcess      = "post_process"
	StageValidation       = "validation"
	StageDerivation       = "derivation"
)

// Stages returns the pipeline stages in their fixed execution order. Later
// stages depend on values corrected by earlier ones.
func Stages() []Stage {
	return []Stage{
		{StageNormalize, Normalize},
		{StageRowSwap, RowSwap},
		{StageRevenueInference, InferRevenue},
		{StagePostProcess, PostProcess},
		{StageValidation, Validate},
		{StageDerivation, Derive},
	}
}

// Result is the outcome of one pipeline run.
type Result struct {
	RunID       uuid.UUID           `json:"run_id"`
	Record      record.Record       `json:"record"`
	Sources     record.FieldSources `json:"field_sources"`
	Corrections []string            `json:"corrections"`
	Derivations []string            `json:"derivations"`
	Warnings    []string            `json:"warnings"`
	Summary     record.Summary      `json:"summary"`
}

// Pipeline runs records through the integrity stages. It holds no per-record
// state and may be used from multiple goroutines.
type Pipeline struct {
	logger     *zap.Logger
	thresholds Thresholds
	stages     []Stage
}

// New constructs a Pipeline with the given thresholds.
func New(logger *zap.Logger, thresholds Thresholds) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := thresholds.Validate(); err != nil {
		return nil, eris.Wrap(err, "integrity: invalid thresholds")
	}
	return &Pipeline{logger: logger, thresholds: thresholds, stages: Stages()}, nil
}

// Thresholds returns the calibration the pipeline was built with.
func (p *Pipeline) Thresholds() Thresholds {
	return p.thresholds
}

// Run corrects one record. The input is not modified. Data-quality problems
// never fail a run; they are absorbed into notes and provenance markers.
func (p *Pipeline) Run(rec record.Record) Result {
	runID := uuid.New()
	logger := p.logger.With(zap.String("run_id", runID.String()))
	if rec.CompanyName != nil {
		logger = logger.With(zap.String("company", *rec.CompanyName))
	}

	st := State{
		Record:  rec,
		Sources: rec.FieldSources,
		Notes: Notes{
			Corrections: rec.Corrections,
			Derivations: rec.Derivations,
			Warnings:    rec.Warnings,
		},
	}.Clone()

	for _, stage := range p.stages {
		before := st.Notes
		st = stage.Apply(st, p.thresholds)
		logStage(logger, stage.Name, before, st.Notes)
	}

	out := st.Record.Clone()
	out.FieldSources = st.Sources.Clone()
	out.Corrections = nonNil(st.Notes.Corrections)
	out.Derivations = nonNil(st.Notes.Derivations)
	out.Warnings = st.Notes.Warnings

	logger.Info("integrity run complete",
		zap.String("op", "integrity.Run"),
		zap.Int("corrections", len(out.Corrections)),
		zap.Int("derivations", len(out.Derivations)),
		zap.Int("warnings", len(out.Warnings)),
	)

	return Result{
		RunID:       runID,
		Record:      out,
		Sources:     st.Sources,
		Corrections: out.Corrections,
		Derivations: out.Derivations,
		Warnings:    nonNil(st.Notes.Warnings),
		Summary:     record.Summarize(out),
	}
}

// Process decodes a raw candidate record and runs it. Only input that cannot
// be read as a JSON object is an error.
func (p *Pipeline) Process(data []byte) (Result, error) {
	rec, err := record.Decode(data)
	if err != nil {
		return Result{}, err
	}
	return p.Run(rec), nil
}

func logStage(logger *zap.Logger, stage string, before, after Notes) {
	added := func(prev, cur []string) []string {
		return cur[len(prev):]
	}
	corrections := added(before.Corrections, after.Corrections)
	derivations := added(before.Derivations, after.Derivations)
	warnings := added(before.Warnings, after.Warnings)

	logger.Debug(fmt.Sprintf("stage %s finished", stage),
		zap.String("op", "integrity.Run"),
		zap.String("stage", stage),
		zap.Int("corrections", len(corrections)),
		zap.Int("derivations", len(derivations)),
		zap.Int("warnings", len(warnings)),
	)
	for _, note := range corrections {
		logger.Info(note, zap.String("op", "integrity.Run"), zap.String("stage", stage), zap.String("kind", "correction"))
	}
	for _, note := range derivations {
		logger.Info(note, zap.String("op", "integrity.Run"), zap.String("stage", stage), zap.String("kind", "derivation"))
	}
	for _, note := range warnings {
		logger.Warn(note, zap.String("op", "integrity.Run"), zap.String("stage", stage), zap.String("kind", "warning"))
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
