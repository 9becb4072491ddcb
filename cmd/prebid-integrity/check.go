package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/iwvelando/prebid-integrity/internal/config"
	"github.com/iwvelando/prebid-integrity/internal/integrity"
	"github.com/iwvelando/prebid-integrity/pkg/constants"
	"github.com/iwvelando/prebid-integrity/pkg/output"
	"github.com/iwvelando/prebid-integrity/pkg/record"
	"github.com/iwvelando/prebid-integrity/pkg/validation"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// checkOptions are the per-invocation settings of the check command. Empty
// values fall back to the configuration.
type checkOptions struct {
	OutputFormat string
	OutDir       string
	Concurrency  int
}

func newCheckCmd() *cobra.Command {
	var opts checkOptions

	cmd := &cobra.Command{
		Use:   "check <record.json>...",
		Short: "Check and repair extracted records",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), cmd.OutOrStdout(), logger, conf, args, opts)
		},
	}
	cmd.Flags().StringVar(&opts.OutputFormat, "output-format", "", "type of output override: pretty, json")
	cmd.Flags().StringVar(&opts.OutDir, "out", "", "directory to write corrected records into")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", constants.DefaultCheckConcurrency, "number of records checked in parallel")
	return cmd
}

// runCheck runs every input file through the pipeline and renders the
// results in input order. The first failing file aborts the run.
func runCheck(ctx context.Context, w io.Writer, logger *zap.Logger, conf *config.Configuration, paths []string, opts checkOptions) error {
	outputFormat, outDir := opts.OutputFormat, opts.OutDir
	if outputFormat == "" {
		outputFormat = conf.Output.Format
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}
	if outDir == "" {
		outDir = conf.Output.Directory
	}

	for _, warning := range validation.ValidateInputFiles(paths) {
		logger.Warn("input warning: "+warning, zap.String("op", "main.runCheck"))
	}

	th, err := conf.Thresholds()
	if err != nil {
		return err
	}
	pipeline, err := integrity.New(logger, th)
	if err != nil {
		return err
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = constants.DefaultCheckConcurrency
	}

	results := make([]output.Named, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := checkFile(pipeline, path)
			if err != nil {
				return err
			}
			if outDir != "" {
				dest, err := writeRecord(outDir, path, res.Record)
				if err != nil {
					return err
				}
				logger.Info("corrected record written",
					zap.String("op", "main.runCheck"),
					zap.String("input", path),
					zap.String("output", dest),
				)
			}
			results[i] = output.Named{Name: filepath.Base(path), Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(w, results)
	case constants.OutputFormatJSON:
		return output.JSONFormat(w, results)
	}
	return nil
}

func checkFile(pipeline *integrity.Pipeline, path string) (integrity.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return integrity.Result{}, eris.Wrapf(err, "failed to read %s", path)
	}
	res, err := pipeline.Process(data)
	if err != nil {
		return integrity.Result{}, eris.Wrapf(err, "failed to check %s", path)
	}
	return res, nil
}

// writeRecord stores rec as <dir>/<input name>.json and returns the path.
func writeRecord(dir, input string, rec record.Record) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", eris.Wrapf(err, "failed to create output directory %s", dir)
	}
	data, err := record.Encode(rec)
	if err != nil {
		return "", err
	}
	base := filepath.Base(input)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".json"
	dest := filepath.Join(dir, name)
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return "", eris.Wrapf(err, "failed to write %s", dest)
	}
	return dest, nil
}
