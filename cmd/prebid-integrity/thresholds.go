package main

import (
	"io"

	"github.com/iwvelando/prebid-integrity/internal/config"
	"github.com/iwvelando/prebid-integrity/internal/integrity"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newThresholdsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "thresholds",
		Short: "Print the effective calibration values as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeThresholds(cmd.OutOrStdout(), conf)
		},
	}
}

func writeThresholds(w io.Writer, conf *config.Configuration) error {
	th, err := conf.Thresholds()
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]integrity.Thresholds{"thresholds": th}); err != nil {
		return eris.Wrap(err, "failed to encode thresholds")
	}
	return enc.Close()
}
