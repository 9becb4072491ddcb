// Package config defines the application configuration and loads it from a
// YAML file, the environment, and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/iwvelando/prebid-integrity/internal/integrity"
	"github.com/iwvelando/prebid-integrity/pkg/constants"
	"github.com/iwvelando/prebid-integrity/pkg/validation"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for prebid-integrity.
type Configuration struct {
	Logging     LoggingConfig        `mapstructure:"logging" yaml:"logging,omitempty"`
	Output      OutputConfig         `mapstructure:"output" yaml:"output,omitempty"`
	Calibration integrity.Thresholds `mapstructure:"thresholds" yaml:"thresholds"`
	Server      ServerConfig         `mapstructure:"server" yaml:"server,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format    string `mapstructure:"format" yaml:"format,omitempty"`       // pretty, json
	Directory string `mapstructure:"directory" yaml:"directory,omitempty"` // corrected records are written here when set
}

// ServerConfig holds the HTTP adapter settings.
type ServerConfig struct {
	Address       string `mapstructure:"address" yaml:"address,omitempty"`
	MaxUploadSize string `mapstructure:"maxUploadSize" yaml:"maxUploadSize,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. A missing file is not an error when path is empty;
// defaults and PREBID_* environment variables still apply.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, eris.Wrapf(err, "config: read %s", configPath)
		}
	} else {
		v.SetConfigName(strings.TrimSuffix(constants.DefaultConfigFile, ".yaml"))
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, eris.Wrap(err, "config: read file")
			}
		}
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

// Validate checks every section that has a fixed set of allowed values.
func (c *Configuration) Validate() error {
	if err := validation.ValidateLogLevel(c.Logging.Level); err != nil {
		return eris.Wrap(err, "config: logging.level")
	}
	if err := validation.ValidateLogFormat(c.Logging.Format); err != nil {
		return eris.Wrap(err, "config: logging.format")
	}
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		return eris.Wrap(err, "config: output.format")
	}
	if _, err := c.Thresholds(); err != nil {
		return err
	}
	return nil
}

// Thresholds returns the configured calibration after validating it.
func (c *Configuration) Thresholds() (integrity.Thresholds, error) {
	if err := c.Calibration.Validate(); err != nil {
		return integrity.Thresholds{}, eris.Wrap(err, "config: thresholds")
	}
	return c.Calibration, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("output.directory", "")
	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxUploadSize", fmt.Sprintf("%d", constants.DefaultMaxUploadSizeBytes))

	// Every threshold key is registered so PREBID_THRESHOLDS_* overrides
	// reach Unmarshal.
	th := integrity.DefaultThresholds()
	for key, value := range map[string]float64{
		"sgaRatioMin":                  th.SGARatioMin,
		"sgaRatioMax":                  th.SGARatioMax,
		"addBackRevenueMax":            th.AddBackRevenueMax,
		"ebitdaForPriceTolerance":      th.EBITDAForPriceTolerance,
		"ebitdaMarginWarn":             th.EBITDAMarginWarn,
		"capexRevenueWarn":             th.CapexRevenueWarn,
		"depreciationRevenueMax":       th.DepreciationRevenueMax,
		"projDepreciationCollisionRel": th.ProjDepreciationCollisionRel,
		"projDepreciationCollisionAbs": th.ProjDepreciationCollisionAbs,
		"histDepreciationCollisionRel": th.HistDepreciationCollisionRel,
		"histDepreciationCollisionAbs": th.HistDepreciationCollisionAbs,
		"entryMultipleMin":             th.EntryMultipleMin,
		"entryMultipleMax":             th.EntryMultipleMax,
		"defaultAblRate":               th.DefaultABLRate,
		"defaultTermRate":              th.DefaultTermRate,
		"defaultArAdvanceRate":         th.DefaultARAdvanceRate,
		"defaultInventoryAdvanceRate":  th.DefaultInventoryAdvanceRate,
		"defaultPctAcquired":           th.DefaultPctAcquired,
	} {
		v.SetDefault("thresholds."+key, value)
	}
}
