package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/iwvelando/prebid-integrity/internal/integrity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
		wantError  bool
	}{
		{
			name:       "Non-existent config file",
			configPath: "nonexistent.yaml",
			wantError:  true,
		},
		{
			name:       "Example config",
			configPath: "../../config.yaml.example",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf, err := LoadConfiguration(tt.configPath)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, conf)
		})
	}
}

func TestLoadConfigurationDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })

	conf, err := LoadConfiguration("")
	require.NoError(t, err)

	assert.Equal(t, "info", conf.Logging.Level)
	assert.Equal(t, "json", conf.Logging.Format)
	assert.Equal(t, "pretty", conf.Output.Format)
	assert.Equal(t, ":8080", conf.Server.Address)
	assert.Equal(t, "2097152", conf.Server.MaxUploadSize)

	th, err := conf.Thresholds()
	require.NoError(t, err)
	assert.Equal(t, integrity.DefaultThresholds(), th)
}

func TestLoadConfigurationFromYAML(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: console
output:
  format: json
  directory: extractions
thresholds:
  sgaRatioMin: 0.04
  ebitdaMarginWarn: 0.5
  defaultAblRate: 0.08
server:
  address: ":9090"
  maxUploadSize: 5M
`)

	conf, err := LoadConfiguration(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", conf.Logging.Level)
	assert.Equal(t, "console", conf.Logging.Format)
	assert.Equal(t, "json", conf.Output.Format)
	assert.Equal(t, "extractions", conf.Output.Directory)
	assert.Equal(t, ":9090", conf.Server.Address)
	assert.Equal(t, "5M", conf.Server.MaxUploadSize)

	th, err := conf.Thresholds()
	require.NoError(t, err)
	assert.Equal(t, 0.04, th.SGARatioMin)
	assert.Equal(t, 0.5, th.EBITDAMarginWarn)
	assert.Equal(t, 0.08, th.DefaultABLRate)
	// Unset keys keep their defaults.
	assert.Equal(t, integrity.DefaultThresholds().SGARatioMax, th.SGARatioMax)
	assert.Equal(t, integrity.DefaultThresholds().DefaultTermRate, th.DefaultTermRate)
}

func TestLoadConfigurationEnvOverride(t *testing.T) {
	t.Setenv("PREBID_LOGGING_LEVEL", "warn")
	t.Setenv("PREBID_THRESHOLDS_DEFAULTTERMRATE", "0.09")

	conf, err := LoadConfiguration(writeConfig(t, "output:\n  format: pretty\n"))
	require.NoError(t, err)

	assert.Equal(t, "warn", conf.Logging.Level)
	assert.Equal(t, 0.09, conf.Calibration.DefaultTermRate)
}

func TestLoadConfigurationRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "Unknown output format",
			body:    "output:\n  format: csv\n",
			wantErr: "output.format",
		},
		{
			name:    "Unknown log level",
			body:    "logging:\n  level: chatty\n",
			wantErr: "logging.level",
		},
		{
			name:    "Inverted SG&A band",
			body:    "thresholds:\n  sgaRatioMin: 0.7\n",
			wantErr: "thresholds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfiguration(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
