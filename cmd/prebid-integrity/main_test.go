package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/iwvelando/prebid-integrity/internal/config"
	"github.com/iwvelando/prebid-integrity/internal/integrity"
	"github.com/iwvelando/prebid-integrity/pkg/record"
	"github.com/iwvelando/prebid-integrity/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func testConfiguration() *config.Configuration {
	return &config.Configuration{
		Output:      config.OutputConfig{Format: "pretty"},
		Calibration: integrity.DefaultThresholds(),
	}
}

func TestInitializeLogger(t *testing.T) {
	tests := []struct {
		name      string
		logging   config.LoggingConfig
		override  string
		expectErr bool
	}{
		{name: "Defaults"},
		{name: "Console debug", logging: config.LoggingConfig{Level: "debug", Format: "console"}},
		{name: "Override wins", logging: config.LoggingConfig{Level: "bogus"}, override: "warn"},
		{name: "Warning alias", override: "warning"},
		{name: "Invalid level", logging: config.LoggingConfig{Level: "trace"}, expectErr: true},
		{name: "Invalid format", logging: config.LoggingConfig{Format: "xml"}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := initializeLogger(tt.logging, tt.override)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestInitializeLoggerOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "prebid.log")
	l, err := initializeLogger(config.LoggingConfig{OutputFile: path}, "")
	require.NoError(t, err)

	l.Info("hello", zap.String("op", "test"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestRunCheckPretty(t *testing.T) {
	var buf bytes.Buffer
	err := runCheck(context.Background(), &buf, zap.NewNop(), testConfiguration(),
		[]string{testutil.FixturePath("scenario_row_swap.json")}, checkOptions{})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "--- Integrity report for Project Atlas (scenario_row_swap.json) ---")
	assert.Contains(t, out, "Purchase price $147,500K")
}

func TestRunCheckJSONWritesRecords(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "extractions")
	var buf bytes.Buffer
	err := runCheck(context.Background(), &buf, zap.NewNop(), testConfiguration(), []string{
		testutil.FixturePath("scenario_deal_only.json"),
		testutil.FixturePath("scenario_fenced.txt"),
	}, checkOptions{OutputFormat: "json", OutDir: outDir, Concurrency: 2})
	require.NoError(t, err)

	var printed []record.Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &printed))
	require.Len(t, printed, 2)
	assert.Equal(t, 25740.0, *printed[0].Deal.PurchasePriceCalculated)

	data, err := os.ReadFile(filepath.Join(outDir, "scenario_fenced.json"))
	require.NoError(t, err)
	written, err := record.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 45000.0, *written.Deal.PurchasePriceCalculated)
	assert.NotEmpty(t, written.FieldSources)
}

func TestRunCheckErrors(t *testing.T) {
	conf := testConfiguration()

	ctx := context.Background()
	err := runCheck(ctx, &bytes.Buffer{}, zap.NewNop(), conf, []string{"missing.json"}, checkOptions{})
	assert.Error(t, err)

	err = runCheck(ctx, &bytes.Buffer{}, zap.NewNop(), conf,
		[]string{testutil.FixturePath("scenario_deal_only.json")}, checkOptions{OutputFormat: "csv"})
	assert.Error(t, err)

	notObject := filepath.Join(t.TempDir(), "list.json")
	require.NoError(t, os.WriteFile(notObject, []byte("[1, 2]"), 0600))
	err = runCheck(ctx, &bytes.Buffer{}, zap.NewNop(), conf, []string{notObject}, checkOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to check")
}

func TestWriteThresholds(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeThresholds(&buf, testConfiguration()))

	var doc map[string]integrity.Thresholds
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, integrity.DefaultThresholds(), doc["thresholds"])

	bad := testConfiguration()
	bad.Calibration.DefaultABLRate = 0
	assert.Error(t, writeThresholds(&bytes.Buffer{}, bad))
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}
	assert.NoError(t, serve(ctx, zap.NewNop(), srv))
}
