// Package server exposes the integrity pipeline over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/prebid-integrity/internal/integrity"
	"github.com/iwvelando/prebid-integrity/pkg/constants"
	"github.com/iwvelando/prebid-integrity/pkg/record"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type handler struct {
	logger        *zap.Logger
	pipeline      *integrity.Pipeline
	maxUploadSize int64
	version       string
}

// NewHandler constructs the HTTP handler that serves the integrity API.
func NewHandler(logger *zap.Logger, pipeline *integrity.Pipeline, maxUploadSize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, pipeline: pipeline, maxUploadSize: maxUploadSize, version: trimmedVersion}

	mux := http.NewServeMux()

	// Record check endpoint (raw JSON body or multipart upload)
	mux.HandleFunc("/api/integrity", h.handleIntegrity)

	// Effective calibration values
	mux.HandleFunc("/api/thresholds", h.handleThresholds)

	// Version endpoint
	mux.HandleFunc("/api/version", h.handleVersion)

	return mux
}

type integrityResponse struct {
	RunID       string         `json:"run_id"`
	Record      record.Record  `json:"record"`
	Summary     record.Summary `json:"summary"`
	Corrections []string       `json:"corrections"`
	Derivations []string       `json:"derivations"`
	Warnings    []string       `json:"warnings"`
	Duration    string         `json:"duration"`
}

func (h *handler) handleIntegrity(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleIntegrity"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	data, status, err := h.readRecord(r)
	if err != nil {
		h.respondError(w, status, err.Error(), op)
		return
	}

	result, err := h.pipeline.Process(data)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode record: %v", err), op)
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("record checked",
		zap.String("op", op),
		zap.String("run_id", result.RunID.String()),
		zap.Int("corrections", len(result.Corrections)),
		zap.Int("derivations", len(result.Derivations)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, integrityResponse{
		RunID:       result.RunID.String(),
		Record:      result.Record,
		Summary:     result.Summary,
		Corrections: result.Corrections,
		Derivations: result.Derivations,
		Warnings:    result.Warnings,
		Duration:    elapsed.String(),
	})
}

// readRecord returns the raw record from either a multipart "file" field or
// the request body, with the HTTP status to use on failure.
func (h *handler) readRecord(r *http.Request) ([]byte, int, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, h.readStatus(err), h.readError(err)
		}
		return data, http.StatusOK, nil
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		return nil, h.readStatus(err), h.readError(err)
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, http.StatusBadRequest, eris.New("missing record file")
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", "server.readRecord"),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return nil, http.StatusInternalServerError, eris.Wrap(err, "failed to read record")
	}
	return buf.Bytes(), http.StatusOK, nil
}

func (h *handler) readStatus(err error) int {
	var maxBytesErr *http.MaxBytesError
	if eris.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func (h *handler) readError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if eris.As(err, &maxBytesErr) {
		return eris.Errorf("upload exceeds limit of %d bytes", h.maxUploadSize)
	}
	return eris.Wrap(err, "failed to read upload")
}

func (h *handler) handleThresholds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	th := h.pipeline.Thresholds()
	if r.URL.Query().Get("format") == "yaml" {
		out, err := yaml.Marshal(map[string]integrity.Thresholds{"thresholds": th})
		if err != nil {
			h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode thresholds: %v", err), "server.handleThresholds")
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out)
		return
	}

	h.writeJSON(w, http.StatusOK, th)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("integrity request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.String("op", "server.writeJSON"), zap.Error(err))
	}
}
