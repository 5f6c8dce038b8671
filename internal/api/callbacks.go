// SPDX-License-Identifier: MIT

package api

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vastproxy/ad-normalizer/internal/encore"
	"github.com/vastproxy/ad-normalizer/internal/log"
	"github.com/vastproxy/ad-normalizer/internal/normalize"
)

// handleTranscodeCallback receives transcoder progress notifications.
func (s *Server) handleTranscodeCallback(w http.ResponseWriter, r *http.Request) {
	logger := log.WithContext(r.Context(), s.logger)

	var progress encore.JobProgress
	if err := decodeCallback(r, &progress); err != nil {
		logger.Warn().Err(err).Msg("rejected malformed transcode callback")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.callbacks.HandleTranscodeProgress(r.Context(), progress); err != nil {
		logger.Error().Err(err).
			Str("job_id", progress.JobID).
			Str("creative_id", progress.ExternalID).
			Msg("failed to process transcode callback")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handlePackagerCallback receives packager completion notifications.
func (s *Server) handlePackagerCallback(w http.ResponseWriter, r *http.Request) {
	logger := log.WithContext(r.Context(), s.logger)

	var progress normalize.PackagingProgress
	if err := decodeCallback(r, &progress); err != nil {
		logger.Warn().Err(err).Msg("rejected malformed packager callback")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.callbacks.HandlePackagingProgress(r.Context(), progress); err != nil {
		logger.Error().Err(err).
			Str("job_id", progress.JobID).
			Str("creative_id", progress.ExternalID).
			Msg("failed to process packager callback")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// decodeCallback decodes a JSON callback body, tolerating gzip encoding.
func decodeCallback(r *http.Request, dst any) error {
	body := io.Reader(r.Body)
	if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(r.Body)
		if err != nil {
			return fmt.Errorf("open gzip body: %w", err)
		}
		defer func() { _ = gz.Close() }()
		body = gz
	}
	if err := json.NewDecoder(io.LimitReader(body, maxBodySize)).Decode(dst); err != nil {
		return fmt.Errorf("decode callback body: %w", err)
	}
	return nil
}
