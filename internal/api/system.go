// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/vastproxy/ad-normalizer/internal/log"
)

const readinessTimeout = 2 * time.Second

// handleHealthz reports process liveness.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleReadyz reports readiness: the service can serve ad breaks only
// when the status cache answers.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := s.store.Ping(ctx); err != nil {
		logger := log.WithContext(r.Context(), s.logger)
		logger.Error().Err(err).Msg("status cache unreachable")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable", "reason": "status cache unreachable"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}
