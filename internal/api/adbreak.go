// SPDX-License-Identifier: MIT

package api

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vastproxy/ad-normalizer/internal/log"
	"github.com/vastproxy/ad-normalizer/internal/metrics"
	"github.com/vastproxy/ad-normalizer/internal/store"
	"github.com/vastproxy/ad-normalizer/internal/vast"
)

// maxBodySize bounds inbound and upstream document bodies.
const maxBodySize = 10 * 1024 * 1024

// Request headers forwarded to the upstream ad server so its targeting
// still sees the player, not this proxy.
var forwardedHeaders = []string{"X-Device-User-Agent", "X-Forwarded-For", "User-Agent"}

const dispatchTimeout = 10 * time.Second

// handleAdBreak builds the proxy handler for one wire format. An empty
// format means the document's root element decides.
//
// The handler never fails an ad request: upstream errors and unparsable
// documents degrade to an empty document of the expected format so the
// player's ad slot stays playable.
func (s *Server) handleAdBreak(format vast.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.WithContext(r.Context(), s.logger)

		body, err := s.adBreakBody(r)
		if err != nil {
			logger.Error().Err(err).Msg("failed to obtain ad response")
			metrics.AdRequests.WithLabelValues(string(format), "upstream_error").Inc()
			s.respondEmpty(w, r, format)
			return
		}

		docFormat := format
		if docFormat == "" {
			docFormat, err = vast.Detect(body)
			if err != nil {
				logger.Error().Err(err).Msg("could not detect ad document format")
				metrics.AdRequests.WithLabelValues("unknown", "parse_error").Inc()
				s.respondEmpty(w, r, vast.FormatVAST)
				return
			}
		}

		doc, err := vast.ParseAs(body, docFormat)
		if err != nil {
			logger.Error().Err(err).Str("format", string(docFormat)).Msg("failed to parse ad document")
			metrics.AdRequests.WithLabelValues(string(docFormat), "parse_error").Inc()
			s.respondEmpty(w, r, docFormat)
			return
		}

		found, missing := s.normalizer.Normalize(doc, s.lookup(r.Context(), logger))
		metrics.AdRequests.WithLabelValues(string(docFormat), "ok").Inc()
		metrics.CreativesFound.Add(float64(len(found)))
		metrics.CreativesMissing.Add(float64(len(missing)))
		logger.Debug().
			Int("found", len(found)).
			Int("missing", len(missing)).
			Str("format", string(docFormat)).
			Msg("normalized ad document")

		s.dispatchMissing(r.Context(), missing)

		if wantsJSON(r) {
			s.respondJSON(w, found)
			return
		}
		s.respondXML(w, doc)
	}
}

// adBreakBody returns the document to normalize: the posted body, or the
// upstream ad server's response to the forwarded query.
func (s *Server) adBreakBody(r *http.Request) ([]byte, error) {
	if r.Method == http.MethodPost {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		return body, nil
	}
	return s.fetchUpstream(r)
}

// fetchUpstream proxies the inbound query string to the ad server and
// returns its decompressed response body.
func (s *Server) fetchUpstream(r *http.Request) ([]byte, error) {
	target := *s.cfg.AdServerURL
	target.RawQuery = r.URL.RawQuery

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	for _, h := range forwardedHeaders {
		if v := r.Header.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ad response: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ad server returned status %d", resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	if strings.Contains(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("open gzip ad response: %w", err)
		}
		defer func() { _ = gz.Close() }()
		body = gz
	}

	data, err := io.ReadAll(io.LimitReader(body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read ad response: %w", err)
	}
	return data, nil
}

// lookup adapts the status cache to the normalizer. Cache errors degrade
// the creative to a miss instead of failing the request.
func (s *Server) lookup(ctx context.Context, logger zerolog.Logger) vast.LookupFunc {
	return func(identity string) (store.TranscodeInfo, bool) {
		info, found, err := s.store.Get(ctx, identity)
		if err != nil {
			logger.Error().Err(err).
				Str("creative_id", identity).
				Msg("status cache lookup failed, treating creative as missing")
			return store.TranscodeInfo{}, false
		}
		return info, found
	}
}

// dispatchMissing fires one transcode dispatch per missing creative. The
// goroutines outlive the request; errors are absorbed because dispatch
// failure must never affect the ad response.
func (s *Server) dispatchMissing(ctx context.Context, missing []vast.ManifestAsset) {
	for _, creative := range missing {
		s.background.Add(1)
		go func(creative vast.ManifestAsset) {
			defer s.background.Done()
			dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
			defer cancel()
			if err := s.dispatcher.Dispatch(dctx, creative); err != nil {
				s.logger.Error().Err(err).
					Str("creative_id", creative.CreativeID).
					Msg("transcode dispatch failed")
			}
		}(creative)
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// assetList is the JSON representation of a normalized ad break.
type assetList struct {
	Assets []vast.ManifestAsset `json:"assets"`
}

func (s *Server) respondJSON(w http.ResponseWriter, found []vast.ManifestAsset) {
	if found == nil {
		found = []vast.ManifestAsset{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(assetList{Assets: found}); err != nil {
		s.logger.Error().Err(err).Msg("failed to write JSON ad response")
	}
}

func (s *Server) respondXML(w http.ResponseWriter, doc vast.Document) {
	body, err := doc.Marshal()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to serialize ad document")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	if _, err := w.Write(body); err != nil {
		s.logger.Error().Err(err).Msg("failed to write ad response")
	}
}

// respondEmpty serves the degraded empty document for the format.
func (s *Server) respondEmpty(w http.ResponseWriter, r *http.Request, format vast.Format) {
	if wantsJSON(r) {
		s.respondJSON(w, nil)
		return
	}
	s.respondXML(w, vast.EmptyDocument(format))
}
