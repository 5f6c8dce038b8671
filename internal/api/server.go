// SPDX-License-Identifier: MIT

// Package api exposes the HTTP surface of the ad normalizer: the ad-break
// proxy endpoints, the asynchronous pipeline callbacks and the system
// endpoints.
package api

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vastproxy/ad-normalizer/internal/encore"
	"github.com/vastproxy/ad-normalizer/internal/normalize"
	"github.com/vastproxy/ad-normalizer/internal/store"
	"github.com/vastproxy/ad-normalizer/internal/vast"
)

const packagerCallbackPath = "/packagerCallback"

// Dispatcher submits transcode work for creatives missing a rendition.
// Satisfied by *normalize.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, creative vast.ManifestAsset) error
}

// CallbackService advances the pipeline state machine on asynchronous
// notifications. Satisfied by *normalize.Service.
type CallbackService interface {
	HandleTranscodeProgress(ctx context.Context, p encore.JobProgress) error
	HandlePackagingProgress(ctx context.Context, p normalize.PackagingProgress) error
}

// Config carries the server's deployment knobs.
type Config struct {
	AdServerURL  *url.URL
	RateLimitRPS int // 0 disables rate limiting
	// HTTPClient overrides the upstream ad-server client, mainly for tests.
	HTTPClient *http.Client
}

// Server wires the HTTP surface against the status cache, the document
// normalizer and the pipeline components.
type Server struct {
	cfg        Config
	store      store.Store
	normalizer *vast.Normalizer
	dispatcher Dispatcher
	callbacks  CallbackService
	httpClient *http.Client
	logger     zerolog.Logger

	// background tracks fire-and-forget dispatch goroutines so shutdown
	// and tests can wait for them.
	background sync.WaitGroup
}

// NewServer constructs the HTTP surface.
func NewServer(cfg Config, st store.Store, normalizer *vast.Normalizer, dispatcher Dispatcher, callbacks CallbackService, logger zerolog.Logger) *Server {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Server{
		cfg:        cfg,
		store:      st,
		normalizer: normalizer,
		dispatcher: dispatcher,
		callbacks:  callbacks,
		httpClient: client,
		logger:     logger,
	}
}

// Router builds the chi router with the full middleware stack. Recoverer
// sits outermost, then correlation, metrics and logging; rate limiting
// guards only the ad-break endpoints.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(recoverer)
	r.Use(requestID)
	r.Use(requestMetrics)
	r.Use(requestLogger)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post(encore.TranscodeCallbackPath, s.handleTranscodeCallback)
	r.Post(packagerCallbackPath, s.handlePackagerCallback)

	adBreaks := func(r chi.Router) {
		if s.cfg.RateLimitRPS > 0 {
			r.Use(rateLimiter(s.cfg.RateLimitRPS))
		}
		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/vast", s.handleAdBreak(vast.FormatVAST))
			r.Post("/vast", s.handleAdBreak(vast.FormatVAST))
			r.Get("/vmap", s.handleAdBreak(vast.FormatVMAP))
			r.Post("/vmap", s.handleAdBreak(vast.FormatVMAP))
		})
		// Format sniffed from the document's root element.
		r.Get("/adbreak", s.handleAdBreak(""))
		r.Post("/adbreak", s.handleAdBreak(""))
	}
	r.Group(adBreaks)

	return r
}

// Wait blocks until in-flight background dispatches have finished. Called
// on shutdown so submitted placeholders are never half-written.
func (s *Server) Wait() {
	s.background.Wait()
}
