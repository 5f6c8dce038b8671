// SPDX-License-Identifier: MIT

// Package metrics defines the prometheus instrumentation for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AdRequests counts inbound ad-break requests by wire format and outcome.
	AdRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adnormalizer_ad_requests_total",
		Help: "Inbound ad-break requests by format and outcome",
	}, []string{"format", "outcome"}) // outcome=ok|upstream_error|parse_error

	// CreativesFound counts creatives served with a ready rendition.
	CreativesFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adnormalizer_creatives_found_total",
		Help: "Creatives that had a ready rendition in the status cache",
	})

	// CreativesMissing counts creatives lacking a ready rendition.
	CreativesMissing = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adnormalizer_creatives_missing_total",
		Help: "Creatives without a ready rendition",
	})

	// Dispatches counts transcode job dispatch attempts by outcome.
	Dispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adnormalizer_dispatches_total",
		Help: "Transcode dispatch attempts by outcome",
	}, []string{"outcome"}) // outcome=submitted|in_flight|rejected|error

	// TranscodeCallbacks counts transcoder progress callbacks by status.
	TranscodeCallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adnormalizer_transcode_callbacks_total",
		Help: "Transcoder progress callbacks by reported status",
	}, []string{"status"})

	// PackagingCallbacks counts packager callbacks by status.
	PackagingCallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adnormalizer_packaging_callbacks_total",
		Help: "Packager callbacks by reported status",
	}, []string{"status"})

	// RequestDuration tracks HTTP handler latency.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "adnormalizer_request_duration_seconds",
		Help:    "HTTP request duration by route and status code",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "code"})
)
