// SPDX-License-Identifier: MIT

// Package store holds the normalization status cache. One record exists per
// creative identity; the record carries the transcode state and, once the
// creative is playable, the manifest URL. Expiry is handled by the backing
// store via per-key TTL.
package store

import (
	"context"
	"time"
)

// Status describes where a creative is in the normalization pipeline.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusPackaging  Status = "PACKAGING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusUnknown    Status = "UNKNOWN"
)

// ParseStatus maps a wire value onto a Status, defaulting to StatusUnknown.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusInProgress, StatusPackaging, StatusCompleted, StatusFailed:
		return Status(s)
	default:
		return StatusUnknown
	}
}

// TranscodeInfo is the cache record for one creative identity.
// Url is non-empty if and only if Status is StatusCompleted.
type TranscodeInfo struct {
	Url         string    `json:"url"`
	AspectRatio string    `json:"aspectRatio"`
	FrameRates  []float64 `json:"frameRates"`
	Status      Status    `json:"status"`
}

// Store is the contract every status cache backend satisfies. Individual key
// operations are serialized by the backend; no additional locking happens in
// this core.
type Store interface {
	// Get retrieves the record for a creative identity. The boolean reports
	// whether a live (non-expired) record exists.
	Get(ctx context.Context, key string) (TranscodeInfo, bool, error)
	// Set writes a record, refreshing its TTL.
	Set(ctx context.Context, key string, info TranscodeInfo, ttl time.Duration) error
	// SetNX writes a record only if the key has no live record, reporting
	// whether the write happened. Used as the dispatch guard.
	SetNX(ctx context.Context, key string, info TranscodeInfo, ttl time.Duration) (bool, error)
	// Delete removes a record so a later request can re-trigger dispatch.
	Delete(ctx context.Context, key string) error
	// EnqueuePackaging appends a message to the named packaging work queue.
	EnqueuePackaging(ctx context.Context, queue string, payload []byte) error
	// Ping reports backend liveness.
	Ping(ctx context.Context) error
}
