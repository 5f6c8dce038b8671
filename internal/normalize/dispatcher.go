// SPDX-License-Identifier: MIT

package normalize

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vastproxy/ad-normalizer/internal/encore"
	"github.com/vastproxy/ad-normalizer/internal/metrics"
	"github.com/vastproxy/ad-normalizer/internal/store"
	"github.com/vastproxy/ad-normalizer/internal/vast"
)

// TranscoderClient is the outbound transcoder contract the state machine
// depends on. Satisfied by *encore.Client.
type TranscoderClient interface {
	CreateJob(ctx context.Context, creative vast.ManifestAsset) (encore.Job, error)
	GetJob(ctx context.Context, id string) (encore.Job, error)
	JobURL(id string) string
}

// Dispatcher fires transcode jobs for creatives that miss a ready
// rendition. Dispatch is fire-and-forget from the caller's point of view:
// failures are logged and absorbed, never surfaced into an ad response.
type Dispatcher struct {
	store  store.Store
	client TranscoderClient
	ttl    time.Duration
	logger zerolog.Logger
}

// NewDispatcher wires a dispatcher against the status cache and transcoder.
func NewDispatcher(st store.Store, client TranscoderClient, ttl time.Duration, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{store: st, client: client, ttl: ttl, logger: logger}
}

// Dispatch submits a transcode job for the creative, guarded by an
// IN_PROGRESS placeholder written with put-if-absent semantics: the writer
// that wins the placeholder owns the submission, every concurrent loser
// treats the creative as already in flight. When the transcoder rejects the
// submission the placeholder is removed so the next request can retry.
func (d *Dispatcher) Dispatch(ctx context.Context, creative vast.ManifestAsset) error {
	placeholder := store.TranscodeInfo{Status: store.StatusInProgress}
	won, err := d.store.SetNX(ctx, creative.CreativeID, placeholder, d.ttl)
	if err != nil {
		metrics.Dispatches.WithLabelValues("error").Inc()
		return err
	}
	if !won {
		d.logger.Debug().
			Str("creative_id", creative.CreativeID).
			Msg("creative already in flight, skipping dispatch")
		metrics.Dispatches.WithLabelValues("in_flight").Inc()
		return nil
	}

	job, err := d.client.CreateJob(ctx, creative)
	if err != nil {
		// Free the key so the creative stays eligible for retry.
		if delErr := d.store.Delete(ctx, creative.CreativeID); delErr != nil {
			d.logger.Error().Err(delErr).
				Str("creative_id", creative.CreativeID).
				Msg("failed to release dispatch guard")
		}
		metrics.Dispatches.WithLabelValues("rejected").Inc()
		return err
	}

	d.logger.Info().
		Str("creative_id", creative.CreativeID).
		Str("job_id", job.ID).
		Msg("dispatched transcode job")
	metrics.Dispatches.WithLabelValues("submitted").Inc()
	return nil
}
