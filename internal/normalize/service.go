// SPDX-License-Identifier: MIT

package normalize

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/vastproxy/ad-normalizer/internal/encore"
	"github.com/vastproxy/ad-normalizer/internal/metrics"
	"github.com/vastproxy/ad-normalizer/internal/store"
)

// Packaging callback status values.
const (
	PackagingStatusCompleted = "COMPLETED"
	PackagingStatusFailed    = "FAILED"
)

// PackagingProgress is the notification the packager POSTs when a
// packaging job finishes.
type PackagingProgress struct {
	ExternalID     string `json:"externalId"`
	JobID          string `json:"jobId"`
	Status         string `json:"status"`
	Progress       int    `json:"progress"`
	OutputLocation string `json:"outputFolder"`
	BaseName       string `json:"baseName"`
}

// PackagingQueueMessage is the message enqueued for the packager when a
// transcode completes under non-JIT packaging. The URL references the
// transcoder's job record.
type PackagingQueueMessage struct {
	JobID string `json:"jobId"`
	URL   string `json:"url"`
}

// ServiceConfig carries the deployment knobs the state machine needs.
type ServiceConfig struct {
	AssetServerURL *url.URL
	TTL            time.Duration
	JitPackage     bool
	PackagingQueue string
}

// Service consumes asynchronous progress notifications from the transcoder
// and packager and advances the status cache accordingly. The cache is the
// single source of truth; no state is held across callbacks.
type Service struct {
	store  store.Store
	client TranscoderClient
	cfg    ServiceConfig
	logger zerolog.Logger
}

// NewService wires the callback state machine.
func NewService(st store.Store, client TranscoderClient, cfg ServiceConfig, logger zerolog.Logger) *Service {
	return &Service{store: st, client: client, cfg: cfg, logger: logger}
}

// HandleTranscodeProgress advances the state machine on a transcoder
// callback. Unrecognized status values are logged and ignored.
func (s *Service) HandleTranscodeProgress(ctx context.Context, p encore.JobProgress) error {
	metrics.TranscodeCallbacks.WithLabelValues(p.Status).Inc()
	switch p.Status {
	case encore.JobStatusInProgress:
		s.logger.Info().
			Str("creative_id", p.ExternalID).
			Int("progress", p.Progress).
			Msg("transcoding progress updated")
		return nil
	case encore.JobStatusFailed:
		// Drop the record so a later request re-triggers dispatch.
		return s.store.Delete(ctx, p.ExternalID)
	case encore.JobStatusSuccessful:
		return s.handleTranscodeCompleted(ctx, p)
	default:
		s.logger.Info().
			Str("status", p.Status).
			Str("job_id", p.JobID).
			Msg("transcode status does not match any known status")
		return nil
	}
}

func (s *Service) handleTranscodeCompleted(ctx context.Context, p encore.JobProgress) error {
	job, err := s.client.GetJob(ctx, p.JobID)
	if err != nil {
		return fmt.Errorf("fetch job detail for %s: %w", p.JobID, err)
	}

	info := s.transcodeInfoFromJob(job)
	if err := s.store.Set(ctx, p.ExternalID, info, s.cfg.TTL); err != nil {
		return fmt.Errorf("persist record for %s: %w", p.ExternalID, err)
	}
	s.logger.Info().
		Str("creative_id", p.ExternalID).
		Str("status", string(info.Status)).
		Str("url", info.Url).
		Msg("transcode completed")

	if s.cfg.JitPackage {
		return nil
	}
	msg, err := json.Marshal(PackagingQueueMessage{
		JobID: p.JobID,
		URL:   s.client.JobURL(p.JobID),
	})
	if err != nil {
		return fmt.Errorf("marshal packaging message for %s: %w", p.JobID, err)
	}
	if err := s.store.EnqueuePackaging(ctx, s.cfg.PackagingQueue, msg); err != nil {
		return fmt.Errorf("enqueue packaging for %s: %w", p.JobID, err)
	}
	s.logger.Debug().
		Str("job_id", p.JobID).
		Str("queue", s.cfg.PackagingQueue).
		Msg("enqueued packaging job")
	return nil
}

// transcodeInfoFromJob derives the cache record from completed job detail.
// The aspect ratio comes from the first output video stream, falling back
// to 16:9 when the job reports none; frame rates are collected across all
// outputs in encounter order, skipping unparsable values.
func (s *Service) transcodeInfoFromJob(job encore.Job) store.TranscodeInfo {
	streams := videoStreams(job)

	aspectRatio := DefaultAspectRatio
	if len(streams) > 0 {
		aspectRatio = AspectRatio(streams[0].Width, streams[0].Height)
	}

	frameRates := make([]float64, 0, len(streams))
	for _, stream := range streams {
		rate, err := ParseFrameRate(stream.FrameRate)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("job_id", job.ID).
				Msg("skipping unparsable frame rate")
			continue
		}
		frameRates = append(frameRates, rate)
	}

	info := store.TranscodeInfo{
		AspectRatio: aspectRatio,
		FrameRates:  frameRates,
		Status:      store.StatusPackaging,
	}
	if s.cfg.JitPackage {
		info.Status = store.StatusCompleted
		info.Url = PackageURL(s.cfg.AssetServerURL, job.OutputFolder, job.BaseName)
	}
	return info
}

// HandlePackagingProgress finalizes or aborts a creative when the packager
// reports completion. A callback for an identity with no cache record is
// logged and ignored; there is nothing to finalize.
func (s *Service) HandlePackagingProgress(ctx context.Context, p PackagingProgress) error {
	metrics.PackagingCallbacks.WithLabelValues(p.Status).Inc()
	switch p.Status {
	case PackagingStatusCompleted:
		return s.handlePackagingCompleted(ctx, p)
	case PackagingStatusFailed:
		return s.store.Delete(ctx, p.ExternalID)
	default:
		s.logger.Info().
			Str("status", p.Status).
			Str("job_id", p.JobID).
			Msg("packaging status does not match any known status")
		return nil
	}
}

func (s *Service) handlePackagingCompleted(ctx context.Context, p PackagingProgress) error {
	info, found, err := s.store.Get(ctx, p.ExternalID)
	if err != nil {
		return fmt.Errorf("read record for %s: %w", p.ExternalID, err)
	}
	if !found {
		s.logger.Error().
			Str("creative_id", p.ExternalID).
			Str("job_id", p.JobID).
			Msg("packaging callback for unknown creative, ignoring")
		return nil
	}

	info.Url = PackageURL(s.cfg.AssetServerURL, p.OutputLocation, p.BaseName)
	info.Status = store.StatusCompleted
	if err := s.store.Set(ctx, p.ExternalID, info, s.cfg.TTL); err != nil {
		return fmt.Errorf("persist record for %s: %w", p.ExternalID, err)
	}
	s.logger.Info().
		Str("creative_id", p.ExternalID).
		Str("url", info.Url).
		Msg("packaging completed")
	return nil
}
