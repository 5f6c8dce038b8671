// SPDX-License-Identifier: MIT

package encore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/vastproxy/ad-normalizer/internal/vast"
)

// TranscodeCallbackPath is the route on this service that Encore reports
// job progress to.
const TranscodeCallbackPath = "/transcodeCallback"

const jobsPath = "/encoreJobs"

// ClientConfig carries the wiring for an Encore client.
type ClientConfig struct {
	BaseURL         *url.URL // Encore instance base URL
	Profile         string   // transcoding profile submitted with every job
	OutputBucketURL *url.URL // object-storage root receiving transcoder output
	RootURL         *url.URL // externally reachable base URL of this service
	AccessToken     string   // optional service access token
	HTTPClient      *http.Client
}

// Client submits transcode jobs to Encore and fetches job detail.
type Client struct {
	base        *url.URL
	profile     string
	bucket      *url.URL
	callbackURL string
	token       string
	http        *http.Client
	logger      zerolog.Logger
}

// NewClient builds an Encore client.
func NewClient(cfg ClientConfig, logger zerolog.Logger) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		base:        cfg.BaseURL,
		profile:     cfg.Profile,
		bucket:      cfg.OutputBucketURL,
		callbackURL: cfg.RootURL.JoinPath(TranscodeCallbackPath).String(),
		token:       cfg.AccessToken,
		http:        httpClient,
		logger:      logger,
	}
}

// BuildJob assembles the transcode job for a creative. The external id is
// the creative identity, which also names the per-creative output subfolder
// and the output base name.
func (c *Client) BuildJob(creative vast.ManifestAsset) Job {
	return Job{
		ExternalID:          creative.CreativeID,
		Profile:             c.profile,
		OutputFolder:        c.bucket.JoinPath(creative.CreativeID).String(),
		BaseName:            creative.CreativeID,
		ProgressCallbackURI: c.callbackURL,
		Inputs: []Input{
			{
				URI:    creative.MasterPlaylistURL,
				SeekTo: 0,
				CopyTs: true,
				Type:   InputTypeAudioVideo,
			},
		},
	}
}

// CreateJob submits a transcode job for the creative and returns the job as
// acknowledged by Encore. A non-201 response is a rejected submission.
func (c *Client) CreateJob(ctx context.Context, creative vast.ManifestAsset) (Job, error) {
	job := c.BuildJob(creative)

	body, err := json.Marshal(job)
	if err != nil {
		return Job{}, fmt.Errorf("marshal encore job: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.JoinPath(jobsPath).String(), bytes.NewReader(body))
	if err != nil {
		return Job{}, fmt.Errorf("create encore request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/hal+json")
	if c.token != "" {
		req.Header.Set("x-jwt", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return Job{}, fmt.Errorf("submit encore job: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		return Job{}, fmt.Errorf("encore rejected job submission: status %d", res.StatusCode)
	}

	var created Job
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		return Job{}, fmt.Errorf("decode encore job response: %w", err)
	}
	c.logger.Debug().
		Str("job_id", created.ID).
		Str("creative_id", created.ExternalID).
		Msg("submitted encore job")
	return created, nil
}

// GetJob fetches full job detail, including output stream metadata.
func (c *Client) GetJob(ctx context.Context, id string) (Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.JoinPath(jobsPath, id).String(), nil)
	if err != nil {
		return Job{}, fmt.Errorf("create encore request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return Job{}, fmt.Errorf("get encore job %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return Job{}, fmt.Errorf("get encore job %s: status %d", id, res.StatusCode)
	}

	var job Job
	if err := json.NewDecoder(res.Body).Decode(&job); err != nil {
		return Job{}, fmt.Errorf("decode encore job %s: %w", id, err)
	}
	return job, nil
}

// JobURL returns the canonical URL of a job record on the Encore instance.
// Packaging queue messages reference jobs by this URL.
func (c *Client) JobURL(id string) string {
	return c.base.JoinPath(jobsPath, id).String()
}
