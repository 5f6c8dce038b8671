// SPDX-License-Identifier: MIT

// Package normalize drives the per-creative job state machine: guarded
// dispatch of transcode jobs, consumption of transcoder and packager
// callbacks, and computation of derived media metadata.
package normalize

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/vastproxy/ad-normalizer/internal/encore"
)

// DefaultAspectRatio is used when a job reports no video streams.
const DefaultAspectRatio = "16:9"

// manifestExtension is appended to the output base name to form the
// playable manifest file name.
const manifestExtension = ".m3u8"

// AspectRatio reduces pixel dimensions to their smallest integer ratio,
// e.g. 1920x1080 to "16:9".
func AspectRatio(width, height int) string {
	if width <= 0 || height <= 0 {
		return DefaultAspectRatio
	}
	d := gcd(width, height)
	return fmt.Sprintf("%d:%d", width/d, height/d)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// ParseFrameRate converts a transcoder rate string, either a plain number
// or a "numerator/denominator" rational, to frames per second.
func ParseFrameRate(rate string) (float64, error) {
	num, den, found := strings.Cut(rate, "/")
	if !found {
		v, err := strconv.ParseFloat(strings.TrimSpace(rate), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid frame rate %q: %w", rate, err)
		}
		return v, nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate %q: %w", rate, err)
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
	if err != nil || d == 0 {
		return 0, fmt.Errorf("invalid frame rate %q", rate)
	}
	return n / d, nil
}

// videoStreams flattens the job's output video streams in encounter order.
func videoStreams(job encore.Job) []encore.VideoStream {
	var streams []encore.VideoStream
	for _, out := range job.Outputs {
		streams = append(streams, out.VideoStreams...)
	}
	return streams
}

// PackageURL composes the playable manifest URL for a packaged creative:
// the output location's path resolved against the asset-serving origin,
// with the manifest file appended. The output location's storage scheme and
// bucket host are dropped; the origin is assumed to serve the bucket root.
func PackageURL(assetServer *url.URL, outputLocation, baseName string) string {
	p := outputLocation
	if parsed, err := url.Parse(outputLocation); err == nil && parsed.Path != "" {
		p = parsed.Path
	}
	return assetServer.JoinPath(p, baseName+manifestExtension).String()
}
