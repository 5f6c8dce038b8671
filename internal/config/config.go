// SPDX-License-Identifier: MIT

// Package config builds the explicit configuration value object for the
// ad normalizer. Configuration is read from the environment exactly once at
// startup and handed to each component; nothing reads ambient state later.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Defaults mirroring the deployment contract.
const (
	DefaultKeyField           = "universalAdId"
	DefaultKeyRegex           = "[^a-zA-Z0-9]"
	DefaultEncoreProfile      = "program"
	DefaultPackagingQueueName = "packaging-queue"
	DefaultInFlightTTL        = time.Hour
	DefaultPort               = 8000
)

// Config holds every knob the service needs. URL-typed fields are validated
// and normalized (no trailing slash) at load time.
type Config struct {
	EncoreURL       *url.URL // transcoder base URL
	EncoreProfile   string   // transcoding profile name
	AdServerURL     *url.URL // upstream ad server
	AssetServerURL  *url.URL // origin that serves packaged manifests
	RootURL         *url.URL // externally reachable base URL of this service
	OutputBucketURL *url.URL // object-storage root for transcoder output

	RedisURL string

	InFlightTTL        time.Duration // TTL for cache records
	KeyField           string        // field used to derive creative identity
	KeyRegex           string        // sanitizing pattern for identity values
	JitPackage         bool          // just-in-time packaging enabled
	PackagingQueueName string
	OscAccessToken     string

	Port         int
	LogLevel     string
	RateLimitRPS int // 0 disables rate limiting
}

// Read builds a Config from the environment. All failures are collected and
// returned as a single joined error so operators see every problem at once.
func Read() (Config, error) {
	var errs []error

	cfg := Config{
		EncoreProfile:      ParseString("ENCORE_PROFILE", DefaultEncoreProfile),
		RedisURL:           ParseString("REDIS_URL", ""),
		InFlightTTL:        ParseDuration("IN_FLIGHT_TTL", DefaultInFlightTTL),
		KeyField:           ParseString("KEY_FIELD", DefaultKeyField),
		KeyRegex:           ParseString("KEY_REGEX", DefaultKeyRegex),
		JitPackage:         ParseBool("JIT_PACKAGE", false),
		PackagingQueueName: ParseString("PACKAGING_QUEUE_NAME", DefaultPackagingQueueName),
		OscAccessToken:     ParseString("OSC_ACCESS_TOKEN", ""),
		Port:               ParseInt("PORT", DefaultPort),
		LogLevel:           ParseString("LOG_LEVEL", "info"),
		RateLimitRPS:       ParseInt("RATE_LIMIT_RPS", 0),
	}

	if cfg.RedisURL == "" {
		errs = append(errs, errors.New("missing REDIS_URL environment variable"))
	}

	cfg.EncoreURL = requireURL("ENCORE_URL", &errs)
	cfg.AdServerURL = requireURL("AD_SERVER_URL", &errs)
	cfg.AssetServerURL = requireURL("ASSET_SERVER_URL", &errs)
	cfg.RootURL = requireURL("ROOT_URL", &errs)
	cfg.OutputBucketURL = requireURL("OUTPUT_BUCKET_URL", &errs)

	return cfg, errors.Join(errs...)
}

// requireURL parses a mandatory URL-valued environment variable, stripping
// any trailing slash. A missing or malformed value is recorded in errs.
func requireURL(key string, errs *[]error) *url.URL {
	raw := ParseString(key, "")
	if raw == "" {
		*errs = append(*errs, fmt.Errorf("missing %s environment variable", key))
		return nil
	}
	parsed, err := url.Parse(strings.TrimSuffix(raw, "/"))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return nil
	}
	return parsed
}
