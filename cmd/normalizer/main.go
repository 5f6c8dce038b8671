// SPDX-License-Identifier: MIT

// Command normalizer runs the ad-creative normalization proxy.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/vastproxy/ad-normalizer/internal/api"
	"github.com/vastproxy/ad-normalizer/internal/config"
	"github.com/vastproxy/ad-normalizer/internal/encore"
	"github.com/vastproxy/ad-normalizer/internal/log"
	"github.com/vastproxy/ad-normalizer/internal/normalize"
	"github.com/vastproxy/ad-normalizer/internal/store"
	"github.com/vastproxy/ad-normalizer/internal/vast"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A local .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	showVersion := flag.Bool("version", false, "print version and exit")
	memoryStore := flag.Bool("memory-store", false, "use the in-process status cache instead of Redis (development only)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ad-normalizer %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	if *memoryStore && os.Getenv("REDIS_URL") == "" {
		// The in-process store never dials Redis; satisfy the required variable.
		os.Setenv("REDIS_URL", "redis://localhost:6379")
	}

	cfg, err := config.Read()
	log.Configure(log.Config{Level: cfg.LogLevel, Service: "ad-normalizer"})
	logger := log.WithComponent("main")
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	keys, err := vast.NewKeyExtractor(cfg.KeyField, cfg.KeyRegex)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid creative identity configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var st store.Store
	if *memoryStore {
		logger.Warn().Msg("running with the in-process status cache, records are lost on restart")
		ms := store.NewMemoryStore(time.Minute)
		defer ms.Stop()
		st = ms
	} else {
		rs, err := store.NewRedisStore(cfg.RedisURL, log.WithComponent("store"))
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to the status cache")
		}
		defer func() { _ = rs.Close() }()
		st = rs
	}

	encoreClient := encore.NewClient(encore.ClientConfig{
		BaseURL:         cfg.EncoreURL,
		Profile:         cfg.EncoreProfile,
		OutputBucketURL: cfg.OutputBucketURL,
		RootURL:         cfg.RootURL,
		AccessToken:     cfg.OscAccessToken,
	}, log.WithComponent("encore"))

	dispatcher := normalize.NewDispatcher(st, encoreClient, cfg.InFlightTTL, log.WithComponent("dispatcher"))
	service := normalize.NewService(st, encoreClient, normalize.ServiceConfig{
		AssetServerURL: cfg.AssetServerURL,
		TTL:            cfg.InFlightTTL,
		JitPackage:     cfg.JitPackage,
		PackagingQueue: cfg.PackagingQueueName,
	}, log.WithComponent("pipeline"))

	apiServer := api.NewServer(api.Config{
		AdServerURL:  cfg.AdServerURL,
		RateLimitRPS: cfg.RateLimitRPS,
	}, st, vast.NewNormalizer(keys), dispatcher, service, log.WithComponent("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           apiServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Int("port", cfg.Port).
			Str("ad_server", cfg.AdServerURL.String()).
			Str("encore", cfg.EncoreURL.String()).
			Bool("jit_package", cfg.JitPackage).
			Msg("ad normalizer listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		// Let in-flight transcode dispatches finish before the store closes.
		apiServer.Wait()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
	logger.Info().Msg("shut down cleanly")
}
