// Package main provides the town server binary: the REST surface for town
// management, the WebSocket relay for connected participants, and the
// in-process town state machines behind both.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/meetgrid/townsquare/internal/config"
	"github.com/meetgrid/townsquare/internal/handlers"
	"github.com/meetgrid/townsquare/internal/observability"
	"github.com/meetgrid/townsquare/internal/server"
	"github.com/meetgrid/townsquare/internal/town"
	"github.com/meetgrid/townsquare/internal/transport"
	"github.com/meetgrid/townsquare/internal/video"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	var provisioner town.VideoProvisioner
	if cfg.Twilio.Enabled() {
		provisioner = video.NewTwilioProvisioner(cfg.Twilio.AccountSID, cfg.Twilio.APIKeySID, cfg.Twilio.APISecret)
		logger.Info("video provisioning enabled", zap.String("account_sid", cfg.Twilio.AccountSID))
	} else {
		provisioner = video.NewInsecureProvisioner()
		logger.Warn("twilio not configured, using insecure development video tokens")
	}

	registry := town.NewRegistry(provisioner, cfg.Towns.DefaultCapacity)

	if cfg.Towns.SeedFile != "" {
		seedStart := time.Now()
		seeds, err := town.LoadSeedsFromFile(cfg.Towns.SeedFile)
		if err != nil {
			logger.Fatal("loading seed towns", zap.Error(err))
		}
		created, err := registry.SeedTowns(seeds)
		if err != nil {
			logger.Fatal("seeding towns", zap.Error(err))
		}
		for _, s := range created {
			logger.Info("seeded town",
				zap.String("town", s.ID),
				zap.String("friendly_name", s.FriendlyName),
			)
		}
		logger.Info("seed towns created",
			zap.Int("count", len(created)),
			zap.Duration("elapsed", time.Since(seedStart)),
		)
	}

	wsHandler := transport.NewHandler(registry, logger)
	api := handlers.NewAPI(registry, logger)
	router := api.Router(wsHandler)

	logger.Info("starting town server",
		zap.String("addr", cfg.HTTP.Addr()),
		zap.Int("default_capacity", cfg.Towns.DefaultCapacity),
		zap.Duration("startup", time.Since(start)),
	)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("http", server.NewHTTPService(cfg.HTTP, router, logger))

	if err := lifecycle.Run(context.Background()); err != nil {
		logger.Fatal("lifecycle", zap.Error(err))
	}
}
