package main

import (
	"context"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"studypulse/internal/config"
	"studypulse/internal/database"
	"studypulse/internal/dispatch"
	logger "studypulse/internal/logging"
	"studypulse/internal/models"
	"studypulse/internal/profile"
	"studypulse/internal/repository"
	"studypulse/internal/router"
	"studypulse/internal/tracker"
)

func main() {
	// Initialize Logger
	log, err := logger.Init(".", logger.DefaultRotation())
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	// Initialize Configuration
	if err := config.Init(".", log); err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize Database
	database.Init(log)

	// Load struggle pattern thresholds at startup
	catalog, err := models.LoadPatternCatalog(filepath.Join("config", config.Conf.Tracking.PatternCatalogFile))
	if err != nil {
		log.Fatal("Failed to load pattern catalog", zap.Error(err))
	}

	// Wire the analytics pipeline
	store := repository.New(database.DB)
	profiles := profile.NewStore(store, log)
	dispatcher := dispatch.New(store, log)

	trackingConf := config.Conf.Tracking
	tr := tracker.New(catalog, profiles, dispatcher, store, tracker.Options{
		BufferSize:         trackingConf.BufferSize,
		SessionRetention:   trackingConf.SessionRetention,
		FastTickInterval:   time.Duration(trackingConf.FastTickSeconds) * time.Second,
		PredictionInterval: time.Duration(trackingConf.PredictionSeconds) * time.Second,
		PredictionWindow:   trackingConf.PredictionWindow,
	}, log)
	go tr.Run(context.Background())

	// Setup router, passing the logger to it
	r := router.Setup(log, tr, store)

	// Start the Gin server
	port := ":" + config.Conf.Server.Port
	log.Info("Server listening on http://localhost" + port)
	if err := r.Run(port); err != nil {
		log.Fatal("Failed to run Gin server", zap.Error(err))
	}
}
