package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwebster45206/rando-engine/internal/config"
	"github.com/jwebster45206/rando-engine/internal/handlers"
	"github.com/jwebster45206/rando-engine/internal/logger"
	"github.com/jwebster45206/rando-engine/internal/middleware"
	"github.com/jwebster45206/rando-engine/internal/services/events"
	"github.com/jwebster45206/rando-engine/internal/services/queue"
	"github.com/jwebster45206/rando-engine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Rando Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"data_dir", cfg.DataDir,
		"tier", cfg.Tier)

	store, err := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, cfg.PresetsFile, log)
	if err != nil {
		log.Error("Failed to create storage", "error", err)
		os.Exit(1)
	}
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	// Fail fast on broken logic data rather than on the first request.
	if _, err := store.LoadPresets(storageCtx); err != nil {
		log.Error("Failed to load difficulty presets", "error", err)
		os.Exit(1)
	}
	maps, err := store.ListMaps(storageCtx)
	if err != nil {
		log.Error("Failed to list maps", "error", err)
		os.Exit(1)
	}
	log.Info("Logic data loaded", "maps", len(maps))

	queueClient, err := queue.NewClient(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to create queue client", "error", err)
		os.Exit(1)
	}
	seedQueue := queue.NewSeedQueue(queueClient)
	broadcaster := events.NewBroadcaster(queueClient.GetRedisClient(), log)

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(store, seedQueue, log))
	mux.Handle("/metrics", promhttp.Handler())

	seedsHandler := handlers.NewSeedsHandler(store, seedQueue, broadcaster, cfg.Tier, log)
	mux.Handle("/v1/seeds", seedsHandler)
	mux.Handle("/v1/seeds/", seedsHandler)

	mux.Handle("/v1/maps", handlers.NewCatalogHandler(store, log))
	mux.Handle("/v1/events/seeds/", handlers.NewEventsHandler(queueClient.GetRedisClient(), log))

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(log, mux),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the events endpoint streams
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := queueClient.Close(); err != nil {
		log.Error("Error closing queue client", "error", err)
	}
	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
