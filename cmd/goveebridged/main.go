package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"govee-cloud-bridge/config"
	"govee-cloud-bridge/internal/api"
	"govee-cloud-bridge/internal/client"
	"govee-cloud-bridge/internal/db"
	"govee-cloud-bridge/internal/notification"
	"govee-cloud-bridge/internal/registry"
	"govee-cloud-bridge/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "govee-bridge ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Govee.APIKey == "" && cfg.Govee.FixtureFile == "" {
		logger.Fatalf("govee.api_key must be configured (or govee.fixture_file for offline operation)")
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The reauth alert pipeline: coordinators report fatal auth failures to
	// the registry, which dispatches to this pool.
	pool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, &webpushOptions)
	pool.Start(ctx)

	stateStore := store.NewMemoryStore()
	goveeClient := client.New(&cfg.Govee, stateStore)

	reg := registry.New(&cfg.Govee, goveeClient, stateStore, pool)
	if err := reg.Setup(ctx); err != nil {
		logger.Fatalf("failed to set up device registry: %v", err)
	}
	logger.Printf("device registry ready with %d devices", len(reg.Devices()))

	handler := api.NewHandler(reg, goveeClient, gormDB, &webpushOptions)
	router := api.NewRouter(&cfg.Server, handler)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	// Stop the per-device pollers after the HTTP surface is drained.
	reg.Teardown()

	logger.Println("Server gracefully stopped")
}
