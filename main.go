package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"showhound/internal/config"
	"showhound/internal/core"
	"showhound/internal/database"
	"showhound/internal/handlers"
	"showhound/internal/utils"
)

func main() {
	configPath := flag.String("config", "config.yml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Initialize logger to write to both file and console
	if err := os.MkdirAll(cfg.App.DataPath, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	logFile, err := os.OpenFile(filepath.Join(cfg.App.DataPath, "app.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer logFile.Close()

	multiWriter := io.MultiWriter(os.Stdout, logFile)
	logger := utils.NewLogger(cfg.App.Debug, multiWriter)

	// Initialize database
	db, err := database.NewSQLite(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(db, logger); err != nil {
		logger.Fatal("Failed to run migrations:", err)
	}

	// Event hub feeds the websocket stream
	hub := handlers.NewHub(logger)

	// Create manager
	manager := core.NewManager(cfg, db, logger, hub)

	// Start web server
	server := handlers.NewServer(cfg, manager, hub, logger)

	// Reload tunables when the config file changes
	stopWatch, err := config.Watch(*configPath, logger, manager.UpdateConfig)
	if err != nil {
		logger.Warn("Config watcher disabled:", err)
	} else {
		defer stopWatch()
	}

	// Handle shutdown gracefully
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start:", err)
		}
	}()

	manager.StartScheduler()

	logger.Info("Showhound started successfully on port", cfg.App.Port)

	// Wait for interrupt
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	logger.Info("Shutting down...")
	manager.Stop()
	hub.Close()
	server.Stop(ctx)
}
