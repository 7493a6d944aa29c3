package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/bittles/teamarr/app/api"
	"github.com/bittles/teamarr/app/cfg"
	"github.com/bittles/teamarr/app/database"
	"github.com/bittles/teamarr/app/epg"
	"github.com/bittles/teamarr/app/sports"
	"github.com/bittles/teamarr/app/tasks"
	"github.com/bittles/teamarr/app/teams"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Load configuration from environment variables and command-line flags
	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	if appCfg.Debug {
		// slog.SetLogLoggerLevel needs Go 1.22; on 1.21 install a default
		// handler at debug level instead.
		slog.SetDefault(slog.New(slog.NewTextHandler(log.Writer(), &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	log.Printf("Starting Teamarr server (version %s)...", appCfg.Version)

	if err := os.MkdirAll(appCfg.DataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// Lock the data directory so a second instance cannot race on the
	// database or the output file.
	dataLock := flock.New(filepath.Join(appCfg.DataDir, "teamarr.lock"))
	locked, err := dataLock.TryLock()
	if err != nil {
		log.Fatalf("Failed to acquire data directory lock: %v", err)
	}
	if !locked {
		log.Fatal("Another teamarr instance is already running against this data directory")
	}
	defer dataLock.Unlock()

	// Database connection
	log.Println("Opening database...")
	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run database migrations:", err)
	}
	log.Printf("Database ready (schema version %d, dirty: %t)", version, dirty)

	// Load team configurations
	log.Printf("Loading team configurations from %s...", appCfg.TeamsDir)
	configCache := teams.NewConfigCache(appCfg.TeamsDir)
	if err := configCache.Run(); err != nil {
		log.Fatal("Failed to load team configurations:", err)
	}
	log.Printf("Loaded %d team configurations", configCache.GetConfigCount())

	// Initialize repositories
	teamRepo := database.NewTeamRepository(db)
	fingerprintRepo := database.NewFingerprintRepository(db)
	runRepo := database.NewRunRepository(db)

	// Initialize core components
	displayLocation := time.Local
	httpClient := &http.Client{Timeout: time.Duration(appCfg.FetchTimeout) * time.Second}
	sportsClient := sports.NewClient(httpClient, appCfg.SportsAPIUrl, appCfg.UserAgent,
		time.Duration(appCfg.FetchTimeout)*time.Second)

	orchestrator := epg.NewOrchestrator(epg.OrchestratorOpts{
		Source:           sportsClient,
		Configs:          configCache,
		Fingerprints:     fingerprintRepo,
		Runs:             runRepo,
		Location:         displayLocation,
		OutputPath:       appCfg.OutputPath,
		WorkerCount:      appCfg.WorkerCount,
		LookaheadDays:    appCfg.LookaheadDays,
		MaxLookaheadDays: appCfg.MaxLookaheadDays,
	})

	// Initialize and start scheduler
	log.Printf("Starting background scheduler with %d workers...", appCfg.WorkerCount)
	taskScheduler := tasks.NewScheduler(configCache, teamRepo, orchestrator)
	taskScheduler.Start()
	defer taskScheduler.Stop()

	// Initialize HTTP server
	log.Println("Initializing HTTP server...")
	apiHandler := api.NewHandler(configCache, teamRepo, runRepo, fingerprintRepo,
		orchestrator, taskScheduler, appCfg.OutputPath)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	// Create HTTP server with timeouts
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", appCfg.Port)
		log.Printf("Endpoints available:")
		log.Printf("  EPG:           http://localhost:%s/epg.xml", appCfg.Port)
		log.Printf("  Health check:  http://localhost:%s/health", appCfg.Port)
		log.Printf("  Statistics:    http://localhost:%s/stats", appCfg.Port)

		if appCfg.APIAccessKey != "" {
			log.Printf("  List teams:    http://localhost:%s/api/teams (requires API key)", appCfg.Port)
			log.Printf("  Team details:  http://localhost:%s/api/teams/<name>/details (requires API key)", appCfg.Port)
			log.Printf("  Generate:      http://localhost:%s/api/generate (POST, requires API key)", appCfg.Port)
			log.Printf("  Run history:   http://localhost:%s/api/runs (requires API key)", appCfg.Port)
		} else {
			log.Printf("  API endpoints: DISABLED (API_ACCESS_KEY not set)")
		}

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("Teamarr server started successfully!")
	log.Println("Press Ctrl+C to shutdown gracefully...")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	// Graceful shutdown
	log.Println("Shutting down server gracefully...")

	// An in-flight generation run finalizes as cancelled at the next unit boundary.
	orchestrator.Cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	log.Println("Background scheduler stopped")

	log.Println("Teamarr server shutdown complete")
}
