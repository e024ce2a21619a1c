// Package main provides the competition analysis REST server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/collegeradar/collegeradar-go/internal/analysis"
	"github.com/collegeradar/collegeradar-go/internal/config"
	"github.com/collegeradar/collegeradar-go/internal/geo"
	"github.com/collegeradar/collegeradar-go/internal/importer"
	"github.com/collegeradar/collegeradar-go/internal/logger"
	"github.com/collegeradar/collegeradar-go/internal/metrics"
	"github.com/collegeradar/collegeradar-go/internal/scraper"
	"github.com/collegeradar/collegeradar-go/internal/search"
	"github.com/collegeradar/collegeradar-go/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})
	log.Info("Starting CollegeRadar Server")

	// Connect to database
	db, err := storage.New(cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", cfg.SQLitePath()).Info("Database connected")

	// Create Prometheus registry
	registry := prometheus.NewRegistry()

	// Register Go and process collectors
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())

	// Create metrics
	m := metrics.New(registry)
	log.Info("Metrics initialized")

	// Set metrics recorder for database integrity checks
	db.SetMetrics(m)

	// Create scraper
	scraperClient := scraper.NewClient(cfg.ScraperTimeout, cfg.ScraperMaxRetries)
	collegeScraper := scraper.NewCollegeScraper(scraperClient, log, cfg.Matching.MaxProgramsPerPage)
	collegeScraper.SetMetrics(m)
	log.Info("Scraper created")

	// Create geocoder
	geocoder := geo.NewGeocoder(cfg.GeocoderBaseURL, cfg.GeocoderDelay, log)
	geocoder.SetMetrics(m)

	// Create analysis service
	svc := analysis.New(cfg, db, collegeScraper, geocoder, log)
	svc.SetMetrics(m)

	// Create CSV importer
	csvImporter := importer.New(db, log)
	csvImporter.SetMetrics(m)

	// Create program search index from stored competitors
	index := search.NewIndex(log)

	api := &apiServer{
		cfg:      cfg,
		db:       db,
		svc:      svc,
		importer: csvImporter,
		index:    index,
		log:      log,
		metrics:  m,
	}
	if err := api.refreshIndex(context.Background()); err != nil {
		log.WithError(err).Warn("Failed to build initial program index")
	}

	// Set Gin mode based on log level
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(securityHeadersMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))

	// Setup routes
	setupRoutes(router, api, registry)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	// Shutdown server gracefully
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	// Close database connection
	if err := db.Close(); err != nil {
		log.WithError(err).Error("Failed to close database")
	}

	log.Info("Server stopped")
}
