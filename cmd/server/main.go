package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nangoso/maple-price-tracker/internal/api"
	"github.com/nangoso/maple-price-tracker/internal/database"
	"github.com/nangoso/maple-price-tracker/internal/services"
	"github.com/nangoso/maple-price-tracker/internal/store"
)

func main() {
	// Load .env if present; real environments set vars directly
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	// Database path
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./price_tracker.db"
	}

	// Initialize database
	if err := database.Initialize(dbPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	db := database.GetDB()

	// Stores
	itemStore := store.NewItemStore(db)
	priceStore := store.NewPriceStore(db)

	// Services
	feedService := services.NewFeedService(os.Getenv("FEED_BASE_URL"))
	aggregator := services.NewAggregator(priceStore)
	catalogService := services.NewCatalogService(feedService, itemStore, aggregator)
	adminService := services.NewAdminService(itemStore, priceStore)
	revalidator := services.NewRevalidator(itemStore, priceStore)

	itemDelay := 0 * time.Second
	if delayStr := os.Getenv("COLLECT_ITEM_DELAY"); delayStr != "" {
		if d, err := time.ParseDuration(delayStr); err == nil {
			itemDelay = d
		} else {
			log.Printf("Invalid COLLECT_ITEM_DELAY %q: %v - using default", delayStr, err)
		}
	}
	collector := services.NewCollector(feedService, itemStore, priceStore, db, itemDelay)

	// Create a cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Scheduled collection runs
	collectSpec := os.Getenv("COLLECT_SCHEDULE")
	if collectSpec == "" {
		collectSpec = services.DefaultCollectSchedule
	}
	collectSched, err := services.ParseSchedule(collectSpec)
	if err != nil {
		log.Fatalf("Failed to parse COLLECT_SCHEDULE: %v", err)
	}
	go services.RunOnSchedule(ctx, "collection run", collectSched, func(ctx context.Context) error {
		_, err := collector.Run(ctx)
		return err
	})

	// Optional scheduled revalidation; always available via the admin endpoint
	if revalidateSpec := os.Getenv("REVALIDATE_SCHEDULE"); revalidateSpec != "" {
		revalidateSched, err := services.ParseSchedule(revalidateSpec)
		if err != nil {
			log.Fatalf("Failed to parse REVALIDATE_SCHEDULE: %v", err)
		}
		go services.RunOnSchedule(ctx, "revalidation", revalidateSched, func(ctx context.Context) error {
			_, err := revalidator.Run(ctx)
			return err
		})
	}

	// Setup router
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		log.Println("Warning: ADMIN_PASSWORD not set - admin price overrides are disabled")
	}
	router := api.SetupRouter(catalogService, aggregator, collector, revalidator, adminService, itemStore, priceStore, adminPassword)

	// Get port from environment
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Create HTTP server for graceful shutdown
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Cancel the context to stop the schedulers
	cancel()

	// Give outstanding requests a deadline to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
