package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rssreader/internal/api"
	"rssreader/internal/archiver"
	"rssreader/internal/cache"
	"rssreader/internal/config"
	"rssreader/internal/feed"
	"rssreader/internal/poller"
	"rssreader/internal/reader"
	"rssreader/internal/retention"
	"rssreader/internal/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize persistent storage
	store, err := storage.NewStore(cfg.DataDir)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}

	// Initialize cache for hot data
	cacheManager := cache.NewManager(cfg.CacheTTL)

	// Assemble the acquisition pipeline
	fetcher := feed.NewFetcher(cfg.FeedTimeout, cfg.UserAgent)
	imageArchiver := archiver.NewImageArchiver(cfg.DataDir, cfg.ImageTimeout, cfg.UserAgent)
	arc := archiver.New(store, imageArchiver, cfg.ArticleTimeout, cfg.ArchiveDelay, cfg.UserAgent)
	worker := archiver.NewWorker(arc)
	cleaner := retention.NewCleaner(store, cfg.DataDir, cfg.RetentionWindow)
	service := reader.NewService(store, fetcher, worker, cleaner, cacheManager)

	// Reclaim storage from archives past the retention window on startup
	log.Printf("Cleaning up archived content older than %v", cfg.RetentionWindow)
	if err := cleaner.Cleanup(); err != nil {
		log.Printf("Warning: failed to cleanup old content: %v", err)
	}

	// Start the sequential archival worker and schedule a first queue drain
	worker.Start()
	worker.Notify()

	// Start background feed refreshing
	backgroundPoller := poller.New(service, cfg.RefreshInterval)
	backgroundPoller.Start()

	// Initialize API server
	server := api.NewServer(service, backgroundPoller, cfg)

	log.Printf("Starting RSS Reader server on port %d", cfg.Port)
	log.Printf("Data directory: %s", cfg.DataDir)
	log.Printf("Retention window: %v", cfg.RetentionWindow)
	log.Printf("Background refresh interval: %v", cfg.RefreshInterval)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-sigChan
		log.Println("Received shutdown signal, stopping services...")
		backgroundPoller.Stop()
		worker.Stop()
		if err := store.Close(); err != nil {
			log.Printf("Warning: failed to close storage: %v", err)
		}
		cancel()
	}()

	if err := server.StartWithContext(ctx); err != nil && err != context.Canceled {
		log.Fatal("Failed to start server:", err)
	}
}
