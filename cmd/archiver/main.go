package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/database"
	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/queue"
	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	fmt.Println("Starting Prediction Archiver Service...")
	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	fmt.Println("Connected to database")

	if err := db.RunMigrations("migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create Kafka consumer for the prediction topic
	consumer := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicPredictions, "archiver-group")
	defer consumer.Close()
	fmt.Println("Kafka consumer created (registering with broker...)")

	batchWriter := queue.NewBatchWriter(consumer, db, cfg.Archiver.BatchSize, cfg.Archiver.FlushInterval)
	ctx := context.Background()
	if err := batchWriter.Start(ctx); err != nil {
		log.Fatalf("Failed to start batch writer: %v", err)
	}
	fmt.Println("Batch writer started")

	// Purge archived predictions outside the retention window
	go func() {
		ticker := time.NewTicker(cfg.Archiver.PurgeInterval)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().UTC().Add(-cfg.Archiver.Retention)
			deleted, err := db.PurgeOlderThan(cutoff)
			if err != nil {
				log.Printf("Retention purge failed: %v", err)
				continue
			}
			if deleted > 0 {
				fmt.Printf("Purged %d predictions older than %s\n", deleted, cutoff.Format(time.RFC3339))
			}
		}
	}()

	// Print consumer stats periodically
	go func() {
		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			stats := consumer.Stats()
			fmt.Printf("Consumer stats: Messages=%d, Bytes=%d, Errors=%d\n",
				stats.Messages, stats.Bytes, stats.Errors)
		}
	}()

	fmt.Println("\n✓ Prediction Archiver Service is running")
	fmt.Printf("✓ Batch size: %d messages | Flush interval: %s\n", cfg.Archiver.BatchSize, cfg.Archiver.FlushInterval)
	fmt.Println("✓ Press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down gracefully...")
	batchWriter.Stop()
	fmt.Println("Prediction Archiver Service stopped")
}
