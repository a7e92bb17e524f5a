package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/broadcast"
	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/engine"
	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/pipeline"
	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/ports"
	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/queue"
	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/risk"
	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/store"
	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/internal/weather"
	"github.com/imtiaz-qureshi/Vessel-ETA-Prediction-System/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	fmt.Println("Starting ETA Engine Service...")

	// Load the port catalog; an empty catalog is a configuration error
	catalog, err := ports.LoadCatalog(cfg.Ports.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to load port catalog: %v", err)
	}
	fmt.Printf("Loaded %d ports\n", len(catalog.All()))

	// Connect to Redis for the broadcast transport
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	fmt.Println("Connected to Redis")

	// Ensure topics exist (best effort; they may already be provisioned)
	for _, topic := range []string{cfg.Kafka.TopicPositions, cfg.Kafka.TopicPredictions} {
		if err := queue.CreateTopic(cfg.Kafka.Brokers, topic, cfg.Kafka.NumPartitions, 1); err != nil {
			log.Printf("Topic %s not created: %v", topic, err)
		}
	}

	// Broadcast dispatcher over Redis pub/sub
	dispatcher := broadcast.NewDispatcher(broadcast.NewRedisTransport(redisClient), cfg.Broadcast.QueueSize)
	dispatcher.Start()
	defer dispatcher.Stop()
	fmt.Println("Broadcast dispatcher started")

	// Prediction engine
	weatherService := weather.NewServiceWithURL(cfg.Weather.BaseURL, cfg.Weather.Timeout)
	predictionEngine, err := engine.New(catalog, weatherService, risk.NewAssessor())
	if err != nil {
		log.Fatalf("Failed to build prediction engine: %v", err)
	}

	// Prediction cache serving the read path
	stateStore := store.New()

	// Kafka endpoints
	producer := queue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicPredictions)
	defer producer.Close()
	consumer := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicPositions, cfg.Kafka.GroupID)
	defer consumer.Close()
	fmt.Println("Kafka producer and consumer initialized")

	coordinator := pipeline.NewCoordinator(consumer, producer, predictionEngine, stateStore, dispatcher)

	// Print pipeline stats periodically
	go func() {
		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				stats := consumer.Stats()
				fmt.Printf("Pipeline stats: Vessels=%d, Messages=%d, Errors=%d, Dropped broadcasts=%d\n",
					stateStore.VesselCount(), stats.Messages, stats.Errors, dispatcher.Dropped())
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Println("\n✓ ETA Engine Service is running")
	fmt.Println("✓ Press Ctrl+C to stop")

	if err := coordinator.Run(ctx); err != nil && err != context.Canceled {
		log.Printf("Pipeline stopped: %v", err)
	}

	fmt.Println("\nShutting down gracefully...")
}
