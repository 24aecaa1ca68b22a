package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"photo-gallery/internal/config"
	"photo-gallery/internal/ingest"
	"photo-gallery/internal/metadata"
	"photo-gallery/internal/queue/rabbitmq"
	miniostore "photo-gallery/internal/storage/minio"
	"photo-gallery/pkg/database/postgres"
	redisclient "photo-gallery/pkg/database/redis"
)

const WorkerPoolSize = 5

func main() {
	log.Println("Starting Ingestor Service...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize PostgreSQL
	log.Println("Connecting to PostgreSQL...")
	pgPool, err := postgres.NewClient(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer pgPool.Close()

	// Initialize Minio
	log.Println("Connecting to Minio...")
	minioClient, err := miniostore.NewClient(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL, cfg.UploadBucket, cfg.ThumbnailBucket)
	if err != nil {
		log.Fatalf("Failed to connect to Minio: %v", err)
	}

	// Initialize RabbitMQ
	log.Println("Connecting to RabbitMQ...")
	rabbitClient, err := rabbitmq.NewClient(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer rabbitClient.Close()

	// Initialize Redis
	log.Println("Connecting to Redis...")
	redisClient, err := redisclient.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	log.Println("Successfully connected to all services")

	store := metadata.NewStore(pgPool)
	processor := ingest.NewProcessor(minioClient, store, redisClient, cfg.ThumbnailBucket, cfg.ThumbnailSize)

	// Start consuming messages
	msgs, err := rabbitClient.Consume()
	if err != nil {
		log.Fatalf("Failed to start consuming: %v", err)
	}

	// Worker pool across notifications; records inside one notification
	// are always processed sequentially by the processor itself.
	var wg sync.WaitGroup
	taskChan := make(chan *ingest.Notification, WorkerPoolSize)

	for i := 0; i < WorkerPoolSize; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			log.Printf("Worker %d started", workerID)

			for n := range taskChan {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				processor.ProcessNotification(ctx, n)
				cancel()
			}

			log.Printf("Worker %d stopped", workerID)
		}(i + 1)
	}

	// Shutdown channel
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("Ingestor Service is running. Press Ctrl+C to exit.")

	// Message consumer loop
	go func() {
		for msg := range msgs {
			n, err := ingest.ParseNotification(msg.Body)
			if err != nil {
				// Malformed payload is the one invocation-level failure;
				// discard it so it cannot wedge the queue.
				log.Printf("Discarding malformed notification: %v", err)
				msg.Nack(false, false)
				continue
			}

			log.Printf("Received notification with %d record(s)", len(n.Records))

			// Send to worker pool
			taskChan <- n

			// Per-object failures become error records, so the batch is
			// done from the queue's point of view once it is handed over.
			msg.Ack(false)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Close task channel to stop workers
	close(taskChan)

	// Wait for all workers to finish
	wg.Wait()

	log.Println("Ingestor Service stopped")
}
