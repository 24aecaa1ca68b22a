package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photo-gallery/internal/config"
	"photo-gallery/internal/handler"
	"photo-gallery/internal/metadata"
	miniostore "photo-gallery/internal/storage/minio"
	"photo-gallery/pkg/database/postgres"
	redisclient "photo-gallery/pkg/database/redis"
)

func main() {
	log.Println("Starting API Gateway...")

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

	// Run migrations
	if err := postgres.RunMigrations(ctx, pgPool); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Minio
	log.Println("Connecting to Minio...")
	minioClient, err := miniostore.NewClient(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL, cfg.UploadBucket, cfg.ThumbnailBucket)
	if err != nil {
		log.Fatalf("Failed to connect to Minio: %v", err)
	}

	// Initialize Redis
	log.Println("Connecting to Redis...")
	redisClient, err := redisclient.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	log.Println("Successfully connected to all services")

	store := metadata.NewStore(pgPool)
	h := handler.NewHandler(store, minioClient, redisClient, cfg)
	router := handler.NewRouter(h)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	go func() {
		log.Printf("API Gateway listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("API Gateway stopped")
}
