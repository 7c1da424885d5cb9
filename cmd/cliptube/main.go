package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cliptube/cliptube/internal/database"
	"github.com/cliptube/cliptube/internal/geoip"
	"github.com/cliptube/cliptube/internal/server"
	"github.com/cliptube/cliptube/internal/storage"
	"github.com/cliptube/cliptube/internal/video"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	port := getEnv("PORT", "8080")
	baseURL := getEnv("BASE_URL", "http://localhost:"+port)

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, databaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(databaseURL); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}
	log.Println("database migrations applied")

	files, mediaDir, mediaEndpoint, err := buildFileStore(ctx)
	if err != nil {
		log.Fatalf("storage initialization failed: %v", err)
	}

	geo, err := geoip.New(os.Getenv("GEOIP_DB_PATH"))
	if err != nil {
		log.Fatalf("geoip initialization failed: %v", err)
	}
	defer geo.Close()

	srv := server.New(server.Config{
		DB:             db.Pool,
		Pinger:         db,
		Files:          files,
		Geo:            geo,
		JWTSecret:      jwtSecret,
		BaseURL:        baseURL,
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 1024*1024*1024),
		MediaDir:       mediaDir,
		MediaEndpoint:  mediaEndpoint,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("cliptube listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-shutdownCh
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown failed: %v", err)
	}
	slog.Info("shutdown complete")
}

// buildFileStore picks the media backend: S3 when S3_ENDPOINT is set,
// local disk otherwise. The extra returns feed the /media/ route and the
// content security policy.
func buildFileStore(ctx context.Context) (video.FileStore, string, string, error) {
	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		store, err := storage.NewS3(ctx, storage.S3Config{
			Endpoint:       endpoint,
			PublicEndpoint: os.Getenv("S3_PUBLIC_ENDPOINT"),
			Bucket:         getEnv("S3_BUCKET", "cliptube"),
			AccessKey:      os.Getenv("S3_ACCESS_KEY"),
			SecretKey:      os.Getenv("S3_SECRET_KEY"),
			Region:         getEnv("S3_REGION", "eu-central-1"),
		})
		if err != nil {
			return nil, "", "", err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, "", "", err
		}
		log.Println("storage bucket ready")
		mediaEndpoint := os.Getenv("S3_PUBLIC_ENDPOINT")
		if mediaEndpoint == "" {
			mediaEndpoint = endpoint
		}
		return store, "", mediaEndpoint, nil
	}

	dir := getEnv("MEDIA_DIR", "./media")
	store, err := storage.NewLocal(dir, "/media")
	if err != nil {
		return nil, "", "", err
	}
	log.Printf("serving media from local directory %s", dir)
	return store, store.Dir(), "", nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
