package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/fbscheduler/configs"
	job "github.com/maheshrc27/fbscheduler/internal/jobs"
	"github.com/maheshrc27/fbscheduler/internal/repository"
	"github.com/maheshrc27/fbscheduler/internal/service"
)

// poller runs a single due-post sweep and exits. It is meant to be started by
// an external cron, once a minute.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	mediaStore, err := service.NewMediaStore(ctx, *cfg)
	if err != nil {
		log.Fatalf("Failed to set up media storage: %v", err)
	}

	dispatcher := job.NewHTTPDispatcher(cfg.CronBaseURL, cfg.SecretKey, service.NewMediaService(mediaStore), nil)
	sweep := job.NewDuePostJob(repository.NewPostRepository(db), dispatcher)

	result, err := sweep.Run(ctx)
	if err != nil {
		log.Printf("Due post sweep failed: %v", err)
		os.Exit(1)
	}

	log.Printf("Due post sweep: %d found, %d dispatched, %d failed", result.Found, result.Dispatched, result.Failed)
}
