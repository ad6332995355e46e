package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/fbscheduler/configs"
	"github.com/maheshrc27/fbscheduler/internal/api/handlers"
	"github.com/maheshrc27/fbscheduler/internal/api/middleware"
	job "github.com/maheshrc27/fbscheduler/internal/jobs"
	"github.com/maheshrc27/fbscheduler/internal/queue"
	"github.com/maheshrc27/fbscheduler/internal/repository"
	"github.com/maheshrc27/fbscheduler/internal/service"
	"github.com/maheshrc27/fbscheduler/internal/transfer"
	"github.com/maheshrc27/fbscheduler/migrations"
	"github.com/pressly/goose/v3"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("Failed to set migration dialect: %v", err)
	}
	if err := goose.Up(db, "."); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	dispatcher := queue.NewDispatcher(client, cfg.EncryptionKey)

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    32 * 1024 * 1024, // base64 images up to 10 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "message": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	sessionRepo := repository.NewSessionRepository(db, cfg.EncryptionKey)
	pageRepo := repository.NewPageRepository(db)
	postRepo := repository.NewPostRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	loginTaskRepo := repository.NewLoginTaskRepository(db)

	mediaStore, err := service.NewMediaStore(context.Background(), *cfg)
	if err != nil {
		log.Fatalf("Failed to set up media storage: %v", err)
	}

	settingsService := service.NewSettingsService(settingsRepo, cfg.SettingsTTL)
	facebookService := service.NewFacebookService(settingsService, &http.Client{}, cfg.RemoteTimeout)
	sessionService := service.NewSessionService(sessionRepo, loginTaskRepo, facebookService, settingsService, dispatcher)
	pageService := service.NewPageService(pageRepo, sessionService, facebookService)
	mediaService := service.NewMediaService(mediaStore)
	postService := service.NewPostService(postRepo, pageRepo, sessionService, facebookService, mediaService)

	duePostJob := job.NewDuePostJob(postRepo, dispatcher)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)
	dashboardOnly := middleware.RequireScope(transfer.ScopeDashboard)
	publishers := middleware.RequireScope(transfer.ScopeDashboard, transfer.ScopePoller)

	auth := handlers.NewAuthHandler(*cfg)
	app.Post("/auth/login", auth.Login)
	app.Post("/auth/logout", auth.Logout)

	media := handlers.NewMediaHandler(mediaService)
	app.Get("/uploads/:name", media.Serve)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	sessions := handlers.NewSessionHandler(sessionService, postService, cfg.LoginWaitSeconds)
	api.Get("/sessions", dashboardOnly, sessions.ListSessions)
	api.Post("/sessions", dashboardOnly, sessions.CreateSession)
	api.Post("/sessions/login", dashboardOnly, sessions.Login)
	api.Get("/sessions/login/:id", dashboardOnly, sessions.LoginStatus)
	api.Put("/sessions/:id", dashboardOnly, sessions.UpdateSession)
	api.Delete("/sessions/:id", dashboardOnly, sessions.DeleteSession)
	api.Post("/sessions/:id/verify", dashboardOnly, sessions.VerifySession)

	pages := handlers.NewPageHandler(pageService)
	api.Get("/pages", dashboardOnly, pages.GetPages)
	api.Post("/pages", dashboardOnly, pages.RefreshPages)
	api.Post("/pages/selection", dashboardOnly, pages.SelectPages)

	post := handlers.NewPostHandler(postService)
	api.Get("/posts", dashboardOnly, post.ListPosts)
	api.Post("/posts/publish", publishers, post.PublishPost)
	api.Post("/posts/schedule", dashboardOnly, post.SchedulePost)
	api.Delete("/posts/:id", dashboardOnly, post.RemovePost)

	api.Get("/media", dashboardOnly, media.List)
	api.Post("/media", dashboardOnly, media.Upload)
	api.Delete("/media", dashboardOnly, media.Delete)

	settings := handlers.NewSettingsHandler(settingsService)
	api.Get("/settings", dashboardOnly, settings.GetSettings)
	api.Post("/settings", dashboardOnly, settings.UpdateSettings)

	jobs := handlers.NewJobHandler(duePostJob)
	api.Post("/jobs/due-posts", dashboardOnly, jobs.RunDuePosts)

	// cron jobs
	c := cron.New()
	if cfg.EnableScheduler {
		if err := c.AddFunc("@every "+cfg.PollInterval.String(), duePostJob.Sweep); err != nil {
			log.Fatalf("Failed to schedule due post sweep: %v", err)
		}
		c.Start()
		log.Printf("Due post sweep runs every %s", cfg.PollInterval)
	}

	//queue
	queueW := queue.NewQueue(postRepo, sessionService, postService, cfg.EncryptionKey)
	worker := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: 10,
	})

	go func() {
		mux := asynq.NewServeMux()
		queueW.Register(mux)

		log.Println("Starting the Asynq server...")
		if err := worker.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, db, func() {
		c.Stop()
		worker.Shutdown()
	})
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB, stopWorkers func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	stopWorkers()

	closeDB(db)
	log.Println("Server shutdown complete.")
}
