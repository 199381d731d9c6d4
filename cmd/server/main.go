package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobpilot/internal/api"
	"jobpilot/internal/app/service"
	"jobpilot/internal/common/security"
	"jobpilot/internal/domain/repository"
	"jobpilot/internal/platform/config"
	"jobpilot/internal/platform/database"
	"jobpilot/internal/platform/queue"
	"jobpilot/internal/storage/docstore"
)

func main() {
	mintToken := flag.String("mint-agent-token", "", "print a bearer token for the named agent and exit")
	flag.Parse()

	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT (no-op when JWT_SECRET is unset; the API runs open)
	security.InitJWT()

	if *mintToken != "" {
		token, err := security.GenerateAgentToken(*mintToken, "agent")
		if err != nil {
			log.Fatalf("Could not mint agent token: %v", err)
		}
		fmt.Println(token)
		return
	}

	// 3. Initialize the storage backend
	var (
		jobRepo     repository.JobRepository
		stepRepo    repository.StepRepository
		taskRepo    repository.LocalTaskRepository
		db          *sql.DB
		storagePing func(ctx context.Context) error
	)
	switch config.AppConfig.StorageBackend {
	case "postgres":
		database.Connect()
		defer database.Close()
		db = database.DB
		jobRepo = repository.NewPgJobRepository(db)
		stepRepo = repository.NewPgStepRepository(db)
		taskRepo = repository.NewPgLocalTaskRepository(db)
		storagePing = database.Ping
	case "file":
		store, err := docstore.Open(config.AppConfig.FileStorePath)
		if err != nil {
			log.Fatalf("Could not open file store: %v", err)
		}
		jobRepo = store.Jobs()
		stepRepo = store.Steps()
		taskRepo = store.LocalTasks()
		storagePing = func(context.Context) error { return store.Ping() }
		log.Printf("Using file store at %s (single-process only)", config.AppConfig.FileStorePath)
	case "memory":
		store := docstore.NewMemory()
		jobRepo = store.Jobs()
		stepRepo = store.Steps()
		taskRepo = store.LocalTasks()
		storagePing = func(context.Context) error { return store.Ping() }
		log.Println("WARN: Using in-memory store, nothing will survive a restart")
	default:
		log.Fatalf("Unknown STORAGE_BACKEND %q (want postgres, file or memory)", config.AppConfig.StorageBackend)
	}

	// 4. Initialize Redis (optional notifier side channel)
	queue.ConnectRedis()
	defer queue.CloseRedis()

	// 5. Initialize Services
	notifier := service.NewNotifierService(config.AppConfig.WorkflowWebhookURL, config.AppConfig.EventsQueueName, queue.RDB)
	jobService := service.NewJobService(jobRepo, stepRepo, notifier, db)
	stepService := service.NewStepService(stepRepo, jobRepo, db)
	taskService := service.NewLocalTaskService(taskRepo, jobRepo, stepRepo, notifier, db)

	// 6. Initialize Router & HTTP Server
	router := api.NewRouter(jobService, stepService, taskService, notifier, storagePing)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 7. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped gracefully.")
}
