package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"course-rag/cmd"
	"course-rag/internal/api"
	"course-rag/internal/database"
)

func main() {
	log.Println("Starting course materials server...")

	cmd.LoadEnvFile()

	var cfg cmd.Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	system, err := cmd.NewRagSystem(cfg, db)
	if err != nil {
		log.Fatalf("Failed to initialize RAG system: %v", err)
	}

	// Load any course documents added since the last run. A missing docs
	// directory is not fatal; the server can still answer over what is
	// already in the database.
	if _, statErr := os.Stat(cfg.DocsPath); statErr == nil {
		courses, chunks, err := system.AddCourseFolder(context.Background(), cfg.DocsPath)
		if err != nil {
			log.Fatalf("Failed to load course documents: %v", err)
		}
		log.Printf("Loaded %d new courses (%d chunks)", courses, chunks)
	} else {
		slog.Warn("docs directory not found, skipping startup ingestion", "path", cfg.DocsPath)
	}

	// --- Chi Router Setup ---
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	apiHandler := api.NewService(system)
	apiHandler.AddRoutes(r)

	// Serve the chat frontend at the root.
	if _, err := os.Stat(cfg.FrontendDir); err == nil {
		r.Handle("/*", http.FileServer(http.Dir(cfg.FrontendDir)))
	} else {
		slog.Warn("frontend directory not found, serving API only", "path", cfg.FrontendDir)
	}

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: r,
	}

	// Goroutine for graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("Server listening on port %s", cfg.APIPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
	}

	log.Println("Server stopped.")
}
