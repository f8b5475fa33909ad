// Command ingest loads course documents into the database without starting
// the server. Useful for seeding or rebuilding the vector store.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/schollz/progressbar/v3"

	"course-rag/cmd"
	"course-rag/internal/database"
)

func main() {
	var reset bool
	flag.BoolVar(&reset, "reset", false, "delete the existing database before ingesting")

	cmd.LoadEnvFile()

	var cfg cmd.Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	if reset {
		log.Printf("removing existing database %s", cfg.DatabasePath)
		if err := os.Remove(cfg.DatabasePath); err != nil && !os.IsNotExist(err) {
			log.Fatalf("Failed to remove database: %v", err)
		}
	}

	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	system, err := cmd.NewRagSystem(cfg, db)
	if err != nil {
		log.Fatalf("Failed to initialize RAG system: %v", err)
	}

	ctx := context.Background()

	entries, err := os.ReadDir(cfg.DocsPath)
	if err != nil {
		log.Fatalf("Failed to read docs directory %s: %v", cfg.DocsPath, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".txt", ".pdf":
			files = append(files, filepath.Join(cfg.DocsPath, entry.Name()))
		}
	}

	if len(files) == 0 {
		log.Fatalf("No course documents found in %s", cfg.DocsPath)
	}

	analytics, err := system.Analytics(ctx)
	if err != nil {
		log.Fatalf("Failed to load existing courses: %v", err)
	}
	existing := make(map[string]bool, len(analytics.CourseTitles))
	for _, title := range analytics.CourseTitles {
		existing[title] = true
	}

	bar := progressbar.Default(int64(len(files)), "ingesting courses")

	totalCourses, totalChunks := 0, 0
	for _, path := range files {
		course, chunks, err := system.AddCourseDocument(ctx, path, existing)
		if err != nil {
			slog.Warn("skipping malformed course document", "file", filepath.Base(path), "error", err)
			bar.Add(1) //nolint:errcheck
			continue
		}
		if course != nil {
			existing[course.Title] = true
			totalCourses++
			totalChunks += chunks
		}
		bar.Add(1) //nolint:errcheck
	}

	log.Printf("Ingested %d new courses (%d chunks)", totalCourses, totalChunks)
}
