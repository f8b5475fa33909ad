// Package rag sequences document ingestion, retrieval, and generation into
// the query flow exposed by the API.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"course-rag/internal/chat"
	"course-rag/internal/documents"
	"course-rag/internal/llm"
	"course-rag/internal/tools"
	"course-rag/internal/vectorstore"
)

// Generator produces an answer for a query, given conversation history and
// access to the search tools.
type Generator interface {
	Generate(ctx context.Context, query, history string, runner llm.ToolRunner) (string, error)
}

type System struct {
	processor *documents.Processor
	store     *vectorstore.Store
	generator Generator
	sessions  *chat.SessionManager
	manager   *tools.Manager
}

func NewSystem(processor *documents.Processor, store *vectorstore.Store, generator Generator, sessions *chat.SessionManager) *System {
	manager := tools.NewManager(
		tools.NewCourseSearchTool(store),
		tools.NewCourseOutlineTool(store),
	)
	return &System{
		processor: processor,
		store:     store,
		generator: generator,
		sessions:  sessions,
		manager:   manager,
	}
}

func (s *System) Sessions() *chat.SessionManager {
	return s.sessions
}

// Query answers one user question. The generator decides whether to search;
// sources collected by the tools during this query are returned and reset.
// The exchange is recorded in the session when a session id is given.
func (s *System) Query(ctx context.Context, query, sessionID string) (string, []tools.Source, error) {
	prompt := fmt.Sprintf("Answer this question about course materials: %s", query)

	history := ""
	if sessionID != "" {
		history = s.sessions.History(sessionID)
	}

	answer, err := s.generator.Generate(ctx, prompt, history, s.manager)
	if err != nil {
		return "", nil, fmt.Errorf("could not generate answer: %w", err)
	}

	sources := s.manager.LastSources()
	s.manager.ResetSources()

	if sessionID != "" {
		s.sessions.AddExchange(sessionID, prompt, answer)
	}

	return answer, sources, nil
}

// AddCourseDocument ingests a single course file. Already-known course titles
// are skipped, which makes re-ingestion idempotent.
func (s *System) AddCourseDocument(ctx context.Context, path string, existing map[string]bool) (*documents.Course, int, error) {
	course, chunks, err := s.processor.ProcessFile(path)
	if err != nil {
		return nil, 0, err
	}

	if existing[course.Title] {
		slog.Info("course already ingested, skipping", "course", course.Title)
		return nil, 0, nil
	}

	if err := s.store.AddCourse(ctx, course, chunks); err != nil {
		return nil, 0, err
	}
	return course, len(chunks), nil
}

// AddCourseFolder ingests every supported document in a directory. Malformed
// documents are logged and skipped; they never abort the rest of the folder.
func (s *System) AddCourseFolder(ctx context.Context, dir string) (int, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("could not read documents directory %s: %w", dir, err)
	}

	titles, err := s.store.ExistingCourseTitles(ctx)
	if err != nil {
		return 0, 0, err
	}
	existing := make(map[string]bool, len(titles))
	for _, title := range titles {
		existing[title] = true
	}

	totalCourses, totalChunks := 0, 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".txt", ".pdf":
		default:
			continue
		}

		path := filepath.Join(dir, entry.Name())
		course, chunks, err := s.AddCourseDocument(ctx, path, existing)
		if err != nil {
			slog.Warn("skipping malformed course document", "file", entry.Name(), "error", err)
			continue
		}
		if course == nil {
			continue
		}

		existing[course.Title] = true
		totalCourses++
		totalChunks += chunks
		slog.Info("ingested course document", "course", course.Title, "chunks", chunks)
	}

	return totalCourses, totalChunks, nil
}

type Analytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

func (s *System) Analytics(ctx context.Context) (Analytics, error) {
	count, err := s.store.CourseCount(ctx)
	if err != nil {
		return Analytics{}, err
	}
	titles, err := s.store.ExistingCourseTitles(ctx)
	if err != nil {
		return Analytics{}, err
	}
	return Analytics{TotalCourses: int(count), CourseTitles: titles}, nil
}
