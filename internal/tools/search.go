package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"course-rag/internal/vectorstore"
)

// Store is the slice of the vector store the search tools need.
type Store interface {
	Search(ctx context.Context, query, courseName string, lessonNumber *int) (vectorstore.SearchResults, error)
	LessonLink(ctx context.Context, courseTitle string, lessonNumber int) (string, error)
	CourseLink(ctx context.Context, courseTitle string) (string, error)
	CourseOutline(ctx context.Context, name string) (*vectorstore.CourseOutline, error)
}

// CourseSearchTool searches course content, optionally filtered to a course
// and lesson, and remembers the sources of the chunks it returned.
type CourseSearchTool struct {
	store Store

	mu      sync.Mutex
	sources []Source
}

func NewCourseSearchTool(store Store) *CourseSearchTool {
	return &CourseSearchTool{store: store}
}

func (t *CourseSearchTool) Definition() Definition {
	return Definition{
		Name:        "search_course_content",
		Description: "Search course materials with smart course name matching and lesson filtering",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "What to search for in the course content",
				},
				"course_name": map[string]any{
					"type":        "string",
					"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
				"lesson_number": map[string]any{
					"type":        "integer",
					"description": "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			"required": []string{"query"},
		},
	}
}

func (t *CourseSearchTool) Execute(ctx context.Context, args map[string]any) string {
	query := stringArg(args, "query")
	courseName := stringArg(args, "course_name")
	lessonNumber := intArg(args, "lesson_number")

	results, err := t.store.Search(ctx, query, courseName, lessonNumber)
	if err != nil {
		return err.Error()
	}

	if len(results.Documents) == 0 {
		msg := "No relevant content found"
		if courseName != "" {
			msg += fmt.Sprintf(" in course '%s'", courseName)
		}
		if lessonNumber != nil {
			msg += fmt.Sprintf(" in lesson %d", *lessonNumber)
		}
		return msg + "."
	}

	var blocks []string
	var sources []Source
	for i, doc := range results.Documents {
		meta := results.Metadata[i]

		title := meta.CourseTitle
		if title == "" {
			title = "unknown"
		}

		header := title
		var link string
		if meta.LessonNumber != nil {
			header = fmt.Sprintf("%s - Lesson %d", title, *meta.LessonNumber)
			link, err = t.store.LessonLink(ctx, meta.CourseTitle, *meta.LessonNumber)
		} else {
			link, err = t.store.CourseLink(ctx, meta.CourseTitle)
		}
		if err != nil {
			slog.Warn("could not resolve source link", "course", meta.CourseTitle, "error", err)
			link = ""
		}

		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", header, doc))
		sources = append(sources, Source{Text: header, Link: link})
	}

	t.mu.Lock()
	t.sources = sources
	t.mu.Unlock()

	return strings.Join(blocks, "\n\n")
}

func (t *CourseSearchTool) lastSources() []Source {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sources
}

func (t *CourseSearchTool) resetSources() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources = nil
}

// CourseOutlineTool returns a course's title, link and numbered lesson list.
type CourseOutlineTool struct {
	store Store
}

func NewCourseOutlineTool(store Store) *CourseOutlineTool {
	return &CourseOutlineTool{store: store}
}

func (t *CourseOutlineTool) Definition() Definition {
	return Definition{
		Name:        "get_course_outline",
		Description: "Get the outline of a course: its title, link, and complete lesson list",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"course_name": map[string]any{
					"type":        "string",
					"description": "Course title (partial matches work)",
				},
			},
			"required": []string{"course_name"},
		},
	}
}

func (t *CourseOutlineTool) Execute(ctx context.Context, args map[string]any) string {
	courseName := stringArg(args, "course_name")
	if courseName == "" {
		return "No course name provided."
	}

	outline, err := t.store.CourseOutline(ctx, courseName)
	if err != nil {
		return err.Error()
	}
	if outline == nil {
		return fmt.Sprintf("No course found matching '%s'.", courseName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course Title: %s\n", outline.Title)
	if outline.CourseLink != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", outline.CourseLink)
	}
	if outline.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", outline.Instructor)
	}
	fmt.Fprintf(&b, "\nLessons (%d):\n", len(outline.Lessons))
	for _, lesson := range outline.Lessons {
		fmt.Fprintf(&b, "Lesson %d: %s\n", lesson.Number, lesson.Title)
	}
	return strings.TrimRight(b.String(), "\n")
}
