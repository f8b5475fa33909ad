package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"gorm.io/gorm"

	"course-rag/internal/database"
	"course-rag/internal/documents"
	"course-rag/internal/utils"
)

// embedBatchSize bounds how many chunk texts go into a single embedding
// request during ingestion.
const embedBatchSize = 32

// Store persists course metadata and embedded chunks in the sqlite catalog
// and answers similarity queries by brute-force cosine scan. The corpus is a
// handful of course documents, so no approximate index is needed.
type Store struct {
	db          *gorm.DB
	embedder    embeddings.Embedder
	maxResults  int
	concurrency int
}

func NewStore(db *gorm.DB, embedder embeddings.Embedder, maxResults, concurrency int) *Store {
	if maxResults <= 0 {
		maxResults = 5
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Store{db: db, embedder: embedder, maxResults: maxResults, concurrency: concurrency}
}

type ChunkMetadata struct {
	CourseTitle  string
	LessonNumber *int
}

type SearchResults struct {
	Documents []string
	Metadata  []ChunkMetadata
	Distances []float64
}

type LessonInfo struct {
	Number int
	Title  string
	Link   string
}

type CourseOutline struct {
	Title      string
	CourseLink string
	Instructor string
	Lessons    []LessonInfo
}

// AddCourse stores a course's metadata and its embedded chunks. The title
// embedding enables fuzzy course-name resolution later.
func (s *Store) AddCourse(ctx context.Context, course *documents.Course, chunks []documents.Chunk) error {
	titleVec, err := s.embedder.EmbedQuery(ctx, course.Title)
	if err != nil {
		return fmt.Errorf("could not embed course title: %w", err)
	}
	titleEmbedding, err := encodeVector(titleVec)
	if err != nil {
		return err
	}

	record := database.Course{
		Title:      course.Title,
		CourseLink: course.CourseLink,
		Instructor: course.Instructor,
		Embedding:  titleEmbedding,
		IngestedAt: time.Now().UTC(),
	}
	for _, lesson := range course.Lessons {
		record.Lessons = append(record.Lessons, database.Lesson{
			CourseTitle:  course.Title,
			LessonNumber: lesson.Number,
			Title:        lesson.Title,
			LessonLink:   lesson.Link,
		})
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("could not store course %q: %w", course.Title, err)
	}

	return s.addChunks(ctx, chunks)
}

type embedBatch struct {
	start int
	texts []string
}

type embedResult struct {
	start   int
	vectors [][]float32
}

func (s *Store) addChunks(ctx context.Context, chunks []documents.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	queue := make(chan embedBatch, (len(texts)+embedBatchSize-1)/embedBatchSize)
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		queue <- embedBatch{start: start, texts: texts[start:end]}
	}
	close(queue)

	completed := make(chan utils.CompletedTask[embedResult], cap(queue))
	utils.RunInPool(func(batch embedBatch) (embedResult, error) {
		vectors, err := s.embedder.EmbedDocuments(ctx, batch.texts)
		if err != nil {
			return embedResult{}, fmt.Errorf("could not embed chunk batch: %w", err)
		}
		return embedResult{start: batch.start, vectors: vectors}, nil
	}, queue, completed, s.concurrency)

	vectors := make([][]float32, len(texts))
	for task := range completed {
		if task.Error != nil {
			return task.Error
		}
		for i, vec := range task.Result.vectors {
			vectors[task.Result.start+i] = vec
		}
	}

	records := make([]database.CourseChunk, len(chunks))
	for i, chunk := range chunks {
		embedding, err := encodeVector(vectors[i])
		if err != nil {
			return err
		}
		records[i] = database.CourseChunk{
			CourseTitle:  chunk.CourseTitle,
			LessonNumber: chunk.LessonNumber,
			ChunkIndex:   chunk.ChunkIndex,
			Content:      chunk.Content,
			Embedding:    embedding,
		}
	}

	if err := s.db.WithContext(ctx).CreateInBatches(records, 100).Error; err != nil {
		return fmt.Errorf("could not store course chunks: %w", err)
	}
	return nil
}

// Search embeds the query and returns the closest chunks, optionally limited
// to a course (fuzzy name) and lesson number.
func (s *Store) Search(ctx context.Context, query, courseName string, lessonNumber *int) (SearchResults, error) {
	var results SearchResults

	tx := s.db.WithContext(ctx).Model(&database.CourseChunk{})
	if courseName != "" {
		resolved, err := s.ResolveCourseName(ctx, courseName)
		if err != nil {
			return results, err
		}
		if resolved == "" {
			return results, fmt.Errorf("no course found matching '%s'", courseName)
		}
		tx = tx.Where("course_title = ?", resolved)
	}
	if lessonNumber != nil {
		tx = tx.Where("lesson_number = ?", *lessonNumber)
	}

	var chunks []database.CourseChunk
	if err := tx.Find(&chunks).Error; err != nil {
		return results, fmt.Errorf("could not load chunks: %w", err)
	}
	if len(chunks) == 0 {
		return results, nil
	}

	queryVec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return results, fmt.Errorf("could not embed query: %w", err)
	}

	type scored struct {
		chunk      database.CourseChunk
		similarity float32
	}
	hits := make([]scored, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := decodeVector(chunk.Embedding)
		if err != nil || len(vec) == 0 {
			slog.Warn("skipping chunk with unusable embedding", "course", chunk.CourseTitle, "chunk", chunk.ChunkIndex, "error", err)
			continue
		}
		similarity, err := CosineSimilarity(queryVec, vec)
		if err != nil {
			slog.Warn("skipping chunk with mismatched embedding", "course", chunk.CourseTitle, "chunk", chunk.ChunkIndex, "error", err)
			continue
		}
		hits = append(hits, scored{chunk: chunk, similarity: similarity})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].similarity > hits[j].similarity })
	if len(hits) > s.maxResults {
		hits = hits[:s.maxResults]
	}

	for _, hit := range hits {
		results.Documents = append(results.Documents, hit.chunk.Content)
		results.Metadata = append(results.Metadata, ChunkMetadata{
			CourseTitle:  hit.chunk.CourseTitle,
			LessonNumber: hit.chunk.LessonNumber,
		})
		results.Distances = append(results.Distances, 1-float64(hit.similarity))
	}
	return results, nil
}

// ResolveCourseName maps a possibly partial course name to an exact stored
// title, best semantic match first, substring match as fallback. Returns ""
// when nothing matches.
func (s *Store) ResolveCourseName(ctx context.Context, name string) (string, error) {
	var courses []database.Course
	if err := s.db.WithContext(ctx).Find(&courses).Error; err != nil {
		return "", fmt.Errorf("could not load course catalog: %w", err)
	}
	if len(courses) == 0 {
		return "", nil
	}

	for _, course := range courses {
		if strings.EqualFold(course.Title, name) {
			return course.Title, nil
		}
	}

	nameVec, err := s.embedder.EmbedQuery(ctx, name)
	if err == nil {
		best := ""
		var bestScore float32 = -1
		for _, course := range courses {
			vec, decodeErr := decodeVector(course.Embedding)
			if decodeErr != nil || len(vec) == 0 {
				continue
			}
			score, simErr := CosineSimilarity(nameVec, vec)
			if simErr != nil {
				continue
			}
			if score > bestScore {
				best, bestScore = course.Title, score
			}
		}
		if best != "" {
			return best, nil
		}
	} else {
		slog.Warn("could not embed course name, falling back to substring match", "name", name, "error", err)
	}

	lower := strings.ToLower(name)
	for _, course := range courses {
		if strings.Contains(strings.ToLower(course.Title), lower) {
			return course.Title, nil
		}
	}
	return "", nil
}

// CourseOutline returns the course header and numbered lesson list for a
// fuzzily-named course, or nil when no course matches.
func (s *Store) CourseOutline(ctx context.Context, name string) (*CourseOutline, error) {
	resolved, err := s.ResolveCourseName(ctx, name)
	if err != nil {
		return nil, err
	}
	if resolved == "" {
		return nil, nil
	}

	var course database.Course
	if err := s.db.WithContext(ctx).Preload("Lessons", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("lesson_number ASC")
	}).First(&course, "title = ?", resolved).Error; err != nil {
		return nil, fmt.Errorf("could not load course %q: %w", resolved, err)
	}

	outline := &CourseOutline{Title: course.Title, CourseLink: course.CourseLink, Instructor: course.Instructor}
	for _, lesson := range course.Lessons {
		outline.Lessons = append(outline.Lessons, LessonInfo{
			Number: lesson.LessonNumber,
			Title:  lesson.Title,
			Link:   lesson.LessonLink,
		})
	}
	return outline, nil
}

// LessonLink returns the stored link for a lesson, or "" when unknown.
func (s *Store) LessonLink(ctx context.Context, courseTitle string, lessonNumber int) (string, error) {
	var lesson database.Lesson
	err := s.db.WithContext(ctx).
		First(&lesson, "course_title = ? AND lesson_number = ?", courseTitle, lessonNumber).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("could not load lesson link: %w", err)
	}
	return lesson.LessonLink, nil
}

// CourseLink returns the stored link for a course, or "" when unknown.
func (s *Store) CourseLink(ctx context.Context, courseTitle string) (string, error) {
	var course database.Course
	err := s.db.WithContext(ctx).First(&course, "title = ?", courseTitle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("could not load course link: %w", err)
	}
	return course.CourseLink, nil
}

func (s *Store) ExistingCourseTitles(ctx context.Context) ([]string, error) {
	var titles []string
	if err := s.db.WithContext(ctx).Model(&database.Course{}).Order("title ASC").Pluck("title", &titles).Error; err != nil {
		return nil, fmt.Errorf("could not list courses: %w", err)
	}
	return titles, nil
}

func (s *Store) CourseCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&database.Course{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("could not count courses: %w", err)
	}
	return count, nil
}
