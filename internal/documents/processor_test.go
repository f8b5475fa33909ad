package documents_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-rag/internal/documents"
)

const sampleDoc = `Course Title: Building Toward Computer Use with Anthropic
Course Link: https://example.com/courses/computer-use
Course Instructor: Colt Steele

Lesson 0: Introduction
Lesson Link: https://example.com/lessons/0
Welcome to the course. This lesson introduces the overall structure.

Lesson 1: API Basics
Lesson Link: https://example.com/lessons/1
The API accepts a list of messages. Each message has a role and content.
`

func TestProcessCourseDocument(t *testing.T) {
	processor := documents.NewProcessor(800, 100)

	course, chunks, err := processor.Process(sampleDoc)
	require.NoError(t, err)

	assert.Equal(t, "Building Toward Computer Use with Anthropic", course.Title)
	assert.Equal(t, "https://example.com/courses/computer-use", course.CourseLink)
	assert.Equal(t, "Colt Steele", course.Instructor)

	require.Len(t, course.Lessons, 2)
	assert.Equal(t, 0, course.Lessons[0].Number)
	assert.Equal(t, "Introduction", course.Lessons[0].Title)
	assert.Equal(t, "https://example.com/lessons/0", course.Lessons[0].Link)
	assert.Equal(t, 1, course.Lessons[1].Number)
	assert.Equal(t, "API Basics", course.Lessons[1].Title)

	require.Len(t, chunks, 2)
	assert.True(t, strings.HasPrefix(chunks[0].Content, "Course Building Toward Computer Use with Anthropic Lesson 0 content: "))
	assert.True(t, strings.HasPrefix(chunks[1].Content, "Course Building Toward Computer Use with Anthropic Lesson 1 content: "))
	require.NotNil(t, chunks[1].LessonNumber)
	assert.Equal(t, 1, *chunks[1].LessonNumber)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 1, chunks[1].ChunkIndex)
}

func TestProcessMissingTitle(t *testing.T) {
	processor := documents.NewProcessor(800, 100)

	_, _, err := processor.Process("Lesson 1: Orphan\nSome content without a course header.")
	assert.ErrorContains(t, err, "Course Title")
}

func TestProcessPreambleWithoutLessonMarker(t *testing.T) {
	processor := documents.NewProcessor(800, 100)

	course, chunks, err := processor.Process("Course Title: Minimal\nThis course has no lesson markers at all.")
	require.NoError(t, err)

	assert.Empty(t, course.Lessons)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Course Minimal content: This course has no lesson markers at all.", chunks[0].Content)
	assert.Nil(t, chunks[0].LessonNumber)
}

func TestProcessLessonWithoutContent(t *testing.T) {
	processor := documents.NewProcessor(800, 100)

	doc := "Course Title: Sparse\n\nLesson 1: Placeholder\nLesson Link: https://example.com/1\n\nLesson 2: Real\nActual lesson text here."
	course, chunks, err := processor.Process(doc)
	require.NoError(t, err)

	// Empty lessons still show up in the outline, they just contribute no chunks.
	require.Len(t, course.Lessons, 2)
	assert.Equal(t, "Placeholder", course.Lessons[0].Title)
	assert.Equal(t, "https://example.com/1", course.Lessons[0].Link)

	require.Len(t, chunks, 1)
	require.NotNil(t, chunks[0].LessonNumber)
	assert.Equal(t, 2, *chunks[0].LessonNumber)
}

func TestProcessFileTxt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "course.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))

	processor := documents.NewProcessor(800, 100)
	course, chunks, err := processor.ProcessFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Building Toward Computer Use with Anthropic", course.Title)
	assert.Len(t, chunks, 2)
}

func TestProcessFileUnsupportedType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "course.docx")
	require.NoError(t, os.WriteFile(path, []byte("whatever"), 0o644))

	processor := documents.NewProcessor(800, 100)
	_, _, err := processor.ProcessFile(path)
	assert.ErrorContains(t, err, "unsupported document type")
}

func TestChunkTextRespectsSizeAndOverlap(t *testing.T) {
	sentences := []string{
		"Alpha sentence one.",
		"Beta sentence two.",
		"Gamma sentence three.",
		"Delta sentence four.",
		"Epsilon sentence five.",
	}
	text := strings.Join(sentences, " ")

	processor := documents.NewProcessor(45, 15)
	chunks := processor.ChunkText(text)
	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 45)
	}

	// Consecutive chunks must share trailing sentences: each chunk after the
	// first starts with a sentence already present in its predecessor.
	for i := 1; i < len(chunks); i++ {
		first := strings.SplitN(chunks[i], ". ", 2)[0] + "."
		assert.Contains(t, chunks[i-1], first, "chunk %d should overlap chunk %d", i, i-1)
	}

	// Nothing is lost: every sentence appears in some chunk.
	joined := strings.Join(chunks, " ")
	for _, sentence := range sentences {
		assert.Contains(t, joined, sentence)
	}
}

func TestChunkTextOversizedSentence(t *testing.T) {
	processor := documents.NewProcessor(10, 5)

	long := "This single sentence is far longer than the chunk size."
	chunks := processor.ChunkText(long)
	require.Len(t, chunks, 1)
	assert.Equal(t, long, chunks[0])
}

func TestSplitSentences(t *testing.T) {
	sentences := documents.SplitSentences("First sentence.  Second one!\nThird?\tFourth without punctuation")
	assert.Equal(t, []string{
		"First sentence.",
		"Second one!",
		"Third?",
		"Fourth without punctuation",
	}, sentences)

	assert.Nil(t, documents.SplitSentences("   \n\t  "))
}
