package documents

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Course and Lesson mirror the header structure of a course document.
type Course struct {
	Title      string
	CourseLink string
	Instructor string
	Lessons    []Lesson
}

type Lesson struct {
	Number  int
	Title   string
	Link    string
	Content string
}

// Chunk is one retrieval unit produced from a lesson body. LessonNumber is
// nil for text that precedes the first lesson marker.
type Chunk struct {
	Content      string
	CourseTitle  string
	LessonNumber *int
	ChunkIndex   int
}

type Processor struct {
	ChunkSize    int
	ChunkOverlap int
}

func NewProcessor(chunkSize, chunkOverlap int) *Processor {
	return &Processor{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}
}

var lessonHeader = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

// ProcessFile reads a course document and returns its metadata plus the chunk
// sequence. Supported extensions are .txt (read as-is) and .pdf (plain text
// extracted first).
func (p *Processor) ProcessFile(path string) (*Course, []Chunk, error) {
	var text string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("could not read document %s: %w", path, err)
		}
		text = string(raw)
	case ".pdf":
		extracted, err := ExtractPDFText(path)
		if err != nil {
			return nil, nil, fmt.Errorf("could not extract text from %s: %w", path, err)
		}
		text = extracted
	default:
		return nil, nil, fmt.Errorf("unsupported document type %q", filepath.Ext(path))
	}

	return p.Process(text)
}

// Process parses the course header and lesson sections out of raw document
// text and chunks each section's body.
//
// Expected layout:
//
//	Course Title: <title>
//	Course Link: <url>
//	Course Instructor: <name>
//
//	Lesson <n>: <lesson title>
//	Lesson Link: <url>
//	<lesson body>
func (p *Processor) Process(text string) (*Course, []Chunk, error) {
	course, body, err := parseHeader(text)
	if err != nil {
		return nil, nil, err
	}

	var chunks []Chunk
	addChunks := func(content string, lesson *int) {
		for _, piece := range p.ChunkText(content) {
			prefix := fmt.Sprintf("Course %s content: ", course.Title)
			if lesson != nil {
				prefix = fmt.Sprintf("Course %s Lesson %d content: ", course.Title, *lesson)
			}
			chunks = append(chunks, Chunk{
				Content:      prefix + piece,
				CourseTitle:  course.Title,
				LessonNumber: lesson,
				ChunkIndex:   len(chunks),
			})
		}
	}

	var current *Lesson
	var buf strings.Builder

	flush := func() {
		content := strings.TrimSpace(buf.String())
		buf.Reset()
		if current == nil {
			if content != "" {
				addChunks(content, nil)
			}
			return
		}
		current.Content = content
		course.Lessons = append(course.Lessons, *current)
		if content != "" {
			n := current.Number
			addChunks(content, &n)
		}
		current = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if m := lessonHeader.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			flush()
			num, _ := strconv.Atoi(m[1])
			current = &Lesson{Number: num, Title: strings.TrimSpace(m[2])}
			continue
		}
		if current != nil && current.Content == "" && buf.Len() == 0 {
			if link, ok := strings.CutPrefix(strings.TrimSpace(line), "Lesson Link:"); ok {
				current.Link = strings.TrimSpace(link)
				continue
			}
		}
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("error scanning document: %w", err)
	}
	flush()

	return course, chunks, nil
}

// parseHeader consumes the three course header lines and returns the rest of
// the document. A missing title makes the document malformed; link and
// instructor are optional.
func parseHeader(text string) (*Course, string, error) {
	course := &Course{}
	lines := strings.SplitN(text, "\n", -1)

	consumed := 0
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" && course.Title == "" {
			continue
		}

		if v, ok := strings.CutPrefix(trimmed, "Course Title:"); ok {
			course.Title = strings.TrimSpace(v)
		} else if v, ok := strings.CutPrefix(trimmed, "Course Link:"); ok {
			course.CourseLink = strings.TrimSpace(v)
		} else if v, ok := strings.CutPrefix(trimmed, "Course Instructor:"); ok {
			course.Instructor = strings.TrimSpace(v)
		} else {
			consumed = i
			break
		}
		consumed = i + 1
	}

	if course.Title == "" {
		return nil, "", fmt.Errorf("document has no 'Course Title:' header")
	}

	return course, strings.Join(lines[consumed:], "\n"), nil
}

// ChunkText splits text into sentence-aligned chunks of at most ChunkSize
// characters, with consecutive chunks sharing at least ChunkOverlap trailing
// characters (whole sentences). A single sentence longer than ChunkSize
// becomes its own oversized chunk.
func (p *Processor) ChunkText(text string) []string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	i := 0
	for i < len(sentences) {
		size := 0
		j := i
		for j < len(sentences) {
			next := len(sentences[j])
			if size > 0 {
				next++ // joining space
			}
			if size+next > p.ChunkSize && size > 0 {
				break
			}
			size += next
			j++
		}

		chunks = append(chunks, strings.Join(sentences[i:j], " "))
		if j >= len(sentences) {
			break
		}

		// Walk back from the end of this chunk until we have collected at
		// least ChunkOverlap characters of trailing sentences; the next chunk
		// starts there.
		next := j
		if p.ChunkOverlap > 0 {
			overlap := 0
			for next > i+1 {
				overlap += len(sentences[next-1]) + 1
				if overlap >= p.ChunkOverlap {
					next--
					break
				}
				next--
			}
		}
		if next <= i {
			next = i + 1
		}
		i = next
	}

	return chunks
}

var whitespace = regexp.MustCompile(`\s+`)

// SplitSentences breaks text on sentence-ending punctuation followed by
// whitespace, after collapsing all runs of whitespace to single spaces.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
	if text == "" {
		return nil
	}

	var sentences []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
			if i+1 < len(runes) && runes[i+1] == ' ' {
				sentences = append(sentences, string(runes[start:i+1]))
				start = i + 2
				i++
			}
		}
	}
	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}
	return sentences
}
