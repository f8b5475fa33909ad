package database

import (
	"time"

	"gorm.io/datatypes"
)

// Course is the catalog entry for one ingested course document. The title is
// the natural key: re-ingesting a document whose title already exists is a
// no-op.
type Course struct {
	Title      string `gorm:"primaryKey"`
	CourseLink string
	Instructor string

	// Embedding of the course title, used to resolve fuzzy course names in
	// search filters. Stored as a JSON array of float32.
	Embedding datatypes.JSON

	IngestedAt time.Time

	Lessons []Lesson      `gorm:"foreignKey:CourseTitle;references:Title;constraint:OnDelete:CASCADE"`
	Chunks  []CourseChunk `gorm:"foreignKey:CourseTitle;references:Title;constraint:OnDelete:CASCADE"`
}

type Lesson struct {
	CourseTitle  string `gorm:"primaryKey"`
	LessonNumber int    `gorm:"primaryKey"`
	Title        string
	LessonLink   string
}

// CourseChunk is the retrieval unit: a bounded fragment of lesson text with
// its embedding. LessonNumber is nullable because text before the first
// lesson marker belongs to the course, not to any lesson.
type CourseChunk struct {
	ID           uint   `gorm:"primaryKey"`
	CourseTitle  string `gorm:"index"`
	LessonNumber *int
	ChunkIndex   int
	Content      string
	Embedding    datatypes.JSON
}
