package store

import (
	"fmt"
	"time"
)

// Chunk is a persisted, time-windowed transcript excerpt. Identity is
// (Lesson, Index); Index is dense 0..n-1 per lesson in temporal order.
type Chunk struct {
	ID         int64
	Lesson     string
	Index      int
	Start      float64
	End        float64
	StartStamp string
	EndStamp   string
	Text       string
}

// Key returns the chunk's identity for deduplication across result lists.
func (c Chunk) Key() string {
	return fmt.Sprintf("%s#%d", c.Lesson, c.Index)
}

// ScoredChunk is a chunk with its raw search score. For vector search the
// score is a distance, for lexical search the FTS5 rank; in both cases
// ascending means better.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// Fingerprint records the source file state a lesson was ingested from.
type Fingerprint struct {
	MTimeUnix int64
	SizeBytes int64
}

// LessonInfo is a lesson with its chunk count, for listings.
type LessonInfo struct {
	Name       string
	Chunks     int
	IngestedAt time.Time
}
