// Package chunker aggregates normalized subtitle entries into
// overlapping time-windowed chunks.
package chunker

import (
	"strings"

	"github.com/robinebers/transcript-rag/internal/srt"
)

// DefaultWindow is the chunk window length in seconds.
const DefaultWindow = 45.0

// DefaultOverlap is the overlap between consecutive chunks in seconds.
const DefaultOverlap = 10.0

// Chunk is a time-windowed excerpt built from consecutive entries.
// Index is dense per lesson: 0..n-1 in temporal order.
type Chunk struct {
	Index      int
	Start      float64
	End        float64
	StartStamp string
	EndStamp   string
	Text       string
}

// Aggregator groups entries into chunks of at most Window seconds,
// starting each next chunk Overlap seconds before the previous one ends.
type Aggregator struct {
	Window  float64
	Overlap float64
}

// New creates an Aggregator. Non-positive parameters fall back to the
// defaults; an overlap at or above the window length is clamped so the
// cursor always moves forward.
func New(window, overlap float64) *Aggregator {
	if window <= 0 {
		window = DefaultWindow
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= window {
		overlap = window / 4
	}
	return &Aggregator{Window: window, Overlap: overlap}
}

// Aggregate builds chunks from the ordered entry sequence. Empty input
// yields zero chunks. The loop terminates in at most len(entries)
// iterations: the cursor advances by at least one entry per chunk.
func (a *Aggregator) Aggregate(entries []srt.Entry) []Chunk {
	var chunks []Chunk
	index := 0

	for i := 0; i < len(entries); {
		windowStart := entries[i].Start

		// Extend the end while entries still fit the window. The
		// boundary is inclusive: end - windowStart == Window fits.
		j := i
		for j < len(entries) && entries[j].End-windowStart <= a.Window {
			j++
		}
		// An entry longer than the window would fit nothing; force it
		// in so every entry lands in some chunk.
		if j == i {
			j = i + 1
		}

		included := entries[i:j]
		texts := make([]string, 0, len(included))
		for _, e := range included {
			texts = append(texts, e.Text)
		}
		text := strings.TrimSpace(strings.Join(texts, " "))
		last := included[len(included)-1]

		if text != "" {
			chunks = append(chunks, Chunk{
				Index:      index,
				Start:      included[0].Start,
				End:        last.End,
				StartStamp: included[0].StartStamp,
				EndStamp:   last.EndStamp,
				Text:       text,
			})
			index++
		}

		// Advance past entries that start before the overlap tail,
		// but always by at least one entry.
		next := i
		for next < len(entries) && entries[next].Start < last.End-a.Overlap {
			next++
		}
		if next == i {
			next = i + 1
		}
		i = next
	}

	return chunks
}
