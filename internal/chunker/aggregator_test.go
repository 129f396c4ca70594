package chunker_test

import (
	"fmt"
	"testing"

	"github.com/robinebers/transcript-rag/internal/chunker"
	"github.com/robinebers/transcript-rag/internal/srt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(start, end float64, text string) srt.Entry {
	return srt.Entry{
		Start:      start,
		End:        end,
		StartStamp: fmt.Sprintf("00:00:%02d", int(start)),
		EndStamp:   fmt.Sprintf("00:00:%02d", int(end)),
		Text:       text,
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	a := chunker.New(chunker.DefaultWindow, chunker.DefaultOverlap)
	assert.Empty(t, a.Aggregate(nil))
	assert.Empty(t, a.Aggregate([]srt.Entry{}))
}

func TestAggregateInclusiveWindowBoundary(t *testing.T) {
	// With W=45 starting at t=0, only the entry ending at 40s fits the
	// first chunk; 50s and 60s fall outside. end-start <= W is inclusive,
	// so an entry ending exactly at 45s would have been included.
	entries := []srt.Entry{
		entry(0, 40, "first"),
		entry(40, 50, "second"),
		entry(50, 60, "third"),
	}
	a := chunker.New(45, 10)
	chunks := a.Aggregate(entries)

	require.NotEmpty(t, chunks)
	assert.Equal(t, "first", chunks[0].Text)
	assert.Equal(t, 0.0, chunks[0].Start)
	assert.Equal(t, 40.0, chunks[0].End)
}

func TestAggregateExactBoundaryIncluded(t *testing.T) {
	entries := []srt.Entry{
		entry(0, 45, "fits exactly"),
		entry(45, 90, "next window"),
	}
	a := chunker.New(45, 10)
	chunks := a.Aggregate(entries)

	require.Len(t, chunks, 2)
	assert.Equal(t, "fits exactly", chunks[0].Text)
}

func TestAggregateForcesProgressOnLongEntry(t *testing.T) {
	// A single entry longer than the window still produces a chunk.
	entries := []srt.Entry{
		entry(0, 120, "a very long uninterrupted cue"),
		entry(120, 130, "after"),
	}
	a := chunker.New(45, 10)
	chunks := a.Aggregate(entries)

	require.Len(t, chunks, 2)
	assert.Equal(t, "a very long uninterrupted cue", chunks[0].Text)
	assert.Equal(t, 120.0, chunks[0].End)
	assert.Equal(t, "after", chunks[1].Text)
}

func TestAggregateDenseIndices(t *testing.T) {
	var entries []srt.Entry
	for i := 0; i < 40; i++ {
		s := float64(i * 5)
		entries = append(entries, entry(s, s+5, fmt.Sprintf("entry %d", i)))
	}
	a := chunker.New(45, 10)
	chunks := a.Aggregate(entries)

	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index, "indices must be dense and gap-free")
		assert.GreaterOrEqual(t, c.End, c.Start)
	}
}

func TestAggregateOverlap(t *testing.T) {
	var entries []srt.Entry
	for i := 0; i < 20; i++ {
		s := float64(i * 5)
		entries = append(entries, entry(s, s+5, fmt.Sprintf("entry %d", i)))
	}
	a := chunker.New(45, 10)
	chunks := a.Aggregate(entries)

	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		// Each chunk starts before the previous one ends (overlap) but
		// never moves backwards past the overlap tail.
		assert.Less(t, chunks[i].Start, chunks[i-1].End)
		assert.GreaterOrEqual(t, chunks[i].Start, chunks[i-1].End-10-5)
	}
}

func TestAggregateTerminatesOnDegenerateDurations(t *testing.T) {
	// Zero-length entries all at the same timestamp must not stall.
	var entries []srt.Entry
	for i := 0; i < 50; i++ {
		entries = append(entries, entry(10, 10, fmt.Sprintf("cue %d", i)))
	}
	a := chunker.New(45, 10)
	chunks := a.Aggregate(entries)
	assert.NotEmpty(t, chunks)
}
