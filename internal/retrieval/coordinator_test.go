package retrieval_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/robinebers/transcript-rag/internal/retrieval"
	"github.com/robinebers/transcript-rag/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRetrieveUnfiltered(t *testing.T) {
	gw := newFakeGateway()
	gw.vectorResults = []store.ScoredChunk{scored("go-basics", 0, 0.1)}
	gw.lexicalResults = []store.ScoredChunk{scored("go-basics", 3, -7.0)}

	c := retrieval.NewCoordinator(gw, 50, discardLogger())
	fused, err := c.Retrieve(context.Background(), "what is a slice", []float32{0.1}, nil)
	require.NoError(t, err)
	assert.Len(t, fused, 2)

	// No filter: the vector search uses the plain limit.
	require.Len(t, gw.vectorCalls, 1)
	assert.Equal(t, 50, gw.vectorCalls[0])
	require.Len(t, gw.lexicalCalls, 1)
	assert.Empty(t, gw.lexicalCalls[0])
}

func TestRetrieveLessonFilterOverfetches(t *testing.T) {
	gw := newFakeGateway()
	// 30 hits in the wanted lesson buried among hits from another.
	for i := 0; i < 30; i++ {
		gw.vectorResults = append(gw.vectorResults, scored("other", i, float64(i)))
		gw.vectorResults = append(gw.vectorResults, scored("wanted", i, float64(i)+0.5))
	}

	c := retrieval.NewCoordinator(gw, 50, discardLogger())
	fused, err := c.Retrieve(context.Background(), "q", []float32{0.1}, []string{"wanted"})
	require.NoError(t, err)

	// Vector search over-fetched 10x unfiltered, then post-filtered.
	require.Len(t, gw.vectorCalls, 1)
	assert.Equal(t, 500, gw.vectorCalls[0])
	// Lexical search filters natively.
	require.Len(t, gw.lexicalCalls, 1)
	assert.Equal(t, []string{"wanted"}, gw.lexicalCalls[0])

	for _, cand := range fused {
		assert.Equal(t, "wanted", cand.Chunk.Lesson)
	}
	// Sparse lesson: fewer than the limit is acceptable and must not be
	// widened further.
	assert.Len(t, fused, 30)
}

func TestRetrieveFilterTruncatesToLimit(t *testing.T) {
	gw := newFakeGateway()
	for i := 0; i < 100; i++ {
		gw.vectorResults = append(gw.vectorResults, scored("wanted", i, float64(i)))
	}

	c := retrieval.NewCoordinator(gw, 10, discardLogger())
	fused, err := c.Retrieve(context.Background(), "q", []float32{0.1}, []string{"wanted"})
	require.NoError(t, err)
	assert.Len(t, fused, 10)

	// Best-ranked vector hits survive the truncation.
	assert.Equal(t, 0, fused[0].Chunk.Index)
}

func TestRetrieveSearchErrorPropagates(t *testing.T) {
	gw := newFakeGateway()
	gw.vectorErr = errors.New("index corrupt")

	c := retrieval.NewCoordinator(gw, 50, discardLogger())
	_, err := c.Retrieve(context.Background(), "q", []float32{0.1}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vector search")

	gw2 := newFakeGateway()
	gw2.lexicalErr = errors.New("fts gone")
	c2 := retrieval.NewCoordinator(gw2, 50, discardLogger())
	_, err = c2.Retrieve(context.Background(), "q", []float32{0.1}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lexical search")
}
