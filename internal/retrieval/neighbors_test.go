package retrieval_test

import (
	"fmt"
	"testing"

	"github.com/robinebers/transcript-rag/internal/retrieval"
	"github.com/robinebers/transcript-rag/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func populate(gw *fakeGateway, lesson string, n int) {
	for i := 0; i < n; i++ {
		gw.addChunk(store.Chunk{Lesson: lesson, Index: i, Text: fmt.Sprintf("%s chunk %d", lesson, i)})
	}
}

func keys(chunks []store.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Key()
	}
	return out
}

func TestExpandNeighborsBasic(t *testing.T) {
	gw := newFakeGateway()
	populate(gw, "go-basics", 10)

	selection := []store.Chunk{
		{Lesson: "go-basics", Index: 5, Text: "go-basics chunk 5"},
	}
	out, err := retrieval.ExpandNeighbors(gw, selection, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"go-basics#4", "go-basics#5", "go-basics#6"}, keys(out))
}

func TestExpandNeighborsClipsNegative(t *testing.T) {
	gw := newFakeGateway()
	populate(gw, "go-basics", 3)

	selection := []store.Chunk{{Lesson: "go-basics", Index: 0}}
	out, err := retrieval.ExpandNeighbors(gw, selection, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"go-basics#0", "go-basics#1"}, keys(out))
}

func TestExpandNeighborsMissingNeighborSkipped(t *testing.T) {
	gw := newFakeGateway()
	populate(gw, "go-basics", 4) // indexes 0..3

	selection := []store.Chunk{{Lesson: "go-basics", Index: 3}}
	out, err := retrieval.ExpandNeighbors(gw, selection, 1)
	require.NoError(t, err)

	// Index 4 does not exist; only the existing neighbor is added.
	assert.Equal(t, []string{"go-basics#2", "go-basics#3"}, keys(out))
}

func TestExpandNeighborsMergesAndSortsReadingOrder(t *testing.T) {
	gw := newFakeGateway()
	populate(gw, "alpha", 10)
	populate(gw, "beta", 10)

	// Relevance order deliberately not reading order.
	selection := []store.Chunk{
		{Lesson: "beta", Index: 7},
		{Lesson: "alpha", Index: 2},
		{Lesson: "beta", Index: 8},
	}
	out, err := retrieval.ExpandNeighbors(gw, selection, 1)
	require.NoError(t, err)

	want := []string{
		"alpha#1", "alpha#2", "alpha#3",
		"beta#6", "beta#7", "beta#8", "beta#9",
	}
	assert.Equal(t, want, keys(out))

	// The selection is always a subset of the output.
	set := make(map[string]bool)
	for _, k := range keys(out) {
		assert.False(t, set[k], "no duplicate identities")
		set[k] = true
	}
	for _, s := range selection {
		assert.True(t, set[s.Key()])
	}
}
