package retrieval

import (
	"fmt"
	"sort"

	"github.com/robinebers/transcript-rag/internal/store"
)

// NeighborRadius is how many adjacent chunks are pulled in on each side
// of a selected chunk.
const NeighborRadius = 1

// ExpandNeighbors fetches the chunks adjacent to each selected chunk
// (within radius, clipped to non-negative indexes) and merges them with
// the selection. The result is deduplicated by chunk identity and
// sorted by (lesson, chunk index): the selection is relevance-ordered,
// but the final arrangement is reading order.
func ExpandNeighbors(gateway store.Gateway, selection []store.Chunk, radius int) ([]store.Chunk, error) {
	have := make(map[string]bool, len(selection))
	for _, c := range selection {
		have[c.Key()] = true
	}

	// Neighbor indexes to fetch, grouped by lesson.
	wanted := make(map[string][]int)
	for _, c := range selection {
		for d := -radius; d <= radius; d++ {
			idx := c.Index + d
			if d == 0 || idx < 0 {
				continue
			}
			key := fmt.Sprintf("%s#%d", c.Lesson, idx)
			if have[key] {
				continue
			}
			have[key] = true
			wanted[c.Lesson] = append(wanted[c.Lesson], idx)
		}
	}

	merged := make([]store.Chunk, len(selection))
	copy(merged, selection)

	// Deterministic fetch order.
	lessons := make([]string, 0, len(wanted))
	for lesson := range wanted {
		lessons = append(lessons, lesson)
	}
	sort.Strings(lessons)

	for _, lesson := range lessons {
		chunks, err := gateway.ChunksAt(lesson, wanted[lesson])
		if err != nil {
			return nil, fmt.Errorf("fetch neighbors for %s: %w", lesson, err)
		}
		merged = append(merged, chunks...)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Lesson != merged[j].Lesson {
			return merged[i].Lesson < merged[j].Lesson
		}
		return merged[i].Index < merged[j].Index
	})
	return merged, nil
}
