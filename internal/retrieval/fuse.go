package retrieval

import (
	"sort"

	"github.com/robinebers/transcript-rag/internal/store"
)

// RRFK is the reciprocal rank fusion constant: each list contributes
// 1/(RRFK+rank) per item.
const RRFK = 60

// Fuse combines the vector and lexical result lists with reciprocal
// rank fusion. Each list contributes 1/(K+rank) per item, summed per
// unique chunk identity. The output is deduplicated and ordered by
// fused score descending; ties break by first-seen order scanning the
// vector list then the lexical list, so the ordering is reproducible.
func Fuse(vector, lexical []store.ScoredChunk) []Candidate {
	slots := make(map[string]*Candidate)
	order := make([]string, 0, len(vector)+len(lexical))

	add := func(sc store.ScoredChunk) *Candidate {
		key := sc.Chunk.Key()
		c, ok := slots[key]
		if !ok {
			c = &Candidate{Chunk: sc.Chunk}
			slots[key] = c
			order = append(order, key)
		}
		return c
	}

	for i, sc := range vector {
		c := add(sc)
		c.VectorRank = i + 1
		c.VectorScore = sc.Score
		c.Fused += 1.0 / float64(RRFK+i+1)
	}
	for i, sc := range lexical {
		c := add(sc)
		c.LexicalRank = i + 1
		c.LexicalScore = sc.Score
		c.Fused += 1.0 / float64(RRFK+i+1)
	}

	out := make([]Candidate, 0, len(order))
	for _, key := range order {
		out = append(out, *slots[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Fused > out[j].Fused
	})
	return out
}
