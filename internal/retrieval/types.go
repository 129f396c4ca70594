// Package retrieval implements the query-time pipeline: hybrid search
// coordination, reciprocal rank fusion, reranking, and neighbor
// expansion.
package retrieval

import "github.com/robinebers/transcript-rag/internal/store"

// Candidate is a chunk surfaced by one or both search lists, with its
// per-list ranks and the fused score. Ranks are 1-based; 0 means the
// chunk did not appear in that list.
type Candidate struct {
	Chunk        store.Chunk
	VectorRank   int
	LexicalRank  int
	VectorScore  float64 // distance, set when VectorRank > 0
	LexicalScore float64 // FTS5 rank, set when LexicalRank > 0
	Fused        float64
}
