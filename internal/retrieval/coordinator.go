package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robinebers/transcript-rag/internal/store"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultSearchLimit is how many chunks each search list fetches.
const DefaultSearchLimit = 50

// overfetchFactor is applied to the vector search limit when a lesson
// filter is present: the KNN primitive cannot pre-filter, so we fetch
// wide and post-filter. Sparse lessons may still yield fewer results
// than the limit; the coordinator does not retry with a wider fetch.
const overfetchFactor = 10

// Coordinator issues the vector and lexical searches for a question and
// fuses their results.
type Coordinator struct {
	gateway store.Gateway
	limit   int
	logger  *slog.Logger
}

// NewCoordinator creates a Coordinator. A non-positive limit falls back
// to DefaultSearchLimit.
func NewCoordinator(gateway store.Gateway, limit int, logger *slog.Logger) *Coordinator {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return &Coordinator{gateway: gateway, limit: limit, logger: logger}
}

// Retrieve runs both searches, optionally restricted to the allowed
// lessons, and returns the RRF-fused candidate list. The two searches
// are independent reads against a stable snapshot and run concurrently;
// fusion waits for both.
func (c *Coordinator) Retrieve(ctx context.Context, question string, embedding []float32, lessons []string) ([]Candidate, error) {
	retrievalID := uuid.NewString()

	var vector, lexical []store.ScoredChunk
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		results, err := c.vectorSearch(embedding, lessons)
		if err != nil {
			return fmt.Errorf("vector search: %w", err)
		}
		vector = results
		return nil
	})
	g.Go(func() error {
		results, err := c.gateway.LexicalSearch(question, c.limit, lessons)
		if err != nil {
			return fmt.Errorf("lexical search: %w", err)
		}
		lexical = results
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := Fuse(vector, lexical)

	c.logger.Debug("retrieval_fused",
		slog.String("retrieval_id", retrievalID),
		slog.Int("vector_count", len(vector)),
		slog.Int("lexical_count", len(lexical)),
		slog.Int("fused_count", len(fused)),
		slog.Int("lesson_filter_count", len(lessons)))

	return fused, nil
}

// vectorSearch fetches by embedding distance. With a lesson filter it
// over-fetches 10x unfiltered and post-filters, which can legitimately
// return fewer than the limit for sparse lessons.
func (c *Coordinator) vectorSearch(embedding []float32, lessons []string) ([]store.ScoredChunk, error) {
	if len(lessons) == 0 {
		return c.gateway.VectorSearch(embedding, c.limit)
	}

	results, err := c.gateway.VectorSearch(embedding, c.limit*overfetchFactor)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]bool, len(lessons))
	for _, l := range lessons {
		allowed[l] = true
	}

	filtered := make([]store.ScoredChunk, 0, c.limit)
	for _, r := range results {
		if !allowed[r.Chunk.Lesson] {
			continue
		}
		filtered = append(filtered, r)
		if len(filtered) == c.limit {
			break
		}
	}
	return filtered, nil
}
