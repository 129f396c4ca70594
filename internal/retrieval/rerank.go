package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// RerankDepth is how many fused candidates are sent to the scorer.
const RerankDepth = 30

// Scorer rates candidate passages against a question, returning one
// relevance score (0-5) per passage in input order.
type Scorer interface {
	Score(ctx context.Context, question string, passages []string) ([]float64, error)
}

// RerankResult distinguishes a refined ordering from a fallback, so
// callers can observe degraded ranking quality instead of silently
// receiving the fused order.
type RerankResult struct {
	Candidates     []Candidate
	Refined        bool
	FallbackReason string
}

// Rerank scores the top RerankDepth candidates and reorders them by
// score descending, ties broken by their fused presentation order.
// Candidates beyond the rerank depth keep their position after the
// reranked head. Any scoring failure fails open: the input order is
// returned unchanged with the reason recorded. Rerank never drops
// candidates.
func Rerank(ctx context.Context, scorer Scorer, question string, candidates []Candidate, logger *slog.Logger) RerankResult {
	if len(candidates) == 0 {
		return RerankResult{Candidates: candidates, Refined: true}
	}

	depth := RerankDepth
	if len(candidates) < depth {
		depth = len(candidates)
	}
	head := candidates[:depth]

	passages := make([]string, len(head))
	for i, c := range head {
		passages[i] = c.Chunk.Text
	}

	scores, err := scorer.Score(ctx, question, passages)
	if err != nil {
		return fallback(candidates, fmt.Sprintf("scoring failed: %v", err), logger)
	}
	if len(scores) != len(head) {
		return fallback(candidates,
			fmt.Sprintf("expected %d scores, got %d", len(head), len(scores)), logger)
	}

	reranked := make([]Candidate, len(candidates))
	copy(reranked, candidates)
	idx := make([]int, depth)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	for pos, orig := range idx {
		reranked[pos] = head[orig]
	}

	return RerankResult{Candidates: reranked, Refined: true}
}

func fallback(candidates []Candidate, reason string, logger *slog.Logger) RerankResult {
	logger.Warn("rerank_fallback", slog.String("reason", reason))
	return RerankResult{Candidates: candidates, FallbackReason: reason}
}
