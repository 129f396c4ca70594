package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/robinebers/transcript-rag/internal/lessons"
	"github.com/robinebers/transcript-rag/internal/llm"
	"github.com/robinebers/transcript-rag/internal/retrieval"
	"github.com/robinebers/transcript-rag/internal/store"
)

const systemPrompt = `You are a course assistant. You answer questions about recorded lessons using the transcript excerpts provided below.

Every excerpt is labeled with its lesson name and the timestamp range it covers. When you reference material, cite the lesson and timestamp so the student can jump to that point in the recording.

Keep answers concise and grounded in the provided excerpts. If the excerpts don't contain enough information to answer, say so rather than guessing.`

// QueryEmbedder turns a question into a vector in the query embedding space.
type QueryEmbedder interface {
	EmbedQuery(text string) ([]float32, error)
}

// Generator produces a chat completion from a message list.
type Generator interface {
	Generate(messages []llm.Message) (string, error)
}

// Result carries the context chunks selected for a question along with
// how the ranking was produced.
type Result struct {
	// Chunks is the final context in reading order (lesson, then index),
	// including neighbors of the top-ranked chunks.
	Chunks []store.Chunk
	// Ranked is the fused and reranked candidate list before truncation.
	Ranked []retrieval.Candidate
	// Refined is false when the reranker failed and fused order was kept.
	Refined        bool
	FallbackReason string
}

// Pipeline wires retrieval, reranking and generation over one index.
type Pipeline struct {
	gateway     store.Gateway
	embedder    QueryEmbedder
	coordinator *retrieval.Coordinator
	scorer      retrieval.Scorer
	chat        Generator
	topK        int
	logger      *slog.Logger
}

func NewPipeline(gateway store.Gateway, emb QueryEmbedder, scorer retrieval.Scorer, chat Generator, searchLimit, topK int, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		gateway:     gateway,
		embedder:    emb,
		coordinator: retrieval.NewCoordinator(gateway, searchLimit, logger),
		scorer:      scorer,
		chat:        chat,
		topK:        topK,
		logger:      logger,
	}
}

// Search runs the full retrieval pipeline for a question: lesson filter
// validation, hybrid search, reciprocal-rank fusion, reranking, and
// neighbor expansion of the top results.
func (p *Pipeline) Search(ctx context.Context, question string, lessonFilter []string) (*Result, error) {
	if len(lessonFilter) > 0 {
		known, err := p.knownLessons()
		if err != nil {
			return nil, err
		}
		if err := lessons.Validate(lessonFilter, known); err != nil {
			return nil, err
		}
	}

	embedding, err := p.embedder.EmbedQuery(question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	candidates, err := p.coordinator.Retrieve(ctx, question, embedding, lessonFilter)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &Result{Refined: true}, nil
	}

	reranked := retrieval.Rerank(ctx, p.scorer, question, candidates, p.logger)

	top := reranked.Candidates
	if len(top) > p.topK {
		top = top[:p.topK]
	}
	selection := make([]store.Chunk, len(top))
	for i, c := range top {
		selection[i] = c.Chunk
	}

	expanded, err := retrieval.ExpandNeighbors(p.gateway, selection, retrieval.NeighborRadius)
	if err != nil {
		return nil, err
	}

	return &Result{
		Chunks:         expanded,
		Ranked:         reranked.Candidates,
		Refined:        reranked.Refined,
		FallbackReason: reranked.FallbackReason,
	}, nil
}

// Ask answers a question over the index. It returns the generated answer
// together with the retrieval result that produced its context.
func (p *Pipeline) Ask(ctx context.Context, question string, lessonFilter []string, history []llm.Message) (string, *Result, error) {
	res, err := p.Search(ctx, question, lessonFilter)
	if err != nil {
		return "", nil, err
	}

	msgs := BuildMessages(res.Chunks, history, question)
	answer, err := p.chat.Generate(msgs)
	if err != nil {
		return "", res, fmt.Errorf("generate answer: %w", err)
	}
	return answer, res, nil
}

func (p *Pipeline) knownLessons() ([]string, error) {
	infos, err := p.gateway.ListLessons()
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names, nil
}

// BuildMessages constructs the message list for the LLM from retrieved
// transcript chunks, conversation history, and the current question.
func BuildMessages(chunks []store.Chunk, history []llm.Message, question string) []llm.Message {
	var msgs []llm.Message
	msgs = append(msgs, llm.Message{Role: "system", Content: systemPrompt})

	if len(chunks) > 0 {
		var ctx strings.Builder
		ctx.WriteString("Here are the relevant transcript excerpts:\n\n")
		for i, c := range chunks {
			fmt.Fprintf(&ctx, "--- Excerpt %d: %s [%s - %s] ---\n",
				i+1, c.Lesson, c.StartStamp, c.EndStamp)
			ctx.WriteString(c.Text)
			ctx.WriteString("\n\n")
		}
		msgs = append(msgs, llm.Message{Role: "user", Content: ctx.String()})
		msgs = append(msgs, llm.Message{Role: "assistant", Content: "I've reviewed the transcript excerpts. What would you like to know?"})
	}

	msgs = append(msgs, history...)
	msgs = append(msgs, llm.Message{Role: "user", Content: question})
	return msgs
}
