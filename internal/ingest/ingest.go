// Package ingest turns transcript files into persisted, embedded chunk
// sets, one lesson at a time.
package ingest

import (
	"fmt"
	"log/slog"

	"github.com/robinebers/transcript-rag/internal/chunker"
	"github.com/robinebers/transcript-rag/internal/embedder"
	"github.com/robinebers/transcript-rag/internal/srt"
	"github.com/robinebers/transcript-rag/internal/store"
	"github.com/robinebers/transcript-rag/internal/walker"
)

const embedBatchSize = 32

// metaEmbeddingModel is the meta key recording which embedding model
// built the index. Changing models invalidates every stored vector.
const metaEmbeddingModel = "embedding_model"

// Embedder is the embedding capability the pipeline needs.
type Embedder interface {
	Embed(texts []string, mode embedder.Mode) ([][]float32, error)
	Model() string
}

// Stats reports ingestion results.
type Stats struct {
	LessonsTotal int
	Ingested     int
	Skipped      int
	Failed       int
	ChunksTotal  int
}

// Ingester runs the per-lesson pipeline: parse, normalize, chunk,
// embed, store. The caller constructs and owns the gateway.
type Ingester struct {
	gateway    store.Gateway
	embedder   Embedder
	aggregator *chunker.Aggregator
	logger     *slog.Logger
}

// New creates an Ingester.
func New(gateway store.Gateway, emb Embedder, aggregator *chunker.Aggregator, logger *slog.Logger) *Ingester {
	return &Ingester{
		gateway:    gateway,
		embedder:   emb,
		aggregator: aggregator,
		logger:     logger,
	}
}

// Run ingests every .srt file under dir. Lessons whose fingerprint
// (mtime + size) is unchanged are skipped unless force is set. Lessons
// are processed strictly one at a time; a failed lesson is logged and
// the run continues, reporting the failures in the returned error.
func (i *Ingester) Run(dir string, force bool) (*Stats, error) {
	lastModel, err := i.gateway.GetMeta(metaEmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("get meta: %w", err)
	}
	if lastModel != "" && lastModel != i.embedder.Model() {
		i.logger.Info("embedding_model_changed",
			slog.String("from", lastModel),
			slog.String("to", i.embedder.Model()))
		if err := i.gateway.DeleteAll(); err != nil {
			return nil, fmt.Errorf("wipe index after model change: %w", err)
		}
	}

	files, err := walker.Walk(dir)
	if err != nil {
		return nil, fmt.Errorf("scan transcripts: %w", err)
	}

	stats := &Stats{LessonsTotal: len(files)}
	if len(files) == 0 {
		i.logger.Info("no_transcripts_found", slog.String("dir", dir))
		return stats, nil
	}

	for _, f := range files {
		fp := store.Fingerprint{MTimeUnix: f.MTimeUnix, SizeBytes: f.Size}

		existing, ok, err := i.gateway.GetFingerprint(f.Lesson)
		if err != nil {
			return stats, fmt.Errorf("fingerprint %s: %w", f.Lesson, err)
		}
		if ok && existing == fp && !force {
			i.logger.Debug("lesson_unchanged", slog.String("lesson", f.Lesson))
			stats.Skipped++
			continue
		}

		chunks, err := i.ingestLesson(f, fp)
		if err != nil {
			i.logger.Error("lesson_failed",
				slog.String("lesson", f.Lesson),
				slog.String("error", err.Error()))
			stats.Failed++
			continue
		}
		stats.Ingested++
		stats.ChunksTotal += chunks
	}

	if err := i.gateway.SetMeta(metaEmbeddingModel, i.embedder.Model()); err != nil {
		return stats, fmt.Errorf("set meta: %w", err)
	}

	if stats.Failed > 0 {
		return stats, fmt.Errorf("%d of %d lessons failed", stats.Failed, stats.LessonsTotal)
	}
	return stats, nil
}

// ingestLesson runs one lesson's parse -> normalize -> chunk -> embed ->
// store sequence as a single logical unit and returns the chunk count.
func (i *Ingester) ingestLesson(f walker.FileInfo, fp store.Fingerprint) (int, error) {
	entries, err := srt.ParseFile(f.Path)
	if err != nil {
		return 0, err
	}
	entries = srt.Normalize(entries)

	aggregated := i.aggregator.Aggregate(entries)
	if len(aggregated) == 0 {
		i.logger.Info("no_chunks_produced", slog.String("lesson", f.Lesson))
	}

	texts := make([]string, len(aggregated))
	for n, c := range aggregated {
		texts[n] = c.Text
	}

	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		batch, err := i.embedder.Embed(texts[start:end], embedder.ModeDocument)
		if err != nil {
			return 0, fmt.Errorf("embed chunks: %w", err)
		}
		embeddings = append(embeddings, batch...)
	}

	chunks := make([]store.Chunk, len(aggregated))
	for n, c := range aggregated {
		chunks[n] = store.Chunk{
			Lesson:     f.Lesson,
			Index:      c.Index,
			Start:      c.Start,
			End:        c.End,
			StartStamp: c.StartStamp,
			EndStamp:   c.EndStamp,
			Text:       c.Text,
		}
	}

	// Replacement wipes any existing chunk set for the lesson first, so
	// an interrupted earlier run can't leave stale rows behind.
	if err := i.gateway.ReplaceLesson(f.Lesson, fp, chunks, embeddings); err != nil {
		return 0, fmt.Errorf("store lesson: %w", err)
	}

	i.logger.Info("lesson_ingested",
		slog.String("lesson", f.Lesson),
		slog.Int("entries", len(entries)),
		slog.Int("chunks", len(chunks)))

	return len(chunks), nil
}
