package retrieval_test

import (
	"github.com/robinebers/transcript-rag/internal/store"
)

// fakeGateway is an in-memory store.Gateway double for pipeline tests.
type fakeGateway struct {
	vectorResults  []store.ScoredChunk
	lexicalResults []store.ScoredChunk
	chunks         map[string]map[int]store.Chunk

	vectorCalls  []int      // limits passed to VectorSearch
	lexicalCalls [][]string // lesson filters passed to LexicalSearch

	vectorErr  error
	lexicalErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{chunks: make(map[string]map[int]store.Chunk)}
}

func (f *fakeGateway) addChunk(c store.Chunk) {
	if f.chunks[c.Lesson] == nil {
		f.chunks[c.Lesson] = make(map[int]store.Chunk)
	}
	f.chunks[c.Lesson][c.Index] = c
}

func (f *fakeGateway) VectorSearch(embedding []float32, limit int) ([]store.ScoredChunk, error) {
	f.vectorCalls = append(f.vectorCalls, limit)
	if f.vectorErr != nil {
		return nil, f.vectorErr
	}
	if limit < len(f.vectorResults) {
		return f.vectorResults[:limit], nil
	}
	return f.vectorResults, nil
}

func (f *fakeGateway) LexicalSearch(query string, limit int, lessons []string) ([]store.ScoredChunk, error) {
	f.lexicalCalls = append(f.lexicalCalls, lessons)
	if f.lexicalErr != nil {
		return nil, f.lexicalErr
	}
	results := f.lexicalResults
	if len(lessons) > 0 {
		allowed := make(map[string]bool)
		for _, l := range lessons {
			allowed[l] = true
		}
		var filtered []store.ScoredChunk
		for _, r := range results {
			if allowed[r.Chunk.Lesson] {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}
	if limit < len(results) {
		return results[:limit], nil
	}
	return results, nil
}

func (f *fakeGateway) ChunksAt(lesson string, indexes []int) ([]store.Chunk, error) {
	var out []store.Chunk
	for _, idx := range indexes {
		if c, ok := f.chunks[lesson][idx]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeGateway) ListLessons() ([]store.LessonInfo, error) {
	var out []store.LessonInfo
	for name, m := range f.chunks {
		out = append(out, store.LessonInfo{Name: name, Chunks: len(m)})
	}
	return out, nil
}

func (f *fakeGateway) ReplaceLesson(string, store.Fingerprint, []store.Chunk, [][]float32) error {
	return nil
}

func (f *fakeGateway) DeleteLesson(string) error { return nil }

func (f *fakeGateway) GetFingerprint(string) (store.Fingerprint, bool, error) {
	return store.Fingerprint{}, false, nil
}

func (f *fakeGateway) GetMeta(string) (string, error) { return "", nil }

func (f *fakeGateway) SetMeta(string, string) error { return nil }

func (f *fakeGateway) DeleteAll() error { return nil }

func (f *fakeGateway) Close() error { return nil }
