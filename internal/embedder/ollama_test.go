package embedder_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/robinebers/transcript-rag/internal/embedder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

func embedServer(t *testing.T, captured *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		embeddings := make([][]float32, len(captured.Input))
		for i := range embeddings {
			embeddings[i] = []float32{1, 2, 3}
		}
		json.NewEncoder(w).Encode(map[string]any{"embeddings": embeddings})
	}))
}

func TestEmbedPrefixesByMode(t *testing.T) {
	var captured capturedRequest
	srv := embedServer(t, &captured)
	defer srv.Close()

	emb := embedder.NewOllamaEmbedder(srv.URL, "nomic-embed-text", 0)

	out, err := emb.Embed([]string{"first chunk", "second chunk"}, embedder.ModeDocument)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "nomic-embed-text", captured.Model)
	assert.Equal(t, []string{"search_document: first chunk", "search_document: second chunk"}, captured.Input)

	_, err = emb.EmbedQuery("where are interfaces covered?")
	require.NoError(t, err)
	assert.Equal(t, []string{"search_query: where are interfaces covered?"}, captured.Input)
}

func TestEmbedHonorsConfiguredTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	emb := embedder.NewOllamaEmbedder(srv.URL, "nomic-embed-text", 1)

	start := time.Now()
	_, err := emb.Embed([]string{"text"}, embedder.ModeDocument)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second, "request gives up at the configured timeout")
}

func TestEmbedCountMismatchIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{{1, 2, 3}}})
	}))
	defer srv.Close()

	emb := embedder.NewOllamaEmbedder(srv.URL, "nomic-embed-text", 0)
	_, err := emb.Embed([]string{"one", "two"}, embedder.ModeDocument)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 embeddings")
}
