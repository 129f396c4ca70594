package srt_test

import (
	"testing"

	"github.com/robinebers/transcript-rag/internal/srt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bracket cue", "[music] Hello there", "Hello there"},
		{"bracket cue only", "[applause]", ""},
		{"speaker label", "John: welcome back", "welcome back"},
		{"chevron marker", ">> So let's begin", "So let's begin"},
		{"long word with colon kept", "Reconfiguration: a deep dive", "Reconfiguration: a deep dive"},
		{"whitespace collapse", "  too   many\tspaces  ", "too many spaces"},
		{"bracket inside sentence", "we use [inaudible] here", "we use here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, srt.CleanText(tt.in))
		})
	}
}

func TestNormalizeDropsEmptyEntries(t *testing.T) {
	entries := []srt.Entry{
		{Start: 0, End: 1, Text: "[music]"},
		{Start: 1, End: 2, Text: "real content"},
	}
	out := srt.Normalize(entries)
	require.Len(t, out, 1)
	assert.Equal(t, "real content", out[0].Text)
}

func TestNormalizeSuppressesConsecutiveDuplicates(t *testing.T) {
	entries := []srt.Entry{
		{Start: 0, End: 1, Text: "Hello world"},
		{Start: 1, End: 2, Text: "hello world"},
		{Start: 2, End: 3, Text: "something else"},
		{Start: 3, End: 4, Text: "Hello world"},
	}
	out := srt.Normalize(entries)
	require.Len(t, out, 3, "only consecutive duplicates are suppressed")
	assert.Equal(t, "Hello world", out[0].Text)
	assert.Equal(t, "something else", out[1].Text)
	assert.Equal(t, "Hello world", out[2].Text)
}

func TestNormalizeComparesAgainstKeptEntry(t *testing.T) {
	// The dropped empty entry in the middle must not reset the
	// duplicate comparison.
	entries := []srt.Entry{
		{Start: 0, End: 1, Text: "repeated line"},
		{Start: 1, End: 2, Text: "[silence]"},
		{Start: 2, End: 3, Text: "Repeated Line"},
	}
	out := srt.Normalize(entries)
	require.Len(t, out, 1)
	assert.Equal(t, "repeated line", out[0].Text)
}
