package srt_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/robinebers/transcript-rag/internal/srt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `1
00:00:01,000 --> 00:00:03,500
Welcome to the course.

2
00:00:03,500 --> 00:00:07,250
Today we cover variables
and basic types.

3
00:00:07,250 --> 00:00:09,000
`

func TestParse(t *testing.T) {
	entries := srt.Parse(sample)
	require.Len(t, entries, 2, "block without text must be skipped")

	assert.Equal(t, 1.0, entries[0].Start)
	assert.Equal(t, 3.5, entries[0].End)
	assert.Equal(t, "00:00:01", entries[0].StartStamp)
	assert.Equal(t, "00:00:03", entries[0].EndStamp)
	assert.Equal(t, "Welcome to the course.", entries[0].Text)

	assert.Equal(t, "Today we cover variables and basic types.", entries[1].Text)
	assert.Equal(t, 7.25, entries[1].End)
}

func TestParseWithoutSequenceNumbers(t *testing.T) {
	entries := srt.Parse("00:01:00,000 --> 00:01:02,000\nNo sequence line here.\n")
	require.Len(t, entries, 1)
	assert.Equal(t, 60.0, entries[0].Start)
	assert.Equal(t, "00:01:00", entries[0].StartStamp)
}

func TestParseSkipsMalformedBlocks(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no timecode", "1\njust some text\nmore text"},
		{"single line", "00:00:01,000 --> 00:00:02,000"},
		{"empty text", "4\n00:00:01,000 --> 00:00:02,000\n   "},
		{"garbage timecode", "5\n00:00 --> 00:01\nhello"},
		{"reversed range", "6\n00:00:10,000 --> 00:00:05,000\nreversed cue"},
		{"empty block", "\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, srt.Parse(tt.content))
		})
	}
}

func TestParseMalformedBlockDoesNotAbortFile(t *testing.T) {
	content := "garbage\n\n1\n00:00:01,000 --> 00:00:02,000\nkept line\n\nmore garbage without timecode\nsecond line"
	entries := srt.Parse(content)
	require.Len(t, entries, 1)
	assert.Equal(t, "kept line", entries[0].Text)
}

func TestParseEntriesNeverEndBeforeStarting(t *testing.T) {
	content := "1\n00:00:01,000 --> 00:00:03,000\nfine\n\n2\n00:00:10,000 --> 00:00:05,000\nreversed cue\n\n3\n00:00:12,000 --> 00:00:12,000\nzero duration\n"
	entries := srt.Parse(content)
	require.Len(t, entries, 2, "reversed cue is skipped, neighbors kept")
	for _, e := range entries {
		assert.GreaterOrEqual(t, e.End, e.Start)
	}
}

func TestParseCRLFAndBOM(t *testing.T) {
	content := "\uFEFF1\r\n00:00:01,000 --> 00:00:02,000\r\nwindows line endings\r\n\r\n"
	entries := srt.Parse(content)
	require.Len(t, entries, 1)
	assert.Equal(t, "windows line endings", entries[0].Text)
}

func TestParseDotMilliseconds(t *testing.T) {
	entries := srt.Parse("1\n00:00:01.500 --> 00:00:02.750\ndot separator\n")
	require.Len(t, entries, 1)
	assert.Equal(t, 1.5, entries[0].Start)
	assert.Equal(t, 2.75, entries[0].End)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lesson1.srt")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	entries, err := srt.ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = srt.ParseFile(filepath.Join(dir, "missing.srt"))
	assert.Error(t, err, "unreadable file is a hard failure")
}
