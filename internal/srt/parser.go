// Package srt parses SubRip transcript files into timestamped entries
// and normalizes them for chunking.
package srt

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Entry is a single subtitle cue with numeric and display timestamps.
type Entry struct {
	Start      float64 // seconds from the start of the lesson
	End        float64
	StartStamp string // "HH:MM:SS", truncated from the cue timecode
	EndStamp   string
	Text       string
}

// timecodeRe matches "HH:MM:SS,mmm --> HH:MM:SS,mmm". Some encoders emit
// a dot instead of a comma before the milliseconds, so both are accepted.
var timecodeRe = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})[,.](\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2})[,.](\d{3})`)

// ParseFile reads and parses an SRT file. An unreadable file is the only
// hard failure; malformed cue blocks inside it are skipped.
func ParseFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read subtitle file: %w", err)
	}
	return Parse(string(data)), nil
}

// Parse splits content on blank-line boundaries and parses each cue block.
// Parsing is best-effort per block: a block without a timecode line, with
// fewer than two lines, with a reversed time range, or whose text is
// empty after trimming is skipped.
func Parse(content string) []Entry {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimPrefix(content, "\uFEFF")

	var entries []Entry
	for _, block := range strings.Split(content, "\n\n") {
		if e, ok := parseBlock(block); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

func parseBlock(block string) (Entry, bool) {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) < 2 {
		return Entry{}, false
	}

	// The timecode is on the first line, or on the second when the block
	// starts with a sequence number.
	tcIdx := -1
	for i := 0; i < 2 && i < len(lines); i++ {
		if timecodeRe.MatchString(lines[i]) {
			tcIdx = i
			break
		}
	}
	if tcIdx == -1 || tcIdx+1 >= len(lines) {
		return Entry{}, false
	}

	m := timecodeRe.FindStringSubmatch(lines[tcIdx])
	start := toSeconds(m[1], m[2], m[3], m[4])
	end := toSeconds(m[5], m[6], m[7], m[8])
	// A cue that ends before it starts is malformed, like any other
	// unparseable block.
	if end < start {
		return Entry{}, false
	}

	text := strings.TrimSpace(strings.Join(lines[tcIdx+1:], " "))
	if text == "" {
		return Entry{}, false
	}

	return Entry{
		Start:      start,
		End:        end,
		StartStamp: fmt.Sprintf("%s:%s:%s", m[1], m[2], m[3]),
		EndStamp:   fmt.Sprintf("%s:%s:%s", m[5], m[6], m[7]),
		Text:       text,
	}, true
}

func toSeconds(hh, mm, ss, ms string) float64 {
	h, _ := strconv.Atoi(hh)
	m, _ := strconv.Atoi(mm)
	s, _ := strconv.Atoi(ss)
	f, _ := strconv.Atoi(ms)
	return float64(h*3600+m*60+s) + float64(f)/1000
}
