package srt

import (
	"regexp"
	"strings"
)

var (
	// bracketRe matches cue annotations like [music] or [inaudible].
	bracketRe = regexp.MustCompile(`\[[^\]]*\]`)
	// speakerRe matches a leading speaker label: a chevron marker or a
	// short word followed by ": " (e.g. ">> " or "John: ").
	speakerRe = regexp.MustCompile(`^(?:>>\s*|[A-Za-z]{1,12}:\s+)`)
	// spaceRe collapses runs of internal whitespace.
	spaceRe = regexp.MustCompile(`\s+`)
)

// Normalize cleans each entry's text and drops entries that become empty.
// An entry whose normalized, case-folded text equals the immediately
// preceding kept entry's text is dropped as well — auto-captioned
// transcripts commonly repeat the same line across consecutive cues.
func Normalize(entries []Entry) []Entry {
	kept := make([]Entry, 0, len(entries))
	prev := ""
	for _, e := range entries {
		text := CleanText(e.Text)
		if text == "" {
			continue
		}
		folded := strings.ToLower(text)
		if folded == prev {
			continue
		}
		e.Text = text
		kept = append(kept, e)
		prev = folded
	}
	return kept
}

// CleanText strips bracket-delimited cue annotations and a leading speaker
// label, then collapses whitespace and trims.
func CleanText(text string) string {
	text = bracketRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	text = speakerRe.ReplaceAllString(text, "")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
