// Package lessons resolves user-typed lesson names against the set of
// ingested lessons.
package lessons

import (
	"fmt"
	"sort"
	"strings"
)

// maxSuggestions caps how many "did you mean" candidates are returned.
const maxSuggestions = 5

// Suggestion is a known lesson name with its similarity to the input.
type Suggestion struct {
	Name  string
	Score float64
}

// UnknownLessonError reports a lesson filter that matches nothing,
// carrying fuzzy-match suggestions for the front end to present. The
// correction is never applied automatically.
type UnknownLessonError struct {
	Name        string
	Suggestions []Suggestion
}

func (e *UnknownLessonError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("unknown lesson %q", e.Name)
	}
	names := make([]string, len(e.Suggestions))
	for i, s := range e.Suggestions {
		names[i] = s.Name
	}
	return fmt.Sprintf("unknown lesson %q (did you mean: %s?)", e.Name, strings.Join(names, ", "))
}

// Validate checks each requested lesson against the known set and
// returns an UnknownLessonError for the first one that doesn't exist.
func Validate(requested, known []string) error {
	knownSet := make(map[string]bool, len(known))
	for _, k := range known {
		knownSet[k] = true
	}
	for _, r := range requested {
		if !knownSet[r] {
			return &UnknownLessonError{Name: r, Suggestions: Resolve(r, known)}
		}
	}
	return nil
}

// Resolve scores the input against every known lesson name and returns
// up to five positive-scoring candidates, best first. Exact
// case-insensitive matches score 1.0, substring containment in either
// direction 0.95, everything else 1 - levenshtein/maxlen.
func Resolve(input string, known []string) []Suggestion {
	in := strings.ToLower(input)

	var suggestions []Suggestion
	for _, name := range known {
		score := similarity(in, strings.ToLower(name))
		if score > 0 {
			suggestions = append(suggestions, Suggestion{Name: name, Score: score})
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].Name < suggestions[j].Name
	})
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}

func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.95
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(maxLen)
}

// levenshtein computes the edit distance with a two-row matrix.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
