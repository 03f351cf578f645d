package transcript

import (
	"strings"
	"unicode/utf8"
)

const (
	defaultPrompt   = "นี่คือการสนทนาทางธุรกิจเป็นภาษาไทย อาจมีคำภาษาอังกฤษปนอยู่บ้าง"
	contextPrefix   = "บริบทก่อนหน้า: "
	contextChunks   = 2
	contextRunes    = 200
	minOverlapWords = 3
	maxOverlapWords = 15
	fuzzyOverlap    = 0.8
	minDedupRunes   = 5
)

// ContextPrompt builds the transcription prompt for the next chunk of a
// session from the chunks already transcribed.
func ContextPrompt(previous []string) string {
	if len(previous) == 0 {
		return defaultPrompt
	}
	if len(previous) > contextChunks {
		previous = previous[len(previous)-contextChunks:]
	}

	ctx := []rune(strings.Join(previous, " "))
	if len(ctx) > contextRunes {
		ctx = ctx[len(ctx)-contextRunes:]
	}
	return contextPrefix + string(ctx)
}

// RemoveOverlap drops the leading words of current that repeat the tail of
// previous. Overlaps of 15 down to 3 words are tried; a match is exact or
// at least 80% positional word agreement ignoring case.
func RemoveOverlap(previous, current string) string {
	if previous == "" || current == "" {
		return current
	}

	prev := strings.Fields(previous)
	cur := strings.Fields(current)
	for n := maxOverlapWords; n >= minOverlapWords; n-- {
		if len(prev) < n || len(cur) < n {
			continue
		}
		tail, head := prev[len(prev)-n:], cur[:n]
		if similarity(tail, head) > fuzzyOverlap {
			return strings.Join(cur[n:], " ")
		}
	}
	return current
}

func similarity(a, b []string) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var matches int
	for i := range a {
		if strings.EqualFold(a[i], b[i]) {
			matches++
		}
	}
	return float64(matches) / float64(len(a))
}

// DedupAcrossChunks removes sentences of current that already appeared in
// one of the previous chunks. Sentences of five runes or fewer never count
// as seen.
func DedupAcrossChunks(current string, previous []string) string {
	if len(previous) == 0 {
		return current
	}

	seen := make(map[string]struct{})
	for _, s := range splitSentences(strings.Join(previous, " ")) {
		s = strings.ToLower(strings.TrimSpace(s))
		if utf8.RuneCountInString(s) > minDedupRunes {
			seen[s] = struct{}{}
		}
	}

	var unique []string
	for _, s := range splitSentences(current) {
		if _, ok := seen[strings.ToLower(strings.TrimSpace(s))]; !ok {
			unique = append(unique, s)
		}
	}
	return strings.TrimSpace(strings.Join(unique, " "))
}
