package transcript

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
)

// FilterLanguages drops sentences detected as something other than Thai or
// English. Short phrases and sentences the detector is unsure about are kept.
func FilterLanguages(text string) string {
	if text == "" {
		return ""
	}

	var kept []string
	for _, s := range splitSentences(text) {
		t := strings.TrimSpace(s)
		if utf8.RuneCountInString(t) < 3 {
			kept = append(kept, s)
			continue
		}
		info := whatlanggo.Detect(t)
		if !info.IsReliable() || info.Lang == whatlanggo.Tha || info.Lang == whatlanggo.Eng {
			kept = append(kept, s)
		}
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

// splitSentences cuts text at whitespace runs that follow '.', '!' or '?'.
// The terminator stays with its sentence; the whitespace is dropped.
func splitSentences(text string) []string {
	var (
		out   []string
		start int
	)
	rs := []rune(text)
	for i := 1; i < len(rs); i++ {
		if !unicode.IsSpace(rs[i]) || !strings.ContainsRune(".!?", rs[i-1]) {
			continue
		}
		out = append(out, string(rs[start:i]))
		for i < len(rs) && unicode.IsSpace(rs[i]) {
			i++
		}
		start = i
	}
	return append(out, string(rs[start:]))
}
