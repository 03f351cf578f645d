// Package transcript turns raw speech-to-text output into display text:
// confidence filtering of segments, character whitelisting, repeated-word
// collapse and whitespace normalisation for Thai/English transcripts.
package transcript

import (
	"errors"
	"fmt"
	log "log/slog"
	"math"
	"strings"
	"unicode"

	"github.com/Knarf49/leganizebackend/pkg/stt"
)

const DefaultThreshold = 0.6

var ErrThreshold = errors.New("confidence threshold must be within [0, 1]")

// Cleaner bundles the post-processing steps applied to one transcription.
// It holds no mutable state and may be shared between goroutines.
type Cleaner struct {
	Threshold       float64 // segments with NoSpeechProb >= Threshold are dropped
	JoinThai        bool    // remove STT spaces between Thai characters
	FilterLanguages bool    // drop sentences that are neither Thai nor English
	Log             *log.Logger
}

func NewCleaner() *Cleaner {
	return &Cleaner{Threshold: DefaultThreshold}
}

// Process selects the trusted text from a backend result and cleans it.
func (c *Cleaner) Process(raw string, segments []stt.Segment) (string, error) {
	text, err := SelectText(raw, segments, c.Threshold)
	if err != nil {
		return "", err
	}
	if len(segments) > 0 && text == "" {
		c.logger().Warn("All segments below confidence, treating as silence",
			"segments", len(segments), "threshold", c.Threshold)
	}

	if c.FilterLanguages {
		text = FilterLanguages(text)
	}
	return c.Clean(text), nil
}

// Clean applies Clean and, with JoinThai, FixThaiSpacing until neither
// changes the text any more.
func (c *Cleaner) Clean(text string) string {
	if !c.JoinThai {
		return Clean(text)
	}
	for {
		next := Clean(FixThaiSpacing(text))
		if next == text {
			return next
		}
		text = next
	}
}

func (c *Cleaner) logger() *log.Logger {
	if c.Log == nil {
		return log.Default()
	}
	return c.Log
}

// SelectText picks the text to clean. With segments, only those whose
// NoSpeechProb is strictly below threshold are kept, joined by single spaces.
// Without segments raw is returned unchanged. When every segment is dropped
// the result is empty: the audio was silence and raw is not trusted.
func SelectText(raw string, segments []stt.Segment, threshold float64) (string, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return "", fmt.Errorf("%w: %v", ErrThreshold, threshold)
	}
	if len(segments) == 0 {
		return raw, nil
	}

	kept := make([]string, 0, len(segments))
	for _, s := range segments {
		if s.NoSpeechProb >= threshold {
			continue
		}
		if t := strings.TrimSpace(s.Text); t != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, " "), nil
}

// Clean removes characters outside Thai, ASCII alphanumerics, whitespace and
// `.,!?-():;`, collapses three or more consecutive copies of a word into one,
// squeezes whitespace and trims. It is total and idempotent.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	text = strings.Map(filterRune, text)
	text = collapseRepeats(text)
	return strings.Join(strings.Fields(text), " ")
}

func filterRune(r rune) rune {
	switch {
	case r >= 0x0E00 && r <= 0x0E7F:
	case r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
	case unicode.IsSpace(r):
	case strings.ContainsRune(".,!?-():;", r):
	default:
		return -1
	}
	return r
}

// FixThaiSpacing removes single spaces between two Thai characters, a common
// STT artifact: "ได ้ ส ร ้ าง" -> "ได้สร้าง".
func FixThaiSpacing(text string) string {
	rs := []rune(text)
	out := make([]rune, 0, len(rs))
	for i, r := range rs {
		if r == ' ' && i > 0 && i+1 < len(rs) && isThai(rs[i-1]) && isThai(rs[i+1]) {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

func isThai(r rune) bool { return r >= 0x0E00 && r <= 0x0E7F }

type token struct {
	text string
	word bool
}

// tokenize splits s into alternating word and non-word runs.
func tokenize(s string) []token {
	var (
		toks  []token
		start int
		word  bool
	)
	for i, r := range s {
		w := isWordRune(r)
		if i == 0 {
			word = w
			continue
		}
		if w != word {
			toks = append(toks, token{s[start:i], word})
			start, word = i, w
		}
	}
	if start < len(s) {
		toks = append(toks, token{s[start:], word})
	}
	return toks
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.In(r, unicode.Mn, unicode.Mc)
}

func isBlank(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}

// collapseRepeats keeps the first word of any run of three or more
// whitespace-separated, case-insensitively equal words.
func collapseRepeats(s string) string {
	toks := tokenize(s)

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		b.WriteString(t.text)
		if !t.word {
			continue
		}

		end, copies := i, 0
		for j := i + 1; j+1 < len(toks); j += 2 {
			if !isBlank(toks[j].text) || !strings.EqualFold(toks[j+1].text, t.text) {
				break
			}
			end, copies = j+1, copies+1
		}
		if copies >= 2 {
			i = end
		}
	}
	return b.String()
}
