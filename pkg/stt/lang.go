package stt

import "strings"

// whisperLanguages maps the language names verbose_json reports to
// ISO 639-1 codes.
var whisperLanguages = map[string]string{
	"arabic":     "ar",
	"bengali":    "bn",
	"burmese":    "my",
	"chinese":    "zh",
	"dutch":      "nl",
	"english":    "en",
	"filipino":   "tl",
	"french":     "fr",
	"german":     "de",
	"hindi":      "hi",
	"indonesian": "id",
	"italian":    "it",
	"japanese":   "ja",
	"khmer":      "km",
	"korean":     "ko",
	"lao":        "lo",
	"malay":      "ms",
	"portuguese": "pt",
	"russian":    "ru",
	"spanish":    "es",
	"tagalog":    "tl",
	"thai":       "th",
	"ukrainian":  "uk",
	"vietnamese": "vi",
}

// LanguageCode returns the ISO 639-1 code for a language name such as
// "thai". Codes and unknown names are returned lower-cased.
func LanguageCode(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if code, ok := whisperLanguages[name]; ok {
		return code
	}
	return name
}
