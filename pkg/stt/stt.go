// Package stt defines the speech-to-text collaborator consumed by the
// transcript pipeline and its two backends: the OpenAI transcription API
// and a local whisper.cpp model (built with -tags whisper).
package stt

import "context"

const (
	DefaultModel    = "whisper-1"
	DefaultLanguage = "th"
)

type Options struct {
	Model       string  // remote model name, "whisper-1" by default
	Language    string  // language hint, e.g. "th"; empty = auto
	Prompt      string  // optional context prompt
	Temperature float64 // 0 = backend default
	Threads     int     // local backend only; <=0 => NumCPU()
}

// Segment is a time-bounded chunk of a transcription. NoSpeechProb is the
// model-reported likelihood that the chunk holds no speech; backends that do
// not report it leave it at zero.
type Segment struct {
	Text         string
	StartSec     float64
	EndSec       float64
	NoSpeechProb float64
}

// Result carries the raw backend output. Segments is nil when the backend
// only returned flat text.
type Result struct {
	Text     string
	Segments []Segment
	Language string // detected or forced
}

type Transcriber interface {
	TranscribeFile(ctx context.Context, path string, opt Options) (Result, error)
	Close() error
}

func (o Options) withDefaults() Options {
	if o.Model == "" {
		o.Model = DefaultModel
	}
	return o
}
