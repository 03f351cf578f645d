// Package audio captures microphone speech for transcription.
package audio

import (
	"math"
	"time"
)

const (
	SampleRate = 16000
	frameSize  = 320 // 20ms
)

// Options controls when a recording stops.
type Options struct {
	SilenceRMS float64       // frames at or below this level count as silence
	Silence    time.Duration // trailing silence that ends an utterance
	MaxLength  time.Duration
}

func DefaultOptions() Options {
	return Options{
		SilenceRMS: 0.015,
		Silence:    600 * time.Millisecond,
		MaxLength:  30 * time.Second,
	}
}

// vad decides frame by frame whether the speaker is still talking.
// Leading silence is discarded; trailing silence is kept up to opt.Silence.
type vad struct {
	opt      Options
	frameDur time.Duration
	speaking bool
	silent   time.Duration
	elapsed  time.Duration
}

func newVAD(opt Options, rate, frame int) *vad {
	return &vad{
		opt:      opt,
		frameDur: time.Duration(frame) * time.Second / time.Duration(rate),
	}
}

// push reports whether frame belongs to the recording and whether the
// recording is complete.
func (v *vad) push(frame []float32) (keep, done bool) {
	v.elapsed += v.frameDur
	if v.opt.MaxLength > 0 && v.elapsed >= v.opt.MaxLength {
		done = true
	}

	if frameRMS(frame) > v.opt.SilenceRMS {
		v.speaking = true
		v.silent = 0
		return true, done
	}
	if !v.speaking {
		return false, done
	}

	v.silent += v.frameDur
	if v.silent >= v.opt.Silence {
		return false, true
	}
	return true, done
}

func frameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s / float64(len(f)))
}
