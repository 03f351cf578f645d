//go:build !portaudio

package audio

import (
	"context"
	"errors"
)

var (
	ErrNoSpeech    = errors.New("no speech recorded")
	ErrUnavailable = errors.New("microphone capture not available: build with -tags portaudio")
)

type Recorder struct{}

func NewRecorder() (*Recorder, error) { return nil, ErrUnavailable }

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Record(context.Context, Options) ([]float32, error) {
	return nil, ErrUnavailable
}
