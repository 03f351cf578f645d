//go:build portaudio

package audio

import (
	"context"
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

var ErrNoSpeech = errors.New("no speech recorded")

type Recorder struct{}

// NewRecorder initialises PortAudio. Close must be called when done.
func NewRecorder() (*Recorder, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("init portaudio: %w", err)
	}
	return &Recorder{}, nil
}

func (r *Recorder) Close() error {
	return portaudio.Terminate()
}

// Record captures mono 16 kHz audio from the default input device until
// the speaker falls silent, opt.MaxLength passes or ctx is done.
func (r *Recorder) Record(ctx context.Context, opt Options) ([]float32, error) {
	buf := make([]float32, frameSize)
	out := make([]float32, 0, SampleRate*3)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start input stream: %w", err)
	}
	defer stream.Stop()

	v := newVAD(opt, SampleRate, frameSize)
	for {
		select {
		case <-ctx.Done():
			if len(out) == 0 {
				return nil, ctx.Err()
			}
			return out, nil
		default:
		}

		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("read input stream: %w", err)
		}

		keep, done := v.push(buf)
		if keep {
			out = append(out, buf...)
		}
		if done {
			break
		}
	}

	if len(out) == 0 {
		return nil, ErrNoSpeech
	}
	return out, nil
}
