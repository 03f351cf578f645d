//go:build !whisper

package stt

import (
	"context"
	"errors"
)

var ErrWhisperUnavailable = errors.New("whisper backend not compiled in (build with -tags whisper)")

type Whisper struct{}

func NewWhisper(modelPath string) (*Whisper, error) {
	return nil, ErrWhisperUnavailable
}

func (w *Whisper) Close() error { return nil }

func (w *Whisper) TranscribeFile(context.Context, string, Options) (Result, error) {
	return Result{}, ErrWhisperUnavailable
}
