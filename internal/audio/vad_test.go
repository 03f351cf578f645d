package audio

import (
	"testing"
	"time"
)

func frame(level float32) []float32 {
	f := make([]float32, frameSize)
	for i := range f {
		f[i] = level
	}
	return f
}

func TestVADSkipsLeadingSilence(t *testing.T) {
	v := newVAD(DefaultOptions(), SampleRate, frameSize)
	for i := 0; i < 100; i++ {
		keep, done := v.push(frame(0))
		if keep || done {
			t.Fatalf("frame %d: keep=%v done=%v, want silence skipped", i, keep, done)
		}
	}
}

func TestVADStopsAfterTrailingSilence(t *testing.T) {
	opt := DefaultOptions()
	v := newVAD(opt, SampleRate, frameSize)

	if keep, done := v.push(frame(0.5)); !keep || done {
		t.Fatalf("speech frame: keep=%v done=%v", keep, done)
	}

	// 600ms of silence at 20ms per frame.
	for i := 1; i < 30; i++ {
		keep, done := v.push(frame(0))
		if !keep || done {
			t.Fatalf("silence frame %d: keep=%v done=%v, want kept", i, keep, done)
		}
	}
	if keep, done := v.push(frame(0)); keep || !done {
		t.Errorf("last silence frame: keep=%v done=%v, want stop", keep, done)
	}
}

func TestVADSpeechResetsSilence(t *testing.T) {
	v := newVAD(DefaultOptions(), SampleRate, frameSize)
	v.push(frame(0.5))
	for i := 0; i < 20; i++ {
		v.push(frame(0))
	}
	v.push(frame(0.5))
	for i := 0; i < 20; i++ {
		if _, done := v.push(frame(0)); done {
			t.Fatalf("stopped after %d silent frames, silence should have reset", i+1)
		}
	}
}

func TestVADMaxLength(t *testing.T) {
	opt := DefaultOptions()
	opt.MaxLength = 100 * time.Millisecond
	v := newVAD(opt, SampleRate, frameSize)

	var frames int
	for {
		frames++
		if _, done := v.push(frame(0.5)); done {
			break
		}
		if frames > 100 {
			t.Fatal("MaxLength never reached")
		}
	}
	if frames != 5 {
		t.Errorf("stopped after %d frames, want 5", frames)
	}
}

func TestFrameRMS(t *testing.T) {
	if got := frameRMS(nil); got != 0 {
		t.Errorf("frameRMS(nil) = %v", got)
	}
	if got := frameRMS([]float32{0.5, -0.5}); got != 0.5 {
		t.Errorf("frameRMS = %v, want 0.5", got)
	}
}
