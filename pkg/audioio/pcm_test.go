package audioio

import (
	"testing"
	"time"
)

func TestChunkBytesRoundTrip(t *testing.T) {
	chunk := Chunk{
		Samples:    []int16{0, 1, -1, 32767, -32768, 12345},
		SampleRate: 16000,
		Channels:   1,
	}

	back := ChunkFromBytes(chunk.Bytes(), 16000, 1)
	if len(back.Samples) != len(chunk.Samples) {
		t.Fatalf("length: got %d, want %d", len(back.Samples), len(chunk.Samples))
	}
	for i := range chunk.Samples {
		if back.Samples[i] != chunk.Samples[i] {
			t.Errorf("sample %d: got %d, want %d", i, back.Samples[i], chunk.Samples[i])
		}
	}
}

func TestChunkDuration(t *testing.T) {
	tests := []struct {
		name  string
		chunk Chunk
		want  time.Duration
	}{
		{
			name:  "one second at 24k",
			chunk: Chunk{Samples: make([]int16, 24000), SampleRate: 24000, Channels: 1},
			want:  time.Second,
		},
		{
			name:  "half second at 16k",
			chunk: Chunk{Samples: make([]int16, 8000), SampleRate: 16000, Channels: 1},
			want:  500 * time.Millisecond,
		},
		{
			name:  "stereo counts frames not samples",
			chunk: Chunk{Samples: make([]int16, 48000), SampleRate: 24000, Channels: 2},
			want:  time.Second,
		},
		{
			name:  "zero rate",
			chunk: Chunk{Samples: make([]int16, 100)},
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.chunk.Duration(); got != tt.want {
				t.Errorf("Duration: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResample_Downsample(t *testing.T) {
	// 48k -> 16k should produce a third of the samples.
	in := make([]int16, 4800)
	for i := range in {
		in[i] = int16(i % 1000)
	}

	out := Resample(in, 48000, 16000)
	if len(out) != 1600 {
		t.Errorf("length: got %d, want 1600", len(out))
	}
}

func TestResample_SameRatePassthrough(t *testing.T) {
	in := []int16{1, 2, 3}
	out := Resample(in, 16000, 16000)
	if &out[0] != &in[0] {
		t.Error("same-rate resample should return the input slice")
	}
}

func TestResample_Empty(t *testing.T) {
	if out := Resample(nil, 16000, 24000); len(out) != 0 {
		t.Errorf("empty input: got %d samples", len(out))
	}
}

func TestResample_PreservesConstantSignal(t *testing.T) {
	in := make([]int16, 1000)
	for i := range in {
		in[i] = 1234
	}
	out := Resample(in, 16000, 24000)
	for i, s := range out {
		if s != 1234 {
			t.Fatalf("sample %d: got %d, want 1234", i, s)
		}
	}
}

func TestRMS(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Errorf("RMS(nil): got %v, want 0", got)
	}
	if got := RMS(make([]int16, 100)); got != 0 {
		t.Errorf("RMS(silence): got %v, want 0", got)
	}
	full := make([]int16, 100)
	for i := range full {
		full[i] = 32767
	}
	if got := RMS(full); got < 0.99 {
		t.Errorf("RMS(full scale): got %v, want ~1", got)
	}
	half := make([]int16, 100)
	for i := range half {
		half[i] = 16384
	}
	// A constant half-scale signal has RMS equal to its amplitude.
	if got := RMS(half); got < 0.49 || got > 0.51 {
		t.Errorf("RMS(half scale): got %v, want ~0.5", got)
	}
}
