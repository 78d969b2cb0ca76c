package oscillator

import (
	"fmt"
	"io"
	"math"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/wav"
)

// Streamer exposes a Renderer as a stereo beep.Streamer: x on the left
// channel, y on the right. Rendering happens in chunks of at most blockSize
// samples, and every chunk is one host block.
type Streamer struct {
	r      Renderer
	xs, ys []float64
	err    error
}

var _ beep.Streamer = (*Streamer)(nil)

func NewStreamer(r Renderer, blockSize int) *Streamer {
	blockSize = max(blockSize, 1)
	return &Streamer{
		r:  r,
		xs: make([]float64, blockSize),
		ys: make([]float64, blockSize),
	}
}

func (s *Streamer) Stream(samples [][2]float64) (n int, ok bool) {
	if s.err != nil {
		return 0, false
	}
	for n < len(samples) {
		k := min(len(samples)-n, len(s.xs))
		xs, ys := s.xs[:k], s.ys[:k]
		if err := s.r.Render(xs, ys); err != nil {
			s.err = err
			return n, n > 0
		}
		for i := range k {
			samples[n+i][0] = xs[i]
			samples[n+i][1] = ys[i]
		}
		n += k
	}
	return n, true
}

func (s *Streamer) Err() error { return s.err }

// newVolume applies a linear volume; math.Log2(0) is -Inf, so zero means silent.
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}

// Mix sums the streamers and scales the result by volume / len(streamers),
// so that N voices at full volume stay within the range of one voice.
func Mix(streamers []beep.Streamer, volume float64) beep.Streamer {
	if len(streamers) == 0 {
		return beep.Silence(-1)
	}
	return newVolume(beep.Mix(streamers...), volume/float64(len(streamers)))
}

// WriteWAV encodes frames samples of s as a 16-bit stereo WAV file.
func WriteWAV(w io.WriteSeeker, s beep.Streamer, rate beep.SampleRate, frames int) error {
	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	if err := wav.Encode(w, beep.Take(frames, s), format); err != nil {
		return fmt.Errorf("failed to encode wav: %w", err)
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("failed to render audio: %w", err)
	}
	return nil
}
