package oscillator

import (
	"encoding/binary"
	"math"
)

// bytesPerFrame is one float32 per channel, two channels.
const bytesPerFrame = 8

// Reader exposes a Renderer as little-endian float32 interleaved stereo,
// the format expected by ebiten's audio.Context.NewPlayerF32.
type Reader struct {
	r      Renderer
	gain   float64
	xs, ys []float64
}

func NewReader(r Renderer, blockSize int, gain float64) *Reader {
	blockSize = max(blockSize, 1)
	return &Reader{
		r:    r,
		gain: gain,
		xs:   make([]float64, blockSize),
		ys:   make([]float64, blockSize),
	}
}

// Read fills p with whole frames. Trailing bytes that do not make a frame are left untouched.
func (rd *Reader) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	written := 0
	for written < frames {
		k := min(frames-written, len(rd.xs))
		xs, ys := rd.xs[:k], rd.ys[:k]
		if err := rd.r.Render(xs, ys); err != nil {
			return written * bytesPerFrame, err
		}
		for i := range k {
			off := (written + i) * bytesPerFrame
			binary.LittleEndian.PutUint32(p[off:], math.Float32bits(float32(xs[i]*rd.gain)))
			binary.LittleEndian.PutUint32(p[off+4:], math.Float32bits(float32(ys[i]*rd.gain)))
		}
		written += k
	}
	return written * bytesPerFrame, nil
}
