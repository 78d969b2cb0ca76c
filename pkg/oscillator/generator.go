// Package oscillator turns boid voices into audio streams.
package oscillator

import (
	"sync"
	"sync/atomic"

	"github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/simulation"
)

// Renderer fills xs and ys with one centroid per sample.
// *simulation.Voice, *simulation.VoiceRef and *Generator implement it.
type Renderer interface {
	Render(xs, ys []float64) error
}

// Point is one centroid position.
type Point struct {
	X, Y float64
}

// Generator shares a voice between the audio callback and the UI.
// Settings and mute are lock-free so the UI never waits on the audio thread;
// the voice itself is guarded by a mutex held for one block at a time.
type Generator struct {
	mu    sync.Mutex
	voice *simulation.Voice
	trail []Point // ring buffer of the last centroid of every block
	head  int
	count int

	settings atomic.Pointer[behavior.Settings]
	muted    atomic.Bool
}

// NewGenerator wraps voice and keeps a trail of trailLen centroids.
func NewGenerator(voice *simulation.Voice, trailLen int) *Generator {
	g := &Generator{
		voice: voice,
		trail: make([]Point, max(trailLen, 1)),
	}
	s := voice.Settings()
	g.settings.Store(&s)
	return g
}

// SetSettings is picked up at the start of the next block.
func (g *Generator) SetSettings(s behavior.Settings) {
	g.settings.Store(&s)
}

func (g *Generator) Settings() behavior.Settings {
	return *g.settings.Load()
}

// SetMuted silences the output. The flock keeps moving while muted.
func (g *Generator) SetMuted(muted bool) {
	g.muted.Store(muted)
}

func (g *Generator) Muted() bool {
	return g.muted.Load()
}

// Render advances the voice by len(xs) samples.
func (g *Generator) Render(xs, ys []float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.voice.SetSettings(*g.settings.Load())
	if err := g.voice.Render(xs, ys); err != nil {
		return err
	}
	if n := len(xs); n > 0 {
		g.trail[g.head] = Point{X: xs[n-1], Y: ys[n-1]}
		g.head = (g.head + 1) % len(g.trail)
		g.count = min(g.count+1, len(g.trail))
	}
	if g.muted.Load() {
		clear(xs)
		clear(ys)
	}
	return nil
}

// Trail appends the recorded centroids to dst, oldest first.
func (g *Generator) Trail(dst []Point) []Point {
	g.mu.Lock()
	defer g.mu.Unlock()

	start := (g.head - g.count + len(g.trail)) % len(g.trail)
	for i := 0; i < g.count; i++ {
		dst = append(dst, g.trail[(start+i)%len(g.trail)])
	}
	return dst
}

// Boids appends a copy of the current flock to dst.
func (g *Generator) Boids(dst []behavior.Boid) []behavior.Boid {
	g.mu.Lock()
	defer g.mu.Unlock()

	if f := g.voice.Flock(); f != nil {
		dst = f.Boids(dst)
	}
	return dst
}

// Replace swaps in a new voice and returns the previous one, which the
// caller must Close. The trail is cleared; current settings carry over.
func (g *Generator) Replace(voice *simulation.Voice) *simulation.Voice {
	g.mu.Lock()
	defer g.mu.Unlock()

	old := g.voice
	g.voice = voice
	g.head, g.count = 0, 0
	return old
}

// Close releases the wrapped voice.
func (g *Generator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.voice.Close()
}
