package simulation

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/geometry"
)

var (
	ErrVoiceClosed    = errors.New("voice is closed")
	ErrBufferMismatch = errors.New("output buffers have different lengths")
)

// Initial placement: positions in a cube of half-width 0.1 around the origin,
// velocities in a cube of half-width 0.005.
const (
	initPosSpread = 0.2
	initVelSpread = 0.01
)

// RandomSource is the seeded generator used to place the boids.
// *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	Float64() float64
}

// Allocator provides the memory backing a flock.
// *arena.Arena satisfies it.
type Allocator interface {
	Allocate(n int) ([]behavior.Boid, error)
	Release(boids []behavior.Boid) error
}

type heapAllocator struct{}

func (heapAllocator) Allocate(n int) ([]behavior.Boid, error) {
	return make([]behavior.Boid, n), nil
}

func (heapAllocator) Release([]behavior.Boid) error { return nil }

// NewSource returns a PCG generator for seed. Two voices built with the same
// seed produce bit-identical output.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0xda3e39cb94b95bdb))
}

// ClampPopulation bounds n to [1, behavior.MaxBoids].
func ClampPopulation(n int) int {
	return min(max(n, 1), behavior.MaxBoids)
}

// Voice is one running oscillator: a flock plus the settings it is stepped with.
// A Voice is not safe for concurrent use.
type Voice struct {
	flock    *Flock
	block    []behavior.Boid
	alloc    Allocator
	settings behavior.Settings
}

// NewVoice allocates and places the flock described by cfg.
// A nil alloc takes the memory from the heap.
func NewVoice(cfg *Config, alloc Allocator, src RandomSource) (*Voice, error) {
	if alloc == nil {
		alloc = heapAllocator{}
	}
	n := ClampPopulation(cfg.Population)
	block, err := alloc.Allocate(n)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate flock of %d boids: %w", n, err)
	}

	for i := range block {
		block[i] = behavior.Boid{
			Pos: spread(src, initPosSpread),
			Vel: spread(src, initVelSpread),
		}
	}

	return &Voice{
		flock:    NewFlock(block),
		block:    block,
		alloc:    alloc,
		settings: cfg.Settings(),
	}, nil
}

// spread draws x, y then z uniformly in [-width/2, width/2).
func spread(src RandomSource, width float64) geometry.Vector3D {
	x := width*src.Float64() - width/2
	y := width*src.Float64() - width/2
	z := width*src.Float64() - width/2
	return geometry.NewVector(x, y, z)
}

// SetSettings replaces the coefficients used from the next sample on.
func (v *Voice) SetSettings(s behavior.Settings) {
	v.settings = s
}

func (v *Voice) Settings() behavior.Settings {
	return v.settings
}

// Next advances the flock one sample and returns its centroid.
// A closed voice returns (0, 0).
func (v *Voice) Next() (x, y float64) {
	if v.flock == nil {
		return 0, 0
	}
	return v.flock.Step(v.settings)
}

// Render fills xs and ys with one centroid per sample.
func (v *Voice) Render(xs, ys []float64) error {
	if v.flock == nil {
		return ErrVoiceClosed
	}
	if len(xs) != len(ys) {
		return fmt.Errorf("%w: %d != %d", ErrBufferMismatch, len(xs), len(ys))
	}
	for i := range xs {
		xs[i], ys[i] = v.flock.Step(v.settings)
	}
	return nil
}

// Flock exposes the boids for drawing. It is nil once the voice is closed.
func (v *Voice) Flock() *Flock {
	return v.flock
}

// Close releases the flock memory. Closing twice returns ErrVoiceClosed.
func (v *Voice) Close() error {
	if v.flock == nil {
		return ErrVoiceClosed
	}
	block := v.block
	v.flock, v.block = nil, nil
	if err := v.alloc.Release(block); err != nil {
		return fmt.Errorf("failed to release flock: %w", err)
	}
	return nil
}
