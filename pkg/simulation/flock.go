package simulation

import "github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/behavior"

// Flock is the ordered set of boids owned by one voice.
// Its length is fixed at construction.
type Flock struct {
	boids []behavior.Boid
}

// NewFlock wraps boids without copying them; the flock mutates them in place.
func NewFlock(boids []behavior.Boid) *Flock {
	return &Flock{boids: boids}
}

func (f *Flock) Len() int {
	return len(f.boids)
}

// Boid returns a copy of boid i.
func (f *Flock) Boid(i int) behavior.Boid {
	return f.boids[i]
}

// Boids appends a copy of every boid to dst and returns it.
func (f *Flock) Boids(dst []behavior.Boid) []behavior.Boid {
	return append(dst, f.boids...)
}

// Step advances every boid by one sample, in index order, and returns the
// centroid of the new positions.
func (f *Flock) Step(s behavior.Settings) (x, y float64) {
	for i := range f.boids {
		behavior.Update(f.boids, i, s)
	}
	return f.Centroid()
}

// Centroid returns the mean x and mean y of all boid positions.
func (f *Flock) Centroid() (x, y float64) {
	for i := range f.boids {
		x += f.boids[i].Pos.X
		y += f.boids[i].Pos.Y
	}
	n := float64(len(f.boids))
	return x / n, y / n
}
