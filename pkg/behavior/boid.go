package behavior

import (
	"math"

	"github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/geometry"
)

// Boid represents a single entity in the flock.
// Boids is an artificial life program, developed by Craig Reynolds in 1986,
// which simulates the flocking behaviour of birds, and related group motion.
// https://en.wikipedia.org/wiki/Boids
// Here the flock lives in a unit cube and its centroid is used as a signal,
// so a boid carries no identity beyond its index in the flock.
type Boid struct {
	Pos geometry.Vector3D `json:"pos"`
	Vel geometry.Vector3D `json:"vel"`
}

const (
	// MaxBoids is the upper bound on the population of one flock.
	MaxBoids = 20

	SeparationRadius   = 0.3
	SeparationRadiusSq = SeparationRadius * SeparationRadius

	BoundMin   = -0.5
	BoundMax   = 0.5
	BoundNudge = 0.007

	SpeedLimit   = 0.2
	SpeedLimitSq = SpeedLimit * SpeedLimit
)

// Settings holds the four coefficients a host may change between blocks.
// Passing this into Update allows you to change rules dynamically at runtime.
type Settings struct {
	Damping    float64 `json:"damping"`
	Cohesion   float64 `json:"cohesionGain"`
	Separation float64 `json:"separationGain"`
	Alignment  float64 `json:"alignmentGain"`
}

// Cohesion steers boid bid towards the centre of mass of the other boids.
func Cohesion(flock []Boid, bid int, gain float64) geometry.Vector3D {
	var center geometry.Vector3D
	for i := range flock {
		if i != bid {
			center.Add(flock[i].Pos)
		}
	}
	center.Scale(1.0 / float64(len(flock)-1))
	center.Sub(flock[bid].Pos)
	center.Scale(gain)
	return center
}

// Separation pushes boid bid away from every other boid closer than SeparationRadius.
func Separation(flock []Boid, bid int, gain float64) geometry.Vector3D {
	var away geometry.Vector3D
	self := flock[bid].Pos
	for i := range flock {
		if i == bid {
			continue
		}
		d := self.Minus(flock[i].Pos)
		if d.SquaredNorm() < SeparationRadiusSq {
			away.Add(d)
		}
	}
	away.Scale(gain)
	return away
}

// Alignment matches the velocity of boid bid with the mean velocity of the others.
func Alignment(flock []Boid, bid int, gain float64) geometry.Vector3D {
	var mean geometry.Vector3D
	for i := range flock {
		if i != bid {
			mean.Add(flock[i].Vel)
		}
	}
	mean.Scale(gain / float64(len(flock)-1))
	return mean
}

// Containment returns a constant nudge back towards the cube for every axis
// on which pos lies outside [BoundMin, BoundMax].
func Containment(pos geometry.Vector3D) geometry.Vector3D {
	return geometry.Vector3D{
		X: nudge(pos.X),
		Y: nudge(pos.Y),
		Z: nudge(pos.Z),
	}
}

func nudge(c float64) float64 {
	switch {
	case c < BoundMin:
		return BoundNudge
	case c > BoundMax:
		return -BoundNudge
	}
	return 0
}

// LimitSpeed returns vel rescaled to SpeedLimit when it is faster than that.
// The result never has a squared norm above SpeedLimitSq, even after rounding.
func LimitSpeed(vel geometry.Vector3D) geometry.Vector3D {
	d := vel.SquaredNorm()
	if d <= SpeedLimitSq {
		return vel
	}
	norm := math.Sqrt(d)
	limit := SpeedLimit
	for {
		out := vel.Times(limit / norm)
		if out.SquaredNorm() <= SpeedLimitSq {
			return out
		}
		// Rounding landed just above the limit; retry one ulp lower.
		limit = math.Nextafter(limit, 0)
	}
}

// Update advances boid bid by one sample.
// Boids with a lower index must already have been advanced for this sample.
func Update(flock []Boid, bid int, s Settings) {
	b := &flock[bid]

	if len(flock) > 1 {
		b.Vel.Add(Cohesion(flock, bid, s.Cohesion))
		b.Vel.Add(Separation(flock, bid, s.Separation))
		b.Vel.Add(Alignment(flock, bid, s.Alignment))
	}
	b.Vel.Add(Containment(b.Pos))
	b.Vel = LimitSpeed(b.Vel)

	b.Vel.Scale(s.Damping)
	b.Pos.Add(b.Vel)
}
