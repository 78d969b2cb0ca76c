package behavior

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/lao-tseu-is-alive/go-boids-oscillator/pkg/geometry"
)

func vec(x, y, z float64) geometry.Vector3D { return geometry.NewVector(x, y, z) }

func TestCohesion(t *testing.T) {
	// Setup: Me at origin, the two others at x=1 and x=3.
	// Centre of the others is x=2, so I am pulled towards +X.
	flock := []Boid{
		{Pos: vec(0, 0, 0)},
		{Pos: vec(1, 0, 0)},
		{Pos: vec(3, 0, 0)},
	}
	got := Cohesion(flock, 0, 0.5)
	if !got.Eq(vec(1, 0, 0)) {
		t.Errorf("Expected (1, 0, 0), got %v", got)
	}
}

func TestSeparation(t *testing.T) {
	tests := []struct {
		name  string
		other geometry.Vector3D
		want  geometry.Vector3D
	}{
		{"CloseNeighbourPushesAway", vec(0.1, 0, 0), vec(-0.2, 0, 0)},
		{"FarNeighbourIgnored", vec(0.4, 0, 0), vec(0, 0, 0)},
		{"DiagonalInsideRadius", vec(0.1, 0.1, 0.1), vec(-0.2, -0.2, -0.2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flock := []Boid{{Pos: vec(0, 0, 0)}, {Pos: tt.other}}
			got := Separation(flock, 0, 2)
			if !got.Eq(tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestAlignment(t *testing.T) {
	// Setup: Me is still, the others move at (0.02, 0, 0) and (0, 0.04, 0).
	flock := []Boid{
		{Vel: vec(0.5, 0.5, 0.5)},
		{Vel: vec(0.02, 0, 0)},
		{Vel: vec(0, 0.04, 0)},
	}
	got := Alignment(flock, 0, 1)
	if !got.Eq(vec(0.01, 0.02, 0)) {
		t.Errorf("Expected (0.01, 0.02, 0), got %v", got)
	}
}

func TestContainment(t *testing.T) {
	tests := []struct {
		name string
		pos  geometry.Vector3D
		want geometry.Vector3D
	}{
		{"Inside", vec(0.2, -0.2, 0.5), vec(0, 0, 0)},
		{"BelowMin", vec(-0.6, 0, 0), vec(BoundNudge, 0, 0)},
		{"AboveMax", vec(0, 0.51, 0), vec(0, -BoundNudge, 0)},
		{"AllAxes", vec(1, -1, 1), vec(-BoundNudge, BoundNudge, -BoundNudge)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Containment(tt.pos); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestLimitSpeed(t *testing.T) {
	t.Run("FastIsClamped", func(t *testing.T) {
		got := LimitSpeed(vec(0.3, 0.4, 0))
		if math.Abs(got.Norm()-SpeedLimit) > geometry.Epsilon {
			t.Errorf("Expected norm %v, got %v", SpeedLimit, got.Norm())
		}
		if !got.Eq(vec(0.12, 0.16, 0)) {
			t.Errorf("Expected direction kept, got %v", got)
		}
		if got.SquaredNorm() > SpeedLimitSq {
			t.Errorf("Expected squared norm at most %v, got %v", SpeedLimitSq, got.SquaredNorm())
		}
	})

	t.Run("NeverAboveLimitAfterRounding", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(3, 4))
		for i := range 200000 {
			v := vec(2*rng.Float64()-1, 2*rng.Float64()-1, 2*rng.Float64()-1)
			got := LimitSpeed(v)
			if got.SquaredNorm() > SpeedLimitSq {
				t.Fatalf("vector %d: LimitSpeed(%v) has squared norm %v", i, v, got.SquaredNorm())
			}
			if v.SquaredNorm() > SpeedLimitSq && math.Abs(got.Norm()-SpeedLimit) > geometry.Epsilon {
				t.Fatalf("vector %d: expected norm %v, got %v", i, SpeedLimit, got.Norm())
			}
		}
	})

	t.Run("SlowIsUntouched", func(t *testing.T) {
		v := vec(0.01, -0.02, 0.03)
		if got := LimitSpeed(v); got != v {
			t.Errorf("Expected %v, got %v", v, got)
		}
	})

	t.Run("ZeroNeverDivides", func(t *testing.T) {
		got := LimitSpeed(geometry.Vector3D{})
		if got != (geometry.Vector3D{}) || !got.IsFinite() {
			t.Errorf("Expected zero vector, got %v", got)
		}
	})
}

// The squared-norm comparisons must agree with the textbook plain-norm ones.
func TestSquaredNormVariantsMatchPlainNorm(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for range 500 {
		a := vec(rng.Float64()-0.5, rng.Float64()-0.5, rng.Float64()-0.5)
		b := vec(rng.Float64()-0.5, rng.Float64()-0.5, rng.Float64()-0.5)

		d := a.Minus(b)
		if (d.SquaredNorm() < SeparationRadiusSq) != (d.Norm() < SeparationRadius) {
			t.Fatalf("separation test disagrees for distance %v", d.Norm())
		}

		v := a.Times(0.8)
		plain := v
		if n := v.Norm(); n > SpeedLimit {
			plain.Scale(SpeedLimit / n)
		}
		if got := LimitSpeed(v); !got.Eq(plain) {
			t.Fatalf("LimitSpeed(%v) = %v, plain-norm variant gives %v", v, got, plain)
		}
	}
}

func TestUpdate_SingleBoidSkipsFlockRules(t *testing.T) {
	// Setup: one boid, huge gains. Only containment, speed limit and damping apply.
	flock := []Boid{{Pos: vec(0.1, 0, 0), Vel: vec(0.01, 0, 0)}}
	s := Settings{Damping: 0.5, Cohesion: 100, Separation: 100, Alignment: 100}

	Update(flock, 0, s)

	if !flock[0].Vel.Eq(vec(0.005, 0, 0)) {
		t.Errorf("Expected vel (0.005, 0, 0), got %v", flock[0].Vel)
	}
	if !flock[0].Pos.Eq(vec(0.105, 0, 0)) {
		t.Errorf("Expected pos (0.105, 0, 0), got %v", flock[0].Pos)
	}
}

func TestUpdate_OnlyTargetChanges(t *testing.T) {
	flock := []Boid{
		{Pos: vec(0, 0, 0), Vel: vec(0.01, 0, 0)},
		{Pos: vec(0.1, 0, 0), Vel: vec(0, 0.01, 0)},
	}
	other := flock[1]
	Update(flock, 0, Settings{Damping: 0.9, Cohesion: 0.1, Separation: 0.1, Alignment: 0.1})
	if flock[1] != other {
		t.Errorf("Expected boid 1 untouched, got %+v", flock[1])
	}
}

func TestUpdate_SpeedIsLimitedBeforeDamping(t *testing.T) {
	flock := []Boid{{Vel: vec(10, 0, 0)}}
	Update(flock, 0, Settings{Damping: 0.5})
	if !flock[0].Vel.Eq(vec(SpeedLimit*0.5, 0, 0)) {
		t.Errorf("Expected vel (%v, 0, 0), got %v", SpeedLimit*0.5, flock[0].Vel)
	}
}

func TestUpdate_ContainmentPullsBack(t *testing.T) {
	// Setup: boid well outside the cube, at rest, no flocking forces.
	flock := []Boid{{Pos: vec(0.8, 0, 0)}}
	s := Settings{Damping: 1}

	for i := 0; i < 20; i++ {
		Update(flock, 0, s)
		if i == 0 && flock[0].Vel.X >= 0 {
			t.Fatalf("Expected negative X velocity after one sample, got %v", flock[0].Vel.X)
		}
		if flock[0].Pos.X < BoundMax {
			return
		}
	}
	t.Errorf("Expected boid back inside within 20 samples, still at %v", flock[0].Pos)
}

func BenchmarkUpdate(b *testing.B) {
	rng := rand.New(rand.NewPCG(7, 7))
	flock := make([]Boid, MaxBoids)
	for i := range flock {
		flock[i].Pos = vec(rng.Float64()*0.2-0.1, rng.Float64()*0.2-0.1, rng.Float64()*0.2-0.1)
	}
	s := Settings{Damping: 0.99, Cohesion: 0.01, Separation: 0.01, Alignment: 0.01}
	for b.Loop() {
		for i := range flock {
			Update(flock, i, s)
		}
	}
}
