package geometry

import (
	"errors"
	"fmt"
	"math"
)

// Epsilon is the tolerance used by Eq for float64 comparisons.
const (
	Epsilon = 1e-9
)

// ErrDivideByZero is returned by ScaleReciprocal when the divisor is zero.
var ErrDivideByZero = errors.New("vector cannot be divided by zero")

// Vector3D is a position or a velocity in the simulated space.
// Only X and Y ever leave the simulation, Z is integrated like the others.
type Vector3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// NewVector creates a new Vector3D.
func NewVector(x, y, z float64) Vector3D {
	return Vector3D{X: x, Y: y, Z: z}
}

// String implements the fmt.Stringer interface.
func (v Vector3D) String() string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", v.X, v.Y, v.Z)
}

// ---------------------------------------------------------------------
// In-place arithmetic
// These methods use pointer receivers and mutate only the receiver,
// so the rule engine can accumulate into a local vector without allocating.
// ---------------------------------------------------------------------

// Add adds other to v.
func (v *Vector3D) Add(other Vector3D) {
	v.X += other.X
	v.Y += other.Y
	v.Z += other.Z
}

// Sub subtracts other from v.
func (v *Vector3D) Sub(other Vector3D) {
	v.X -= other.X
	v.Y -= other.Y
	v.Z -= other.Z
}

// Scale multiplies every component of v by scalar.
func (v *Vector3D) Scale(scalar float64) {
	v.X *= scalar
	v.Y *= scalar
	v.Z *= scalar
}

// ScaleReciprocal multiplies v by 1/scalar.
// A zero scalar leaves v untouched and returns ErrDivideByZero.
func (v *Vector3D) ScaleReciprocal(scalar float64) error {
	if scalar == 0 {
		return ErrDivideByZero
	}
	v.Scale(1.0 / scalar)
	return nil
}

// ---------------------------------------------------------------------
// Magnitude
// ---------------------------------------------------------------------

// SquaredNorm returns the squared magnitude of v.
// Prefer it to Norm for threshold comparisons, it avoids the square root.
func (v Vector3D) SquaredNorm() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Norm returns the magnitude of v.
func (v Vector3D) Norm() float64 {
	return math.Sqrt(v.SquaredNorm())
}

// ---------------------------------------------------------------------
// Value helpers
// ---------------------------------------------------------------------

// Plus returns v + other without modifying v.
func (v Vector3D) Plus(other Vector3D) Vector3D {
	v.Add(other)
	return v
}

// Minus returns v - other without modifying v.
func (v Vector3D) Minus(other Vector3D) Vector3D {
	v.Sub(other)
	return v
}

// Times returns v * scalar without modifying v.
func (v Vector3D) Times(scalar float64) Vector3D {
	v.Scale(scalar)
	return v
}

// IsFinite reports whether no component is NaN or infinite.
func (v Vector3D) IsFinite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Eq checks if two vectors are approximately equal using the Epsilon constant.
func (v Vector3D) Eq(other Vector3D) bool {
	return math.Abs(v.X-other.X) <= Epsilon &&
		math.Abs(v.Y-other.Y) <= Epsilon &&
		math.Abs(v.Z-other.Z) <= Epsilon
}
