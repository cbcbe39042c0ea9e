package d3

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// R3 vector manipulation routines shared by the assembly and kernel
// packages.

func EqualWithin(a, b r3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol &&
		math.Abs(a.Y-b.Y) <= tol &&
		math.Abs(a.Z-b.Z) <= tol
}

func AbsElem(a r3.Vec) r3.Vec {
	return r3.Vec{
		X: math.Abs(a.X),
		Y: math.Abs(a.Y),
		Z: math.Abs(a.Z),
	}
}

// RoundZero snaps components below tol to exactly zero. Used when
// printing centres and directions so -1e-17 does not leak into
// metadata output.
func RoundZero(a r3.Vec, tol float64) r3.Vec {
	r := a
	if math.Abs(r.X) < tol {
		r.X = 0
	}
	if math.Abs(r.Y) < tol {
		r.Y = 0
	}
	if math.Abs(r.Z) < tol {
		r.Z = 0
	}
	return r
}
