package d3

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const epsilon = 1e-12

// RotationBetween returns the axis and angle of the minimal rotation
// taking the direction of a onto the direction of b. Inputs need not
// be unit length but must be non-zero. A zero angle means no rotation
// is needed; the returned axis is then arbitrary but valid.
//
// When a and b are antiparallel any axis orthogonal to a works; the
// tie-break is the cross product of a with global X, falling back to
// global Y when a is parallel to X. For a = +X, b = -X this yields a
// half-turn about +Z.
func RotationBetween(a, b r3.Vec) (axis r3.Vec, angle float64) {
	a = r3.Unit(a)
	b = r3.Unit(b)
	if EqualWithin(a, b, epsilon) {
		return r3.Vec{X: 1}, 0
	}
	if EqualWithin(r3.Scale(-1, a), b, epsilon) {
		axis = r3.Cross(a, r3.Vec{X: 1})
		if r3.Norm(axis) < epsilon {
			axis = r3.Cross(a, r3.Vec{Y: 1})
		}
		return r3.Unit(axis), math.Pi
	}
	cross := r3.Cross(a, b)
	angle = math.Atan2(r3.Norm(cross), r3.Dot(a, b))
	return r3.Unit(cross), angle
}
