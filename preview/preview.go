// Package preview renders a quick signed-distance approximation of a
// pipe network for visual inspection before the expensive CAD fusion
// and meshing run. Each piece becomes a straight rounded segment from
// its inlet to each outlet, so bends appear chorded; the point is to
// check connectivity and proportions, not wall geometry.
package preview

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/meshbits/pipemesh"
	"github.com/meshbits/pipemesh/internal/d3"
)

// DefaultCells is the marching-cubes resolution used by CreateSTL.
const DefaultCells = 150

func toV3(v r3.Vec) v3.Vec { return v3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

// segment returns a rounded cylinder spanning a to b.
func segment(a, b r3.Vec, radius float64) (sdf.SDF3, error) {
	ab := r3.Sub(b, a)
	length := r3.Norm(ab)
	if length == 0 {
		return nil, fmt.Errorf("preview: zero-length segment at %v", a)
	}
	s, err := sdf.Cylinder3D(length, radius, radius/4)
	if err != nil {
		return nil, err
	}
	axis, angle := d3.RotationBetween(r3.Vec{Z: 1}, r3.Scale(1/length, ab))
	mid := r3.Add(a, r3.Scale(0.5, ab))
	m := sdf.Translate3d(toV3(mid))
	if angle != 0 {
		m = m.Mul(sdf.Rotate3d(toV3(axis), angle))
	}
	return sdf.Transform3D(s, m), nil
}

// Model builds the preview solid for the given pieces, typically
// Network.Pieces.
func Model(pieces []pipemesh.Piece) (sdf.SDF3, error) {
	if len(pieces) == 0 {
		return nil, fmt.Errorf("preview: no pieces")
	}
	var parts []sdf.SDF3
	for _, p := range pieces {
		in := p.Inlet()
		for _, out := range p.Outlets() {
			r := in.Radius
			if out.Radius > r {
				r = out.Radius
			}
			seg, err := segment(in.Frame.Centre, out.Frame.Centre, r)
			if err != nil {
				return nil, err
			}
			parts = append(parts, seg)
		}
	}
	return sdf.Union3D(parts...), nil
}
