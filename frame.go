// Package pipemesh assembles parametric pipe networks piece by piece
// and hands the assembled geometry to a CAD/meshing kernel session
// (package occ) for fusion, tagging and mesh generation.
//
// A network starts from a seed cylinder and grows by attaching pieces
// to open outlets. Every add aligns the new piece's inlet frame to
// the chosen outlet frame with a rigid transform and keeps the
// open-outlet ledger exact: each outlet of each piece is either open
// or consumed by exactly one later add.
package pipemesh

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/meshbits/pipemesh/internal/d3"
)

const tolerance = 1e-9

// Frame is the centre and direction of a circular pipe face, in
// global coordinates. Direction is unit length. For outlets it is the
// outward normal; for a piece inlet it points into the piece, which
// after attachment equals the upstream outlet's outward direction.
type Frame struct {
	Centre    r3.Vec
	Direction r3.Vec
}

// Surface is a connectable circular face: a frame plus its radius.
type Surface struct {
	Frame  Frame
	Radius float64
}

// rotated returns the frame rotated by angle about the axis through
// point.
func (f Frame) rotated(point, axis r3.Vec, angle float64) Frame {
	rot := r3.NewRotation(angle, axis)
	return Frame{
		Centre:    r3.Add(point, rot.Rotate(r3.Sub(f.Centre, point))),
		Direction: rot.Rotate(f.Direction),
	}
}

func (f Frame) translated(delta r3.Vec) Frame {
	return Frame{Centre: r3.Add(f.Centre, delta), Direction: f.Direction}
}

// alignment computes the rigid transform taking from onto to: the
// minimal rotation between the directions followed by the translation
// of the rotated centre onto to's centre. The antiparallel tie-break
// is documented on d3.RotationBetween.
func alignment(from, to Frame) (axis r3.Vec, angle float64, delta r3.Vec) {
	axis, angle = d3.RotationBetween(from.Direction, to.Direction)
	centre := from.Centre
	if angle != 0 {
		centre = r3.NewRotation(angle, axis).Rotate(centre)
	}
	return axis, angle, r3.Sub(to.Centre, centre)
}
