package pipemesh

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/meshbits/pipemesh/occ"
)

// Piece is a single pipe primitive: one inlet face, one or more
// outlet faces, a mesh-size hint and the kernel solid it owns.
// Pieces are created by the New* constructors in a canonical frame
// with the inlet centre at the origin, and are repositioned exactly
// once, when attached to a network. Only this package implements
// Piece.
type Piece interface {
	// Inlet returns the inlet face. Its direction points into the
	// piece.
	Inlet() Surface
	// Outlets returns the outlet faces in a fixed order: the
	// main-direction outlet first, branches after.
	Outlets() []Surface
	// MeshSize is the local element-size hint for this piece.
	MeshSize() float64
	// Solid is the kernel handle of the piece volume.
	Solid() occ.Solid
	// Centre is the approximate centroid of the piece volume, used to
	// anchor its mesh-size field.
	Centre() r3.Vec

	// transform applies a rigid transform (rotation about the origin,
	// then a translation) to the solid and every frame.
	transform(k occ.Kernel, axis r3.Vec, angle float64, delta r3.Vec) error
	// halfExtent is the blending distance of the piece's mesh-size
	// field.
	halfExtent() float64
}

// piece carries the state common to all primitives.
type piece struct {
	solid    occ.Solid
	inlet    Surface
	outlets  []Surface
	centre   r3.Vec
	meshSize float64
}

func (p *piece) Inlet() Surface     { return p.inlet }
func (p *piece) Outlets() []Surface { return p.outlets }
func (p *piece) MeshSize() float64  { return p.meshSize }
func (p *piece) Solid() occ.Solid   { return p.solid }
func (p *piece) Centre() r3.Vec     { return p.centre }

func (p *piece) transform(k occ.Kernel, axis r3.Vec, angle float64, delta r3.Vec) error {
	solids := []occ.Solid{p.solid}
	if angle != 0 {
		if err := k.Rotate(solids, r3.Vec{}, axis, angle); err != nil {
			return err
		}
	}
	if err := k.Translate(solids, delta); err != nil {
		return err
	}
	origin := r3.Vec{}
	p.inlet.Frame = p.inlet.Frame.rotated(origin, axis, angle).translated(delta)
	for i := range p.outlets {
		p.outlets[i].Frame = p.outlets[i].Frame.rotated(origin, axis, angle).translated(delta)
	}
	if angle != 0 {
		p.centre = r3.NewRotation(angle, axis).Rotate(p.centre)
	}
	p.centre = r3.Add(p.centre, delta)
	return nil
}

// halfExtent is the characteristic half-size of the piece, used for
// the blending distance of its mesh-size field.
func (p *piece) halfExtent() float64 {
	half := r3.Norm(r3.Sub(p.inlet.Frame.Centre, p.centre))
	return r3.Norm(r3.Vec{X: half, Y: p.inlet.Radius})
}
