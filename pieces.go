package pipemesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/meshbits/pipemesh/internal/d3"
	"github.com/meshbits/pipemesh/occ"
)

// Piece catalog. Each constructor validates its parameters, issues
// the kernel calls that author the solid, and computes the inlet and
// outlet faces analytically. This is the only place geometry
// authoring happens; everything downstream only moves solids around.

func unitDir(name string, v r3.Vec) (r3.Vec, error) {
	if r3.Norm(v) == 0 {
		return r3.Vec{}, fmt.Errorf("%w: %s direction has zero length", ErrInvalidGeometry, name)
	}
	return r3.Unit(v), nil
}

func positive(name string, v float64) error {
	if v <= 0 {
		return fmt.Errorf("%w: %s %g must be > 0", ErrInvalidGeometry, name, v)
	}
	return nil
}

// Cylinder is a straight pipe section.
type Cylinder struct {
	piece
	Length float64
}

// NewCylinder authors a straight pipe of the given length and radius
// whose inlet sits at the origin and whose axis follows direction.
func NewCylinder(k occ.Kernel, length, radius float64, direction r3.Vec, meshSize float64) (*Cylinder, error) {
	if err := positive("length", length); err != nil {
		return nil, err
	}
	if err := positive("radius", radius); err != nil {
		return nil, err
	}
	if err := positive("mesh size", meshSize); err != nil {
		return nil, err
	}
	d, err := unitDir("cylinder", direction)
	if err != nil {
		return nil, err
	}
	solid, err := k.Cylinder(r3.Vec{}, r3.Scale(length, d), radius)
	if err != nil {
		return nil, err
	}
	return &Cylinder{
		Length: length,
		piece: piece{
			solid:    solid,
			inlet:    Surface{Frame{Centre: r3.Vec{}, Direction: d}, radius},
			outlets:  []Surface{{Frame{Centre: r3.Scale(length, d), Direction: d}, radius}},
			centre:   r3.Scale(length/2, d),
			meshSize: meshSize,
		},
	}, nil
}

// ChangeRadius is a pipe section whose radius transitions from the
// inlet radius to a new outlet radius over the last changeLength of
// the piece.
type ChangeRadius struct {
	piece
	Length float64
}

func NewChangeRadius(k occ.Kernel, length, changeLength, inRadius, outRadius float64, direction r3.Vec, meshSize float64) (*ChangeRadius, error) {
	if err := positive("length", length); err != nil {
		return nil, err
	}
	if changeLength <= 0 || changeLength >= length {
		return nil, fmt.Errorf("%w: change length %g must be between 0 and the length %g", ErrInvalidGeometry, changeLength, length)
	}
	if err := positive("inlet radius", inRadius); err != nil {
		return nil, err
	}
	if err := positive("outlet radius", outRadius); err != nil {
		return nil, err
	}
	if inRadius == outRadius {
		return nil, fmt.Errorf("%w: radius does not change", ErrInvalidGeometry)
	}
	if err := positive("mesh size", meshSize); err != nil {
		return nil, err
	}
	d, err := unitDir("pipe", direction)
	if err != nil {
		return nil, err
	}
	straight := length - changeLength
	cyl, err := k.Cylinder(r3.Vec{}, r3.Scale(straight, d), inRadius)
	if err != nil {
		return nil, err
	}
	cone, err := k.Cone(r3.Scale(straight, d), r3.Scale(changeLength, d), inRadius, outRadius)
	if err != nil {
		k.Discard(cyl)
		return nil, err
	}
	solid, err := k.Fuse(cyl, cone)
	if err != nil {
		k.Discard(cyl, cone)
		return nil, err
	}
	return &ChangeRadius{
		Length: length,
		piece: piece{
			solid:    solid,
			inlet:    Surface{Frame{Centre: r3.Vec{}, Direction: d}, inRadius},
			outlets:  []Surface{{Frame{Centre: r3.Scale(length, d), Direction: d}, outRadius}},
			centre:   r3.Scale(length/2, d),
			meshSize: meshSize,
		},
	}, nil
}

// Curve is a smooth bend swept along a circular arc of bendRadius.
type Curve struct {
	piece
	BendRadius float64
}

// NewCurve authors a bend whose inlet sits at the origin facing
// inDirection and whose outlet faces outDirection. The bend lies in
// the plane spanned by the two directions, so they must neither
// coincide nor be antiparallel. bendRadius must be at least 1.1 times
// the pipe radius or the inner wall degenerates.
func NewCurve(k occ.Kernel, radius float64, inDirection, outDirection r3.Vec, bendRadius, meshSize float64) (*Curve, error) {
	if err := positive("radius", radius); err != nil {
		return nil, err
	}
	if err := positive("mesh size", meshSize); err != nil {
		return nil, err
	}
	if bendRadius < 1.1*radius {
		return nil, fmt.Errorf("%w: bend radius %g below 1.1 pipe radius %g", ErrInvalidGeometry, bendRadius, radius)
	}
	din, err := unitDir("inlet", inDirection)
	if err != nil {
		return nil, err
	}
	dout, err := unitDir("outlet", outDirection)
	if err != nil {
		return nil, err
	}
	if d3.EqualWithin(din, dout, tolerance) {
		return nil, fmt.Errorf("%w: bend directions must differ", ErrInvalidGeometry)
	}
	if d3.EqualWithin(r3.Scale(-1, din), dout, tolerance) {
		return nil, fmt.Errorf("%w: antiparallel directions leave the bend plane undefined", ErrInvalidGeometry)
	}
	cross := r3.Cross(din, dout)
	angle := math.Atan2(r3.Norm(cross), r3.Dot(din, dout))
	axis := r3.Unit(cross)
	// Centre of revolution: bendRadius along the component of the
	// outlet direction perpendicular to the inlet direction.
	u := r3.Unit(r3.Sub(dout, r3.Scale(r3.Dot(din, dout), din)))
	c := r3.Scale(bendRadius, u)

	solid, err := k.Revolve(r3.Vec{}, din, radius, c, axis, angle)
	if err != nil {
		return nil, err
	}
	rot := r3.NewRotation(angle, axis)
	outCentre := r3.Add(c, rot.Rotate(r3.Scale(-1, c)))
	mid := r3.Add(c, r3.NewRotation(angle/2, axis).Rotate(r3.Scale(-1, c)))
	return &Curve{
		BendRadius: bendRadius,
		piece: piece{
			solid:    solid,
			inlet:    Surface{Frame{Centre: r3.Vec{}, Direction: din}, radius},
			outlets:  []Surface{{Frame{Centre: outCentre, Direction: dout}, radius}},
			centre:   mid,
			meshSize: meshSize,
		},
	}, nil
}

// Mitered is a sharp bend: two straight stubs meeting at a planar
// miter cut bisecting the turn.
type Mitered struct {
	piece
}

func NewMitered(k occ.Kernel, radius float64, inDirection, outDirection r3.Vec, meshSize float64) (*Mitered, error) {
	if err := positive("radius", radius); err != nil {
		return nil, err
	}
	if err := positive("mesh size", meshSize); err != nil {
		return nil, err
	}
	din, err := unitDir("inlet", inDirection)
	if err != nil {
		return nil, err
	}
	dout, err := unitDir("outlet", outDirection)
	if err != nil {
		return nil, err
	}
	if d3.EqualWithin(din, dout, tolerance) {
		return nil, fmt.Errorf("%w: miter directions must differ", ErrInvalidGeometry)
	}
	if d3.EqualWithin(r3.Scale(-1, din), dout, tolerance) {
		return nil, fmt.Errorf("%w: antiparallel directions leave the miter plane undefined", ErrInvalidGeometry)
	}
	angle := math.Atan2(r3.Norm(r3.Cross(din, dout)), r3.Dot(din, dout))
	// Stub length past the elliptical cut, as in a standard miter.
	h := 2.1 * radius * math.Tan(angle/2)
	over := radius*math.Tan(angle/2) + 0.1*radius
	m := r3.Unit(r3.Add(din, dout)) // miter plane normal
	joint := r3.Scale(h, din)
	extent := 4 * (h + radius)

	cyl1, err := k.Cylinder(r3.Vec{}, r3.Scale(h+over, din), radius)
	if err != nil {
		return nil, err
	}
	cut1, err := k.CutPlane(cyl1, joint, m, extent)
	if err != nil {
		k.Discard(cyl1)
		return nil, err
	}
	cyl2, err := k.Cylinder(r3.Sub(joint, r3.Scale(over, dout)), r3.Scale(h+over, dout), radius)
	if err != nil {
		k.Discard(cut1)
		return nil, err
	}
	cut2, err := k.CutPlane(cyl2, joint, r3.Scale(-1, m), extent)
	if err != nil {
		k.Discard(cut1, cyl2)
		return nil, err
	}
	solid, err := k.Fuse(cut1, cut2)
	if err != nil {
		k.Discard(cut1, cut2)
		return nil, err
	}
	return &Mitered{
		piece: piece{
			solid:    solid,
			inlet:    Surface{Frame{Centre: r3.Vec{}, Direction: din}, radius},
			outlets:  []Surface{{Frame{Centre: r3.Add(joint, r3.Scale(h, dout)), Direction: dout}, radius}},
			centre:   joint,
			meshSize: meshSize,
		},
	}, nil
}

// TJunction is a main pipe run with a branch pipe joining it,
// exposing two outlets: the main run first, then the branch.
type TJunction struct {
	piece
}

func NewTJunction(k occ.Kernel, radius, tRadius float64, direction, tDirection r3.Vec, meshSize float64) (*TJunction, error) {
	if err := positive("radius", radius); err != nil {
		return nil, err
	}
	if err := positive("branch radius", tRadius); err != nil {
		return nil, err
	}
	if tRadius > radius {
		return nil, fmt.Errorf("%w: branch radius %g exceeds pipe radius %g", ErrInvalidGeometry, tRadius, radius)
	}
	if err := positive("mesh size", meshSize); err != nil {
		return nil, err
	}
	d, err := unitDir("pipe", direction)
	if err != nil {
		return nil, err
	}
	t, err := unitDir("branch", tDirection)
	if err != nil {
		return nil, err
	}
	if d3.EqualWithin(d, t, tolerance) || d3.EqualWithin(r3.Scale(-1, d), t, tolerance) {
		return nil, fmt.Errorf("%w: branch direction must differ from the pipe axis", ErrInvalidGeometry)
	}
	angle := math.Atan2(r3.Norm(r3.Cross(d, t)), r3.Dot(d, t))
	beta := math.Abs(math.Pi/2 - angle)
	// Run lengths that let the branch emerge cleanly from the main
	// pipe wall on both sides of the junction. The long run goes on
	// the side the branch tilts toward, or the branch would cut
	// through the short run's end face.
	height := radius*math.Tan(beta) + radius/math.Cos(beta)
	heightShort := radius * math.Cos(beta)
	hIn := 1.1 * heightShort
	hOut := 1.1 * height
	if r3.Dot(d, t) < 0 {
		hIn, hOut = hOut, hIn
	}
	hBranch := 1.1 * height
	junction := r3.Scale(hIn, d)

	main, err := k.Cylinder(r3.Vec{}, r3.Scale(hIn+hOut, d), radius)
	if err != nil {
		return nil, err
	}
	branch, err := k.Cylinder(junction, r3.Scale(hBranch, t), tRadius)
	if err != nil {
		k.Discard(main)
		return nil, err
	}
	solid, err := k.Fuse(main, branch)
	if err != nil {
		k.Discard(main, branch)
		return nil, err
	}
	return &TJunction{
		piece: piece{
			solid: solid,
			inlet: Surface{Frame{Centre: r3.Vec{}, Direction: d}, radius},
			outlets: []Surface{
				{Frame{Centre: r3.Scale(hIn+hOut, d), Direction: d}, radius},
				{Frame{Centre: r3.Add(junction, r3.Scale(hBranch, t)), Direction: t}, tRadius},
			},
			centre:   junction,
			meshSize: meshSize,
		},
	}, nil
}
