package pipemesh

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/meshbits/pipemesh/occ"
)

// OpenOutlet is an outlet face not yet extended by a downstream
// piece.
type OpenOutlet struct {
	Piece Piece
	Index int // outlet index within the piece
}

// Surface returns the outlet face in its current (transformed)
// position.
func (o OpenOutlet) Surface() Surface { return o.Piece.Outlets()[o.Index] }

// Factory builds a piece that will be attached at the face at. The
// face carries the radius and outward direction of the outlet being
// extended.
type Factory func(k occ.Kernel, at Surface) (Piece, error)

// Network is a tree of pipe pieces under assembly. It owns every
// piece solid until Generate hands the fused result to the kernel.
// All methods must be called from one goroutine; the kernel holds a
// single mutable model.
type Network struct {
	kernel    occ.Kernel
	pieces    []Piece
	open      map[int]OpenOutlet
	nextOut   int // last outlet number issued; numbers are never reused
	adds      int
	finalized bool

	boundaries []Boundary
	wallID     int
	volumeID   int
}

// New starts a network from a seed cylinder of the given length and
// radius with its inlet at the origin facing direction. meshSize is
// both the seed's hint and the network's maximum element size.
func New(k occ.Kernel, length, radius float64, direction r3.Vec, meshSize float64) (*Network, error) {
	seed, err := NewCylinder(k, length, radius, direction, meshSize)
	if err != nil {
		return nil, err
	}
	k.MaxElementSize(meshSize)
	n := &Network{kernel: k, open: make(map[int]OpenOutlet)}
	n.pieces = append(n.pieces, seed)
	n.trackOutlets(seed)
	return n, nil
}

func (n *Network) trackOutlets(p Piece) {
	for i := range p.Outlets() {
		n.nextOut++
		n.open[n.nextOut] = OpenOutlet{Piece: p, Index: i}
	}
}

// openNumbers returns the currently open outlet numbers in ascending
// order.
func (n *Network) openNumbers() []int {
	nums := make([]int, 0, len(n.open))
	for num := range n.open {
		nums = append(nums, num)
	}
	sort.Ints(nums)
	return nums
}

// OpenOutlets returns the open outlets keyed by outlet number.
func (n *Network) OpenOutlets() map[int]OpenOutlet {
	out := make(map[int]OpenOutlet, len(n.open))
	for num, o := range n.open {
		out[num] = o
	}
	return out
}

// Pieces returns the assembled pieces in attachment order.
func (n *Network) Pieces() []Piece {
	return append([]Piece(nil), n.pieces...)
}

func (n *Network) resolveOutlet(outNumber int) (int, OpenOutlet, error) {
	if outNumber == 0 {
		// Default policy: extend the lowest-numbered open outlet.
		// For a linear chain that is the single open end; after a
		// junction it is the main run.
		nums := n.openNumbers()
		if len(nums) == 0 {
			return 0, OpenOutlet{}, fmt.Errorf("%w: network has no open outlets", ErrInvalidOutlet)
		}
		outNumber = nums[0]
	}
	o, ok := n.open[outNumber]
	if !ok {
		return 0, OpenOutlet{}, fmt.Errorf("%w: outlet %d", ErrInvalidOutlet, outNumber)
	}
	return outNumber, o, nil
}

// Add attaches the piece built by factory to the open outlet
// outNumber (0 selects the default outlet, see resolveOutlet). The
// piece is constructed canonically, then rigidly moved so its inlet
// frame coincides with the outlet frame. Either the piece is fully
// attached and its outlets registered, or the network is unchanged.
func (n *Network) Add(factory Factory, outNumber int) error {
	if n.finalized {
		return ErrNetworkFinalized
	}
	num, outlet, err := n.resolveOutlet(outNumber)
	if err != nil {
		return err
	}
	at := outlet.Surface()
	p, err := factory(n.kernel, at)
	if err != nil {
		return err
	}
	axis, angle, delta := alignment(p.Inlet().Frame, at.Frame)
	if err := p.transform(n.kernel, axis, angle, delta); err != nil {
		n.kernel.Discard(p.Solid())
		return err
	}
	delete(n.open, num)
	n.pieces = append(n.pieces, p)
	n.adds++
	n.trackOutlets(p)
	return nil
}

// AddCylinder extends outlet outNumber with a straight pipe of the
// outlet's radius.
func (n *Network) AddCylinder(length, meshSize float64, outNumber int) error {
	return n.Add(func(k occ.Kernel, at Surface) (Piece, error) {
		return NewCylinder(k, length, at.Radius, at.Frame.Direction, meshSize)
	}, outNumber)
}

// AddChangeRadius extends outlet outNumber with a piece that narrows
// or widens the pipe to newRadius over the final changeLength.
func (n *Network) AddChangeRadius(length, newRadius, changeLength, meshSize float64, outNumber int) error {
	return n.Add(func(k occ.Kernel, at Surface) (Piece, error) {
		return NewChangeRadius(k, length, changeLength, at.Radius, newRadius, at.Frame.Direction, meshSize)
	}, outNumber)
}

// AddCurve extends outlet outNumber with a smooth bend turning the
// pipe to face newDirection.
func (n *Network) AddCurve(newDirection r3.Vec, bendRadius, meshSize float64, outNumber int) error {
	return n.Add(func(k occ.Kernel, at Surface) (Piece, error) {
		return NewCurve(k, at.Radius, at.Frame.Direction, newDirection, bendRadius, meshSize)
	}, outNumber)
}

// AddMitered extends outlet outNumber with a sharp bend turning the
// pipe to face newDirection.
func (n *Network) AddMitered(newDirection r3.Vec, meshSize float64, outNumber int) error {
	return n.Add(func(k occ.Kernel, at Surface) (Piece, error) {
		return NewMitered(k, at.Radius, at.Frame.Direction, newDirection, meshSize)
	}, outNumber)
}

// AddTJunction extends outlet outNumber with a T-junction whose
// branch inlet faces tDirection. tRadius <= 0 defaults to the pipe
// radius. The junction opens two outlets: the main run first, then
// the branch.
func (n *Network) AddTJunction(tDirection r3.Vec, tRadius, meshSize float64, outNumber int) error {
	return n.Add(func(k occ.Kernel, at Surface) (Piece, error) {
		if tRadius <= 0 {
			tRadius = at.Radius
		}
		return NewTJunction(k, at.Radius, tRadius, at.Frame.Direction, tDirection, meshSize)
	}, outNumber)
}

// Rotate rotates the whole network by angle about the axis through
// the origin.
func (n *Network) Rotate(axis r3.Vec, angle float64) error {
	if n.finalized {
		return ErrNetworkFinalized
	}
	a, err := unitDir("rotation axis", axis)
	if err != nil {
		return err
	}
	for _, p := range n.pieces {
		if err := p.transform(n.kernel, a, angle, r3.Vec{}); err != nil {
			return err
		}
	}
	return nil
}

// Translate moves the whole network by delta.
func (n *Network) Translate(delta r3.Vec) error {
	if n.finalized {
		return ErrNetworkFinalized
	}
	for _, p := range n.pieces {
		if err := p.transform(n.kernel, r3.Vec{X: 1}, 0, delta); err != nil {
			return err
		}
	}
	return nil
}
