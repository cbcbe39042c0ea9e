package pipemesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Inflow boundary-condition helpers. A velocity vector for a tagged
// boundary points into the network, opposite the face's outward
// normal, so a positive magnitude always means inflow.

func (n *Network) boundaryByID(physID int) (Boundary, error) {
	for _, b := range n.boundaries {
		if b.PhysID == physID {
			return b, nil
		}
	}
	return Boundary{}, fmt.Errorf("%w: physical surface %d is not a flow boundary", ErrInvalidOutlet, physID)
}

func (n *Network) checkInflowIDs(physIDs []int) error {
	if !n.finalized {
		return fmt.Errorf("pipemesh: network not finalized")
	}
	if len(physIDs) == 0 {
		return fmt.Errorf("pipemesh: no boundary surfaces given")
	}
	// At least one flow boundary must stay pressure-driven or the
	// problem is overconstrained.
	if len(physIDs) >= len(n.boundaries) {
		return fmt.Errorf("pipemesh: all %d flow boundaries given a velocity, at least one must be left open", len(n.boundaries))
	}
	seen := make(map[int]bool, len(physIDs))
	for _, id := range physIDs {
		if seen[id] {
			return fmt.Errorf("pipemesh: physical surface %d listed twice", id)
		}
		seen[id] = true
	}
	return nil
}

// VelocitiesByMagnitude returns inflow velocity vectors of the given
// magnitude for each listed boundary surface, ordered like physIDs.
func (n *Network) VelocitiesByMagnitude(physIDs []int, magnitude float64) ([]r3.Vec, error) {
	if err := n.checkInflowIDs(physIDs); err != nil {
		return nil, err
	}
	vels := make([]r3.Vec, len(physIDs))
	mag := math.Abs(magnitude)
	for i, id := range physIDs {
		b, err := n.boundaryByID(id)
		if err != nil {
			return nil, err
		}
		vels[i] = r3.Scale(-mag, b.Surface.Frame.Direction)
	}
	return vels, nil
}

// VelocitiesByReynolds returns inflow velocity vectors for each listed
// boundary surface such that the pipe-diameter Reynolds number of the
// flow equals reynolds, given the fluid density and dynamic viscosity.
func (n *Network) VelocitiesByReynolds(physIDs []int, reynolds, density, viscosity float64) ([]r3.Vec, error) {
	if err := n.checkInflowIDs(physIDs); err != nil {
		return nil, err
	}
	if density <= 0 || viscosity <= 0 {
		return nil, fmt.Errorf("pipemesh: density and viscosity must be > 0")
	}
	vels := make([]r3.Vec, len(physIDs))
	re := math.Abs(reynolds)
	for i, id := range physIDs {
		b, err := n.boundaryByID(id)
		if err != nil {
			return nil, err
		}
		mag := re * viscosity / (2 * b.Surface.Radius * density)
		vels[i] = r3.Scale(-mag, b.Surface.Frame.Direction)
	}
	return vels, nil
}
