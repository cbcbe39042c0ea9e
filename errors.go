package pipemesh

import "errors"

// Error kinds reported by the assembly. All are detected eagerly at
// the call that violates the contract and none is retried; match with
// errors.Is.
var (
	// ErrInvalidGeometry reports non-physical piece parameters: a
	// non-positive length, radius or mesh size, or a zero direction.
	ErrInvalidGeometry = errors.New("pipemesh: invalid geometry")
	// ErrInvalidOutlet reports an outlet number that is not currently
	// open.
	ErrInvalidOutlet = errors.New("pipemesh: outlet not open")
	// ErrNetworkFinalized reports a mutation attempted after Generate.
	ErrNetworkFinalized = errors.New("pipemesh: network finalized")
	// ErrFusionFailed reports a kernel-level Boolean fusion failure,
	// typically from self-intersecting chained geometry. The network
	// is unusable afterwards.
	ErrFusionFailed = errors.New("pipemesh: fusion failed")
)
