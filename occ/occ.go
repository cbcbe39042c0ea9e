// Package occ wraps the gmsh OpenCASCADE kernel behind an explicit
// session object. gmsh keeps one mutable CAD model per process, so a
// session must be driven from a single goroutine; keeping the session
// explicit (instead of package-level state) lets independent networks
// hold independent kernels and lets tests substitute an in-memory one.
//
// Implementations (Script, occtest.Kernel) provide solid construction
// and finalization behind this interface.
package occ

import (
	"context"

	"gonum.org/v1/gonum/spatial/r3"
)

// Solid is an opaque handle to a kernel-side solid volume.
type Solid int

// Format selects the MSH file version written by Write.
type Format int

const (
	// FormatMSH2 is the legacy 2.2 format, still the lingua franca of
	// downstream solvers.
	FormatMSH2 Format = iota
	// FormatMSH41 is the current 4.1 format.
	FormatMSH41
)

// Version returns the MSH format version string as written into file
// headers and Mesh.MshFileVersion.
func (f Format) Version() string {
	if f == FormatMSH41 {
		return "4.1"
	}
	return "2.2"
}

// WriteOptions control mesh file output.
type WriteOptions struct {
	Binary bool
	Format Format
}

// SizeField requests a local element size around a point, blended out
// to the session maximum between DistMin and DistMax.
type SizeField struct {
	Centre  r3.Vec
	Size    float64
	DistMin float64
	DistMax float64
}

// Kernel is the set of kernel operations the pipe assembly consumes.
// Errors from any call are fatal for the operation that issued them;
// no call is retried.
type Kernel interface {
	// Solid construction.
	Cylinder(base, axis r3.Vec, radius float64) (Solid, error)
	Cone(base, axis r3.Vec, baseRadius, topRadius float64) (Solid, error)
	// Revolve sweeps a disk about the axis through axisPoint to make a
	// bend segment.
	Revolve(diskCentre, diskNormal r3.Vec, diskRadius float64, axisPoint, axisDir r3.Vec, angle float64) (Solid, error)
	// CutPlane intersects s with the half-space on the back side of
	// the plane through point with the given outward normal. extent
	// must exceed the size of s.
	CutPlane(s Solid, point, normal r3.Vec, extent float64) (Solid, error)

	// CheckOverlap fails when any two of the solids share volume.
	// Solids touching at a face only are not an overlap.
	CheckOverlap(solids []Solid) error
	// Boolean fusion. The tool solids are consumed.
	Fuse(obj Solid, tools ...Solid) (Solid, error)

	// Rigid transforms, applied in place.
	Rotate(solids []Solid, point, axis r3.Vec, angle float64) error
	Translate(solids []Solid, delta r3.Vec) error
	// Discard drops solids that will not take part in the model.
	Discard(solids ...Solid) error

	// Finalization.
	MaxElementSize(size float64)
	SetSizeFields(fields []SizeField) error
	// TagSurface assigns the next physical id to the boundary surface
	// found at centre. Ids are assigned 1, 2, 3, ... in call order.
	TagSurface(centre, outward r3.Vec, radius float64) (int, error)
	// TagWalls groups every boundary surface of volume not yet tagged.
	TagWalls(volume Solid) (int, error)
	TagVolume(volume Solid) (int, error)
	Mesh(ctx context.Context, dim int) error
	Write(ctx context.Context, path string, opts WriteOptions) error
	// View opens the kernel's interactive viewer.
	View(ctx context.Context) error
}
