// Package occtest provides an in-memory occ.Kernel for tests. It
// tracks solid handles and tag assignments exactly like the real
// kernel, performs no geometry, and can inject failures into the
// operations that fail in practice.
package occtest

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/meshbits/pipemesh/occ"
)

// TaggedSurface records one TagSurface call.
type TaggedSurface struct {
	ID      int
	Centre  r3.Vec
	Outward r3.Vec
	Radius  float64
}

// Kernel is a fake occ.Kernel. The zero value is not usable; create
// with New.
type Kernel struct {
	// FailFuse, when set, is returned from the next Fuse call.
	FailFuse error
	// FailRotate, when set, is returned from the next Rotate call.
	FailRotate error
	// FailOverlap, when set, is returned from the next CheckOverlap
	// call, simulating two pieces sharing volume.
	FailOverlap error

	live      map[occ.Solid]bool
	next      occ.Solid
	nextPhys  int
	FuseCount int

	MaxSize float64
	Fields  []occ.SizeField

	Tagged    []TaggedSurface
	WallID    int
	VolumeID  int
	MeshedDim int

	// OverlapChecks counts CheckOverlap calls.
	OverlapChecks int
}

var _ occ.Kernel = (*Kernel)(nil)

func New() *Kernel {
	return &Kernel{live: make(map[occ.Solid]bool)}
}

// LiveSolids returns the number of solids created and neither
// discarded nor consumed by a Boolean operation.
func (k *Kernel) LiveSolids() int { return len(k.live) }

func (k *Kernel) newSolid() (occ.Solid, error) {
	k.next++
	k.live[k.next] = true
	return k.next, nil
}

func (k *Kernel) consume(op string, solids ...occ.Solid) error {
	for _, s := range solids {
		if !k.live[s] {
			return fmt.Errorf("occtest: %s on dead solid %d", op, s)
		}
		delete(k.live, s)
	}
	return nil
}

func (k *Kernel) Cylinder(base, axis r3.Vec, radius float64) (occ.Solid, error) {
	return k.newSolid()
}

func (k *Kernel) Cone(base, axis r3.Vec, baseRadius, topRadius float64) (occ.Solid, error) {
	return k.newSolid()
}

func (k *Kernel) Revolve(diskCentre, diskNormal r3.Vec, diskRadius float64, axisPoint, axisDir r3.Vec, angle float64) (occ.Solid, error) {
	return k.newSolid()
}

func (k *Kernel) CutPlane(s occ.Solid, point, normal r3.Vec, extent float64) (occ.Solid, error) {
	if err := k.consume("CutPlane", s); err != nil {
		return 0, err
	}
	return k.newSolid()
}

func (k *Kernel) CheckOverlap(solids []occ.Solid) error {
	if err := k.FailOverlap; err != nil {
		k.FailOverlap = nil
		return err
	}
	for _, s := range solids {
		if !k.live[s] {
			return fmt.Errorf("occtest: CheckOverlap on dead solid %d", s)
		}
	}
	k.OverlapChecks++
	return nil
}

func (k *Kernel) Fuse(obj occ.Solid, tools ...occ.Solid) (occ.Solid, error) {
	if err := k.FailFuse; err != nil {
		k.FailFuse = nil
		return 0, err
	}
	if err := k.consume("Fuse", append([]occ.Solid{obj}, tools...)...); err != nil {
		return 0, err
	}
	k.FuseCount++
	return k.newSolid()
}

func (k *Kernel) Rotate(solids []occ.Solid, point, axis r3.Vec, angle float64) error {
	if err := k.FailRotate; err != nil {
		k.FailRotate = nil
		return err
	}
	for _, s := range solids {
		if !k.live[s] {
			return fmt.Errorf("occtest: Rotate on dead solid %d", s)
		}
	}
	return nil
}

func (k *Kernel) Translate(solids []occ.Solid, delta r3.Vec) error {
	for _, s := range solids {
		if !k.live[s] {
			return fmt.Errorf("occtest: Translate on dead solid %d", s)
		}
	}
	return nil
}

func (k *Kernel) Discard(solids ...occ.Solid) error {
	return k.consume("Discard", solids...)
}

func (k *Kernel) MaxElementSize(size float64) { k.MaxSize = size }

func (k *Kernel) SetSizeFields(fields []occ.SizeField) error {
	k.Fields = append([]occ.SizeField(nil), fields...)
	return nil
}

func (k *Kernel) TagSurface(centre, outward r3.Vec, radius float64) (int, error) {
	k.nextPhys++
	k.Tagged = append(k.Tagged, TaggedSurface{ID: k.nextPhys, Centre: centre, Outward: outward, Radius: radius})
	return k.nextPhys, nil
}

func (k *Kernel) TagWalls(volume occ.Solid) (int, error) {
	if !k.live[volume] {
		return 0, fmt.Errorf("occtest: TagWalls on dead solid %d", volume)
	}
	k.nextPhys++
	k.WallID = k.nextPhys
	return k.nextPhys, nil
}

func (k *Kernel) TagVolume(volume occ.Solid) (int, error) {
	if !k.live[volume] {
		return 0, fmt.Errorf("occtest: TagVolume on dead solid %d", volume)
	}
	k.nextPhys++
	k.VolumeID = k.nextPhys
	return k.nextPhys, nil
}

func (k *Kernel) Mesh(ctx context.Context, dim int) error {
	k.MeshedDim = dim
	return nil
}

// Write emits a well-formed single-tetrahedron MSH file at path. The
// header reflects the requested version and encoding; the body is
// always ASCII.
func (k *Kernel) Write(ctx context.Context, path string, opts occ.WriteOptions) error {
	if k.MeshedDim != 3 {
		return fmt.Errorf("occtest: Write before 3D mesh")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	bin := 0
	if opts.Binary {
		bin = 1
	}
	fmt.Fprintf(w, "$MeshFormat\n%s %d 8\n$EndMeshFormat\n", opts.Format.Version(), bin)
	if opts.Format == occ.FormatMSH41 {
		fmt.Fprint(w, "$Nodes\n1 4 1 4\n3 1 0 4\n1\n2\n3\n4\n0 0 0\n1 0 0\n0 1 0\n0 0 1\n$EndNodes\n")
		fmt.Fprintf(w, "$Elements\n1 1 1 1\n3 1 4 1\n1 1 2 3 4\n$EndElements\n")
	} else {
		fmt.Fprint(w, "$Nodes\n4\n1 0 0 0\n2 1 0 0\n3 0 1 0\n4 0 0 1\n$EndNodes\n")
		fmt.Fprintf(w, "$Elements\n1\n1 4 2 %d 1 1 2 3 4\n$EndElements\n", k.VolumeID)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (k *Kernel) View(ctx context.Context) error { return nil }
