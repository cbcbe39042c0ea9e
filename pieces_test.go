package pipemesh

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/meshbits/pipemesh/internal/d3"
	"github.com/meshbits/pipemesh/occ/occtest"
)

const testTol = 1e-9

func checkSurface(t *testing.T, name string, got Surface, centre, dir r3.Vec, radius float64) {
	t.Helper()
	if !d3.EqualWithin(got.Frame.Centre, centre, testTol) {
		t.Errorf("%s centre=%v, want %v", name, got.Frame.Centre, centre)
	}
	if !d3.EqualWithin(got.Frame.Direction, dir, testTol) {
		t.Errorf("%s direction=%v, want %v", name, got.Frame.Direction, dir)
	}
	if math.Abs(got.Radius-radius) > testTol {
		t.Errorf("%s radius=%v, want %v", name, got.Radius, radius)
	}
}

func TestNewCylinder(t *testing.T) {
	k := occtest.New()
	c, err := NewCylinder(k, 2, 0.5, r3.Vec{Z: 3}, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	checkSurface(t, "inlet", c.Inlet(), r3.Vec{}, r3.Vec{Z: 1}, 0.5)
	if len(c.Outlets()) != 1 {
		t.Fatalf("got %d outlets, want 1", len(c.Outlets()))
	}
	checkSurface(t, "outlet", c.Outlets()[0], r3.Vec{Z: 2}, r3.Vec{Z: 1}, 0.5)
	if !d3.EqualWithin(c.Centre(), r3.Vec{Z: 1}, testTol) {
		t.Errorf("centre=%v, want %v", c.Centre(), r3.Vec{Z: 1})
	}
	if c.MeshSize() != 0.1 {
		t.Errorf("mesh size=%v, want 0.1", c.MeshSize())
	}
}

func TestNewCylinderInvalid(t *testing.T) {
	k := occtest.New()
	for _, tc := range []struct {
		name                     string
		length, radius, meshSize float64
		dir                      r3.Vec
	}{
		{"zero length", 0, 1, 0.1, r3.Vec{Z: 1}},
		{"negative radius", 1, -1, 0.1, r3.Vec{Z: 1}},
		{"zero direction", 1, 1, 0.1, r3.Vec{}},
		{"zero mesh size", 1, 1, 0, r3.Vec{Z: 1}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCylinder(k, tc.length, tc.radius, tc.dir, tc.meshSize)
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Fatalf("err=%v, want ErrInvalidGeometry", err)
			}
		})
	}
	if k.LiveSolids() != 0 {
		t.Errorf("%d solids leaked by rejected constructors", k.LiveSolids())
	}
}

func TestNewChangeRadius(t *testing.T) {
	k := occtest.New()
	c, err := NewChangeRadius(k, 1, 0.4, 0.5, 0.25, r3.Vec{X: 1}, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	checkSurface(t, "inlet", c.Inlet(), r3.Vec{}, r3.Vec{X: 1}, 0.5)
	checkSurface(t, "outlet", c.Outlets()[0], r3.Vec{X: 1}, r3.Vec{X: 1}, 0.25)
	if k.LiveSolids() != 1 {
		t.Errorf("%d live solids, want 1 fused piece", k.LiveSolids())
	}
}

func TestNewChangeRadiusInvalid(t *testing.T) {
	k := occtest.New()
	if _, err := NewChangeRadius(k, 1, 1.5, 0.5, 0.25, r3.Vec{X: 1}, 0.1); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("change length > length: err=%v, want ErrInvalidGeometry", err)
	}
	if _, err := NewChangeRadius(k, 1, 0.4, 0.5, 0.5, r3.Vec{X: 1}, 0.1); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("equal radii: err=%v, want ErrInvalidGeometry", err)
	}
	if k.LiveSolids() != 0 {
		t.Errorf("%d solids leaked by rejected constructors", k.LiveSolids())
	}
}

func TestNewCurve(t *testing.T) {
	k := occtest.New()
	c, err := NewCurve(k, 0.1, r3.Vec{Z: 1}, r3.Vec{X: 1}, 0.5, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	checkSurface(t, "inlet", c.Inlet(), r3.Vec{}, r3.Vec{Z: 1}, 0.1)
	// Quarter bend in the xz plane around (0.5, 0, 0).
	checkSurface(t, "outlet", c.Outlets()[0], r3.Vec{X: 0.5, Z: 0.5}, r3.Vec{X: 1}, 0.1)
	s := math.Sqrt2 / 2
	wantMid := r3.Vec{X: 0.5 * (1 - s), Z: 0.5 * s}
	if !d3.EqualWithin(c.Centre(), wantMid, testTol) {
		t.Errorf("centre=%v, want arc midpoint %v", c.Centre(), wantMid)
	}
}

func TestNewCurveInvalid(t *testing.T) {
	k := occtest.New()
	for _, tc := range []struct {
		name       string
		in, out    r3.Vec
		bendRadius float64
	}{
		{"tight bend", r3.Vec{Z: 1}, r3.Vec{X: 1}, 0.05},
		{"same direction", r3.Vec{Z: 1}, r3.Vec{Z: 2}, 0.5},
		{"antiparallel", r3.Vec{Z: 1}, r3.Vec{Z: -1}, 0.5},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCurve(k, 0.1, tc.in, tc.out, tc.bendRadius, 0.05)
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Fatalf("err=%v, want ErrInvalidGeometry", err)
			}
		})
	}
}

func TestNewMitered(t *testing.T) {
	k := occtest.New()
	m, err := NewMitered(k, 0.1, r3.Vec{Z: 1}, r3.Vec{X: 1}, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	h := 2.1 * 0.1 * math.Tan(math.Pi/4)
	checkSurface(t, "inlet", m.Inlet(), r3.Vec{}, r3.Vec{Z: 1}, 0.1)
	checkSurface(t, "outlet", m.Outlets()[0], r3.Vec{X: h, Z: h}, r3.Vec{X: 1}, 0.1)
	if !d3.EqualWithin(m.Centre(), r3.Vec{Z: h}, testTol) {
		t.Errorf("centre=%v, want joint %v", m.Centre(), r3.Vec{Z: h})
	}
	if k.LiveSolids() != 1 {
		t.Errorf("%d live solids, want 1 fused piece", k.LiveSolids())
	}
}

func TestNewTJunction(t *testing.T) {
	k := occtest.New()
	j, err := NewTJunction(k, 0.1, 0.1, r3.Vec{Z: 1}, r3.Vec{X: 1}, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	checkSurface(t, "inlet", j.Inlet(), r3.Vec{}, r3.Vec{Z: 1}, 0.1)
	outs := j.Outlets()
	if len(outs) != 2 {
		t.Fatalf("got %d outlets, want 2", len(outs))
	}
	// Main run first, branch second.
	checkSurface(t, "main outlet", outs[0], r3.Vec{Z: 0.22}, r3.Vec{Z: 1}, 0.1)
	checkSurface(t, "branch outlet", outs[1], r3.Vec{X: 0.11, Z: 0.11}, r3.Vec{X: 1}, 0.1)
}

func TestNewTJunctionObtuseBranch(t *testing.T) {
	// A branch tilted against the run direction must put the long run
	// on the inlet side; otherwise the branch cylinder cuts through
	// the inlet face and the inlet is not a connectable surface.
	k := occtest.New()
	tdir := r3.Unit(r3.Vec{X: 1, Z: -1})
	j, err := NewTJunction(k, 0.1, 0.1, r3.Vec{Z: 1}, tdir, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	beta := math.Pi / 4
	height := 0.1*math.Tan(beta) + 0.1/math.Cos(beta)
	heightShort := 0.1 * math.Cos(beta)
	hIn := 1.1 * height
	hOut := 1.1 * heightShort
	junction := r3.Vec{Z: hIn}
	if !d3.EqualWithin(j.Centre(), junction, testTol) {
		t.Errorf("junction=%v, want long run %v on the tilt side", j.Centre(), junction)
	}
	outs := j.Outlets()
	checkSurface(t, "main outlet", outs[0], r3.Vec{Z: hIn + hOut}, r3.Vec{Z: 1}, 0.1)
	checkSurface(t, "branch outlet", outs[1], r3.Add(junction, r3.Scale(1.1*height, tdir)), tdir, 0.1)

	// The branch axis reaches the inlet plane outside the inlet disk.
	s := junction.Z / -tdir.Z
	cross := r3.Add(junction, r3.Scale(s, tdir))
	if lateral := math.Hypot(cross.X, cross.Y); lateral <= 0.1 {
		t.Errorf("branch axis meets the inlet plane %g from the axis, inside the inlet radius", lateral)
	}
}

func TestNewTJunctionInvalid(t *testing.T) {
	k := occtest.New()
	if _, err := NewTJunction(k, 0.1, 0.2, r3.Vec{Z: 1}, r3.Vec{X: 1}, 0.05); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("oversized branch: err=%v, want ErrInvalidGeometry", err)
	}
	if _, err := NewTJunction(k, 0.1, 0.1, r3.Vec{Z: 1}, r3.Vec{Z: -1}, 0.05); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("branch along axis: err=%v, want ErrInvalidGeometry", err)
	}
}

func TestPieceConstructorCleanup(t *testing.T) {
	// A kernel failure mid-construction must not leak the partial
	// solids.
	k := occtest.New()
	k.FailFuse = errors.New("boom")
	if _, err := NewChangeRadius(k, 1, 0.4, 0.5, 0.25, r3.Vec{X: 1}, 0.1); err == nil {
		t.Fatal("want error from injected fusion failure")
	}
	if k.LiveSolids() != 0 {
		t.Errorf("%d solids leaked after failed construction", k.LiveSolids())
	}
}
