package occ

import (
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestScriptCylinder(t *testing.T) {
	k := NewScript(nil)
	s, err := k.Cylinder(r3.Vec{}, r3.Vec{Z: 2}, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if s != 1 {
		t.Fatalf("solid handle=%d, want 1", s)
	}
	want := "v1 = newv; Cylinder(v1) = {0, 0, 0, 0, 0, 2, 0.5};"
	if got := k.Program(); got != want {
		t.Fatalf("program:\n%s\nwant:\n%s", got, want)
	}
}

func TestScriptFuse(t *testing.T) {
	k := NewScript(nil)
	a, _ := k.Cylinder(r3.Vec{}, r3.Vec{Z: 1}, 0.5)
	b, _ := k.Cone(r3.Vec{Z: 1}, r3.Vec{Z: 1}, 0.5, 0.25)
	fused, err := k.Fuse(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if fused == a || fused == b {
		t.Fatalf("fused handle %d not fresh", fused)
	}
	prog := k.Program()
	if !strings.Contains(prog, "BooleanUnion { Volume{v1}; Delete; } { Volume{v2}; Delete; }") {
		t.Fatalf("missing BooleanUnion:\n%s", prog)
	}

	// Fusing with no tools is the identity.
	same, err := k.Fuse(fused)
	if err != nil {
		t.Fatal(err)
	}
	if same != fused {
		t.Fatalf("no-tool fuse returned %d, want %d", same, fused)
	}
}

func TestScriptCheckOverlap(t *testing.T) {
	k := NewScript(nil)
	a, _ := k.Cylinder(r3.Vec{}, r3.Vec{Z: 1}, 0.5)
	b, _ := k.Cylinder(r3.Vec{Z: 1}, r3.Vec{Z: 1}, 0.5)
	c, _ := k.Cylinder(r3.Vec{Z: 2}, r3.Vec{Z: 1}, 0.5)
	if err := k.CheckOverlap([]Solid{a, b, c}); err != nil {
		t.Fatal(err)
	}
	prog := k.Program()
	// One intersection per pair, each guarded.
	for _, want := range []string{
		"BooleanIntersection { Volume{v1}; } { Volume{v2}; }",
		"BooleanIntersection { Volume{v1}; } { Volume{v3}; }",
		"BooleanIntersection { Volume{v2}; } { Volume{v3}; }",
		`Error("pieces v1 and v2 overlap");`,
	} {
		if !strings.Contains(prog, want) {
			t.Errorf("program missing %q:\n%s", want, prog)
		}
	}
	if strings.Contains(prog, "Delete") {
		t.Errorf("overlap check must keep its inputs:\n%s", prog)
	}
}

func TestScriptRevolveSkipsTrivialRotate(t *testing.T) {
	k := NewScript(nil)
	// Disk normal is already +z; no Rotate must be emitted.
	if _, err := k.Revolve(r3.Vec{}, r3.Vec{Z: 1}, 0.1, r3.Vec{X: 0.5}, r3.Vec{Y: 1}, math.Pi/2); err != nil {
		t.Fatal(err)
	}
	prog := k.Program()
	if strings.Contains(prog, "Rotate") {
		t.Fatalf("unexpected Rotate for +z disk:\n%s", prog)
	}
	if !strings.Contains(prog, "Extrude") {
		t.Fatalf("missing Extrude:\n%s", prog)
	}
}

func TestScriptTagOrder(t *testing.T) {
	k := NewScript(nil)
	v, _ := k.Cylinder(r3.Vec{}, r3.Vec{Z: 1}, 0.5)
	id1, _ := k.TagSurface(r3.Vec{}, r3.Vec{Z: -1}, 0.5)
	id2, _ := k.TagSurface(r3.Vec{Z: 1}, r3.Vec{Z: 1}, 0.5)
	walls, _ := k.TagWalls(v)
	vol, _ := k.TagVolume(v)
	if id1 != 1 || id2 != 2 || walls != 3 || vol != 4 {
		t.Fatalf("ids=%d,%d,%d,%d, want 1,2,3,4", id1, id2, walls, vol)
	}
	prog := k.Program()
	for _, want := range []string{
		"Physical Surface(1)",
		"Physical Surface(2)",
		"If (#st1() == 0)",
		`Error("physical surface 1 matched no boundary surface");`,
		"occwalls() -= occtagged();",
		"Physical Surface(3) = occwalls();",
		"Physical Volume(4) = {v1};",
	} {
		if !strings.Contains(prog, want) {
			t.Errorf("program missing %q:\n%s", want, prog)
		}
	}
}

func TestScriptSizeFields(t *testing.T) {
	k := NewScript(nil)
	k.MaxElementSize(0.2)
	err := k.SetSizeFields([]SizeField{
		{Centre: r3.Vec{Z: 0.5}, Size: 0.05, DistMin: 0.5, DistMax: 0.55},
		{Centre: r3.Vec{Z: 1.5}, Size: 0.02, DistMin: 0.5, DistMax: 0.55},
	})
	if err != nil {
		t.Fatal(err)
	}
	prog := k.Program()
	for _, want := range []string{
		"Field[1] = Distance;",
		"Field[2] = Threshold;",
		"Field[2].SizeMin = 0.05; Field[2].SizeMax = 0.2;",
		"Field[5] = Min; Field[5].FieldsList = {2, 4};",
		"Background Field = 5;",
	} {
		if !strings.Contains(prog, want) {
			t.Errorf("program missing %q:\n%s", want, prog)
		}
	}
}

func TestScriptRenderHeader(t *testing.T) {
	k := NewScript(nil)
	k.MaxElementSize(0.1)
	if _, err := k.Cylinder(r3.Vec{}, r3.Vec{Z: 1}, 0.5); err != nil {
		t.Fatal(err)
	}
	r := k.render()
	if !strings.HasPrefix(r, "SetFactory(\"OpenCASCADE\");\n") {
		t.Fatalf("missing factory header:\n%s", r)
	}
	if !strings.Contains(r, "General.AbortOnError = 2;") {
		t.Fatalf("script errors must abort the gmsh run:\n%s", r)
	}
	if !strings.Contains(r, "Mesh.CharacteristicLengthMax = 0.1;") {
		t.Fatalf("missing max size:\n%s", r)
	}
}

func TestFormatVersion(t *testing.T) {
	if got := FormatMSH2.Version(); got != "2.2" {
		t.Errorf("FormatMSH2.Version()=%q", got)
	}
	if got := FormatMSH41.Version(); got != "4.1" {
		t.Errorf("FormatMSH41.Version()=%q", got)
	}
}
