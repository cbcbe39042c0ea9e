package occ

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/meshbits/pipemesh/internal/d3"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// Script is a Kernel that records every operation as a gmsh .geo
// program using the OpenCASCADE factory and runs the gmsh executable
// once, at Write or View time. Solid handles map to geo variables, so
// the program stays valid whatever order gmsh assigns internal tags.
type Script struct {
	// GmshBin is the gmsh executable to invoke. Defaults to "gmsh" on
	// the PATH.
	GmshBin string

	log     *zap.Logger
	prog    []string
	nsolid  int // last Solid handle issued
	naux    int // auxiliary geo variables (disks, boxes, boolean results)
	nphys   int // last physical id issued
	npoint  int
	nfield  int
	maxSize float64
}

var _ Kernel = (*Script)(nil)

// NewScript returns an empty session. logger may be nil.
func NewScript(logger *zap.Logger) *Script {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Script{GmshBin: "gmsh", log: logger, maxSize: 0.3}
}

// Program returns the .geo program recorded so far, without the
// header. Useful for inspection and tests.
func (k *Script) Program() string {
	return strings.Join(k.prog, "\n")
}

func (k *Script) addf(format string, args ...any) {
	k.prog = append(k.prog, fmt.Sprintf(format, args...))
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func vec(v r3.Vec) string {
	return ftoa(v.X) + ", " + ftoa(v.Y) + ", " + ftoa(v.Z)
}

func vol(s Solid) string {
	return "v" + strconv.Itoa(int(s))
}

func (k *Script) newSolid() Solid {
	k.nsolid++
	return Solid(k.nsolid)
}

func (k *Script) newAux(prefix string) string {
	k.naux++
	return prefix + strconv.Itoa(k.naux)
}

// rotateLine emits a Rotate block unless the rotation is trivial.
func (k *Script) rotateLine(entity string, point, from, to r3.Vec) {
	axis, angle := d3.RotationBetween(from, to)
	if angle == 0 {
		return
	}
	k.addf("Rotate { {%s}, {%s}, %s } { %s; }", vec(axis), vec(point), ftoa(angle), entity)
}

func (k *Script) Cylinder(base, axis r3.Vec, radius float64) (Solid, error) {
	s := k.newSolid()
	k.addf("%s = newv; Cylinder(%s) = {%s, %s, %s};", vol(s), vol(s), vec(base), vec(axis), ftoa(radius))
	return s, nil
}

func (k *Script) Cone(base, axis r3.Vec, baseRadius, topRadius float64) (Solid, error) {
	s := k.newSolid()
	k.addf("%s = newv; Cone(%s) = {%s, %s, %s, %s};",
		vol(s), vol(s), vec(base), vec(axis), ftoa(baseRadius), ftoa(topRadius))
	return s, nil
}

func (k *Script) Revolve(diskCentre, diskNormal r3.Vec, diskRadius float64, axisPoint, axisDir r3.Vec, angle float64) (Solid, error) {
	disk := k.newAux("s")
	k.addf("%s = news; Disk(%s) = {%s, %s};", disk, disk, vec(diskCentre), ftoa(diskRadius))
	// Disk() is created with a +z normal.
	k.rotateLine("Surface{"+disk+"}", diskCentre, r3.Vec{Z: 1}, diskNormal)
	out := k.newAux("ext")
	s := k.newSolid()
	k.addf("%s[] = Extrude { {%s}, {%s}, %s } { Surface{%s}; };", out, vec(axisDir), vec(axisPoint), ftoa(angle), disk)
	k.addf("%s = %s[1];", vol(s), out)
	return s, nil
}

func (k *Script) CutPlane(s Solid, point, normal r3.Vec, extent float64) (Solid, error) {
	// Axis-aligned box whose top face lies on z = point.Z, rotated so
	// that face acquires the requested normal.
	box := k.newAux("b")
	l := ftoa(2 * extent)
	k.addf("%s = newv; Box(%s) = {%s, %s, %s, %s, %s, %s};",
		box, box, ftoa(point.X-extent), ftoa(point.Y-extent), ftoa(point.Z-2*extent), l, l, l)
	k.rotateLine("Volume{"+box+"}", point, r3.Vec{Z: 1}, normal)
	out := k.newAux("cut")
	cut := k.newSolid()
	k.addf("%s[] = BooleanIntersection { Volume{%s}; Delete; } { Volume{%s}; Delete; };", out, vol(s), box)
	k.addf("%s = %s[0];", vol(cut), out)
	return cut, nil
}

// CheckOverlap emits pairwise Boolean intersections that keep their
// inputs; any resulting volume raises a script error before fusion
// can swallow a boundary face. Touching faces intersect in surfaces
// only, which do not count.
func (k *Script) CheckOverlap(solids []Solid) error {
	for i := 0; i < len(solids); i++ {
		for j := i + 1; j < len(solids); j++ {
			ov := k.newAux("ov")
			k.addf("%s[] = BooleanIntersection { Volume{%s}; } { Volume{%s}; };", ov, vol(solids[i]), vol(solids[j]))
			k.addf("If (#%s[] > 0)", ov)
			k.addf("  Error(\"pieces %s and %s overlap\");", vol(solids[i]), vol(solids[j]))
			k.addf("EndIf")
		}
	}
	return nil
}

func (k *Script) Fuse(obj Solid, tools ...Solid) (Solid, error) {
	if len(tools) == 0 {
		return obj, nil
	}
	var list []string
	for _, t := range tools {
		list = append(list, "Volume{"+vol(t)+"};")
	}
	out := k.newAux("fus")
	fused := k.newSolid()
	k.addf("%s[] = BooleanUnion { Volume{%s}; Delete; } { %s Delete; };", out, vol(obj), strings.Join(list, " "))
	k.addf("%s = %s[0];", vol(fused), out)
	return fused, nil
}

func (k *Script) Rotate(solids []Solid, point, axis r3.Vec, angle float64) error {
	if len(solids) == 0 || angle == 0 {
		return nil
	}
	var list []string
	for _, s := range solids {
		list = append(list, "Volume{"+vol(s)+"};")
	}
	k.addf("Rotate { {%s}, {%s}, %s } { %s }", vec(axis), vec(point), ftoa(angle), strings.Join(list, " "))
	return nil
}

func (k *Script) Translate(solids []Solid, delta r3.Vec) error {
	if len(solids) == 0 {
		return nil
	}
	var list []string
	for _, s := range solids {
		list = append(list, "Volume{"+vol(s)+"};")
	}
	k.addf("Translate {%s} { %s }", vec(delta), strings.Join(list, " "))
	return nil
}

func (k *Script) Discard(solids ...Solid) error {
	for _, s := range solids {
		k.addf("Recursive Delete { Volume{%s}; }", vol(s))
	}
	return nil
}

func (k *Script) MaxElementSize(size float64) {
	if size > 0 {
		k.maxSize = size
	}
}

func (k *Script) SetSizeFields(fields []SizeField) error {
	var thresholds []string
	for _, f := range fields {
		k.npoint++
		p := "mp" + strconv.Itoa(k.npoint)
		k.addf("%s = newp; Point(%s) = {%s, %s};", p, p, vec(f.Centre), ftoa(f.Size))
		k.nfield++
		dist := k.nfield
		k.addf("Field[%d] = Distance; Field[%d].PointsList = {%s};", dist, dist, p)
		k.nfield++
		th := k.nfield
		k.addf("Field[%d] = Threshold; Field[%d].InField = %d;", th, th, dist)
		k.addf("Field[%d].SizeMin = %s; Field[%d].SizeMax = %s;", th, ftoa(f.Size), th, ftoa(k.maxSize))
		k.addf("Field[%d].DistMin = %s; Field[%d].DistMax = %s;", th, ftoa(f.DistMin), th, ftoa(f.DistMax))
		thresholds = append(thresholds, strconv.Itoa(th))
	}
	if len(thresholds) == 0 {
		return nil
	}
	k.nfield++
	k.addf("Field[%d] = Min; Field[%d].FieldsList = {%s};", k.nfield, k.nfield, strings.Join(thresholds, ", "))
	k.addf("Background Field = %d;", k.nfield)
	return nil
}

func (k *Script) TagSurface(centre, outward r3.Vec, radius float64) (int, error) {
	k.nphys++
	id := k.nphys
	st := "st" + strconv.Itoa(id)
	// Slack past the disk radius so a tilted face still fits the box.
	d := radius*1.01 + 1e-6
	k.addf("%s() = Surface In BoundingBox{%s, %s, %s, %s, %s, %s};",
		st, ftoa(centre.X-d), ftoa(centre.Y-d), ftoa(centre.Z-d),
		ftoa(centre.X+d), ftoa(centre.Y+d), ftoa(centre.Z+d))
	k.addf("If (#%s() == 0)", st)
	k.addf("  Error(\"physical surface %d matched no boundary surface\");", id)
	k.addf("EndIf")
	k.addf("Physical Surface(%d) = %s();", id, st)
	k.addf("occtagged() += %s();", st)
	return id, nil
}

func (k *Script) TagWalls(volume Solid) (int, error) {
	k.nphys++
	id := k.nphys
	k.addf("occwalls() = Boundary{ Volume{%s}; };", vol(volume))
	k.addf("occwalls() -= occtagged();")
	k.addf("Physical Surface(%d) = occwalls();", id)
	return id, nil
}

func (k *Script) TagVolume(volume Solid) (int, error) {
	k.nphys++
	id := k.nphys
	k.addf("Physical Volume(%d) = {%s};", id, vol(volume))
	return id, nil
}
