package pipemesh

import (
	"bufio"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/meshbits/pipemesh/internal/d3"
	"github.com/meshbits/pipemesh/occ"
)

// Boundary is a tagged boundary face of the finalized network. The
// surface frame always carries the outward normal, including for the
// inlet.
type Boundary struct {
	PhysID  int
	Kind    BoundaryKind
	Surface Surface
}

// BoundaryKind distinguishes the flow boundaries of the network.
type BoundaryKind string

const (
	BoundaryInlet  BoundaryKind = "inlet"
	BoundaryOutlet BoundaryKind = "outlet"
)

// Area returns the face area of the boundary.
func (b Boundary) Area() float64 {
	return math.Pi * b.Surface.Radius * b.Surface.Radius
}

// GenerateOptions controls finalization output. A zero value fuses,
// tags and meshes without writing anything.
type GenerateOptions struct {
	// Filename is the mesh output path; empty skips the write. The
	// format and encoding are taken from Format and Binary.
	Filename string
	Binary   bool
	Format   occ.Format
	// InfoPath, when set, receives a plain-text boundary report (see
	// WriteInfo).
	InfoPath string
	// RunGUI opens the kernel's interactive viewer after meshing.
	RunGUI bool
}

// Generate finalizes the network: it installs the per-piece mesh-size
// fields, fuses all pieces into a single solid, tags the physical
// boundaries (inlet first, then the open outlets in ascending number
// order, then walls, then the volume) and generates the 3D mesh. The
// network refuses all further mutation afterwards, whether Generate
// succeeded or not.
func (n *Network) Generate(ctx context.Context, opts GenerateOptions) error {
	if n.finalized {
		return ErrNetworkFinalized
	}
	n.finalized = true

	fields := make([]occ.SizeField, 0, len(n.pieces))
	for _, p := range n.pieces {
		half := p.halfExtent()
		fields = append(fields, occ.SizeField{
			Centre:  p.Centre(),
			Size:    p.MeshSize(),
			DistMin: half,
			DistMax: 1.1 * half,
		})
	}
	if err := n.kernel.SetSizeFields(fields); err != nil {
		return err
	}

	solids := make([]occ.Solid, len(n.pieces))
	for i, p := range n.pieces {
		solids[i] = p.Solid()
	}
	// Overlapping pieces would fuse without complaint and swallow an
	// open-outlet face, so refuse them before the union.
	if err := n.kernel.CheckOverlap(solids); err != nil {
		return fmt.Errorf("%w: %v", ErrFusionFailed, err)
	}
	fused, err := n.kernel.Fuse(solids[0], solids[1:]...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFusionFailed, err)
	}

	// The seed inlet is tagged first so it always receives physical
	// id 1. Its boundary normal faces out of the network, opposite
	// the flow direction.
	seedIn := n.pieces[0].Inlet()
	inletOut := Frame{Centre: seedIn.Frame.Centre, Direction: r3.Scale(-1, seedIn.Frame.Direction)}
	id, err := n.kernel.TagSurface(inletOut.Centre, inletOut.Direction, seedIn.Radius)
	if err != nil {
		return err
	}
	n.boundaries = append(n.boundaries, Boundary{
		PhysID:  id,
		Kind:    BoundaryInlet,
		Surface: Surface{Frame: inletOut, Radius: seedIn.Radius},
	})
	for _, num := range n.openNumbers() {
		s := n.open[num].Surface()
		id, err := n.kernel.TagSurface(s.Frame.Centre, s.Frame.Direction, s.Radius)
		if err != nil {
			return err
		}
		n.boundaries = append(n.boundaries, Boundary{PhysID: id, Kind: BoundaryOutlet, Surface: s})
	}
	if n.wallID, err = n.kernel.TagWalls(fused); err != nil {
		return err
	}
	if n.volumeID, err = n.kernel.TagVolume(fused); err != nil {
		return err
	}

	if err := n.kernel.Mesh(ctx, 3); err != nil {
		return err
	}
	if opts.Filename != "" {
		wo := occ.WriteOptions{Binary: opts.Binary, Format: opts.Format}
		if err := n.kernel.Write(ctx, opts.Filename, wo); err != nil {
			return err
		}
	}
	if opts.InfoPath != "" {
		f, err := os.Create(opts.InfoPath)
		if err != nil {
			return err
		}
		if err := n.WriteInfo(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	if opts.RunGUI {
		return n.kernel.View(ctx)
	}
	return nil
}

// Boundaries returns the tagged flow boundaries. Empty before
// Generate.
func (n *Network) Boundaries() []Boundary {
	return append([]Boundary(nil), n.boundaries...)
}

// WallID returns the physical id of the wall surface group. Valid
// after Generate.
func (n *Network) WallID() int { return n.wallID }

// VolumeID returns the physical id of the fluid volume. Valid after
// Generate.
func (n *Network) VolumeID() int { return n.volumeID }

// WriteInfo writes the boundary report consumed by simulation setup:
// one line per flow boundary with its physical id, kind, centre,
// outward normal and area, then the wall and volume ids. The format
// round-trips through ReadInfo.
func (n *Network) WriteInfo(w io.Writer) error {
	if !n.finalized {
		return fmt.Errorf("pipemesh: network not finalized")
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# id kind cx cy cz nx ny nz area")
	for _, b := range n.boundaries {
		c := d3.RoundZero(b.Surface.Frame.Centre, tolerance)
		dir := d3.RoundZero(b.Surface.Frame.Direction, tolerance)
		fmt.Fprintf(bw, "%d %s %g %g %g %g %g %g %g\n",
			b.PhysID, b.Kind, c.X, c.Y, c.Z, dir.X, dir.Y, dir.Z, b.Area())
	}
	fmt.Fprintf(bw, "walls %d\n", n.wallID)
	fmt.Fprintf(bw, "volume %d\n", n.volumeID)
	return bw.Flush()
}

type boundaryXML struct {
	ID      int     `xml:"id,attr"`
	Kind    string  `xml:"kind,attr"`
	Centre  string  `xml:"centre,attr"`
	Outward string  `xml:"outward,attr"`
	Area    float64 `xml:"area,attr"`
}

type infoXML struct {
	XMLName    xml.Name      `xml:"network"`
	Boundaries []boundaryXML `xml:"boundary"`
	Walls      int           `xml:"walls"`
	Volume     int           `xml:"volume"`
}

// WriteInfoXML writes the boundary report of WriteInfo as an XML
// document, for tools that consume structured metadata.
func (n *Network) WriteInfoXML(w io.Writer) error {
	if !n.finalized {
		return fmt.Errorf("pipemesh: network not finalized")
	}
	doc := infoXML{Walls: n.wallID, Volume: n.volumeID}
	for _, b := range n.boundaries {
		c := d3.RoundZero(b.Surface.Frame.Centre, tolerance)
		dir := d3.RoundZero(b.Surface.Frame.Direction, tolerance)
		doc.Boundaries = append(doc.Boundaries, boundaryXML{
			ID:      b.PhysID,
			Kind:    string(b.Kind),
			Centre:  fmt.Sprintf("%g %g %g", c.X, c.Y, c.Z),
			Outward: fmt.Sprintf("%g %g %g", dir.X, dir.Y, dir.Z),
			Area:    b.Area(),
		})
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// ReadInfo parses a boundary report written by WriteInfo. It returns
// the flow boundaries and the wall and volume physical ids.
func ReadInfo(r io.Reader) ([]Boundary, int, int, error) {
	var (
		bounds   []Boundary
		wallID   int
		volumeID int
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, err := fmt.Sscanf(line, "walls %d", &wallID); err == nil {
			continue
		}
		if _, err := fmt.Sscanf(line, "volume %d", &volumeID); err == nil {
			continue
		}
		var (
			b    Boundary
			kind string
			area float64
		)
		_, err := fmt.Sscanf(line, "%d %s %g %g %g %g %g %g %g",
			&b.PhysID, &kind,
			&b.Surface.Frame.Centre.X, &b.Surface.Frame.Centre.Y, &b.Surface.Frame.Centre.Z,
			&b.Surface.Frame.Direction.X, &b.Surface.Frame.Direction.Y, &b.Surface.Frame.Direction.Z,
			&area)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("pipemesh: malformed info line %q: %w", line, err)
		}
		b.Kind = BoundaryKind(kind)
		b.Surface.Radius = math.Sqrt(area / math.Pi)
		bounds = append(bounds, b)
	}
	if err := sc.Err(); err != nil {
		return nil, 0, 0, err
	}
	return bounds, wallID, volumeID, nil
}
