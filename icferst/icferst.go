// Package icferst writes simulation configuration for the ICFERST
// multiphase solver. It fills a bundled .mpml options template from a
// meshed pipe network's boundary tags and the user's flow parameters,
// so a generated mesh can be simulated without hand-editing XML.
package icferst

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

//go:embed template.mpml
var template string

// Inlet is one velocity boundary condition: a tagged surface and the
// inflow velocity prescribed on it.
type Inlet struct {
	SurfaceID int
	Velocity  r3.Vec
}

// Options describes one simulation. Zero numeric fields take the
// defaults noted on each field; the boundary id fields are mandatory.
type Options struct {
	// SimName names the run and its output files.
	SimName string
	// MeshFile is the mesh path as the solver should load it.
	MeshFile string

	// FinishTime is the simulated end time in seconds. Default 1.
	FinishTime float64
	// Timestep is the initial timestep. Default FinishTime/1000.
	Timestep float64
	// CFL, when positive, bounds the adaptive timestep by a Courant
	// number. Values above 4 are rejected as unstable.
	CFL float64
	// DumpPeriod is the output interval in seconds. Default
	// FinishTime/10.
	DumpPeriod float64

	// Density in kg/m3. Default 1000 (water).
	Density float64
	// Viscosity is the dynamic viscosity in Pa.s. Default 1e-3.
	Viscosity float64

	// Inlets are the velocity boundary conditions.
	Inlets []Inlet
	// Outlets are the surface ids held at zero pressure.
	Outlets []int
	// Walls are the no-slip surface ids.
	Walls []int

	// Mesh adaptivity bounds. MinSize defaults to MaxSize/10, MaxSize
	// to 0.3, MaxNodes to 200000, AdaptDelay to 5 timesteps and
	// AspectRatio to 10.
	MinSize     float64
	MaxSize     float64
	MaxNodes    int
	AdaptDelay  int
	AspectRatio float64
}

func (o *Options) applyDefaults() {
	if o.FinishTime == 0 {
		o.FinishTime = 1
	}
	if o.Timestep == 0 {
		o.Timestep = o.FinishTime / 1000
	}
	if o.DumpPeriod == 0 {
		o.DumpPeriod = o.FinishTime / 10
	}
	if o.Density == 0 {
		o.Density = 1000
	}
	if o.Viscosity == 0 {
		o.Viscosity = 1e-3
	}
	if o.MaxSize == 0 {
		o.MaxSize = 0.3
	}
	if o.MinSize == 0 {
		o.MinSize = o.MaxSize / 10
	}
	if o.MaxNodes == 0 {
		o.MaxNodes = 200000
	}
	if o.AdaptDelay == 0 {
		o.AdaptDelay = 5
	}
	if o.AspectRatio == 0 {
		o.AspectRatio = 10
	}
}

// Validate checks the options after defaults are applied.
func (o *Options) Validate() error {
	if o.SimName == "" {
		return fmt.Errorf("icferst: simulation name required")
	}
	if o.MeshFile == "" {
		return fmt.Errorf("icferst: mesh file required")
	}
	if o.CFL < 0 {
		return fmt.Errorf("icferst: CFL number %g must not be negative", o.CFL)
	}
	if o.CFL > 4 {
		return fmt.Errorf("icferst: CFL number %g is unstable, must be <= 4", o.CFL)
	}
	if len(o.Inlets) == 0 {
		return fmt.Errorf("icferst: at least one inlet velocity required")
	}
	if len(o.Outlets) == 0 {
		return fmt.Errorf("icferst: at least one zero-pressure outlet required")
	}
	if len(o.Walls) == 0 {
		return fmt.Errorf("icferst: wall surface ids required")
	}
	if o.FinishTime <= 0 || o.Timestep <= 0 || o.DumpPeriod <= 0 {
		return fmt.Errorf("icferst: times must be > 0")
	}
	if o.MinSize <= 0 || o.MaxSize < o.MinSize {
		return fmt.Errorf("icferst: adaptivity sizes %g..%g invalid", o.MinSize, o.MaxSize)
	}
	return nil
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func idList(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, " ")
}

func (o *Options) cflBlock() string {
	if o.CFL == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "    <adaptive_timestep>\n")
	fmt.Fprintf(&b, "      <requested_cfl>\n")
	fmt.Fprintf(&b, "        <real_value rank=\"0\">%s</real_value>\n", ftoa(o.CFL))
	fmt.Fprintf(&b, "      </requested_cfl>\n")
	fmt.Fprintf(&b, "    </adaptive_timestep>")
	return b.String()
}

func (o *Options) inletBlocks() string {
	var b strings.Builder
	for i, in := range o.Inlets {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "      <boundary_conditions name=\"inlet_%d\">\n", in.SurfaceID)
		fmt.Fprintf(&b, "        <surface_ids>\n")
		fmt.Fprintf(&b, "          <integer_value shape=\"1\" rank=\"1\">%d</integer_value>\n", in.SurfaceID)
		fmt.Fprintf(&b, "        </surface_ids>\n")
		fmt.Fprintf(&b, "        <type name=\"dirichlet\">\n")
		fmt.Fprintf(&b, "          <align_bc_with_cartesian>\n")
		for _, c := range []struct {
			name string
			v    float64
		}{{"x", in.Velocity.X}, {"y", in.Velocity.Y}, {"z", in.Velocity.Z}} {
			fmt.Fprintf(&b, "            <%s_component>\n", c.name)
			fmt.Fprintf(&b, "              <constant>\n")
			fmt.Fprintf(&b, "                <real_value rank=\"0\">%s</real_value>\n", ftoa(c.v))
			fmt.Fprintf(&b, "              </constant>\n")
			fmt.Fprintf(&b, "            </%s_component>\n", c.name)
		}
		fmt.Fprintf(&b, "          </align_bc_with_cartesian>\n")
		fmt.Fprintf(&b, "        </type>\n")
		fmt.Fprintf(&b, "      </boundary_conditions>")
	}
	return b.String()
}

// Write renders the options file.
func (o *Options) Write(w io.Writer) error {
	o.applyDefaults()
	if err := o.Validate(); err != nil {
		return err
	}
	r := strings.NewReplacer(
		"{{SIM_NAME}}", o.SimName,
		"{{MESH_FILE}}", o.MeshFile,
		"{{DUMP_PERIOD}}", ftoa(o.DumpPeriod),
		"{{TIMESTEP}}", ftoa(o.Timestep),
		"{{FINISH_TIME}}", ftoa(o.FinishTime),
		"{{CFL_BLOCK}}", o.cflBlock(),
		"{{DENSITY}}", ftoa(o.Density),
		"{{VISCOSITY}}", ftoa(o.Viscosity),
		"{{OUTLET_COUNT}}", strconv.Itoa(len(o.Outlets)),
		"{{OUTLET_IDS}}", idList(o.Outlets),
		"{{INLET_BCS}}", o.inletBlocks(),
		"{{WALL_COUNT}}", strconv.Itoa(len(o.Walls)),
		"{{WALL_IDS}}", idList(o.Walls),
		"{{MIN_SIZE}}", ftoa(o.MinSize),
		"{{MAX_SIZE}}", ftoa(o.MaxSize),
		"{{MAX_NODES}}", strconv.Itoa(o.MaxNodes),
		"{{ADAPT_DELAY}}", strconv.Itoa(o.AdaptDelay),
		"{{ASPECT_RATIO}}", ftoa(o.AspectRatio),
	)
	bw := bufio.NewWriter(w)
	if _, err := r.WriteString(bw, template); err != nil {
		return err
	}
	return bw.Flush()
}

// WriteFile renders the options file to path.
func (o *Options) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := o.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
