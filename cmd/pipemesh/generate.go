package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/meshbits/pipemesh"
	"github.com/meshbits/pipemesh/icferst"
	"github.com/meshbits/pipemesh/occ"
)

var (
	genOutput string
	genFormat string
	genBinary bool
	genInfo   string
	genMPML   string
	genGUI    bool
	genGmsh   string
)

var generateCmd = &cobra.Command{
	Use:   "generate <network.yaml>",
	Short: "Mesh a pipe network through gmsh",
	Long: `generate assembles the network described in the YAML file, fuses it
into a single solid, tags inlet/outlet/wall boundaries and meshes it
with gmsh. Optionally writes a boundary report and an ICFERST .mpml
configuration derived from the simulation section of the file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(args[0])
		if err != nil {
			return err
		}
		var format occ.Format
		switch genFormat {
		case "msh2":
			format = occ.FormatMSH2
		case "msh4":
			format = occ.FormatMSH41
		default:
			return fmt.Errorf("unknown mesh format %q (msh2 or msh4)", genFormat)
		}

		kernel := occ.NewScript(logger)
		kernel.GmshBin = genGmsh
		n, err := cfg.build(kernel)
		if err != nil {
			return err
		}
		logger.Info("network assembled",
			zap.Int("pieces", len(n.Pieces())),
			zap.Int("open_outlets", len(n.OpenOutlets())))

		err = n.Generate(cmd.Context(), pipemesh.GenerateOptions{
			Filename: genOutput,
			Binary:   genBinary,
			Format:   format,
			InfoPath: genInfo,
			RunGUI:   genGUI,
		})
		if err != nil {
			return err
		}
		if genMPML != "" {
			if cfg.Simulation == nil {
				return fmt.Errorf("--mpml requires a simulation section in %s", args[0])
			}
			if err := writeMPML(n, cfg, genMPML); err != nil {
				return err
			}
		}
		return nil
	},
}

// writeMPML derives the solver configuration from the finalized
// network's boundary tags.
func writeMPML(n *pipemesh.Network, cfg *networkConfig, path string) error {
	sim := cfg.Simulation
	inflow := sim.Inflow.Surfaces
	if len(inflow) == 0 {
		inflow = []int{1} // the inlet is always tagged first
	}
	var (
		vs  []r3.Vec
		err error
	)
	if sim.Inflow.Reynolds > 0 {
		vs, err = n.VelocitiesByReynolds(inflow, sim.Inflow.Reynolds, sim.Density, sim.Viscosity)
	} else {
		vs, err = n.VelocitiesByMagnitude(inflow, sim.Inflow.Magnitude)
	}
	if err != nil {
		return err
	}
	inlets := make([]icferst.Inlet, len(inflow))
	for i, id := range inflow {
		inlets[i] = icferst.Inlet{SurfaceID: id, Velocity: vs[i]}
	}

	inflowSet := make(map[int]bool, len(inflow))
	for _, id := range inflow {
		inflowSet[id] = true
	}
	var outlets []int
	for _, b := range n.Boundaries() {
		if !inflowSet[b.PhysID] {
			outlets = append(outlets, b.PhysID)
		}
	}
	minSize := cfg.Seed.MeshSize
	for _, p := range n.Pieces() {
		if p.MeshSize() < minSize {
			minSize = p.MeshSize()
		}
	}
	opts := icferst.Options{
		SimName:    sim.Name,
		MeshFile:   genOutput,
		FinishTime: sim.FinishTime,
		Timestep:   sim.Timestep,
		CFL:        sim.CFL,
		DumpPeriod: sim.DumpPeriod,
		Density:    sim.Density,
		Viscosity:  sim.Viscosity,
		Inlets:     inlets,
		Outlets:    outlets,
		Walls:      []int{n.WallID()},
		MinSize:    minSize,
		MaxSize:    cfg.Seed.MeshSize,
		MaxNodes:   sim.MaxNodes,
	}
	return opts.WriteFile(path)
}

func init() {
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "mesh.msh", "mesh output path")
	generateCmd.Flags().StringVar(&genFormat, "mesh-format", "msh2", "mesh file format: msh2 or msh4")
	generateCmd.Flags().BoolVar(&genBinary, "binary", false, "write the mesh in binary encoding")
	generateCmd.Flags().StringVar(&genInfo, "info", "", "write a boundary report to this path")
	generateCmd.Flags().StringVar(&genMPML, "mpml", "", "write ICFERST configuration to this path")
	generateCmd.Flags().BoolVar(&genGUI, "gui", false, "open the gmsh GUI after meshing")
	generateCmd.Flags().StringVar(&genGmsh, "gmsh", "gmsh", "gmsh binary to run")
	rootCmd.AddCommand(generateCmd)
}
