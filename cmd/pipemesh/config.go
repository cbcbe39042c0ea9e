package main

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/meshbits/pipemesh"
	"github.com/meshbits/pipemesh/occ"
)

// vec is a YAML [x, y, z] triple.
type vec [3]float64

func (v vec) r3() r3.Vec { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }

// networkConfig is the YAML description of a pipe network and,
// optionally, the simulation to configure for it.
type networkConfig struct {
	Seed struct {
		Length    float64 `yaml:"length"`
		Radius    float64 `yaml:"radius"`
		Direction vec     `yaml:"direction"`
		MeshSize  float64 `yaml:"mesh_size"`
	} `yaml:"seed"`
	Pieces     []pieceConfig `yaml:"pieces"`
	Simulation *simConfig    `yaml:"simulation"`
}

// pieceConfig is one entry of the pieces list. Kind selects the piece
// type; the other fields are read per kind, see the command help.
type pieceConfig struct {
	Kind string `yaml:"kind"`
	// Outlet selects the open outlet to extend; 0 means the
	// lowest-numbered open outlet.
	Outlet   int     `yaml:"outlet"`
	MeshSize float64 `yaml:"mesh_size"`

	Length       float64 `yaml:"length"`        // cylinder, change_radius
	Radius       float64 `yaml:"radius"`        // change_radius target, t_junction branch
	ChangeLength float64 `yaml:"change_length"` // change_radius
	Direction    vec     `yaml:"direction"`     // curve, mitered, t_junction
	BendRadius   float64 `yaml:"bend_radius"`   // curve
}

type simConfig struct {
	Name       string  `yaml:"name"`
	FinishTime float64 `yaml:"finish_time"`
	Timestep   float64 `yaml:"timestep"`
	CFL        float64 `yaml:"cfl"`
	DumpPeriod float64 `yaml:"dump_period"`
	Density    float64 `yaml:"density"`
	Viscosity  float64 `yaml:"viscosity"`
	MaxNodes   int     `yaml:"max_nodes"`
	Inflow     struct {
		// Surfaces lists the physical surface ids given an inflow
		// velocity; empty means the inlet only.
		Surfaces  []int   `yaml:"surfaces"`
		Magnitude float64 `yaml:"magnitude"`
		Reynolds  float64 `yaml:"reynolds"`
	} `yaml:"inflow"`
}

func loadConfig(path string) (*networkConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg networkConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Seed.Length <= 0 || cfg.Seed.Radius <= 0 || cfg.Seed.MeshSize <= 0 {
		return nil, fmt.Errorf("%s: seed needs positive length, radius and mesh_size", path)
	}
	return &cfg, nil
}

// build assembles the configured network on the given kernel.
func (cfg *networkConfig) build(k occ.Kernel) (*pipemesh.Network, error) {
	n, err := pipemesh.New(k, cfg.Seed.Length, cfg.Seed.Radius, cfg.Seed.Direction.r3(), cfg.Seed.MeshSize)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	for i, p := range cfg.Pieces {
		meshSize := p.MeshSize
		if meshSize == 0 {
			meshSize = cfg.Seed.MeshSize
		}
		switch p.Kind {
		case "cylinder":
			err = n.AddCylinder(p.Length, meshSize, p.Outlet)
		case "change_radius":
			err = n.AddChangeRadius(p.Length, p.Radius, p.ChangeLength, meshSize, p.Outlet)
		case "curve":
			err = n.AddCurve(p.Direction.r3(), p.BendRadius, meshSize, p.Outlet)
		case "mitered":
			err = n.AddMitered(p.Direction.r3(), meshSize, p.Outlet)
		case "t_junction":
			err = n.AddTJunction(p.Direction.r3(), p.Radius, meshSize, p.Outlet)
		default:
			err = fmt.Errorf("unknown piece kind %q", p.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("piece %d (%s): %w", i+1, p.Kind, err)
		}
	}
	return n, nil
}
