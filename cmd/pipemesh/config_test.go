package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meshbits/pipemesh/occ/occtest"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "network.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleConfig = `
seed:
  length: 1
  radius: 0.1
  direction: [0, 0, 1]
  mesh_size: 0.05
pieces:
  - kind: curve
    direction: [1, 0, 0]
    bend_radius: 0.3
  - kind: t_junction
    direction: [0, 1, 0]
  - kind: cylinder
    length: 0.5
    mesh_size: 0.02
    outlet: 3
simulation:
  name: run1
  inflow:
    magnitude: 0.02
`

func TestLoadAndBuild(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	require.Len(t, cfg.Pieces, 3)
	require.NotNil(t, cfg.Simulation)
	require.Equal(t, "run1", cfg.Simulation.Name)
	require.Equal(t, 0.02, cfg.Simulation.Inflow.Magnitude)

	n, err := cfg.build(occtest.New())
	require.NoError(t, err)
	require.Len(t, n.Pieces(), 4, "seed plus three pieces")
	// The junction opened outlets 3 (main) and 4 (branch); the last
	// cylinder extended 3 and opened 5.
	open := n.OpenOutlets()
	require.Len(t, open, 2)
	require.Contains(t, open, 4)
	require.Contains(t, open, 5)
}

func TestLoadRejectsBadSeed(t *testing.T) {
	_, err := loadConfig(writeConfig(t, `
seed:
  length: 0
  radius: 0.1
  mesh_size: 0.05
`))
	require.Error(t, err)
}

func TestBuildUnknownKind(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, `
seed:
  length: 1
  radius: 0.1
  direction: [0, 0, 1]
  mesh_size: 0.05
pieces:
  - kind: spiral
`))
	require.NoError(t, err)
	_, err = cfg.build(occtest.New())
	require.ErrorContains(t, err, "unknown piece kind")
}

func TestBuildReportsPieceIndex(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, `
seed:
  length: 1
  radius: 0.1
  direction: [0, 0, 1]
  mesh_size: 0.05
pieces:
  - kind: curve
    direction: [1, 0, 0]
    bend_radius: 0.01
`))
	require.NoError(t, err)
	_, err = cfg.build(occtest.New())
	require.ErrorContains(t, err, "piece 1 (curve)")
}
