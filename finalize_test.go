package pipemesh

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/meshbits/pipemesh/internal/d3"
	"github.com/meshbits/pipemesh/occ"
)

func TestGenerateEndToEnd(t *testing.T) {
	k, n := testNetwork(t)
	require.NoError(t, n.AddCylinder(1, 0.02, 0))
	require.NoError(t, n.AddTJunction(r3.Vec{X: 1}, 0, 0.05, 0))

	dir := t.TempDir()
	meshPath := filepath.Join(dir, "net.msh")
	infoPath := filepath.Join(dir, "net.txt")
	err := n.Generate(context.Background(), GenerateOptions{
		Filename: meshPath,
		InfoPath: infoPath,
	})
	require.NoError(t, err)

	// Inlet tagged first, then the open outlets in number order, then
	// walls and volume.
	require.Len(t, k.Tagged, 3)
	require.Equal(t, 1, k.Tagged[0].ID)
	require.True(t, d3.EqualWithin(k.Tagged[0].Outward, r3.Vec{Z: -1}, testTol),
		"inlet outward %v, want -z", k.Tagged[0].Outward)
	require.True(t, d3.EqualWithin(k.Tagged[1].Outward, r3.Vec{Z: 1}, testTol),
		"main outlet outward %v, want +z", k.Tagged[1].Outward)
	require.True(t, d3.EqualWithin(k.Tagged[2].Outward, r3.Vec{X: 1}, testTol),
		"branch outlet outward %v, want +x", k.Tagged[2].Outward)
	require.Equal(t, 4, k.WallID)
	require.Equal(t, 5, k.VolumeID)
	require.Equal(t, 3, k.MeshedDim)
	require.Equal(t, 1, k.OverlapChecks, "pieces must be checked for overlap before fusion")
	require.Len(t, k.Fields, 3, "one size field per piece")
	require.Equal(t, 0.02, k.Fields[1].Size)

	bounds := n.Boundaries()
	require.Len(t, bounds, 3)
	require.Equal(t, BoundaryInlet, bounds[0].Kind)
	require.Equal(t, BoundaryOutlet, bounds[1].Kind)
	require.Equal(t, []int{1, 2, 3}, []int{bounds[0].PhysID, bounds[1].PhysID, bounds[2].PhysID})

	mesh, err := os.ReadFile(meshPath)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(mesh), "$MeshFormat\n2.2 0 8"))
	require.Contains(t, string(mesh), "$Elements")

	// The info file round-trips.
	f, err := os.Open(infoPath)
	require.NoError(t, err)
	defer f.Close()
	got, wallID, volumeID, err := ReadInfo(f)
	require.NoError(t, err)
	require.Equal(t, 4, wallID)
	require.Equal(t, 5, volumeID)
	require.Len(t, got, 3)
	for i, b := range got {
		require.Equal(t, bounds[i].PhysID, b.PhysID)
		require.Equal(t, bounds[i].Kind, b.Kind)
		require.True(t, d3.EqualWithin(b.Surface.Frame.Centre, bounds[i].Surface.Frame.Centre, 1e-6))
		require.True(t, d3.EqualWithin(b.Surface.Frame.Direction, bounds[i].Surface.Frame.Direction, 1e-6))
		require.InDelta(t, bounds[i].Surface.Radius, b.Surface.Radius, 1e-6)
	}

	// No mutation after finalization.
	require.ErrorIs(t, n.Generate(context.Background(), GenerateOptions{}), ErrNetworkFinalized)
	require.ErrorIs(t, n.AddCylinder(1, 0.05, 0), ErrNetworkFinalized)
	require.ErrorIs(t, n.Rotate(r3.Vec{Y: 1}, 1), ErrNetworkFinalized)
	require.ErrorIs(t, n.Translate(r3.Vec{X: 1}), ErrNetworkFinalized)
}

func TestGenerateRejectsOverlap(t *testing.T) {
	k, n := testNetwork(t)
	require.NoError(t, n.AddCylinder(1, 0.05, 0))
	k.FailOverlap = errors.New("pieces v1 and v2 overlap")
	err := n.Generate(context.Background(), GenerateOptions{})
	require.ErrorIs(t, err, ErrFusionFailed)
	require.Zero(t, k.FuseCount, "overlapping pieces must not be fused")
	require.ErrorIs(t, n.AddCylinder(1, 0.05, 0), ErrNetworkFinalized)
}

func TestGenerateFusionFailure(t *testing.T) {
	k, n := testNetwork(t)
	require.NoError(t, n.AddCylinder(1, 0.05, 0))
	k.FailFuse = errors.New("self intersection")
	err := n.Generate(context.Background(), GenerateOptions{})
	require.ErrorIs(t, err, ErrFusionFailed)
	// The network is unusable after a failed finalization.
	require.ErrorIs(t, n.AddCylinder(1, 0.05, 0), ErrNetworkFinalized)
}

func TestGenerateFormats(t *testing.T) {
	_, n := testNetwork(t)
	path := filepath.Join(t.TempDir(), "net.msh")
	err := n.Generate(context.Background(), GenerateOptions{
		Filename: path,
		Format:   occ.FormatMSH41,
		Binary:   true,
	})
	require.NoError(t, err)
	mesh, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(mesh), "$MeshFormat\n4.1 1 8"))
}

func TestWriteInfoXML(t *testing.T) {
	_, n := testNetwork(t)
	require.NoError(t, n.AddTJunction(r3.Vec{X: 1}, 0, 0.05, 0))
	require.NoError(t, n.Generate(context.Background(), GenerateOptions{}))

	var buf strings.Builder
	require.NoError(t, n.WriteInfoXML(&buf))

	var doc infoXML
	require.NoError(t, xml.Unmarshal([]byte(buf.String()), &doc))
	require.Len(t, doc.Boundaries, 3)
	require.Equal(t, 1, doc.Boundaries[0].ID)
	require.Equal(t, "inlet", doc.Boundaries[0].Kind)
	require.Equal(t, "0 0 -1", doc.Boundaries[0].Outward)
	require.Equal(t, n.WallID(), doc.Walls)
	require.Equal(t, n.VolumeID(), doc.Volume)
}

func TestWriteInfoBeforeGenerate(t *testing.T) {
	_, n := testNetwork(t)
	require.Error(t, n.WriteInfo(io.Discard))
}
