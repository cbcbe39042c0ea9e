package preview

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
)

// stlHeader is the 84-byte binary STL prelude.
type stlHeader struct {
	_     [80]uint8
	Count uint32
}

func put3F32(b []byte, x, y, z float64) {
	_ = b[11] // early bounds check
	binary.LittleEndian.PutUint32(b, math.Float32bits(float32(x)))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(float32(y)))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(float32(z)))
}

// WriteSTL tessellates s with cells marching-cubes cells per longest
// axis and writes the triangles as binary STL.
func WriteSTL(w io.Writer, s sdf.SDF3, cells int) error {
	triangles := render.ToTriangles(s, render.NewMarchingCubesUniform(cells))
	if len(triangles) == 0 {
		return errors.New("preview: tessellation produced no triangles")
	}
	if err := binary.Write(w, binary.LittleEndian, &stlHeader{Count: uint32(len(triangles))}); err != nil {
		return err
	}
	var b [50]byte
	for _, t := range triangles {
		n := t.Normal()
		put3F32(b[:], n.X, n.Y, n.Z)
		put3F32(b[12:], t[0].X, t[0].Y, t[0].Z)
		put3F32(b[24:], t[1].X, t[1].Y, t[1].Z)
		put3F32(b[36:], t[2].X, t[2].Y, t[2].Z)
		binary.LittleEndian.PutUint16(b[48:], 0)
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	}
	return nil
}

// CreateSTL writes the preview of s to path at DefaultCells
// resolution.
func CreateSTL(path string, s sdf.SDF3) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSTL(f, s, DefaultCells); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
