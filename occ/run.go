package occ

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// header lines prepended to every rendered program.
const scriptHeader = `SetFactory("OpenCASCADE");
General.AbortOnError = 2;
occtagged() = {};`

// render produces the complete .geo program.
func (k *Script) render() string {
	var b strings.Builder
	b.WriteString(scriptHeader)
	b.WriteByte('\n')
	fmt.Fprintf(&b, "Mesh.CharacteristicLengthMax = %s;\n", ftoa(k.maxSize))
	b.WriteString(k.Program())
	b.WriteByte('\n')
	return b.String()
}

func (k *Script) Mesh(ctx context.Context, dim int) error {
	k.addf("Mesh %d;", dim)
	return nil
}

// Write appends the save commands and runs gmsh over the recorded
// program. The mesh file lands at path exactly as given.
func (k *Script) Write(ctx context.Context, path string, opts WriteOptions) error {
	k.addf("Mesh.MshFileVersion = %s;", opts.Format.Version())
	if opts.Binary {
		k.addf("Mesh.Binary = 1;")
	} else {
		k.addf("Mesh.Binary = 0;")
	}
	k.addf("Save %q;", path)
	return k.run(ctx, false)
}

// View runs gmsh with its GUI on the recorded program.
func (k *Script) View(ctx context.Context) error {
	return k.run(ctx, true)
}

func (k *Script) run(ctx context.Context, gui bool) error {
	f, err := os.CreateTemp("", "pipemesh-*.geo")
	if err != nil {
		return fmt.Errorf("write geo program: %w", err)
	}
	name := f.Name()
	defer os.Remove(name)
	if _, err := f.WriteString(k.render()); err != nil {
		f.Close()
		return fmt.Errorf("write geo program: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write geo program: %w", err)
	}

	args := []string{name}
	if !gui {
		// Trailing dash parses the program and exits without the GUI.
		args = append(args, "-")
	}
	cmd := exec.CommandContext(ctx, k.GmshBin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	k.log.Debug("running gmsh",
		zap.String("bin", k.GmshBin),
		zap.Int("program_lines", len(k.prog)),
		zap.Bool("gui", gui))
	if err := cmd.Run(); err != nil {
		k.log.Error("gmsh failed", zap.Error(err), zap.String("stderr", stderr.String()))
		return fmt.Errorf("gmsh: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	k.log.Info("gmsh finished", zap.Duration("took", time.Since(start)))
	return nil
}
