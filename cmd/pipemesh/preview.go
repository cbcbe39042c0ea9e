package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meshbits/pipemesh/occ"
	"github.com/meshbits/pipemesh/preview"
)

var (
	prevOutput string
	prevCells  int
)

var previewCmd = &cobra.Command{
	Use:   "preview <network.yaml>",
	Short: "Write a quick STL approximation of a network",
	Long: `preview skips gmsh entirely: it assembles the network description and
writes a rounded-segment approximation as binary STL, for checking
connectivity and proportions before a meshing run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(args[0])
		if err != nil {
			return err
		}
		// The script kernel only records calls, so assembling on it
		// costs nothing and is never run.
		n, err := cfg.build(occ.NewScript(logger))
		if err != nil {
			return err
		}
		model, err := preview.Model(n.Pieces())
		if err != nil {
			return err
		}
		f, err := os.Create(prevOutput)
		if err != nil {
			return err
		}
		if err := preview.WriteSTL(f, model, prevCells); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		logger.Info("preview written", zap.String("path", prevOutput))
		return nil
	},
}

func init() {
	previewCmd.Flags().StringVarP(&prevOutput, "output", "o", "preview.stl", "STL output path")
	previewCmd.Flags().IntVar(&prevCells, "cells", preview.DefaultCells, "marching cubes resolution")
	rootCmd.AddCommand(previewCmd)
}
