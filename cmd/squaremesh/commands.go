package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/squaremesh/internal/batch"
	"github.com/Faultbox/squaremesh/internal/config"
	"github.com/Faultbox/squaremesh/internal/logger"
	"github.com/Faultbox/squaremesh/pkg/export"
	"github.com/Faultbox/squaremesh/pkg/formats"
	"github.com/Faultbox/squaremesh/pkg/marching"
)

func cmdBuild(args []string, stdin io.Reader, stdout io.Writer) error {
	fs, flags := newFlagSet("build")
	src := registerSource(fs)
	out := fs.String("o", "", "Output file, '-' for stdout (default <out>/<name>.<format>)")

	cfg, positional, err := setup(fs, flags, args)
	if err != nil {
		return err
	}

	name, grid, err := src.load(cfg, positional, stdin)
	if err != nil {
		return err
	}

	mesh, err := marching.Generate(grid, cfg.Mesh.CellSize, meshOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("meshing %s: %w", name, err)
	}

	path, err := writeMesh(cfg, *out, name, mesh, stdout)
	if err != nil {
		return err
	}
	logger.Info("mesh written",
		zap.String("name", name),
		zap.String("path", path),
		zap.Int("triangles", mesh.TriangleCount()),
	)
	if path != "-" {
		fmt.Fprintf(stdout, "%s: %d vertices, %d triangles -> %s\n",
			name, mesh.VertexCount(), mesh.TriangleCount(), path)
	}
	return nil
}

func cmdInfo(args []string, stdin io.Reader, stdout io.Writer) error {
	fs, flags := newFlagSet("info")
	src := registerSource(fs)

	cfg, positional, err := setup(fs, flags, args)
	if err != nil {
		return err
	}

	name, grid, err := src.load(cfg, positional, stdin)
	if err != nil {
		return err
	}

	cg, err := marching.BuildGrid(grid, cfg.Mesh.CellSize)
	if err != nil {
		return err
	}
	vertices, indices, err := cg.Triangulate()
	if err != nil {
		return fmt.Errorf("triangulating %s: %w", name, err)
	}
	w, h := cg.Size()
	mesh := marching.Assemble(vertices, indices, w, h, cg.CellSize(),
		marching.Tiling{CountX: cfg.Mesh.TileCountX, CountY: cfg.Mesh.TileCountY})

	solid := 0
	for _, col := range grid {
		for _, v := range col {
			if v {
				solid++
			}
		}
	}

	fmt.Fprintf(stdout, "Grid:      %s\n", name)
	fmt.Fprintf(stdout, "Samples:   %dx%d (%d solid)\n", w, h, solid)
	fmt.Fprintf(stdout, "Cells:     %d (cell size %g)\n", cg.CellCount(), cg.CellSize())
	fmt.Fprintf(stdout, "Vertices:  %d\n", mesh.VertexCount())
	fmt.Fprintf(stdout, "Triangles: %d\n", mesh.TriangleCount())
	if !mesh.IsEmpty() {
		size := mesh.Bounds.Size()
		fmt.Fprintf(stdout, "Bounds:    %v .. %v\n", mesh.Bounds.Min.Array(), mesh.Bounds.Max.Array())
		fmt.Fprintf(stdout, "Extent:    %g x %g\n", size.X, size.Z)
	}
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Configurations:")

	for c, count := range cg.Histogram() {
		if count == 0 {
			continue
		}
		fmt.Fprintf(stdout, "  %2d %04b  %-6d %v\n", c, c, count, marching.CaseRoles(c))
	}
	return nil
}

func cmdBatch(args []string, stdout io.Writer) error {
	fs, flags := newFlagSet("batch")

	cfg, positional, err := setup(fs, flags, args)
	if err != nil {
		return err
	}
	log := logger.Named("batch")

	maps, err := openMaps(cfg.Source.GRFPaths)
	if err != nil {
		return err
	}
	defer maps.Close()

	names := positional
	if len(names) == 0 {
		names = maps.Maps()
	}

	failed := 0
	jobs := make([]batch.Job, 0, len(names))
	for _, name := range names {
		gat, err := maps.LoadGAT(name)
		if err != nil {
			log.Warn("skipping map", zap.String("map", name), zap.Error(err))
			fmt.Fprintf(stdout, "%-24s error: %v\n", name, err)
			failed++
			continue
		}
		jobs = append(jobs, batch.Job{
			Name:     name,
			Grid:     gat.Occupancy(solidFunc(cfg)),
			CellSize: cfg.Mesh.CellSize,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if cfg.Batch.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Batch.Timeout)
		defer cancel()
	}

	log.Info("meshing maps",
		zap.Int("maps", len(jobs)),
		zap.Int("workers", cfg.Batch.Workers),
	)

	results, runErr := batch.Run(ctx, cfg.Batch.Workers, cfg.Batch.QueueSize, jobs, log,
		marching.WithTiling(cfg.Mesh.TileCountX, cfg.Mesh.TileCountY))

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(stdout, "%-24s error: %v\n", r.Name, r.Err)
			failed++
			continue
		}
		path, err := writeMesh(cfg, "", r.Name, r.Mesh, stdout)
		if err != nil {
			fmt.Fprintf(stdout, "%-24s error: %v\n", r.Name, err)
			failed++
			continue
		}
		fmt.Fprintf(stdout, "%-24s %8d triangles %10s -> %s\n",
			r.Name, r.Mesh.TriangleCount(), r.Duration.Round(time.Millisecond), path)
	}

	if runErr != nil {
		return fmt.Errorf("batch stopped after %d of %d maps: %w", len(results), len(jobs), runErr)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d maps failed", failed, len(names))
	}
	return nil
}

func cmdMaps(args []string, stdout io.Writer) error {
	fs, flags := newFlagSet("maps")

	cfg, positional, err := setup(fs, flags, args)
	if err != nil {
		return err
	}

	paths := cfg.Source.GRFPaths
	if fs.NArg() > 0 {
		paths = positional
	}

	maps, err := openMaps(paths)
	if err != nil {
		return err
	}
	defer maps.Close()

	names := maps.Maps()
	for _, name := range names {
		fmt.Fprintln(stdout, name)
	}
	fmt.Fprintf(os.Stderr, "\n(%d maps)\n", len(names))
	return nil
}

func cmdGrid(args []string, stdin io.Reader, stdout io.Writer) error {
	fs, flags := newFlagSet("grid")
	src := registerSource(fs)

	cfg, positional, err := setup(fs, flags, args)
	if err != nil {
		return err
	}

	_, grid, err := src.load(cfg, positional, stdin)
	if err != nil {
		return err
	}
	return formats.FormatGrid(stdout, grid)
}

func cmdInit(args []string, stdout io.Writer) error {
	fs, flags := newFlagSet("init")
	global := fs.Bool("global", false, "Write to the user config directory instead of ./squaremesh.yaml")

	cfg, positional, err := setup(fs, flags, args)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return fmt.Errorf("%w: %v", errExtraArgs, positional)
	}

	path := "squaremesh.yaml"
	if *global {
		path = filepath.Join(config.ConfigDir(), "config.yaml")
		err = cfg.Save()
	} else {
		err = cfg.SaveTo(path)
	}
	if err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintf(stdout, "wrote %s\n", path)
	return nil
}

func meshOptions(cfg *config.Config) []marching.Option {
	return []marching.Option{
		marching.WithTiling(cfg.Mesh.TileCountX, cfg.Mesh.TileCountY),
		marching.WithLogger(logger.Named("marching")),
	}
}

// writeMesh exports mesh and returns where it went. An empty out writes
// <output dir>/<name>.<format>; "-" writes to stdout.
func writeMesh(cfg *config.Config, out, name string, mesh *marching.MeshBuffers, stdout io.Writer) (string, error) {
	format := export.Format(cfg.Output.Format)
	if out == "-" {
		return out, export.Write(stdout, format, mesh, name)
	}
	if out == "" {
		out = filepath.Join(cfg.Output.Dir, name+format.Ext())
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(out)
	if err != nil {
		return "", err
	}
	if err := export.Write(f, format, mesh, name); err != nil {
		f.Close()
		return "", fmt.Errorf("writing %s: %w", out, err)
	}
	return out, f.Close()
}
