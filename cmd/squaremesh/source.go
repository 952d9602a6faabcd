package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/squaremesh/internal/assets"
	"github.com/Faultbox/squaremesh/internal/config"
	"github.com/Faultbox/squaremesh/internal/logger"
	"github.com/Faultbox/squaremesh/pkg/formats"
	"github.com/Faultbox/squaremesh/pkg/marching"
	"github.com/Faultbox/squaremesh/pkg/shapes"
)

var (
	errNoSource    = errors.New("one of -grid, -gat, -map or -shapes is required")
	errManySources = errors.New("only one of -grid, -gat, -map or -shapes may be given")
	errExtraArgs   = errors.New("unexpected arguments")
)

// sourceFlags selects where an occupancy grid is read from.
type sourceFlags struct {
	grid    string
	gat     string
	mapName string
	shapes  bool
}

func registerSource(fs *flag.FlagSet) *sourceFlags {
	s := &sourceFlags{}
	fs.StringVar(&s.grid, "grid", "", "Text grid file ('-' for stdin)")
	fs.StringVar(&s.gat, "gat", "", "GAT file")
	fs.StringVar(&s.mapName, "map", "", "Map name in the configured GRF archives")
	fs.BoolVar(&s.shapes, "shapes", false, "Rasterize the shapes from the config")
	return s
}

// load reads the selected grid and returns it with a name for output files.
// A single positional argument is taken as a text grid path.
func (s *sourceFlags) load(cfg *config.Config, positional []string, stdin io.Reader) (string, marching.OccupancyGrid, error) {
	if len(positional) > 1 || (s.grid != "" && len(positional) > 0) {
		return "", nil, fmt.Errorf("%w: %v", errExtraArgs, positional)
	}
	if s.grid == "" && len(positional) > 0 {
		s.grid = positional[0]
	}

	selected := 0
	for _, set := range []bool{s.grid != "", s.gat != "", s.mapName != "", s.shapes} {
		if set {
			selected++
		}
	}
	switch {
	case selected == 0:
		return "", nil, errNoSource
	case selected > 1:
		return "", nil, errManySources
	}

	switch {
	case s.grid != "":
		return loadTextGrid(s.grid, stdin)
	case s.gat != "":
		gat, err := formats.ParseGATFile(s.gat)
		if err != nil {
			return "", nil, err
		}
		logGAT(s.gat, gat)
		return baseName(s.gat), gat.Occupancy(solidFunc(cfg)), nil
	case s.mapName != "":
		maps, err := openMaps(cfg.Source.GRFPaths)
		if err != nil {
			return "", nil, err
		}
		defer maps.Close()

		gat, err := maps.LoadGAT(s.mapName)
		if err != nil {
			return "", nil, err
		}
		logGAT(s.mapName, gat)
		return s.mapName, gat.Occupancy(solidFunc(cfg)), nil
	default:
		field, err := shapes.Build(cfg.Source.Shapes)
		if err != nil {
			return "", nil, err
		}
		grid, err := shapes.Rasterize(field, cfg.Source.Width, cfg.Source.Height, cfg.Mesh.CellSize)
		if err != nil {
			return "", nil, err
		}
		return "shapes", grid, nil
	}
}

func loadTextGrid(path string, stdin io.Reader) (string, marching.OccupancyGrid, error) {
	if path == "-" {
		grid, err := formats.ParseGrid(stdin)
		return "stdin", grid, err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	grid, err := formats.ParseGrid(f)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", path, err)
	}
	return baseName(path), grid, nil
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func solidFunc(cfg *config.Config) formats.SolidFunc {
	switch cfg.Source.Solid {
	case config.SolidWalkable:
		return formats.SolidWalkable
	case config.SolidWater:
		return formats.SolidWater
	default:
		return formats.SolidBlocked
	}
}

func logGAT(name string, gat *formats.GAT) {
	fields := []zap.Field{
		zap.String("name", name),
		zap.Stringer("version", gat.Version),
		zap.Uint32("width", gat.Width),
		zap.Uint32("height", gat.Height),
	}
	for t, n := range gat.CountByType() {
		fields = append(fields, zap.Int(t.String(), n))
	}
	logger.Debug("altitude table loaded", fields...)
}

// openMaps returns a manager over the configured archives.
func openMaps(paths []string) (*assets.Manager, error) {
	m := assets.NewManager(logger.Named("assets"))
	if err := m.AddArchives(paths); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}
