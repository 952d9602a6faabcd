// Package config handles mesh generation configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Faultbox/squaremesh/pkg/shapes"
)

// Output formats.
const (
	FormatOBJ  = "obj"
	FormatJSON = "json"
)

// Occupancy rules for GAT maps.
const (
	SolidBlocked  = "blocked"
	SolidWalkable = "walkable"
	SolidWater    = "water"
)

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid config")

// Config holds all settings.
type Config struct {
	Mesh    MeshConfig    `yaml:"mesh"`
	Source  SourceConfig  `yaml:"source"`
	Output  OutputConfig  `yaml:"output"`
	Batch   BatchConfig   `yaml:"batch"`
	Logging LoggingConfig `yaml:"logging"`
}

// MeshConfig holds marching squares settings.
type MeshConfig struct {
	CellSize   float32 `yaml:"cell_size"`
	TileCountX float32 `yaml:"tile_count_x"` // 0 = grid width
	TileCountY float32 `yaml:"tile_count_y"` // 0 = grid height
}

// SourceConfig describes where occupancy grids come from.
type SourceConfig struct {
	GRFPaths []string       `yaml:"grf_paths"`
	Solid    string         `yaml:"solid"` // which GAT cells count as solid
	Shapes   []shapes.Shape `yaml:"shapes"`
	Width    int            `yaml:"width"` // lattice size for shapes
	Height   int            `yaml:"height"`
}

// OutputConfig holds export settings.
type OutputConfig struct {
	Format string `yaml:"format"`
	Dir    string `yaml:"dir"`
}

// BatchConfig holds worker pool settings.
type BatchConfig struct {
	Workers   int           `yaml:"workers"`
	QueueSize int           `yaml:"queue_size"`
	Timeout   time.Duration `yaml:"timeout"` // 0 = no limit
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Mesh: MeshConfig{
			CellSize: 1.0,
		},
		Source: SourceConfig{
			GRFPaths: []string{"data.grf"},
			Solid:    SolidBlocked,
			Width:    64,
			Height:   64,
		},
		Output: OutputConfig{
			Format: FormatOBJ,
			Dir:    ".",
		},
		Batch: BatchConfig{
			Workers:   4,
			QueueSize: 16,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks settings that would otherwise fail deep inside generation.
func (c *Config) Validate() error {
	if !(c.Mesh.CellSize > 0) {
		return fmt.Errorf("%w: mesh.cell_size must be positive, got %v", ErrInvalid, c.Mesh.CellSize)
	}
	if c.Mesh.TileCountX < 0 || c.Mesh.TileCountY < 0 {
		return fmt.Errorf("%w: mesh tile counts must not be negative", ErrInvalid)
	}
	switch c.Output.Format {
	case FormatOBJ, FormatJSON:
	default:
		return fmt.Errorf("%w: output.format %q", ErrInvalid, c.Output.Format)
	}
	switch c.Source.Solid {
	case SolidBlocked, SolidWalkable, SolidWater:
	default:
		return fmt.Errorf("%w: source.solid %q", ErrInvalid, c.Source.Solid)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("%w: batch.workers must be at least 1, got %d", ErrInvalid, c.Batch.Workers)
	}
	if c.Batch.QueueSize < 0 {
		return fmt.Errorf("%w: batch.queue_size must not be negative", ErrInvalid)
	}
	return nil
}
