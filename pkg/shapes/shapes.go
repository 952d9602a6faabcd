// Package shapes builds occupancy grids from 2D signed distance fields using
// the github.com/deadsy/sdfx CAD library.
package shapes

import (
	"errors"
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/Faultbox/squaremesh/pkg/marching"
)

// Shape errors.
var (
	ErrNoShapes    = errors.New("no additive shapes")
	ErrUnknownKind = errors.New("unknown shape kind")
	ErrBadSize     = errors.New("shape size must be positive")
)

// Kind selects the primitive a Shape describes.
type Kind string

// Supported shape kinds.
const (
	KindCircle Kind = "circle"
	KindBox    Kind = "box"
)

// Shape is a 2D primitive in grid world space. X and Y give its centre; Y
// runs along the mesh Z axis. Subtract carves the shape out of the others.
type Shape struct {
	Kind     Kind    `yaml:"kind"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Radius   float64 `yaml:"radius,omitempty"`
	Width    float64 `yaml:"width,omitempty"`
	Height   float64 `yaml:"height,omitempty"`
	Round    float64 `yaml:"round,omitempty"`
	Subtract bool    `yaml:"subtract,omitempty"`
}

// SDF returns the signed distance field of s, translated to its centre.
func (s Shape) SDF() (sdf.SDF2, error) {
	var base sdf.SDF2

	switch s.Kind {
	case KindCircle:
		if s.Radius <= 0 {
			return nil, fmt.Errorf("%w: circle radius %v", ErrBadSize, s.Radius)
		}
		c, err := sdf.Circle2D(s.Radius)
		if err != nil {
			return nil, fmt.Errorf("circle: %w", err)
		}
		base = c
	case KindBox:
		if s.Width <= 0 || s.Height <= 0 {
			return nil, fmt.Errorf("%w: box %vx%v", ErrBadSize, s.Width, s.Height)
		}
		base = sdf.Box2D(v2.Vec{X: s.Width, Y: s.Height}, s.Round)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind)
	}

	if s.X == 0 && s.Y == 0 {
		return base, nil
	}
	return sdf.Transform2D(base, sdf.Translate2d(v2.Vec{X: s.X, Y: s.Y})), nil
}

// Build combines shapes into one field: the union of the additive shapes
// minus the union of the subtractive ones.
func Build(list []Shape) (sdf.SDF2, error) {
	var add, sub []sdf.SDF2
	for i, s := range list {
		field, err := s.SDF()
		if err != nil {
			return nil, fmt.Errorf("shape %d: %w", i, err)
		}
		if s.Subtract {
			sub = append(sub, field)
		} else {
			add = append(add, field)
		}
	}
	if len(add) == 0 {
		return nil, ErrNoShapes
	}

	result := union(add)
	if len(sub) > 0 {
		result = sdf.Difference2D(result, union(sub))
	}
	return result, nil
}

func union(fields []sdf.SDF2) sdf.SDF2 {
	if len(fields) == 1 {
		return fields[0]
	}
	return sdf.Union2D(fields...)
}

// Rasterize samples field on a w×h lattice with cellSize spacing, centred on
// the origin exactly like the marching squares corner lattice. A sample is
// solid where the distance is zero or negative.
func Rasterize(field sdf.SDF2, w, h int, cellSize float32) (marching.OccupancyGrid, error) {
	if w < 2 || h < 2 {
		return nil, fmt.Errorf("%w: %dx%d", marching.ErrInvalidGridShape, w, h)
	}
	if !(cellSize > 0) {
		return nil, fmt.Errorf("%w: %v", marching.ErrInvalidCellSize, cellSize)
	}

	cs := float64(cellSize)
	originX := -float64(w)*cs/2 + cs/2
	originY := -float64(h)*cs/2 + cs/2

	grid := make(marching.OccupancyGrid, w)
	for x := range w {
		grid[x] = make([]bool, h)
		for y := range h {
			p := v2.Vec{X: originX + float64(x)*cs, Y: originY + float64(y)*cs}
			grid[x][y] = field.Evaluate(p) <= 0
		}
	}
	return grid, nil
}
