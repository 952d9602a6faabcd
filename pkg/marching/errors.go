package marching

import "errors"

// Mesh generation errors.
var (
	ErrInvalidGridShape     = errors.New("invalid occupancy grid shape")
	ErrInvalidCellSize      = errors.New("invalid cell size")
	ErrInvalidConfiguration = errors.New("invalid cell configuration")
)
