// Package marching converts 2D occupancy grids into triangle meshes using the
// marching squares method.
//
// A grid of W×H solid/empty samples is treated as a lattice of corners. Every
// group of four neighbouring corners forms a cell whose 4-bit configuration
// selects a polygon from a fixed table. Polygons are built from the cell's
// corners and the midpoints of its edges, fanned into triangles, and packed
// into MeshBuffers lying on the XZ plane with +Y up.
package marching

import (
	"fmt"
	stdmath "math"

	"github.com/Faultbox/squaremesh/pkg/math"
)

// OccupancyGrid is a rectangular field of samples indexed grid[x][y].
// True marks a solid sample.
type OccupancyGrid [][]bool

// Size returns the grid dimensions, validating that the grid is rectangular
// and at least 2×2.
func (g OccupancyGrid) Size() (w, h int, err error) {
	w = len(g)
	if w < 2 {
		return 0, 0, fmt.Errorf("%w: width %d, need at least 2", ErrInvalidGridShape, w)
	}
	h = len(g[0])
	if h < 2 {
		return 0, 0, fmt.Errorf("%w: height %d, need at least 2", ErrInvalidGridShape, h)
	}
	for x, col := range g {
		if len(col) != h {
			return 0, 0, fmt.Errorf("%w: column %d has %d samples, want %d", ErrInvalidGridShape, x, len(col), h)
		}
	}
	return w, h, nil
}

// unassigned marks a point that has not been given a vertex index yet.
const unassigned int32 = -1

// point is an arena slot: a corner sample or an edge midpoint.
type point struct {
	position math.Vec3
	index    int32
}

// Each corner owns three consecutive arena slots.
const (
	slotCorner = iota
	slotAbove
	slotRight
	slotsPerCorner
)

// Role names one of the eight points a cell can contribute to its polygon.
type Role uint8

// Cell point roles. The first four are corners, the rest edge midpoints.
const (
	TopLeft Role = iota
	TopRight
	BottomRight
	BottomLeft
	CenterTop
	CenterRight
	CenterBottom
	CenterLeft
	roleCount
)

var roleNames = [roleCount]string{
	"TopLeft", "TopRight", "BottomRight", "BottomLeft",
	"CenterTop", "CenterRight", "CenterBottom", "CenterLeft",
}

// String returns the role name.
func (r Role) String() string {
	if r >= roleCount {
		return fmt.Sprintf("Role(%d)", r)
	}
	return roleNames[r]
}

// Cell is one square of the grid. Points holds arena handles by Role; a
// handle shared with a neighbouring cell refers to the same slot.
type Cell struct {
	Points        [roleCount]int
	Configuration int
}

// CellGrid is the corner lattice and cell set built from an OccupancyGrid.
type CellGrid struct {
	width    int // corners along X
	height   int // corners along Z
	cellSize float32
	points   []point
	cells    []Cell
}

// BuildGrid constructs the corner lattice and cells for grid. The lattice is
// centred on the origin with cellSize between neighbouring corners.
func BuildGrid(grid OccupancyGrid, cellSize float32) (*CellGrid, error) {
	w, h, err := grid.Size()
	if err != nil {
		return nil, err
	}
	if !(cellSize > 0) || stdmath.IsInf(float64(cellSize), 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCellSize, cellSize)
	}

	mapWidth := float32(w) * cellSize
	mapHeight := float32(h) * cellSize
	half := cellSize / 2

	cg := &CellGrid{
		width:    w,
		height:   h,
		cellSize: cellSize,
		points:   make([]point, w*h*slotsPerCorner),
		cells:    make([]Cell, (w-1)*(h-1)),
	}

	for x := range w {
		for y := range h {
			pos := math.Vec3{
				X: -mapWidth/2 + float32(x)*cellSize + half,
				Z: -mapHeight/2 + float32(y)*cellSize + half,
			}
			base := cg.corner(x, y)
			cg.points[base+slotCorner] = point{position: pos, index: unassigned}
			cg.points[base+slotAbove] = point{position: pos.Add(math.Vec3{Z: half}), index: unassigned}
			cg.points[base+slotRight] = point{position: pos.Add(math.Vec3{X: half}), index: unassigned}
		}
	}

	for x := range w - 1 {
		for y := range h - 1 {
			tl := cg.corner(x, y+1)
			tr := cg.corner(x+1, y+1)
			br := cg.corner(x+1, y)
			bl := cg.corner(x, y)

			var c Cell
			c.Points[TopLeft] = tl
			c.Points[TopRight] = tr
			c.Points[BottomRight] = br
			c.Points[BottomLeft] = bl
			c.Points[CenterTop] = tl + slotRight
			c.Points[CenterRight] = br + slotAbove
			c.Points[CenterBottom] = bl + slotRight
			c.Points[CenterLeft] = bl + slotAbove

			if grid[x][y+1] {
				c.Configuration += 8
			}
			if grid[x+1][y+1] {
				c.Configuration += 4
			}
			if grid[x+1][y] {
				c.Configuration += 2
			}
			if grid[x][y] {
				c.Configuration += 1
			}
			cg.cells[cg.cellIndex(x, y)] = c
		}
	}

	return cg, nil
}

// corner returns the arena handle of corner (x, y).
func (g *CellGrid) corner(x, y int) int {
	return (x*g.height + y) * slotsPerCorner
}

func (g *CellGrid) cellIndex(x, y int) int {
	return x*(g.height-1) + y
}

// Size returns the corner lattice dimensions.
func (g *CellGrid) Size() (w, h int) {
	return g.width, g.height
}

// CellSize returns the distance between neighbouring corners.
func (g *CellGrid) CellSize() float32 {
	return g.cellSize
}

// CellCount returns the number of cells, (w-1)*(h-1).
func (g *CellGrid) CellCount() int {
	return len(g.cells)
}

// Cell returns the cell whose bottom-left corner is (x, y).
// Returns nil if out of bounds.
func (g *CellGrid) Cell(x, y int) *Cell {
	if x < 0 || y < 0 || x >= g.width-1 || y >= g.height-1 {
		return nil
	}
	return &g.cells[g.cellIndex(x, y)]
}

// Configuration returns the configuration code of cell (x, y), or -1 if out
// of bounds.
func (g *CellGrid) Configuration(x, y int) int {
	c := g.Cell(x, y)
	if c == nil {
		return -1
	}
	return c.Configuration
}

// Histogram counts cells per configuration code.
func (g *CellGrid) Histogram() [16]int {
	var counts [16]int
	for _, c := range g.cells {
		if c.Configuration >= 0 && c.Configuration < len(counts) {
			counts[c.Configuration]++
		}
	}
	return counts
}

// Position returns the world position of the point behind handle.
func (g *CellGrid) Position(handle int) math.Vec3 {
	return g.points[handle].position
}
