package formats

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/Faultbox/squaremesh/pkg/marching"
)

// GAT format errors.
var (
	ErrInvalidGATMagic       = errors.New("invalid GAT magic: expected 'GRAT'")
	ErrUnsupportedGATVersion = errors.New("unsupported GAT version")
	ErrTruncatedGATData      = errors.New("truncated GAT data")
	ErrInvalidGATDimensions  = errors.New("invalid GAT dimensions")
)

const (
	gatHeaderSize = 14 // magic + version + width + height
	gatCellSize   = 20 // 4 float32 heights + uint32 type
	gatMaxSide    = 4096
)

// GATVersion represents the GAT file version.
type GATVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v GATVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// GATCellType represents the walkability type of a cell.
type GATCellType uint32

// Cell type constants.
const (
	GATWalkable      GATCellType = 0 // Normal walkable ground
	GATBlocked       GATCellType = 1 // Cannot walk through
	GATWater         GATCellType = 2 // Water (walkable with certain skills)
	GATWalkableWater GATCellType = 3 // Shore/shallow water
	GATSnipeable     GATCellType = 4 // Can attack over but not walk (cliffs)
	GATBlockedSnipe  GATCellType = 5 // Blocked but can shoot over
)

// String returns a human-readable cell type name.
func (t GATCellType) String() string {
	switch t {
	case GATWalkable:
		return "Walkable"
	case GATBlocked:
		return "Blocked"
	case GATWater:
		return "Water"
	case GATWalkableWater:
		return "Walkable+Water"
	case GATSnipeable:
		return "Snipeable"
	case GATBlockedSnipe:
		return "Blocked+Snipe"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// IsWalkable returns true if the cell type allows walking.
func (t GATCellType) IsWalkable() bool {
	return t == GATWalkable || t == GATWalkableWater
}

// IsBlocked returns true if the cell blocks movement.
func (t GATCellType) IsBlocked() bool {
	return t == GATBlocked || t == GATBlockedSnipe
}

// IsWater returns true if the cell contains water.
func (t GATCellType) IsWater() bool {
	return t == GATWater || t == GATWalkableWater
}

// GATCell represents a single cell in the GAT grid.
type GATCell struct {
	// Heights contains the altitude of each corner:
	// [0] = bottom-left, [1] = bottom-right, [2] = top-left, [3] = top-right
	Heights [4]float32
	Type    GATCellType
}

// GAT represents a parsed Ground Altitude Table file.
type GAT struct {
	Version GATVersion
	Width   uint32
	Height  uint32
	Cells   []GATCell // row-major, y*Width+x
}

// GetCell returns the cell at the given coordinates.
// Returns nil if coordinates are out of bounds.
func (g *GAT) GetCell(x, y int) *GATCell {
	if x < 0 || y < 0 || x >= int(g.Width) || y >= int(g.Height) {
		return nil
	}
	return &g.Cells[y*int(g.Width)+x]
}

// CountByType returns the count of cells for each type.
func (g *GAT) CountByType() map[GATCellType]int {
	counts := make(map[GATCellType]int)
	for _, cell := range g.Cells {
		counts[cell.Type]++
	}
	return counts
}

// SolidFunc decides whether a cell type counts as solid in an occupancy grid.
type SolidFunc func(GATCellType) bool

// Built-in occupancy rules: meshing the blocked area outlines walls and
// cliffs, meshing the walkable area yields the navigable floor, and meshing
// water gives the water surface.
var (
	SolidBlocked  SolidFunc = GATCellType.IsBlocked
	SolidWalkable SolidFunc = GATCellType.IsWalkable
	SolidWater    SolidFunc = GATCellType.IsWater
)

// Occupancy converts the cell types into an occupancy grid indexed [x][y].
func (g *GAT) Occupancy(solid SolidFunc) marching.OccupancyGrid {
	w, h := int(g.Width), int(g.Height)
	grid := make(marching.OccupancyGrid, w)
	for x := range w {
		grid[x] = make([]bool, h)
		for y := range h {
			grid[x][y] = solid(g.GetCell(x, y).Type)
		}
	}
	return grid
}

// ParseGAT parses a GAT file from raw bytes.
func ParseGAT(data []byte) (*GAT, error) {
	if len(data) < gatHeaderSize {
		return nil, ErrTruncatedGATData
	}

	if string(data[0:4]) != "GRAT" {
		return nil, ErrInvalidGATMagic
	}

	// Version is stored as [minor, major]
	version := GATVersion{
		Major: data[5],
		Minor: data[4],
	}

	// 1.2, 1.3, 2.x and 3.x share the cell layout
	if version.Major < 1 || version.Major > 3 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGATVersion, version)
	}

	width := binary.LittleEndian.Uint32(data[6:])
	height := binary.LittleEndian.Uint32(data[10:])
	if width == 0 || height == 0 || width > gatMaxSide || height > gatMaxSide {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidGATDimensions, width, height)
	}

	cellCount := int(width * height)
	body := data[gatHeaderSize:]
	if len(body) < cellCount*gatCellSize {
		return nil, fmt.Errorf("%w: %d cells need %d bytes, have %d",
			ErrTruncatedGATData, cellCount, cellCount*gatCellSize, len(body))
	}

	gat := &GAT{
		Version: version,
		Width:   width,
		Height:  height,
		Cells:   make([]GATCell, cellCount),
	}

	for i := range gat.Cells {
		rec := body[i*gatCellSize : (i+1)*gatCellSize]
		cell := &gat.Cells[i]
		for j := range cell.Heights {
			cell.Heights[j] = math.Float32frombits(binary.LittleEndian.Uint32(rec[j*4:]))
		}
		cell.Type = GATCellType(binary.LittleEndian.Uint32(rec[16:]))
	}

	return gat, nil
}

// ParseGATFile parses a GAT file from disk.
func ParseGATFile(path string) (*GAT, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading GAT file: %w", err)
	}
	return ParseGAT(data)
}
