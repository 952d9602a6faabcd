package marching

import (
	"github.com/Faultbox/squaremesh/pkg/math"
)

// MeshBuffers holds a generated mesh ready for upload or export.
// Normals and UVs are parallel to Positions; Indices holds three entries per
// triangle.
type MeshBuffers struct {
	Positions []math.Vec3
	Normals   []math.Vec3
	UVs       []math.Vec2
	Indices   []uint32
	Bounds    math.Bounds
}

// VertexCount returns the number of vertices.
func (m *MeshBuffers) VertexCount() int {
	return len(m.Positions)
}

// TriangleCount returns the number of triangles.
func (m *MeshBuffers) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no triangles.
func (m *MeshBuffers) IsEmpty() bool {
	return len(m.Indices) == 0
}

// Tiling controls how many times a texture repeats across the grid.
// A zero count falls back to the grid dimension along that axis.
type Tiling struct {
	CountX float32
	CountY float32
}

// resolve fills in defaults for a w×h corner grid.
func (t Tiling) resolve(w, h int) Tiling {
	if t.CountX <= 0 {
		t.CountX = float32(w)
	}
	if t.CountY <= 0 {
		t.CountY = float32(h)
	}
	return t
}

// Assemble packs triangulation output into MeshBuffers. gridWidth and
// gridHeight are corner counts; with cellSize they give the world extents
// that UVs are normalised against, so every UV lies in [0, tileCount].
func Assemble(vertices []math.Vec3, indices []uint32, gridWidth, gridHeight int, cellSize float32, tiling Tiling) *MeshBuffers {
	tiling = tiling.resolve(gridWidth, gridHeight)
	mapWidth := float32(gridWidth) * cellSize
	mapHeight := float32(gridHeight) * cellSize

	positions := make([]math.Vec3, len(vertices))
	copy(positions, vertices)

	normals := make([]math.Vec3, len(positions))
	uvs := make([]math.Vec2, len(positions))
	for i, p := range positions {
		normals[i] = math.Up
		uvs[i] = math.Vec2{
			X: (p.X + mapWidth/2) / mapWidth * tiling.CountX,
			Y: (p.Z + mapHeight/2) / mapHeight * tiling.CountY,
		}
	}

	idx := make([]uint32, len(indices))
	copy(idx, indices)

	return &MeshBuffers{
		Positions: positions,
		Normals:   normals,
		UVs:       uvs,
		Indices:   idx,
		Bounds:    math.BoundsOf(positions),
	}
}
