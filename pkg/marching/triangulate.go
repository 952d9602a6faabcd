package marching

import (
	"fmt"

	"github.com/Faultbox/squaremesh/pkg/math"
)

// triangulator accumulates the vertex and index lists for one CellGrid.
type triangulator struct {
	grid     *CellGrid
	vertices []math.Vec3
	indices  []uint32
	handles  [6]int
}

// Triangulate emits the deduplicated vertex list and the triangle index list
// for every cell. Cells are visited with x as the outer loop and y as the
// inner loop, both ascending; vertex indices are assigned in that order the
// first time a point is used.
//
// Calling Triangulate again restarts numbering and yields the same result.
func (g *CellGrid) Triangulate() ([]math.Vec3, []uint32, error) {
	for i := range g.points {
		g.points[i].index = unassigned
	}

	t := &triangulator{grid: g}
	for x := range g.width - 1 {
		for y := range g.height - 1 {
			c := &g.cells[g.cellIndex(x, y)]
			if err := t.triangulateCell(c); err != nil {
				return nil, nil, fmt.Errorf("cell (%d,%d): %w", x, y, err)
			}
		}
	}
	return t.vertices, t.indices, nil
}

func (t *triangulator) triangulateCell(c *Cell) error {
	if c.Configuration < 0 || c.Configuration >= len(caseTable) {
		return fmt.Errorf("%w: %d", ErrInvalidConfiguration, c.Configuration)
	}
	roles := caseTable[c.Configuration]
	if len(roles) == 0 {
		return nil
	}

	handles := t.handles[:len(roles)]
	for i, r := range roles {
		handles[i] = c.Points[r]
	}
	t.meshFromPoints(handles)
	return nil
}

// meshFromPoints fans the polygon around its first point.
func (t *triangulator) meshFromPoints(handles []int) {
	t.assignVertices(handles)

	for i := 2; i < len(handles); i++ {
		t.createTriangle(handles[0], handles[i-1], handles[i])
	}
}

// assignVertices gives every unindexed point the next vertex index.
func (t *triangulator) assignVertices(handles []int) {
	for _, h := range handles {
		p := &t.grid.points[h]
		if p.index == unassigned {
			p.index = int32(len(t.vertices))
			t.vertices = append(t.vertices, p.position)
		}
	}
}

func (t *triangulator) createTriangle(a, b, c int) {
	pts := t.grid.points
	t.indices = append(t.indices,
		uint32(pts[a].index),
		uint32(pts[b].index),
		uint32(pts[c].index),
	)
}
