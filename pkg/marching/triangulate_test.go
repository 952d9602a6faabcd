package marching

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/Faultbox/squaremesh/pkg/math"
)

// randomGrid returns a reproducible w×h grid with roughly half the samples solid.
func randomGrid(w, h int, seed uint64) OccupancyGrid {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	g := filled(w, h, false)
	for x := range g {
		for y := range g[x] {
			g[x][y] = r.IntN(2) == 1
		}
	}
	return g
}

// triangulate builds and triangulates g, failing the test on any error.
func triangulate(t *testing.T, g OccupancyGrid, cellSize float32) (*CellGrid, []math.Vec3, []uint32) {
	t.Helper()
	cg, err := BuildGrid(g, cellSize)
	if err != nil {
		t.Fatalf("BuildGrid: %v", err)
	}
	vertices, indices, err := cg.Triangulate()
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	return cg, vertices, indices
}

func TestTriangulate_CaseTriangleCounts(t *testing.T) {
	want := map[int]int{
		0: 0,
		1: 1, 2: 1, 4: 1, 8: 1,
		3: 2, 6: 2, 9: 2, 12: 2,
		5: 4, 10: 4,
		7: 3, 11: 3, 13: 3, 14: 3,
		15: 2,
	}
	for code, tris := range want {
		_, vertices, indices := triangulate(t, single(code), 1)
		if len(indices) != tris*3 {
			t.Errorf("configuration %d: %d indices, want %d", code, len(indices), tris*3)
		}
		if want := len(CaseRoles(code)); len(vertices) != want {
			t.Errorf("configuration %d: %d vertices, want %d", code, len(vertices), want)
		}
	}
}

func TestTriangulate_WindingFacesUp(t *testing.T) {
	for code := 1; code < 16; code++ {
		_, vertices, indices := triangulate(t, single(code), 1)

		for i := 0; i < len(indices); i += 3 {
			a := vertices[indices[i]]
			b := vertices[indices[i+1]]
			c := vertices[indices[i+2]]
			if n := b.Sub(a).Cross(c.Sub(a)); n.Y <= 0 {
				t.Errorf("configuration %d triangle %d: normal %v points down", code, i/3, n)
			}
		}
	}
}

func TestTriangulate_SharedEdge(t *testing.T) {
	// Two cells side by side share corners (1,0) and (1,1).
	_, vertices, indices := triangulate(t, filled(3, 2, true), 1)

	if len(vertices) != 6 {
		t.Fatalf("got %d vertices, want 6", len(vertices))
	}
	want := []uint32{
		0, 1, 2, 0, 2, 3, // cell (0,0): TL, TR, BR, BL
		1, 4, 5, 1, 5, 2, // cell (1,0): reuses (1,1) and (1,0)
	}
	if !slices.Equal(indices, want) {
		t.Errorf("indices = %v, want %v", indices, want)
	}
	if got, want := vertices[1], (math.Vec3{X: 0, Z: 0.5}); got != want {
		t.Errorf("vertex 1 = %v, want %v", got, want)
	}
	if got, want := vertices[2], (math.Vec3{X: 0, Z: -0.5}); got != want {
		t.Errorf("vertex 2 = %v, want %v", got, want)
	}
}

func TestTriangulate_SharedMidpoint(t *testing.T) {
	// Bottom row solid: both cells are configuration 3 and share the
	// midpoint on their common vertical edge.
	g := filled(3, 2, false)
	g[0][0], g[1][0], g[2][0] = true, true, true

	_, vertices, indices := triangulate(t, g, 1)
	if len(indices) != 12 {
		t.Errorf("got %d indices, want 12", len(indices))
	}
	// 3 bottom corners + 3 left/right midpoints.
	if len(vertices) != 6 {
		t.Errorf("got %d vertices, want 6", len(vertices))
	}
}

func TestTriangulate_AllEmptyAndAllSolid(t *testing.T) {
	const w, h = 5, 4

	_, vertices, indices := triangulate(t, filled(w, h, false), 1)
	if len(vertices) != 0 || len(indices) != 0 {
		t.Errorf("empty grid: %d vertices, %d indices", len(vertices), len(indices))
	}

	_, vertices, indices = triangulate(t, filled(w, h, true), 1)
	if want := 2 * (w - 1) * (h - 1) * 3; len(indices) != want {
		t.Errorf("solid grid: %d indices, want %d", len(indices), want)
	}
	// Only corners are used, each exactly once.
	if len(vertices) != w*h {
		t.Errorf("solid grid: %d vertices, want %d", len(vertices), w*h)
	}
}

func TestTriangulate_IndexValidityAndBounds(t *testing.T) {
	for seed := uint64(1); seed <= 8; seed++ {
		cg, vertices, indices := triangulate(t, randomGrid(17, 11, seed), 0.5)

		if len(indices)%3 != 0 {
			t.Errorf("seed %d: %d indices is not a multiple of 3", seed, len(indices))
		}
		for _, i := range indices {
			if int(i) >= len(vertices) {
				t.Fatalf("seed %d: index %d out of range (%d vertices)", seed, i, len(vertices))
			}
		}

		nonTrivial := 0
		used := make(map[int]bool)
		for _, c := range cg.cells {
			roles := CaseRoles(c.Configuration)
			if len(roles) > 0 {
				nonTrivial++
			}
			for _, r := range roles {
				used[c.Points[r]] = true
			}
		}
		if len(used) != len(vertices) {
			t.Errorf("seed %d: %d vertices, want %d used points", seed, len(vertices), len(used))
		}
		if len(vertices) > 6*nonTrivial {
			t.Errorf("seed %d: %d vertices exceeds 6 per non-empty cell (%d)", seed, len(vertices), nonTrivial)
		}
	}
}

func TestTriangulate_Deterministic(t *testing.T) {
	g := randomGrid(23, 19, 42)

	first, v1, i1 := triangulate(t, g, 1)
	_, v2, i2 := triangulate(t, g, 1)
	if !slices.Equal(v1, v2) || !slices.Equal(i1, i2) {
		t.Error("two grids built from the same samples triangulate differently")
	}

	// Re-running on the same CellGrid restarts numbering.
	v3, i3, err := first.Triangulate()
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	if !slices.Equal(v1, v3) || !slices.Equal(i1, i3) {
		t.Error("second Triangulate on the same grid differs from the first")
	}
}

func TestTriangulate_InvalidConfiguration(t *testing.T) {
	cg, err := BuildGrid(filled(2, 2, true), 1)
	if err != nil {
		t.Fatalf("BuildGrid: %v", err)
	}

	cg.Cell(0, 0).Configuration = 16
	if _, _, err := cg.Triangulate(); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("got %v, want ErrInvalidConfiguration", err)
	}
}

func TestCaseRoles(t *testing.T) {
	for _, code := range []int{0, -1, 16} {
		if got := CaseRoles(code); got != nil {
			t.Errorf("CaseRoles(%d) = %v, want nil", code, got)
		}
	}
	if got, want := CaseRoles(15), []Role{TopLeft, TopRight, BottomRight, BottomLeft}; !slices.Equal(got, want) {
		t.Errorf("CaseRoles(15) = %v, want %v", got, want)
	}
	for _, code := range []int{5, 10} {
		if got := len(CaseRoles(code)); got != 6 {
			t.Errorf("len(CaseRoles(%d)) = %d, want 6", code, got)
		}
	}
}
