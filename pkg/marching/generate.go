package marching

import (
	"fmt"

	"go.uber.org/zap"
)

// Option configures Generate.
type Option func(*options)

type options struct {
	tiling Tiling
	log    *zap.Logger
}

// WithTiling overrides the texture repeat counts. Zero counts keep the
// per-axis default.
func WithTiling(countX, countY float32) Option {
	return func(o *options) {
		o.tiling = Tiling{CountX: countX, CountY: countY}
	}
}

// WithLogger sets the logger used for generation diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// Generate converts grid into a mesh with cellSize world units between
// neighbouring samples. An all-empty grid yields an empty mesh, not an error.
func Generate(grid OccupancyGrid, cellSize float32, opts ...Option) (*MeshBuffers, error) {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	cg, err := BuildGrid(grid, cellSize)
	if err != nil {
		return nil, err
	}

	vertices, indices, err := cg.Triangulate()
	if err != nil {
		return nil, fmt.Errorf("triangulating: %w", err)
	}

	w, h := cg.Size()
	mesh := Assemble(vertices, indices, w, h, cellSize, o.tiling)

	o.log.Debug("marching squares mesh generated",
		zap.Int("width", w),
		zap.Int("height", h),
		zap.Float32("cell_size", cellSize),
		zap.Int("cells", cg.CellCount()),
		zap.Int("vertices", mesh.VertexCount()),
		zap.Int("triangles", mesh.TriangleCount()),
	)

	return mesh, nil
}
