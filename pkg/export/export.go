// Package export writes generated meshes to interchange formats.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/segmentio/encoding/json"

	"github.com/Faultbox/squaremesh/pkg/marching"
)

// Format names an export format.
type Format string

// Supported formats.
const (
	OBJ  Format = "obj"
	JSON Format = "json"
)

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Write dispatches to the writer for f.
func Write(w io.Writer, f Format, mesh *marching.MeshBuffers, name string) error {
	switch f {
	case OBJ:
		return WriteOBJ(w, mesh, name)
	case JSON:
		return WriteJSON(w, mesh, name)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

// WriteOBJ writes mesh as a Wavefront OBJ object with positions, texture
// coordinates and normals. OBJ indices are 1-based.
func WriteOBJ(w io.Writer, mesh *marching.MeshBuffers, name string) error {
	bw := bufio.NewWriter(w)

	if name != "" {
		fmt.Fprintf(bw, "o %s\n", name)
	}
	for _, p := range mesh.Positions {
		fmt.Fprintf(bw, "v %s %s %s\n", ftoa(p.X), ftoa(p.Y), ftoa(p.Z))
	}
	for _, uv := range mesh.UVs {
		fmt.Fprintf(bw, "vt %s %s\n", ftoa(uv.X), ftoa(uv.Y))
	}
	for _, n := range mesh.Normals {
		fmt.Fprintf(bw, "vn %s %s %s\n", ftoa(n.X), ftoa(n.Y), ftoa(n.Z))
	}
	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		a, b, c := mesh.Indices[i]+1, mesh.Indices[i+1]+1, mesh.Indices[i+2]+1
		fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
	}

	return bw.Flush()
}

func ftoa(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

// Document is the JSON form of a mesh. Arrays are flat: three floats per
// position and normal, two per UV, three indices per triangle.
type Document struct {
	Name      string     `json:"name,omitempty"`
	Vertices  []float32  `json:"vertices"`
	Normals   []float32  `json:"normals"`
	UVs       []float32  `json:"uvs"`
	Indices   []uint32   `json:"indices"`
	BoundsMin [3]float32 `json:"boundsMin"`
	BoundsMax [3]float32 `json:"boundsMax"`
}

// NewDocument flattens mesh into a Document.
func NewDocument(mesh *marching.MeshBuffers, name string) *Document {
	doc := &Document{
		Name:      name,
		Vertices:  make([]float32, 0, len(mesh.Positions)*3),
		Normals:   make([]float32, 0, len(mesh.Normals)*3),
		UVs:       make([]float32, 0, len(mesh.UVs)*2),
		Indices:   mesh.Indices,
		BoundsMin: mesh.Bounds.Min.Array(),
		BoundsMax: mesh.Bounds.Max.Array(),
	}
	if doc.Indices == nil {
		doc.Indices = []uint32{}
	}
	for _, p := range mesh.Positions {
		a := p.Array()
		doc.Vertices = append(doc.Vertices, a[:]...)
	}
	for _, n := range mesh.Normals {
		a := n.Array()
		doc.Normals = append(doc.Normals, a[:]...)
	}
	for _, uv := range mesh.UVs {
		a := uv.Array()
		doc.UVs = append(doc.UVs, a[:]...)
	}
	return doc
}

// WriteJSON writes mesh as a JSON Document.
func WriteJSON(w io.Writer, mesh *marching.MeshBuffers, name string) error {
	return json.NewEncoder(w).Encode(NewDocument(mesh, name))
}
