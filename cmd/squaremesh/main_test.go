package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Faultbox/squaremesh/internal/assets"
	"github.com/Faultbox/squaremesh/internal/config"
	"github.com/Faultbox/squaremesh/pkg/formats"
	"github.com/Faultbox/squaremesh/pkg/grf"
	"github.com/Faultbox/squaremesh/pkg/shapes"
)

const room = `....
.##.
.##.
....
`

// workspace runs the test from an empty directory with no user config.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("HOME", dir)
	require.NoError(t, os.WriteFile("room.txt", []byte(room), 0o644))
	return dir
}

// writeGRF writes data.grf with fully blocked maps of the given sizes.
func writeGRF(t *testing.T, maps map[string][2]uint32) {
	t.Helper()
	var files []grf.File
	for name, size := range maps {
		buf := new(bytes.Buffer)
		buf.WriteString("GRAT")
		buf.Write([]byte{2, 1})
		binary.Write(buf, binary.LittleEndian, size)
		for range size[0] * size[1] {
			binary.Write(buf, binary.LittleEndian, [4]float32{})
			binary.Write(buf, binary.LittleEndian, uint32(formats.GATBlocked))
		}
		files = append(files, grf.File{Name: `data\` + name + ".gat", Data: buf.Bytes()})
	}

	var out bytes.Buffer
	require.NoError(t, grf.Write(&out, files))
	require.NoError(t, os.WriteFile("data.grf", out.Bytes(), 0o644))
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(args, strings.NewReader(stdin), &out)
	return out.String(), err
}

func TestBuild_OBJToStdout(t *testing.T) {
	workspace(t)

	out, err := runCLI(t, "", "build", "-o", "-", "room.txt")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "o room\n"), out)
	require.Equal(t, 14, strings.Count(out, "\nf "))
}

func TestBuild_FlagsAfterSource(t *testing.T) {
	workspace(t)

	out, err := runCLI(t, "", "build", "room.txt", "-o", "-")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "o room\n"), out)
	require.Equal(t, 14, strings.Count(out, "\nf "))
	require.NoFileExists(t, "room.obj")

	out, err = runCLI(t, "", "info", "room.txt", "-cell", "2")
	require.NoError(t, err)
	require.Contains(t, out, "Triangles: 14")
}

func TestBuild_ExtraArgs(t *testing.T) {
	workspace(t)

	_, err := runCLI(t, "", "build", "room.txt", "room.txt")
	require.ErrorIs(t, err, errExtraArgs)

	_, err = runCLI(t, "", "build", "-grid", "room.txt", "other.txt")
	require.ErrorIs(t, err, errExtraArgs)

	_, err = runCLI(t, "", "init", "squaremesh.yaml")
	require.ErrorIs(t, err, errExtraArgs)
}

func TestBuild_Stdin(t *testing.T) {
	workspace(t)

	out, err := runCLI(t, room, "build", "-grid", "-", "-o", "-")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "o stdin\n"))
}

func TestBuild_JSONFile(t *testing.T) {
	workspace(t)

	out, err := runCLI(t, "", "build", "-format", "json", "-out", "meshes", "room.txt")
	require.NoError(t, err)

	path := filepath.Join("meshes", "room.json")
	require.Contains(t, out, "14 triangles -> "+path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"name":"room"`)
}

func TestInfo_ShapesFromConfig(t *testing.T) {
	workspace(t)
	cfg := config.Default()
	cfg.Source.Width, cfg.Source.Height = 9, 9
	cfg.Source.Shapes = []shapes.Shape{{Kind: shapes.KindCircle, Radius: 2.5}}
	require.NoError(t, cfg.SaveTo("squaremesh.yaml"))

	out, err := runCLI(t, "", "info", "-shapes")
	require.NoError(t, err)
	require.Contains(t, out, "Samples:   9x9 (21 solid)")
}

func TestBuild_SourceErrors(t *testing.T) {
	workspace(t)

	_, err := runCLI(t, "", "build")
	require.ErrorIs(t, err, errNoSource)

	_, err = runCLI(t, "", "build", "-gat", "x.gat", "room.txt")
	require.ErrorIs(t, err, errManySources)

	_, err = runCLI(t, "", "build", "missing.txt")
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = runCLI(t, "", "build", "-map", "prontera")
	require.ErrorIs(t, err, assets.ErrNoArchive)
}

func TestBuild_InvalidConfig(t *testing.T) {
	workspace(t)

	_, err := runCLI(t, "", "build", "-format", "stl", "room.txt")
	require.ErrorIs(t, err, config.ErrInvalid)
}

func TestInfo(t *testing.T) {
	workspace(t)

	out, err := runCLI(t, "", "info", "room.txt")
	require.NoError(t, err)
	require.Contains(t, out, "Samples:   4x4 (4 solid)")
	require.Contains(t, out, "Cells:     9")
	require.Contains(t, out, "Triangles: 14")
	require.Contains(t, out, "15 1111  1 ")
	require.NotContains(t, out, " 0 0000")
}

func TestGrid(t *testing.T) {
	workspace(t)

	out, err := runCLI(t, "", "grid", "room.txt")
	require.NoError(t, err)
	require.Equal(t, room, out)

	writeGRF(t, map[string][2]uint32{"izlude": {3, 2}})
	out, err = runCLI(t, "", "grid", "-map", "izlude")
	require.NoError(t, err)
	require.Equal(t, "###\n###\n", out)
}

func TestInit(t *testing.T) {
	dir := workspace(t)

	out, err := runCLI(t, "", "init", "-cell", "0.5", "-format", "json")
	require.NoError(t, err)
	require.Equal(t, "wrote squaremesh.yaml\n", out)

	// The written file is picked up by later commands.
	cfg, err := config.Load(nil)
	require.NoError(t, err)
	require.Equal(t, float32(0.5), cfg.Mesh.CellSize)
	require.Equal(t, config.FormatJSON, cfg.Output.Format)

	_, err = runCLI(t, "", "init", "-global")
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, "xdg", "squaremesh", "config.yaml"))
}

func TestBatch_NoArchive(t *testing.T) {
	workspace(t)

	_, err := runCLI(t, "", "batch", "prontera")
	require.ErrorIs(t, err, assets.ErrNoArchive)
}

func TestRun_Commands(t *testing.T) {
	workspace(t)

	out, err := runCLI(t, "", "help")
	require.NoError(t, err)
	require.Contains(t, out, "Usage:")

	_, err = runCLI(t, "", "build", "-h")
	require.NoError(t, err)

	_, err = runCLI(t, "", "explode")
	require.ErrorContains(t, err, "unknown command")
}

func TestBuild_Map(t *testing.T) {
	workspace(t)
	writeGRF(t, map[string][2]uint32{"prontera": {4, 4}})

	out, err := runCLI(t, "", "build", "-map", "prontera", "-o", "-")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "o prontera\n"))
	require.Equal(t, 18, strings.Count(out, "\nf "))
}

func TestMaps(t *testing.T) {
	workspace(t)
	writeGRF(t, map[string][2]uint32{"prontera": {4, 4}, "izlude": {3, 3}})

	out, err := runCLI(t, "", "maps")
	require.NoError(t, err)
	require.Equal(t, "izlude\nprontera\n", out)
}

func TestBatch(t *testing.T) {
	workspace(t)
	writeGRF(t, map[string][2]uint32{"prontera": {4, 4}, "izlude": {3, 3}})

	out, err := runCLI(t, "", "batch", "-workers", "2", "-out", "meshes")
	require.NoError(t, err)
	require.Contains(t, out, "izlude")
	require.Contains(t, out, "prontera")
	require.FileExists(t, filepath.Join("meshes", "izlude.obj"))
	require.FileExists(t, filepath.Join("meshes", "prontera.obj"))

	out, err = runCLI(t, "", "batch", "-out", "meshes", "prontera", "payon")
	require.ErrorContains(t, err, "1 of 2 maps failed")
	require.Contains(t, out, "payon")
	require.Contains(t, out, "error:")
}
