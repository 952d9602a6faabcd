package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Faultbox/squaremesh/pkg/marching"
)

// Text grid errors.
var (
	ErrEmptyGrid       = errors.New("grid has no rows")
	ErrRaggedGrid      = errors.New("grid rows differ in length")
	ErrInvalidGridChar = errors.New("invalid grid character")
)

// Text grid symbols.
const (
	SolidChar = '#'
	EmptyChar = '.'
)

// ParseGrid reads a text occupancy grid. Each line is one row and the first
// line is the top row (highest y); each character is one column. '#', 'X'
// and '1' are solid, '.' and '0' are empty. Blank lines and lines starting
// with ';' are ignored.
func ParseGrid(r io.Reader) (marching.OccupancyGrid, error) {
	var rows []string

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if len(rows) > 0 && len(line) != len(rows[0]) {
			return nil, fmt.Errorf("%w: line %d has %d columns, want %d",
				ErrRaggedGrid, lineNo, len(line), len(rows[0]))
		}
		for col, ch := range []byte(line) {
			if !isGridChar(ch) {
				return nil, fmt.Errorf("%w: %q at line %d column %d", ErrInvalidGridChar, ch, lineNo, col+1)
			}
		}
		rows = append(rows, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading grid: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyGrid
	}

	w, h := len(rows[0]), len(rows)
	grid := make(marching.OccupancyGrid, w)
	for x := range w {
		grid[x] = make([]bool, h)
		for y := range h {
			grid[x][y] = isSolid(rows[h-1-y][x])
		}
	}
	return grid, nil
}

// FormatGrid writes grid in the ParseGrid text form using '#' and '.'.
func FormatGrid(w io.Writer, grid marching.OccupancyGrid) error {
	gw, gh, err := grid.Size()
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	line := make([]byte, gw+1)
	line[gw] = '\n'
	for y := gh - 1; y >= 0; y-- {
		for x := range gw {
			line[x] = EmptyChar
			if grid[x][y] {
				line[x] = SolidChar
			}
		}
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func isGridChar(ch byte) bool {
	switch ch {
	case '#', 'X', '1', '.', '0':
		return true
	}
	return false
}

func isSolid(ch byte) bool {
	return ch == '#' || ch == 'X' || ch == '1'
}
