package grid

import (
	"fmt"
	"sort"
)

// Cell is the kind of a single maze cell.
type Cell int

const (
	Open Cell = iota
	Wall
)

// Coord is a grid coordinate (row, column).
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Less orders coordinates lexicographically, row before column.
func (c Coord) Less(other Coord) bool {
	if c.Row != other.Row {
		return c.Row < other.Row
	}
	return c.Col < other.Col
}

// Manhattan returns the Manhattan distance between two coordinates.
func Manhattan(a, b Coord) int {
	return abs(a.Row-b.Row) + abs(a.Col-b.Col)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// directions is the fixed 4-neighborhood: north, south, west, east.
var directions = [4]Coord{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Grid is an immutable maze: a matrix of open/wall cells plus the start and
// goal coordinates. The driver owns the grid; agents only ever see bounded
// views of it.
type Grid struct {
	cells []Cell
	rows  int
	cols  int
	start Coord
	goal  Coord
}

// New builds a grid from a cell matrix. The matrix must be rectangular and
// non-empty, and start/goal must be distinct open cells inside it.
func New(cells [][]Cell, start, goal Coord) (*Grid, error) {
	if len(cells) == 0 || len(cells[0]) == 0 {
		return nil, fmt.Errorf("grid: dimensions must be positive")
	}

	rows, cols := len(cells), len(cells[0])
	g := &Grid{
		cells: make([]Cell, 0, rows*cols),
		rows:  rows,
		cols:  cols,
		start: start,
		goal:  goal,
	}

	for r, row := range cells {
		if len(row) != cols {
			return nil, fmt.Errorf("grid: row %d has %d cells, want %d", r, len(row), cols)
		}
		g.cells = append(g.cells, row...)
	}

	if !g.InBounds(start) || !g.InBounds(goal) {
		return nil, fmt.Errorf("grid: start %v and goal %v must be in bounds", start, goal)
	}
	if start == goal {
		return nil, fmt.Errorf("grid: start and goal must differ")
	}
	if g.At(start) != Open {
		return nil, fmt.Errorf("grid: start %v is a wall", start)
	}
	if g.At(goal) != Open {
		return nil, fmt.Errorf("grid: goal %v is a wall", goal)
	}

	return g, nil
}

// Parse builds a grid from a 0/1 matrix (0 = open, 1 = wall), the encoding
// the maze UI hands over.
func Parse(matrix [][]int, start, goal Coord) (*Grid, error) {
	cells := make([][]Cell, len(matrix))
	for r, row := range matrix {
		cells[r] = make([]Cell, len(row))
		for c, v := range row {
			switch v {
			case 0:
				cells[r][c] = Open
			case 1:
				cells[r][c] = Wall
			default:
				return nil, fmt.Errorf("grid: cell (%d,%d) has value %d, want 0 or 1", r, c, v)
			}
		}
	}
	return New(cells, start, goal)
}

func (g *Grid) Rows() int    { return g.rows }
func (g *Grid) Cols() int    { return g.cols }
func (g *Grid) Start() Coord { return g.start }
func (g *Grid) Goal() Coord  { return g.goal }

// InBounds reports whether c lies inside the grid.
func (g *Grid) InBounds(c Coord) bool {
	return c.Row >= 0 && c.Row < g.rows && c.Col >= 0 && c.Col < g.cols
}

// At returns the cell kind at c. Out-of-bounds coordinates are walls.
func (g *Grid) At(c Coord) Cell {
	if !g.InBounds(c) {
		return Wall
	}
	return g.cells[c.Row*g.cols+c.Col]
}

// IsOpen reports whether c is an in-bounds open cell.
func (g *Grid) IsOpen(c Coord) bool {
	return g.At(c) == Open
}

// TotalCells returns the number of cells in the grid.
func (g *Grid) TotalCells() int {
	return g.rows * g.cols
}

// OpenCells returns the number of open cells.
func (g *Grid) OpenCells() int {
	n := 0
	for _, cell := range g.cells {
		if cell == Open {
			n++
		}
	}
	return n
}

// WallDensity returns the fraction of cells that are walls, in [0,1].
func (g *Grid) WallDensity() float64 {
	return float64(g.TotalCells()-g.OpenCells()) / float64(g.TotalCells())
}

// View is the bounded sensor reading an agent gets each tick: its own
// position plus the open cells in the 4-neighborhood. Nothing beyond that
// neighborhood is ever exposed to an agent.
type View struct {
	Pos  Coord
	Open []Coord
}

// IsOpen reports whether c is an open cell visible in this view.
func (v View) IsOpen(c Coord) bool {
	for _, o := range v.Open {
		if o == c {
			return true
		}
	}
	return false
}

// ViewAt extracts the sensor view centered on pos. Open neighbors are
// returned in lexicographic order so scans are deterministic.
func (g *Grid) ViewAt(pos Coord) View {
	v := View{Pos: pos}
	for _, d := range directions {
		n := Coord{Row: pos.Row + d.Row, Col: pos.Col + d.Col}
		if g.IsOpen(n) {
			v.Open = append(v.Open, n)
		}
	}
	sort.Slice(v.Open, func(i, j int) bool { return v.Open[i].Less(v.Open[j]) })
	return v
}

// Neighbors4 returns the in-bounds open neighbors of c.
func (g *Grid) Neighbors4(c Coord) []Coord {
	var out []Coord
	for _, d := range directions {
		n := Coord{Row: c.Row + d.Row, Col: c.Col + d.Col}
		if g.IsOpen(n) {
			out = append(out, n)
		}
	}
	return out
}
