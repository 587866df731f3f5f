package grid

import (
	"testing"
)

func mustParse(t *testing.T, matrix [][]int, start, goal Coord) *Grid {
	t.Helper()
	g, err := Parse(matrix, start, goal)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return g
}

func open3x3() [][]int {
	return [][]int{
		{0, 0, 0},
		{0, 0, 0},
		{0, 0, 0},
	}
}

func TestParse(t *testing.T) {
	g := mustParse(t, open3x3(), Coord{0, 0}, Coord{2, 2})

	if g.Rows() != 3 || g.Cols() != 3 {
		t.Errorf("dimensions = %dx%d, want 3x3", g.Rows(), g.Cols())
	}
	if g.Start() != (Coord{0, 0}) || g.Goal() != (Coord{2, 2}) {
		t.Errorf("start/goal = %v/%v", g.Start(), g.Goal())
	}
	if g.TotalCells() != 9 || g.OpenCells() != 9 {
		t.Errorf("cells = %d/%d, want 9/9", g.OpenCells(), g.TotalCells())
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		matrix [][]int
		start  Coord
		goal   Coord
	}{
		{"empty", nil, Coord{0, 0}, Coord{1, 1}},
		{"ragged", [][]int{{0, 0}, {0}}, Coord{0, 0}, Coord{0, 1}},
		{"bad cell value", [][]int{{0, 2}}, Coord{0, 0}, Coord{0, 1}},
		{"start out of bounds", open3x3(), Coord{-1, 0}, Coord{2, 2}},
		{"goal out of bounds", open3x3(), Coord{0, 0}, Coord{3, 3}},
		{"start equals goal", open3x3(), Coord{1, 1}, Coord{1, 1}},
		{"start on wall", [][]int{{1, 0}, {0, 0}}, Coord{0, 0}, Coord{1, 1}},
		{"goal on wall", [][]int{{0, 1}, {0, 0}}, Coord{0, 0}, Coord{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.matrix, tt.start, tt.goal); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestAt_OutOfBoundsIsWall(t *testing.T) {
	g := mustParse(t, open3x3(), Coord{0, 0}, Coord{2, 2})

	for _, c := range []Coord{{-1, 0}, {0, -1}, {3, 0}, {0, 3}} {
		if g.At(c) != Wall {
			t.Errorf("At(%v) = %v, want Wall", c, g.At(c))
		}
		if g.IsOpen(c) {
			t.Errorf("IsOpen(%v) = true, want false", c)
		}
	}
}

func TestWallDensity(t *testing.T) {
	g := mustParse(t, [][]int{
		{0, 1},
		{0, 0},
	}, Coord{0, 0}, Coord{1, 1})

	if got := g.WallDensity(); got != 0.25 {
		t.Errorf("WallDensity() = %v, want 0.25", got)
	}
}

func TestViewAt(t *testing.T) {
	g := mustParse(t, [][]int{
		{0, 0, 0},
		{0, 0, 0},
		{0, 1, 0},
	}, Coord{0, 0}, Coord{2, 2})

	v := g.ViewAt(Coord{1, 1})
	want := []Coord{{0, 1}, {1, 0}, {1, 2}}
	if len(v.Open) != len(want) {
		t.Fatalf("view open = %v, want %v", v.Open, want)
	}
	for i, c := range want {
		if v.Open[i] != c {
			t.Errorf("view open[%d] = %v, want %v", i, v.Open[i], c)
		}
	}

	if !v.IsOpen(Coord{0, 1}) {
		t.Error("IsOpen((0,1)) = false, want true")
	}
	if v.IsOpen(Coord{2, 1}) {
		t.Error("IsOpen((2,1)) = true, want false for wall")
	}

	corner := g.ViewAt(Coord{0, 0})
	if len(corner.Open) != 2 {
		t.Errorf("corner view = %v, want 2 neighbors", corner.Open)
	}
}

func TestManhattan(t *testing.T) {
	if d := Manhattan(Coord{0, 0}, Coord{2, 3}); d != 5 {
		t.Errorf("Manhattan = %d, want 5", d)
	}
	if d := Manhattan(Coord{2, 3}, Coord{0, 0}); d != 5 {
		t.Errorf("Manhattan reversed = %d, want 5", d)
	}
}

func TestCoordLess(t *testing.T) {
	if !(Coord{0, 5}).Less(Coord{1, 0}) {
		t.Error("(0,5) should sort before (1,0)")
	}
	if !(Coord{1, 0}).Less(Coord{1, 1}) {
		t.Error("(1,0) should sort before (1,1)")
	}
	if (Coord{1, 1}).Less(Coord{1, 1}) {
		t.Error("coordinate should not sort before itself")
	}
}

func TestAnalyze_Corridor(t *testing.T) {
	g := mustParse(t, [][]int{{0, 0, 0, 0, 0}}, Coord{0, 0}, Coord{0, 4})

	a := g.Analyze()
	if !a.GoalReachable {
		t.Error("GoalReachable = false, want true")
	}
	if a.TotalAgents != 1 || a.PeakParallel != 1 {
		t.Errorf("corridor analysis = %+v, want 1 walker", a)
	}
}

func TestAnalyze_Branching(t *testing.T) {
	g := mustParse(t, [][]int{
		{0, 0, 0},
		{0, 1, 0},
		{0, 0, 0},
	}, Coord{1, 0}, Coord{1, 2})

	a := g.Analyze()
	if !a.GoalReachable {
		t.Error("GoalReachable = false, want true")
	}
	if a.TotalAgents != 2 {
		t.Errorf("TotalAgents = %d, want 2 (one fork at the start junction)", a.TotalAgents)
	}
	if a.PeakParallel != 2 {
		t.Errorf("PeakParallel = %d, want 2", a.PeakParallel)
	}
}

func TestAnalyze_Unreachable(t *testing.T) {
	g := mustParse(t, [][]int{{0, 1, 0}}, Coord{0, 0}, Coord{0, 2})

	a := g.Analyze()
	if a.GoalReachable {
		t.Error("GoalReachable = true, want false for walled-off goal")
	}
}
