package grid

// Analysis summarizes a goal-directed branching walk of the maze: how many
// agents a fork-at-every-junction exploration would spawn before the goal is
// found, and the peak number active at once. It gives an upper-bound
// reference point for swarm sizing; the sizer itself stays density-based.
type Analysis struct {
	TotalAgents   int
	PeakParallel  int
	GoalReachable bool
}

type walkFrame struct {
	pos    Coord
	active int
}

// Analyze performs a depth-first walk from start, forking one additional
// agent per extra open branch, and stops as soon as the goal is visited.
func (g *Grid) Analyze() Analysis {
	visited := make(map[Coord]bool, g.TotalCells())
	stack := []walkFrame{{pos: g.start, active: 1}}

	a := Analysis{TotalAgents: 1, PeakParallel: 1}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[frame.pos] {
			continue
		}
		visited[frame.pos] = true

		if frame.active > a.PeakParallel {
			a.PeakParallel = frame.active
		}
		if frame.pos == g.goal {
			a.GoalReachable = true
			return a
		}

		var next []Coord
		for _, n := range g.Neighbors4(frame.pos) {
			if !visited[n] {
				next = append(next, n)
			}
		}
		if len(next) == 0 {
			continue
		}

		stack = append(stack, walkFrame{pos: next[0], active: frame.active})
		for _, n := range next[1:] {
			a.TotalAgents++
			stack = append(stack, walkFrame{pos: n, active: frame.active + 1})
		}
	}

	return a
}
