package swarm

import (
	"fmt"
	"math"
)

// Size computes the fixed swarm size for a grid before any agent exists.
// The base allocation is one agent per 50 cells, scaled up by as much as
// 1.5x on dense mazes, and capped at one agent per 10 cells. The result is
// always at least 1.
func Size(rows, cols int, wallDensity float64) (int, error) {
	if rows <= 0 || cols <= 0 {
		return 0, fmt.Errorf("swarm: grid dimensions must be positive, got %dx%d", rows, cols)
	}
	if wallDensity < 0 || wallDensity > 1 {
		return 0, fmt.Errorf("swarm: wall density must be in [0,1], got %v", wallDensity)
	}

	cells := rows * cols
	base := float64(cells) / 50.0
	adjusted := base * (1.0 + 0.5*wallDensity)

	count := int(math.Round(adjusted))
	upper := cells / 10
	if upper < 1 {
		upper = 1
	}
	if count > upper {
		count = upper
	}
	if count < 1 {
		count = 1
	}
	return count, nil
}
