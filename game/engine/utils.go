package engine

// MisplacedTiles counts numbered tiles that are not at their home index
func MisplacedTiles(b Board) int {
	count := 0
	for i, tile := range b {
		if !tile.IsBlank && tile.Value != i+1 {
			count++
		}
	}
	return count
}

// ManhattanDistance sums, over all numbered tiles, the grid distance to their home index
func ManhattanDistance(b Board) int {
	width := b.Width()
	if width == 0 {
		return 0
	}
	total := 0
	for i, tile := range b {
		if tile.IsBlank {
			continue
		}
		home := tile.Value - 1
		total += abs(i/width-home/width) + abs(i%width-home%width)
	}
	return total
}

// Analysis summarizes a board for reporting
type Analysis struct {
	Values            []int    `json:"values"`
	Grid              []string `json:"grid"`
	GridSize          int      `json:"grid_size"`
	Inversions        int      `json:"inversions"`
	BlankRow          int      `json:"blank_row"`
	Solvable          bool     `json:"solvable"`
	Solved            bool     `json:"solved"`
	MisplacedTiles    int      `json:"misplaced_tiles"`
	ManhattanDistance int      `json:"manhattan_distance"`
}

// Analyze computes the solvability and distance figures of a board
func Analyze(b Board) Analysis {
	return Analysis{
		Values:            b.Values(),
		Grid:              b.Rows(),
		GridSize:          b.Width(),
		Inversions:        Inversions(b),
		BlankRow:          BlankRow(b),
		Solvable:          IsSolvable(b),
		Solved:            IsSolved(b),
		MisplacedTiles:    MisplacedTiles(b),
		ManhattanDistance: ManhattanDistance(b),
	}
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
