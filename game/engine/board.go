package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidBoard is returned when a board breaks the tile invariants
var ErrInvalidBoard = errors.New("invalid board")

// TileID returns the stable identifier of the tile whose home is index n-1.
// The blank of a width*width board is tile-<width*width>.
func TileID(n int) string {
	return fmt.Sprintf("tile-%d", n)
}

// GenerateOrderedBoard returns the solved 4x4 board: values 1..15 followed by the blank
func GenerateOrderedBoard() Board {
	return NewOrderedBoard(BoardWidth)
}

// NewOrderedBoard returns the solved board for the given grid width
func NewOrderedBoard(width int) Board {
	size := width * width
	board := make(Board, size)
	for i := 0; i < size-1; i++ {
		board[i] = Tile{ID: TileID(i + 1), Value: i + 1, IsHomePosition: true}
	}
	board[size-1] = Tile{ID: TileID(size), Value: BlankValue, IsBlank: true, IsHomePosition: true}
	return board
}

// Shuffle returns a uniformly random permutation of the board's tiles (Fisher-Yates).
// The input board is not modified and home positions are not recomputed.
func Shuffle(b Board, src Source) Board {
	shuffled := b.Clone()
	for i := len(shuffled) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// Inversions counts pairs of numbered tiles that appear out of ascending order
func Inversions(b Board) int {
	count := 0
	for i := 0; i < len(b); i++ {
		if b[i].IsBlank {
			continue
		}
		for j := i + 1; j < len(b); j++ {
			if !b[j].IsBlank && b[i].Value > b[j].Value {
				count++
			}
		}
	}
	return count
}

// BlankRow returns the 1-based row of the blank counted from the top, or 0 if there is no blank
func BlankRow(b Board) int {
	idx := b.BlankIndex()
	if idx < 0 {
		return 0
	}
	return idx/b.Width() + 1
}

// IsSolvable reports whether the board can reach the solved state through legal slides.
//
// Odd widths are solvable iff the inversion count is even. Even widths are solvable iff
// the blank's row counted from the bottom is odd exactly when the inversion count is even.
func IsSolvable(b Board) bool {
	width := b.Width()
	if width == 0 {
		return false
	}
	evenInversions := Inversions(b)%2 == 0
	if width%2 == 1 {
		return evenInversions
	}
	rowFromBottom := width - BlankRow(b) + 1
	return (rowFromBottom%2 == 1) == evenInversions
}

// IsNeighbour reports whether two linear indices share an edge on a gridSize-wide grid
func IsNeighbour(a, b, gridSize int) bool {
	rowA, colA := a/gridSize, a%gridSize
	rowB, colB := b/gridSize, b%gridSize
	return (rowA == rowB && abs(colA-colB) == 1) || (colA == colB && abs(rowA-rowB) == 1)
}

// Swap returns a copy of the board with the tiles at i and j exchanged.
// Adjacency is the caller's responsibility.
func Swap(b Board, i, j int) Board {
	swapped := b.Clone()
	swapped[i], swapped[j] = swapped[j], swapped[i]
	return swapped
}

// ApplyMove slides the tile at target into the blank at blank. A non-adjacent target is
// rejected: the original board is returned with false.
func ApplyMove(b Board, blank, target int) (Board, bool) {
	if !IsNeighbour(blank, target, b.Width()) {
		return b, false
	}
	return RecomputeHomePositions(Swap(b, blank, target)), true
}

// RecomputeHomePositions returns a copy of the board with IsHomePosition refreshed
func RecomputeHomePositions(b Board) Board {
	updated := b.Clone()
	last := len(updated) - 1
	for i := range updated {
		updated[i].IsHomePosition = updated[i].Value == i+1 || (updated[i].IsBlank && i == last)
	}
	return updated
}

// IsSolved reports whether tiles 1..n-1 are in order and the blank is last
func IsSolved(b Board) bool {
	if len(b) == 0 {
		return false
	}
	for i := 0; i < len(b)-1; i++ {
		if b[i].Value != i+1 {
			return false
		}
	}
	return b[len(b)-1].IsBlank
}

// NewSolvableBoard shuffles the ordered board until it is solvable and not already solved.
// Once maxAttempts is reached (0 means no limit) an unsolvable shuffle gets its first two
// numbered tiles swapped, which flips the inversion parity, and a solved one gets a single
// legal slide. It returns the board and the number of shuffles.
func NewSolvableBoard(width int, src Source, maxAttempts int) (Board, int) {
	ordered := NewOrderedBoard(width)
	attempts := 0
	for {
		attempts++
		board := Shuffle(ordered, src)
		if maxAttempts > 0 && attempts >= maxAttempts {
			if !IsSolvable(board) {
				board = flipParity(board)
			}
			if IsSolved(board) {
				board, _ = ApplyMove(board, len(board)-1, len(board)-2)
			}
		}
		if IsSolvable(board) && !IsSolved(board) {
			return RecomputeHomePositions(board), attempts
		}
	}
}

// flipParity exchanges the first two numbered tiles
func flipParity(b Board) Board {
	first := -1
	for i, tile := range b {
		if tile.IsBlank {
			continue
		}
		if first < 0 {
			first = i
			continue
		}
		return Swap(b, first, i)
	}
	return b
}

// FromValues builds a board from row-major tile values, 0 marking the blank
func FromValues(values []int) (Board, error) {
	size := len(values)
	if size > MaxGridSize*MaxGridSize {
		return nil, fmt.Errorf("%w: %d tiles exceed the largest %dx%d grid", ErrInvalidBoard, size, MaxGridSize, MaxGridSize)
	}
	board := make(Board, size)
	for i, v := range values {
		if v == BlankValue {
			board[i] = Tile{ID: TileID(size), Value: BlankValue, IsBlank: true}
			continue
		}
		board[i] = Tile{ID: TileID(v), Value: v}
	}
	if err := board.Validate(); err != nil {
		return nil, err
	}
	return RecomputeHomePositions(board), nil
}

// ParseBoard parses values separated by whitespace, commas, '/' or '|'. Both "0" and "_"
// mark the blank.
func ParseBoard(s string) (Board, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == ',' || r == '/' || r == '|'
	})
	values := make([]int, 0, len(fields))
	for _, field := range fields {
		if field == "_" {
			values = append(values, BlankValue)
			continue
		}
		v, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a tile value", ErrInvalidBoard, field)
		}
		values = append(values, v)
	}
	return FromValues(values)
}

// Validate checks the structural invariants: square length no wider than MaxGridSize,
// exactly one blank, distinct values 1..n-1 and unique tile IDs
func (b Board) Validate() error {
	width := b.Width()
	if width < 2 || width*width != len(b) {
		return fmt.Errorf("%w: %d tiles do not form a square grid", ErrInvalidBoard, len(b))
	}
	if width > MaxGridSize {
		return fmt.Errorf("%w: %dx%d grid exceeds %dx%d", ErrInvalidBoard, width, width, MaxGridSize, MaxGridSize)
	}

	seenValues := make(map[int]bool, len(b))
	seenIDs := make(map[string]bool, len(b))
	blanks := 0
	for i, tile := range b {
		if tile.ID == "" {
			return fmt.Errorf("%w: tile at index %d has no id", ErrInvalidBoard, i)
		}
		if seenIDs[tile.ID] {
			return fmt.Errorf("%w: duplicate tile id %s", ErrInvalidBoard, tile.ID)
		}
		seenIDs[tile.ID] = true

		if tile.IsBlank != (tile.Value == BlankValue) {
			return fmt.Errorf("%w: tile at index %d has value %d but is_blank=%v", ErrInvalidBoard, i, tile.Value, tile.IsBlank)
		}
		if tile.IsBlank {
			blanks++
			continue
		}
		if tile.Value < 1 || tile.Value >= len(b) {
			return fmt.Errorf("%w: value %d at index %d is outside 1..%d", ErrInvalidBoard, tile.Value, i, len(b)-1)
		}
		if seenValues[tile.Value] {
			return fmt.Errorf("%w: duplicate value %d", ErrInvalidBoard, tile.Value)
		}
		seenValues[tile.Value] = true
	}

	if blanks != 1 {
		return fmt.Errorf("%w: expected exactly one blank, found %d", ErrInvalidBoard, blanks)
	}
	return nil
}

// Width returns the grid width (integer square root of the tile count)
func (b Board) Width() int {
	w := 0
	for (w+1)*(w+1) <= len(b) {
		w++
	}
	return w
}

// BlankIndex returns the index of the blank tile, or -1
func (b Board) BlankIndex() int {
	for i, tile := range b {
		if tile.IsBlank {
			return i
		}
	}
	return -1
}

// IndexOfID returns the index of the tile with the given id, or -1
func (b Board) IndexOfID(id string) int {
	for i, tile := range b {
		if tile.ID == id {
			return i
		}
	}
	return -1
}

// Values returns the tile values in board order
func (b Board) Values() []int {
	values := make([]int, len(b))
	for i, tile := range b {
		values[i] = tile.Value
	}
	return values
}

// Clone returns an independent copy of the board
func (b Board) Clone() Board {
	if b == nil {
		return nil
	}
	cloned := make(Board, len(b))
	copy(cloned, b)
	return cloned
}

// Rows renders the board one string per row, using "_" for the blank
func (b Board) Rows() []string {
	width := b.Width()
	if width == 0 {
		return nil
	}
	cellWidth := len(strconv.Itoa(len(b) - 1))
	rows := make([]string, 0, width)
	for r := 0; r < width; r++ {
		cells := make([]string, 0, width)
		for c := 0; c < width; c++ {
			tile := b[r*width+c]
			cell := "_"
			if !tile.IsBlank {
				cell = strconv.Itoa(tile.Value)
			}
			cells = append(cells, fmt.Sprintf("%*s", cellWidth, cell))
		}
		rows = append(rows, strings.Join(cells, " "))
	}
	return rows
}

// String renders the board as a grid
func (b Board) String() string {
	return strings.Join(b.Rows(), "\n")
}
