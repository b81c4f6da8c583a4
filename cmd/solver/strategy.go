package main

import (
	"container/heap"
	"errors"
	"fmt"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
)

var (
	ErrUnsolvable     = errors.New("board is not solvable")
	ErrSearchExceeded = errors.New("search node limit exceeded")
)

// Strategy plans a sequence of directions that solves a board. It runs a weighted A*
// search on the Manhattan distance: weight 1 finds optimal solutions, larger weights
// trade solution length for far fewer expanded nodes.
type Strategy struct {
	Weight    int
	MaxWeight int
	MaxNodes  int
}

// NewStrategy returns a strategy suited to the grid width. 3x3 boards are solved
// optimally; larger boards start greedy enough to finish quickly.
func NewStrategy(width int) *Strategy {
	weight := 1
	if width > 3 {
		weight = 3
	}
	return &Strategy{
		Weight:    weight,
		MaxWeight: 24,
		MaxNodes:  2_000_000,
	}
}

// searchNode is one board on the open list
type searchNode struct {
	board  []byte
	blank  int
	g, h   int
	dir    string
	parent *searchNode
	index  int
}

// openList orders nodes by weighted cost, then by heuristic
type openList struct {
	nodes  []*searchNode
	weight int
}

func (o *openList) Len() int { return len(o.nodes) }

func (o *openList) Less(i, j int) bool {
	fi := o.nodes[i].g + o.weight*o.nodes[i].h
	fj := o.nodes[j].g + o.weight*o.nodes[j].h
	if fi != fj {
		return fi < fj
	}
	return o.nodes[i].h < o.nodes[j].h
}

func (o *openList) Swap(i, j int) {
	o.nodes[i], o.nodes[j] = o.nodes[j], o.nodes[i]
	o.nodes[i].index = i
	o.nodes[j].index = j
}

func (o *openList) Push(x any) {
	n := x.(*searchNode)
	n.index = len(o.nodes)
	o.nodes = append(o.nodes, n)
}

func (o *openList) Pop() any {
	old := o.nodes
	n := old[len(old)-1]
	old[len(old)-1] = nil
	o.nodes = old[:len(old)-1]
	return n
}

// blankStep is a blank displacement and the direction name of the tile that slides
type blankStep struct {
	dRow, dCol int
	dir        string
}

// The tile below the blank moving up sends the blank down, and so on.
var blankSteps = []blankStep{
	{1, 0, engine.Up},
	{-1, 0, engine.Down},
	{0, 1, engine.Left},
	{0, -1, engine.Right},
}

// Solve returns the directions that take the board given as row-major values
// (0 for the blank) to the solved board. The weight doubles whenever the node limit
// is reached, up to MaxWeight.
func (s *Strategy) Solve(values []int) ([]string, error) {
	board, err := engine.FromValues(values)
	if err != nil {
		return nil, err
	}
	if !engine.IsSolvable(board) {
		return nil, ErrUnsolvable
	}
	if engine.IsSolved(board) {
		return []string{}, nil
	}

	weight := s.Weight
	if weight < 1 {
		weight = 1
	}
	for {
		path, err := s.search(values, board.Width(), weight)
		if !errors.Is(err, ErrSearchExceeded) || weight >= s.MaxWeight {
			return path, err
		}
		log.WithField("weight", weight).Debug("node limit reached, retrying greedier")
		weight *= 2
		if weight > s.MaxWeight {
			weight = s.MaxWeight
		}
	}
}

func (s *Strategy) search(values []int, width, weight int) ([]string, error) {
	size := width * width
	start := make([]byte, size)
	blank := -1
	for i, v := range values {
		start[i] = byte(v)
		if v == engine.BlankValue {
			blank = i
		}
	}

	root := &searchNode{board: start, blank: blank, h: manhattan(start, width)}
	open := &openList{weight: weight}
	heap.Push(open, root)
	bestG := map[string]int{string(start): 0}

	expanded := 0
	for open.Len() > 0 {
		current := heap.Pop(open).(*searchNode)
		if current.h == 0 {
			return reconstruct(current), nil
		}
		if g, ok := bestG[string(current.board)]; ok && g < current.g {
			continue
		}

		expanded++
		if s.MaxNodes > 0 && expanded > s.MaxNodes {
			return nil, fmt.Errorf("%w: %d nodes at weight %d", ErrSearchExceeded, s.MaxNodes, weight)
		}

		row, col := current.blank/width, current.blank%width
		for _, step := range blankSteps {
			r, c := row+step.dRow, col+step.dCol
			if r < 0 || r >= width || c < 0 || c >= width {
				continue
			}
			target := r*width + c
			if current.parent != nil && target == current.parent.blank {
				continue
			}

			tile := int(current.board[target])
			home := tile - 1
			h := current.h - distance(target, home, width) + distance(current.blank, home, width)

			next := make([]byte, size)
			copy(next, current.board)
			next[current.blank], next[target] = next[target], next[current.blank]

			key := string(next)
			g := current.g + 1
			if old, ok := bestG[key]; ok && old <= g {
				continue
			}
			bestG[key] = g

			heap.Push(open, &searchNode{
				board:  next,
				blank:  target,
				g:      g,
				h:      h,
				dir:    step.dir,
				parent: current,
			})
		}
	}

	return nil, ErrUnsolvable
}

func reconstruct(n *searchNode) []string {
	path := make([]string, n.g)
	for ; n.parent != nil; n = n.parent {
		path[n.g-1] = n.dir
	}
	return path
}

// manhattan sums the distance of every numbered tile to its home
func manhattan(board []byte, width int) int {
	total := 0
	for i, v := range board {
		if v == engine.BlankValue {
			continue
		}
		total += distance(i, int(v)-1, width)
	}
	return total
}

func distance(a, b, width int) int {
	dr := a/width - b/width
	dc := a%width - b%width
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

// Apply replays directions on a board locally, returning the final board and the
// number of directions applied before the first rejected one.
func Apply(values []int, directions []string) ([]int, int, error) {
	config := engine.DefaultPuzzleConfig()
	board, err := engine.FromValues(values)
	if err != nil {
		return nil, 0, err
	}
	config.GridSize = board.Width()

	state := engine.InitGameStateFromConfig(config)
	state.Board = board
	state.Status = engine.StatusInProgress

	for i, dir := range directions {
		if _, ok := state.SlideDirection(dir, config); !ok {
			return state.Board.Values(), i, nil
		}
	}
	return state.Board.Values(), len(directions), nil
}
