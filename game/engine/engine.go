package engine

import (
	"fmt"
	"sort"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	NewGame() *GameState
	Status() Status
	Moves() int
	IsSolved() bool

	// Movement operations
	MoveTile(index int) bool
	MoveTileByID(id string) bool
	Move(direction string) bool
	CanMove(direction string) bool
	GetPossibleMoves() []string
	MovableTiles() []int

	// Configuration
	GetConfig() *PuzzleConfig
	SetConfig(config *PuzzleConfig) error

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

// GameEngine implements the Engine interface. It owns one board and the status and move
// counter that go with it; callers serialize access.
type GameEngine struct {
	state  *GameState
	config *PuzzleConfig
	src    Source
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *PuzzleConfig) (*GameEngine, error) {
	return NewEngineWithSource(config, DefaultSource())
}

// NewEngineWithSource creates a game engine that shuffles with src
func NewEngineWithSource(config *PuzzleConfig, src Source) (*GameEngine, error) {
	if err := ValidatePuzzleConfig(config); err != nil {
		return nil, err
	}
	if src == nil {
		src = DefaultSource()
	}

	engine := &GameEngine{
		config: config,
		src:    src,
		state:  InitGameStateFromConfig(config),
	}

	if config.AutoStart {
		engine.NewGame()
	}

	return engine, nil
}

// RestoreEngine creates a game engine around a previously saved state. AutoStart is
// ignored so the saved board is kept.
func RestoreEngine(config *PuzzleConfig, state *GameState) (*GameEngine, error) {
	if err := ValidatePuzzleConfig(config); err != nil {
		return nil, err
	}

	engine := &GameEngine{
		config: config,
		src:    DefaultSource(),
		state:  InitGameStateFromConfig(config),
	}
	if err := engine.SetState(state); err != nil {
		return nil, err
	}
	return engine, nil
}

// NewEngineWithDefaults creates a new game engine with the classic configuration
func NewEngineWithDefaults() *GameEngine {
	config := DefaultPuzzleConfig()
	engine := &GameEngine{
		config: config,
		src:    DefaultSource(),
	}
	engine.state = InitGameStateFromConfig(config)
	return engine
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// Snapshot returns a copy of the current state with the Grid and PossibleMoves views
// filled in. The engine's own state is left untouched.
func (e *GameEngine) Snapshot() *GameState {
	snapshot := e.state.Clone()
	snapshot.Grid = snapshot.Board.Rows()
	snapshot.PossibleMoves = e.GetPossibleMoves()
	return snapshot
}

// SetState sets the game state (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if err := state.Board.Validate(); err != nil {
		return err
	}
	if state.Board.Width() != e.config.GridSize {
		return fmt.Errorf("%w: board is %dx%d but config %s is %dx%d", ErrInvalidBoard,
			state.Board.Width(), state.Board.Width(), e.config.Name, e.config.GridSize, e.config.GridSize)
	}

	state.Board = RecomputeHomePositions(state.Board)
	state.GridSize = e.config.GridSize
	state.Solved = IsSolved(state.Board)
	state.Solvable = IsSolvable(state.Board)
	if state.Status == "" {
		state.Status = StatusNotStarted
	}
	if state.MoveHistory == nil {
		state.MoveHistory = []MoveHistoryEntry{}
	}
	if state.CurrentMoves == nil {
		state.CurrentMoves = []MoveHistoryEntry{}
	}

	e.state = state
	return nil
}

// NewGame discards the current board and starts a fresh solvable one.
// Cumulative history, totals and records survive; the move counter starts over.
func (e *GameEngine) NewGame() *GameState {
	board, attempts := NewSolvableBoard(e.config.GridSize, e.src, e.config.MaxShuffleAttempts)

	prev := e.state
	if prev == nil {
		prev = InitGameStateFromConfig(e.config)
	}
	history := prev.MoveHistory
	if history == nil {
		history = []MoveHistoryEntry{}
	}

	e.state = &GameState{
		Board:             board,
		GridSize:          e.config.GridSize,
		Status:            StatusInProgress,
		Moves:             0,
		Solvable:          true,
		Solved:            false,
		Message:           e.config.Messages.Welcome,
		ConfigName:        e.config.Name,
		GameNumber:        prev.GameNumber + 1,
		ShuffleAttempts:   attempts,
		StartedAt:         nowUnix(),
		CompletedGames:    prev.CompletedGames,
		BestMoves:         prev.BestMoves,
		MoveHistory:       history,
		TotalMoves:        prev.TotalMoves,
		CurrentMoves:      []MoveHistoryEntry{},
		CurrentMovesCount: 0,
	}

	return e.state
}

// Status returns the lifecycle status of the current game
func (e *GameEngine) Status() Status {
	return e.state.Status
}

// Moves returns the number of accepted moves in the current game
func (e *GameEngine) Moves() int {
	return e.state.Moves
}

// IsSolved returns whether the current board is in solved order
func (e *GameEngine) IsSolved() bool {
	return IsSolved(e.state.Board)
}

// MoveTile attempts to slide the tile at index into the blank
func (e *GameEngine) MoveTile(index int) bool {
	blank := e.state.Board.BlankIndex()
	tile := e.state.tileAt(index)

	success := e.state.SlideTile(index, e.config)
	e.state.AddMoveToHistory("slide", tile, index, blank, success)

	return success
}

// MoveTileByID attempts to slide the tile with the given id into the blank
func (e *GameEngine) MoveTileByID(id string) bool {
	return e.MoveTile(e.state.Board.IndexOfID(id))
}

// Move attempts to slide a tile in the specified direction
func (e *GameEngine) Move(direction string) bool {
	blank := e.state.Board.BlankIndex()
	target, success := e.state.SlideDirection(direction, e.config)

	var tile Tile
	if success {
		tile = e.state.tileAt(blank)
	} else {
		tile = e.state.tileAt(target)
	}
	e.state.AddMoveToHistory(direction, tile, target, blank, success)

	return success
}

// CanMove checks if a tile can slide in the specified direction
func (e *GameEngine) CanMove(direction string) bool {
	if e.state.Status != StatusInProgress {
		return false
	}
	target, known := e.state.TargetIndex(direction)
	return known && target >= 0
}

// GetPossibleMoves returns all directions a tile can currently slide
func (e *GameEngine) GetPossibleMoves() []string {
	directions := []string{Up, Down, Left, Right}
	var possible []string

	for _, dir := range directions {
		if e.CanMove(dir) {
			possible = append(possible, dir)
		}
	}

	return possible
}

// MovableTiles returns the indices of tiles adjacent to the blank, ascending
func (e *GameEngine) MovableTiles() []int {
	if e.state.Status != StatusInProgress {
		return nil
	}
	var indices []int
	for _, dir := range []string{Up, Down, Left, Right} {
		if target, known := e.state.TargetIndex(dir); known && target >= 0 {
			indices = append(indices, target)
		}
	}
	sort.Ints(indices)
	return indices
}

// GetConfig returns the current puzzle configuration
func (e *GameEngine) GetConfig() *PuzzleConfig {
	return e.config
}

// SetConfig sets a new puzzle configuration and discards the current game
func (e *GameEngine) SetConfig(config *PuzzleConfig) error {
	if err := ValidatePuzzleConfig(config); err != nil {
		return err
	}

	e.config = config
	e.state = InitGameStateFromConfig(config)
	if config.AutoStart {
		e.NewGame()
	}
	return nil
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.state.MoveHistory
}

// GetLastMove returns the last move attempted, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.state.MoveHistory) == 0 {
		return nil
	}
	return &e.state.MoveHistory[len(e.state.MoveHistory)-1]
}

// BulkMove executes multiple direction moves in sequence, returning success status for each.
// It stops once the game is no longer in progress.
func (e *GameEngine) BulkMove(moves []string) []bool {
	results := make([]bool, 0, len(moves))

	for _, direction := range moves {
		if e.Status() != StatusInProgress {
			break
		}

		success := e.Move(direction)
		results = append(results, success)
	}

	return results
}
