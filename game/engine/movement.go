package engine

import (
	"fmt"
	"strings"
	"time"
)

// nowUnix is replaced in tests that need stable timestamps
var nowUnix = func() int64 {
	return time.Now().Unix()
}

// TargetIndex returns the index of the tile that would slide in direction. The second
// result is false for an unknown direction; the index is -1 when no tile sits on that side
// of the blank.
func (gs *GameState) TargetIndex(direction string) (int, bool) {
	width := gs.Board.Width()
	blank := gs.Board.BlankIndex()
	if width == 0 || blank < 0 {
		return -1, false
	}
	row, col := blank/width, blank%width

	switch strings.ToLower(direction) {
	case Up:
		row++
	case Down:
		row--
	case Left:
		col++
	case Right:
		col--
	default:
		return -1, false
	}

	if row < 0 || row >= width || col < 0 || col >= width {
		return -1, true
	}
	return row*width + col, true
}

// SlideTile attempts to slide the tile at index into the blank
func (gs *GameState) SlideTile(index int, config *PuzzleConfig) bool {
	if !gs.playable(config) {
		return false
	}

	if index < 0 || index >= len(gs.Board) {
		gs.Message = fmt.Sprintf("No tile at index %d", index)
		return false
	}

	board, ok := ApplyMove(gs.Board, gs.Board.BlankIndex(), index)
	if !ok {
		gs.Message = messageOr(config.Messages.NotAdjacent, fmt.Sprintf("Tile %d is not next to the empty square", gs.Board[index].Value))
		return false
	}

	gs.Board = board
	gs.Moves++

	if IsSolved(board) {
		gs.Status = StatusCompleted
		gs.Solved = true
		gs.CompletedAt = nowUnix()
		gs.CompletedGames++
		if gs.BestMoves == 0 || gs.Moves < gs.BestMoves {
			gs.BestMoves = gs.Moves
		}
		gs.Message = fmt.Sprintf(config.Messages.Solved, gs.Moves)
		return true
	}

	gs.Solved = false
	if config.Messages.Moved != "" {
		gs.Message = fmt.Sprintf(config.Messages.Moved, gs.Moves)
	} else {
		gs.Message = fmt.Sprintf("Moves: %d", gs.Moves)
	}
	return true
}

// SlideDirection attempts to slide the tile on the given side of the blank. It returns the
// targeted index (-1 if none) and whether the move was accepted.
func (gs *GameState) SlideDirection(direction string, config *PuzzleConfig) (int, bool) {
	if !gs.playable(config) {
		return -1, false
	}

	target, known := gs.TargetIndex(direction)
	if !known {
		gs.Message = messageOr(config.Messages.InvalidDirection, fmt.Sprintf("Unknown direction %q", direction))
		return -1, false
	}
	if target < 0 {
		gs.Message = fmt.Sprintf("No tile can slide %s", direction)
		return -1, false
	}

	return target, gs.SlideTile(target, config)
}

// playable reports whether moves are accepted, setting the message when they are not
func (gs *GameState) playable(config *PuzzleConfig) bool {
	switch gs.Status {
	case StatusInProgress:
		return true
	case StatusCompleted:
		gs.Message = messageOr(config.Messages.AlreadySolved, "Puzzle already solved")
	default:
		gs.Message = messageOr(config.Messages.NotStarted, "Game not started")
	}
	return false
}

// tileAt returns the tile at index, or the zero Tile when index is out of range
func (gs *GameState) tileAt(index int) Tile {
	if index < 0 || index >= len(gs.Board) {
		return Tile{}
	}
	return gs.Board[index]
}

// AddMoveToHistory adds a move attempt to the game's move history
func (gs *GameState) AddMoveToHistory(action string, tile Tile, from, to int, accepted bool) {
	entry := MoveHistoryEntry{
		Action:     action,
		TileID:     tile.ID,
		TileValue:  tile.Value,
		FromIndex:  from,
		ToIndex:    to,
		Accepted:   accepted,
		Solved:     accepted && gs.Status == StatusCompleted,
		Timestamp:  nowUnix(),
		MoveNumber: gs.TotalMoves + 1,
	}
	// Append to cumulative history (never cleared by NewGame) and increment total
	gs.MoveHistory = append(gs.MoveHistory, entry)
	gs.TotalMoves++

	// Append to current game history and increment its counter
	gs.CurrentMoves = append(gs.CurrentMoves, entry)
	gs.CurrentMovesCount++
}
