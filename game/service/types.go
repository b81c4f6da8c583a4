package service

import (
	"time"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string               `json:"id"`
	ConfigName     string               `json:"config_name"`
	CreatedAt      time.Time            `json:"created_at"`
	LastAccessedAt time.Time            `json:"last_accessed_at"`
	GameState      *engine.GameState    `json:"game_state"`
	GameConfig     *engine.PuzzleConfig `json:"game_config"`
}

// MoveRequest names exactly one tile to slide: by direction, by board index or by tile ID
type MoveRequest struct {
	Direction string `json:"direction,omitempty"`
	Index     *int   `json:"index,omitempty"`
	TileID    string `json:"tile_id,omitempty"`
	NewGame   bool   `json:"new_game,omitempty"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success     bool              `json:"success"`
	GameState   *engine.GameState `json:"game_state"`
	Message     string            `json:"message"`
	Events      []GameEvent       `json:"events,omitempty"`
	Step        *StepInfo         `json:"step,omitempty"`
	AttemptedTo *AttemptInfo      `json:"attempted_to,omitempty"`
	Completed   bool              `json:"completed"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int               `json:"moves_executed"`
	RequestedMoves int               `json:"requested_moves"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // not_adjacent|no_tile|invalid_direction|not_started|completed
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based index of the move that caused stop
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartMoves int `json:"start_moves"`
	EndMoves   int `json:"end_moves"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	// Failure diagnostics
	AttemptedTo *AttemptInfo `json:"attempted_to,omitempty"`

	// Final status aids
	Completed     bool     `json:"completed"`
	Message       string   `json:"message,omitempty"`
	PossibleMoves []string `json:"possible_moves,omitempty"`
	Grid          []string `json:"grid,omitempty"`
}

// StepInfo is a compact record for each executed move
type StepInfo struct {
	Idx         int    `json:"idx"`
	Dir         string `json:"dir,omitempty"`
	TileID      string `json:"tile_id"`
	TileValue   int    `json:"tile_value"`
	From        int    `json:"from"`
	To          int    `json:"to"`
	MovesBefore int    `json:"moves_before"`
	MovesAfter  int    `json:"moves_after"`
	Success     bool   `json:"success"`
	Solved      bool   `json:"solved,omitempty"`
}

// AttemptInfo details the first rejected target
type AttemptInfo struct {
	Index     int    `json:"index"`
	Row       int    `json:"row"`
	Col       int    `json:"col"`
	TileID    string `json:"tile_id,omitempty"`
	TileValue int    `json:"tile_value,omitempty"`
	Reason    string `json:"reason"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"` // "new_game", "move", "completed"
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	TileID    string    `json:"tile_id,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a puzzle configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	GridSize    int    `json:"grid_size"`
	AutoStart   bool   `json:"auto_start"`
}

// Completion describes a solved puzzle. ID is unique per completed game and doubles as the
// idempotency key for downstream consumers.
type Completion struct {
	ID          string        `json:"id"`
	SessionID   string        `json:"session_id"`
	ConfigName  string        `json:"config_name"`
	Moves       int           `json:"moves"`
	GameNumber  int           `json:"game_number"`
	Duration    time.Duration `json:"duration_ns"`
	CompletedAt time.Time     `json:"completed_at"`
}
