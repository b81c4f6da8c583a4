package engine

// Status represents where a game is in its lifecycle
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"

	// Board constants
	BoardWidth = 4
	BoardSize  = BoardWidth * BoardWidth
	BlankValue = 0

	// Validation constants
	MinGridSize               = 3
	MaxGridSize               = 6
	MaxBulkMoves              = 50
	DefaultMaxShuffleAttempts = 1000
	WebSocketBufferSize       = 256
)

// Directions a tile can slide into the blank
const (
	Up    = "up"
	Down  = "down"
	Left  = "left"
	Right = "right"
)

// Tile is the content of one board cell
type Tile struct {
	ID             string `json:"id"`
	Value          int    `json:"value"`
	IsBlank        bool   `json:"is_blank"`
	IsHomePosition bool   `json:"is_home_position"`
}

// Board is a row-major sequence of width*width tiles
type Board []Tile

// PuzzleConfig represents a puzzle configuration loaded from JSON or YAML
type PuzzleConfig struct {
	Name               string `json:"name" yaml:"name"`
	Description        string `json:"description" yaml:"description"`
	GridSize           int    `json:"grid_size" yaml:"grid_size"`
	AutoStart          bool   `json:"auto_start" yaml:"auto_start"`
	MaxShuffleAttempts int    `json:"max_shuffle_attempts,omitempty" yaml:"max_shuffle_attempts,omitempty"`
	Messages           struct {
		Welcome          string `json:"welcome" yaml:"welcome"`
		NotStarted       string `json:"not_started" yaml:"not_started"`
		Moved            string `json:"moved" yaml:"moved"`
		NotAdjacent      string `json:"not_adjacent" yaml:"not_adjacent"`
		Solved           string `json:"solved" yaml:"solved"`
		AlreadySolved    string `json:"already_solved" yaml:"already_solved"`
		InvalidDirection string `json:"invalid_direction" yaml:"invalid_direction"`
	} `json:"messages" yaml:"messages"`
}

// GameState represents the complete state of one player's puzzle
type GameState struct {
	Board           Board              `json:"board"`
	GridSize        int                `json:"grid_size"`
	Status          Status             `json:"status"`
	Moves           int                `json:"moves"`
	Solvable        bool               `json:"solvable"`
	Solved          bool               `json:"solved"`
	Message         string             `json:"message"`
	ConfigName      string             `json:"config_name"`
	GameNumber      int                `json:"game_number"`
	ShuffleAttempts int                `json:"shuffle_attempts"`
	StartedAt       int64              `json:"started_at,omitempty"`
	CompletedAt     int64              `json:"completed_at,omitempty"`
	CompletedGames  int                `json:"completed_games"`
	BestMoves       int                `json:"best_moves,omitempty"`
	MoveHistory     []MoveHistoryEntry `json:"move_history"`
	TotalMoves      int                `json:"total_moves"`

	// CurrentMoves tracks only the attempts of the current game. It mirrors MoveHistory entries
	// but gets cleared by NewGame while MoveHistory remains cumulative.
	CurrentMoves      []MoveHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`

	// Computed helper views (not required for core game logic)
	Grid          []string `json:"grid,omitempty"`
	PossibleMoves []string `json:"possible_moves,omitempty"`
}

// Clone returns a deep copy of the state that shares nothing with gs
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	clone := *gs
	clone.Board = gs.Board.Clone()
	clone.MoveHistory = cloneEntries(gs.MoveHistory)
	clone.CurrentMoves = cloneEntries(gs.CurrentMoves)
	clone.Grid = cloneStrings(gs.Grid)
	clone.PossibleMoves = cloneStrings(gs.PossibleMoves)
	return &clone
}

func cloneEntries(entries []MoveHistoryEntry) []MoveHistoryEntry {
	if entries == nil {
		return nil
	}
	return append(make([]MoveHistoryEntry, 0, len(entries)), entries...)
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	return append(make([]string, 0, len(values)), values...)
}

// MoveHistoryEntry represents a single move attempt in the game history
type MoveHistoryEntry struct {
	Action     string `json:"action"`
	TileID     string `json:"tile_id,omitempty"`
	TileValue  int    `json:"tile_value,omitempty"`
	FromIndex  int    `json:"from_index"`
	ToIndex    int    `json:"to_index"`
	Accepted   bool   `json:"accepted"`
	Solved     bool   `json:"solved,omitempty"`
	Timestamp  int64  `json:"timestamp"`
	MoveNumber int    `json:"move_number"`
}
