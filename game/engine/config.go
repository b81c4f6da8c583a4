package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidatePuzzleConfig validates a puzzle configuration for correctness
func ValidatePuzzleConfig(config *PuzzleConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	// Validate grid size
	if config.GridSize < MinGridSize || config.GridSize > MaxGridSize {
		return fmt.Errorf("config validation: grid_size must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.GridSize)
	}

	if config.MaxShuffleAttempts < 0 {
		return fmt.Errorf("config validation: max_shuffle_attempts must not be negative, got %d", config.MaxShuffleAttempts)
	}

	// Validate messages
	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if config.Messages.Solved == "" {
		return fmt.Errorf("config validation: messages.solved is required")
	}

	// Validate format strings
	if !strings.Contains(config.Messages.Solved, "%d") {
		return fmt.Errorf("config validation: messages.solved must contain %%d for the move count")
	}
	if config.Messages.Moved != "" && !strings.Contains(config.Messages.Moved, "%d") {
		return fmt.Errorf("config validation: messages.moved must contain %%d for the move count")
	}

	return nil
}

// DecodePuzzleConfig parses a configuration, choosing YAML or JSON from the file extension
func DecodePuzzleConfig(data []byte, filename string) (*PuzzleConfig, error) {
	var config PuzzleConfig
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse yaml config '%s': %w", filename, err)
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse json config '%s': %w", filename, err)
		}
	}
	return &config, nil
}

// LoadPuzzleConfig loads and validates a puzzle configuration file
func LoadPuzzleConfig(filename string) (*PuzzleConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config, err := DecodePuzzleConfig(data, filename)
	if err != nil {
		return nil, err
	}

	if err := ValidatePuzzleConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultPuzzleConfig returns the classic 4x4 configuration
func DefaultPuzzleConfig() *PuzzleConfig {
	config := &PuzzleConfig{
		Name:               "classic",
		Description:        "The classic 15-puzzle on a 4x4 grid",
		GridSize:           BoardWidth,
		AutoStart:          true,
		MaxShuffleAttempts: DefaultMaxShuffleAttempts,
	}
	config.Messages.Welcome = "Slide the tiles into order from 1 to 15!"
	config.Messages.NotStarted = "Start a new game to shuffle the board."
	config.Messages.Moved = "Moves: %d"
	config.Messages.NotAdjacent = "That tile is not next to the empty square."
	config.Messages.Solved = "Solved in %d moves!"
	config.Messages.AlreadySolved = "Puzzle already solved. Start a new game to play again."
	config.Messages.InvalidDirection = "Unknown direction. Use up, down, left or right."
	return config
}

// InitGameStateFromConfig creates a not-started game state showing the ordered board
func InitGameStateFromConfig(config *PuzzleConfig) *GameState {
	if config == nil {
		config = DefaultPuzzleConfig()
	}

	board := NewOrderedBoard(config.GridSize)

	return &GameState{
		Board:             board,
		GridSize:          config.GridSize,
		Status:            StatusNotStarted,
		Moves:             0,
		Solvable:          true,
		Solved:            true,
		Message:           messageOr(config.Messages.NotStarted, config.Messages.Welcome),
		ConfigName:        config.Name,
		MoveHistory:       []MoveHistoryEntry{},
		TotalMoves:        0,
		CurrentMoves:      []MoveHistoryEntry{},
		CurrentMovesCount: 0,
	}
}

// messageOr returns msg, or fallback when msg is empty
func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
