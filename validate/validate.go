// Command validate provides a small CLI that validates puzzle configuration files
// (*.json, *.yaml, *.yml) in a directory, ../configs by default. It checks:
//   - JSON/YAML structure, rejecting unknown fields
//   - Required fields and the supported grid size range
//   - Shuffle settings (max_shuffle_attempts must not be negative)
//   - Required messages and their %d move count placeholders
//   - Playability: sampled shuffles produce solvable, unsolved boards
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
)

// playabilitySamples is how many boards are shuffled per config
const playabilitySamples = 50

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...any) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// decodeStrict parses a config rejecting fields the server would silently ignore
func decodeStrict(data []byte, filename string) (*engine.PuzzleConfig, error) {
	var config engine.PuzzleConfig
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&config); err != nil {
			return nil, fmt.Errorf("Invalid YAML: %v", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&config); err != nil {
			return nil, fmt.Errorf("Invalid JSON: %v", err)
		}
	}
	return &config, nil
}

// validateConfig loads and validates a single configuration file.
// It performs structural checks, message presence and placeholder checks,
// and a playability check on sampled shuffles.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	config, err := decodeStrict(data, filePath)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	// Validate required fields
	if config.Name == "" {
		result.fail("name is required")
	}
	if config.Description == "" {
		result.fail("description is required")
	}

	// Validate grid
	if config.GridSize < engine.MinGridSize || config.GridSize > engine.MaxGridSize {
		result.fail("grid_size must be between %d and %d, got %d", engine.MinGridSize, engine.MaxGridSize, config.GridSize)
	}

	if config.MaxShuffleAttempts < 0 {
		result.fail("max_shuffle_attempts must not be negative, got %d", config.MaxShuffleAttempts)
	}

	// Validate messages
	if config.Messages.Welcome == "" {
		result.fail("Missing required message: welcome")
	}
	if config.Messages.Solved == "" {
		result.fail("Missing required message: solved")
	} else if !strings.Contains(config.Messages.Solved, "%d") {
		result.fail("Message solved must contain %%d for the move count")
	}
	if config.Messages.Moved != "" && !strings.Contains(config.Messages.Moved, "%d") {
		result.fail("Message moved must contain %%d for the move count")
	}

	// The server's own rules must agree with the checks above
	if result.Valid {
		if err := engine.ValidatePuzzleConfig(config); err != nil {
			result.fail("%v", err)
		}
	}

	if result.Valid {
		playability := validatePlayability(config, playabilitySamples)
		if !playability.Valid {
			result.Valid = false
		}
		result.Errors = append(result.Errors, playability.Errors...)
	}

	// Add informational data
	if result.Valid {
		result.info("Name: %s", config.Name)
		result.info("Grid: %dx%d", config.GridSize, config.GridSize)
		result.info("Auto start: %t", config.AutoStart)
		result.info("Max shuffle attempts: %d", config.MaxShuffleAttempts)
		if missing := missingOptionalMessages(config); len(missing) > 0 {
			result.info("Default text used for: %s", strings.Join(missing, ", "))
		}
	}

	return result
}

func missingOptionalMessages(config *engine.PuzzleConfig) []string {
	optional := []struct {
		name, value string
	}{
		{"not_started", config.Messages.NotStarted},
		{"moved", config.Messages.Moved},
		{"not_adjacent", config.Messages.NotAdjacent},
		{"already_solved", config.Messages.AlreadySolved},
		{"invalid_direction", config.Messages.InvalidDirection},
	}

	var missing []string
	for _, msg := range optional {
		if msg.value == "" {
			missing = append(missing, msg.name)
		}
	}
	return missing
}

// validatePlayability shuffles boards the way a new game does, using a fixed seed so
// reports are reproducible, and checks every board is solvable and not already solved.
func validatePlayability(config *engine.PuzzleConfig, samples int) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	src := engine.NewSeededSource(uint64(config.GridSize))
	totalAttempts := 0
	for i := 0; i < samples; i++ {
		board, attempts := engine.NewSolvableBoard(config.GridSize, src, config.MaxShuffleAttempts)
		totalAttempts += attempts

		if err := board.Validate(); err != nil {
			result.fail("Shuffle %d produced an invalid board: %v", i+1, err)
			return result
		}
		if !engine.IsSolvable(board) {
			result.fail("Shuffle %d produced an unsolvable board:\n%s", i+1, board)
			return result
		}
		if engine.IsSolved(board) {
			result.fail("Shuffle %d produced an already solved board", i+1)
			return result
		}
	}

	result.info("Playability: %d/%d shuffles solvable (avg %.2f attempts)",
		samples, samples, float64(totalAttempts)/float64(samples))
	return result
}

// configFiles lists the configuration files in dir, sorted by name
func configFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// run validates every configuration in dir, prints a concise report and reports
// whether all of them are valid
func run(w io.Writer, dir string) (bool, error) {
	files, err := configFiles(dir)
	if err != nil {
		return false, fmt.Errorf("error finding config files: %w", err)
	}
	if len(files) == 0 {
		return false, fmt.Errorf("no config files found in %s", dir)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Fprintln(w, "  ❌ "+err)
				}
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All configurations are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some configurations have errors")
	}
	return allValid, nil
}

// main validates the directory given as the first argument (../configs by default),
// exiting with non-zero status if any configuration is invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	allValid, err := run(os.Stdout, configDir)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if !allValid {
		os.Exit(1)
	}
}
