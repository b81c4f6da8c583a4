package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
)

const validJSON = `{
	"name": "Test Config",
	"description": "Test configuration",
	"grid_size": 4,
	"auto_start": true,
	"max_shuffle_attempts": 100,
	"messages": {
		"welcome": "Welcome!",
		"moved": "Moves: %d",
		"solved": "Solved in %d moves!"
	}
}`

const validYAML = `name: mini
description: The 8-puzzle
grid_size: 3
messages:
  welcome: Slide the tiles into order!
  solved: "Solved in %d moves!"
`

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func hasMessage(messages []string, substr string) bool {
	for _, msg := range messages {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func TestValidateConfig_Valid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		file     string
		content  string
		wantInfo []string
	}{
		{"json", "classic.json", validJSON, []string{"✓ Name: Test Config", "✓ Grid: 4x4", "Playability: 50/50"}},
		{"yaml", "mini.yaml", validYAML, []string{"✓ Grid: 3x3", "✓ Auto start: false", "Default text used for: not_started, moved"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateConfig(writeConfig(t, dir, tt.file, tt.content))
			if !result.Valid {
				t.Fatalf("Expected valid config, but got errors: %v", result.Errors)
			}
			if result.File != tt.file {
				t.Errorf("Expected file %s, got %s", tt.file, result.File)
			}
			for _, info := range tt.wantInfo {
				if !hasMessage(result.Errors, info) {
					t.Errorf("Expected %q in %v", info, result.Errors)
				}
			}
		})
	}
}

func TestValidateConfig_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		wantErr []string
	}{
		{
			name:    "malformed json",
			file:    "broken.json",
			content: `{"name": `,
			wantErr: []string{"Invalid JSON"},
		},
		{
			name:    "unknown json field",
			file:    "extra.json",
			content: `{"name": "x", "description": "y", "grid_size": 4, "max_moves": 10, "messages": {"welcome": "w", "solved": "%d"}}`,
			wantErr: []string{"Invalid JSON", "max_moves"},
		},
		{
			name:    "unknown yaml field",
			file:    "layout.yaml",
			content: validYAML + "layout: [RRR]\n",
			wantErr: []string{"Invalid YAML"},
		},
		{
			name:    "all problems reported together",
			file:    "empty.json",
			content: `{"grid_size": 9, "max_shuffle_attempts": -1, "messages": {"solved": "done", "moved": "moved"}}`,
			wantErr: []string{
				"name is required",
				"description is required",
				"grid_size must be between 3 and 6, got 9",
				"max_shuffle_attempts must not be negative",
				"Missing required message: welcome",
				"Message solved must contain %d",
				"Message moved must contain %d",
			},
		},
		{
			name:    "grid too small",
			file:    "tiny.yaml",
			content: strings.Replace(validYAML, "grid_size: 3", "grid_size: 2", 1),
			wantErr: []string{"grid_size must be between 3 and 6, got 2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateConfig(writeConfig(t, dir, tt.file, tt.content))
			if result.Valid {
				t.Fatalf("Expected invalid config, got info: %v", result.Errors)
			}
			for _, want := range tt.wantErr {
				if !hasMessage(result.Errors, want) {
					t.Errorf("Expected error containing %q in %v", want, result.Errors)
				}
			}
		})
	}
}

func TestValidateConfig_MissingFile(t *testing.T) {
	result := validateConfig(filepath.Join(t.TempDir(), "missing.json"))
	if result.Valid {
		t.Error("Expected missing file to be invalid")
	}
	if !hasMessage(result.Errors, "Failed to read file") {
		t.Errorf("Unexpected errors: %v", result.Errors)
	}
}

func TestValidatePlayability(t *testing.T) {
	for size := engine.MinGridSize; size <= engine.MaxGridSize; size++ {
		config := engine.DefaultPuzzleConfig()
		config.GridSize = size

		result := validatePlayability(config, 20)
		if !result.Valid {
			t.Errorf("Grid %d: expected playable boards, got %v", size, result.Errors)
		}
	}

	// a single attempt forces the parity and solved fallbacks
	config := engine.DefaultPuzzleConfig()
	config.MaxShuffleAttempts = 1
	if result := validatePlayability(config, 50); !result.Valid {
		t.Errorf("Expected fallbacks to keep boards playable, got %v", result.Errors)
	}
}

func TestRun(t *testing.T) {
	t.Run("all valid", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "classic.json", validJSON)
		writeConfig(t, dir, "mini.yml", validYAML)
		writeConfig(t, dir, "notes.txt", "ignored")

		var out bytes.Buffer
		allValid, err := run(&out, dir)
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if !allValid {
			t.Errorf("Expected all configs valid, output:\n%s", out.String())
		}
		for _, want := range []string{"classic.json", "mini.yml", "All configurations are valid!"} {
			if !strings.Contains(out.String(), want) {
				t.Errorf("Expected %q in output:\n%s", want, out.String())
			}
		}
		if strings.Contains(out.String(), "notes.txt") {
			t.Errorf("Non-config files should be ignored:\n%s", out.String())
		}
	})

	t.Run("some invalid", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "classic.json", validJSON)
		writeConfig(t, dir, "broken.json", "{")

		var out bytes.Buffer
		allValid, err := run(&out, dir)
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if allValid {
			t.Error("Expected invalid result")
		}
		if !strings.Contains(out.String(), "❌ INVALID") || !strings.Contains(out.String(), "Some configurations have errors") {
			t.Errorf("Unexpected output:\n%s", out.String())
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		if _, err := run(&bytes.Buffer{}, t.TempDir()); err == nil {
			t.Error("Expected error for directory without configs")
		}
	})
}

// TestRepositoryConfigs keeps the shipped configurations valid
func TestRepositoryConfigs(t *testing.T) {
	dir := filepath.Join("..", "configs")
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}

	var out bytes.Buffer
	allValid, err := run(&out, dir)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !allValid {
		t.Errorf("Shipped configs must be valid:\n%s", out.String())
	}
}
