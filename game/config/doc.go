// Package config provides puzzle configuration management.
//
// The config package handles:
//   - Loading puzzle configurations from JSON or YAML files
//   - Configuration validation
//   - Default configuration management
//   - Configuration discovery and listing
//
// Configuration Format:
//
// Configurations live in one directory; the file name without its extension is the config
// ID used when creating sessions. Each configuration defines the grid size, whether a game
// starts automatically when a session is created, the shuffle attempt limit and the player
// facing messages.
//
//	name: mini
//	description: The 8-puzzle on a 3x3 grid
//	grid_size: 3
//	auto_start: true
//	messages:
//	  welcome: Slide the tiles into order from 1 to 8!
//	  solved: Solved in %d moves!
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	puzzleConfig, err := manager.LoadConfig("mini")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
//
// The default is "classic" when present, else the first valid configuration, else the
// built-in 4x4 configuration.
package config
