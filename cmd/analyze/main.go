// Command analyze prints quick, human-readable statistics about puzzle
// configurations and boards. For every configuration in the configs directory it
// samples shuffles and summarizes how often a raw shuffle is solvable, how many
// shuffles a solvable board takes, and how far the boards start from solved.
// Boards given as arguments are analyzed individually instead.
//
//	analyze --config-dir configs --samples 500
//	analyze "1 2 3 4 5 6 8 7 _"
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/config"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
)

// ConfigReport aggregates sampled shuffles of one configuration.
type ConfigReport struct {
	ConfigID          string
	Name              string
	GridSize          int
	Samples           int
	RawSolvable       int
	AvgAttempts       float64
	MaxAttempts       int
	AvgInversions     float64
	AvgManhattan      float64
	MinManhattan      int
	MaxManhattan      int
	AvgMisplacedTiles float64
}

// SolvableRatio is the share of raw shuffles that were solvable
func (r ConfigReport) SolvableRatio() float64 {
	if r.Samples == 0 {
		return 0
	}
	return float64(r.RawSolvable) / float64(r.Samples)
}

// sampleConfig shuffles samples boards the way a new game does and aggregates them
func sampleConfig(cfg *engine.PuzzleConfig, samples int, src engine.Source) ConfigReport {
	report := ConfigReport{
		Name:     cfg.Name,
		GridSize: cfg.GridSize,
		Samples:  samples,
	}
	if samples <= 0 {
		return report
	}

	ordered := engine.NewOrderedBoard(cfg.GridSize)
	totalAttempts, totalInversions, totalManhattan, totalMisplaced := 0, 0, 0, 0
	report.MinManhattan = -1

	for i := 0; i < samples; i++ {
		if engine.IsSolvable(engine.Shuffle(ordered, src)) {
			report.RawSolvable++
		}

		board, attempts := engine.NewSolvableBoard(cfg.GridSize, src, cfg.MaxShuffleAttempts)
		totalAttempts += attempts
		if attempts > report.MaxAttempts {
			report.MaxAttempts = attempts
		}

		distance := engine.ManhattanDistance(board)
		totalManhattan += distance
		if report.MinManhattan < 0 || distance < report.MinManhattan {
			report.MinManhattan = distance
		}
		if distance > report.MaxManhattan {
			report.MaxManhattan = distance
		}
		totalInversions += engine.Inversions(board)
		totalMisplaced += engine.MisplacedTiles(board)
	}

	n := float64(samples)
	report.AvgAttempts = float64(totalAttempts) / n
	report.AvgInversions = float64(totalInversions) / n
	report.AvgManhattan = float64(totalManhattan) / n
	report.AvgMisplacedTiles = float64(totalMisplaced) / n
	return report
}

func printConfigReport(w io.Writer, r ConfigReport) {
	fmt.Fprintf(w, "\n=== Analyzing %s ===\n", r.ConfigID)
	fmt.Fprintf(w, "Name: %s\n", r.Name)
	fmt.Fprintf(w, "Grid Size: %d x %d\n", r.GridSize, r.GridSize)
	fmt.Fprintf(w, "Samples: %d\n", r.Samples)
	fmt.Fprintf(w, "Raw shuffles solvable: %d/%d (%.1f%%)\n", r.RawSolvable, r.Samples, r.SolvableRatio()*100)
	fmt.Fprintf(w, "Shuffle attempts: avg %.2f, max %d\n", r.AvgAttempts, r.MaxAttempts)
	fmt.Fprintf(w, "Inversions: avg %.1f\n", r.AvgInversions)
	fmt.Fprintf(w, "Manhattan distance: avg %.1f, min %d, max %d\n", r.AvgManhattan, r.MinManhattan, r.MaxManhattan)
	fmt.Fprintf(w, "Misplaced tiles: avg %.1f\n", r.AvgMisplacedTiles)
}

// analyzeBoard prints the analysis of one literal board and reports whether it parsed
func analyzeBoard(w io.Writer, text string) bool {
	fmt.Fprintf(w, "\n=== Analyzing board %q ===\n", text)

	board, err := engine.ParseBoard(text)
	if err != nil {
		fmt.Fprintf(w, "Invalid board: %v\n", err)
		return false
	}

	a := engine.Analyze(board)
	for _, row := range a.Grid {
		fmt.Fprintln(w, row)
	}
	fmt.Fprintf(w, "Grid Size: %d x %d\n", a.GridSize, a.GridSize)
	fmt.Fprintf(w, "Inversions: %d\n", a.Inversions)
	fmt.Fprintf(w, "Blank row: %d\n", a.BlankRow)
	fmt.Fprintf(w, "Misplaced tiles: %d\n", a.MisplacedTiles)
	fmt.Fprintf(w, "Manhattan distance: %d\n", a.ManhattanDistance)
	switch {
	case a.Solved:
		fmt.Fprintf(w, "✅ Board is solved\n")
	case a.Solvable:
		fmt.Fprintf(w, "✅ Board is solvable\n")
	default:
		fmt.Fprintf(w, "⚠️  Board is NOT solvable\n")
	}
	return true
}

// analyzeConfigs samples every valid configuration in dir
func analyzeConfigs(w io.Writer, dir string, samples int, src engine.Source) error {
	manager, err := config.NewManager(dir)
	if err != nil {
		return err
	}

	infos, err := manager.ListConfigs()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintf(w, "No configurations found in %s\n", dir)
		return nil
	}

	for _, info := range infos {
		cfg, err := manager.LoadConfig(info.Filename)
		if err != nil {
			fmt.Fprintf(w, "\n=== Analyzing %s ===\nError loading config: %v\n", info.ConfigID, err)
			continue
		}
		report := sampleConfig(cfg, samples, src)
		report.ConfigID = info.ConfigID
		printConfigReport(w, report)
	}
	return nil
}

func newCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Sample puzzle configurations or analyze literal boards",
		ArgsUsage: "[board ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing puzzle configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.IntFlag{
				Name:  "samples",
				Value: 200,
				Usage: "Shuffles sampled per configuration",
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "Seed for reproducible samples (optional)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if boards := cmd.Args().Slice(); len(boards) > 0 {
				invalid := 0
				for _, text := range boards {
					if !analyzeBoard(stdout, text) {
						invalid++
					}
				}
				if invalid > 0 {
					return fmt.Errorf("%d invalid board(s)", invalid)
				}
				return nil
			}

			src := engine.DefaultSource()
			if cmd.IsSet("seed") {
				src = engine.NewSeededSource(uint64(cmd.Int("seed")))
			}
			return analyzeConfigs(stdout, cmd.String("config-dir"), int(cmd.Int("samples")), src)
		},
	}
}

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
