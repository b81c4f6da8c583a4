// Package engine provides the core logic of the sliding tile puzzle.
//
// The pure board functions (GenerateOrderedBoard, Shuffle, IsSolvable, IsNeighbour, Swap,
// ApplyMove, RecomputeHomePositions, IsSolved) never mutate their input. GameEngine wraps
// one board with the lifecycle status and move counter of a single game.
//
// Usage:
//
//	gameEngine, err := engine.NewEngine(engine.DefaultPuzzleConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine.NewGame()
//	success := gameEngine.Move("up")
//	state := gameEngine.GetState()
//
// Directions name where the tile travels: "up" slides the tile below the blank into it.
package engine
