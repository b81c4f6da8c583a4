// Package service provides the business logic layer of the sliding puzzle server.
//
// The service package implements:
//   - Multi-session game management
//   - Move processing by direction, board index or tile ID
//   - Bulk moves with stop-reason codes and a per-step trace
//   - Move history pagination
//   - Completion notification
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages puzzle configuration loading and validation.
// CompletionNotifier receives a Completion for every solved puzzle.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr,
//		service.WithCompletionNotifier(notify.LogNotifier{}))
//
//	sessionInfo, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Move(ctx, sessionInfo.ID, service.MoveRequest{Direction: "up"})
//
// The notifier runs once per game, on the move that moves the status from in_progress to
// completed. Its errors are logged and never reach the player.
package service
