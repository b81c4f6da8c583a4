// Package notify delivers solved-puzzle completions.
//
// The game service calls a service.CompletionNotifier once per solved game. This package
// provides notifiers that log the completion, push it to WebSocket clients, or POST it to a
// webhook, and Multi to combine them. Notifier errors are logged by the service and never
// fail the move that solved the puzzle.
package notify
