// Package websocket pushes puzzle updates to browsers watching a session.
//
// A single Hub goroutine owns the client registry. Clients connect with
// ?sessionId=<id> and only receive messages for that session. Broadcasts are queued
// on a buffered channel and dropped when the queue is full, so game moves never wait
// on slow sockets.
//
// Outgoing messages are JSON:
//
//	{"session_id": "ab12", "event": "state_update", "game_state": {...}}
//	{"session_id": "ab12", "event": "puzzle_completed", "data": {...}}
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//	hub.BroadcastToSession(sessionID, state)
package websocket
