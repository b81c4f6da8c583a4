// Package mcp exposes the sliding puzzle to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a REST request against the
// api package's server and the JSON response is rendered as text for the agent.
//
// MCP Tools:
//   - create_session, list_sessions, get_session: session management
//   - game_state: board grid, status, move count and possible moves
//   - move: slide one tile by direction, board index or tile ID
//   - bulk_move: slide up to engine.MaxBulkMoves tiles, stopping at the first rejection
//   - new_game: reshuffle and start over
//   - move_history: paginated attempts, including rejected ones
//   - list_configs: available puzzle configurations
//   - analyze_board: solvability and distance figures for an arbitrary board
//   - game_instructions: rules and direction semantics
//
// Transport Modes:
//
// The server returned by GetMCPServer can be served over stdio (server.ServeStdio)
// for local agents or mounted as a streamable HTTP endpoint (server.NewStreamableHTTPServer).
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
