package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/service"
)

var log = logrus.WithField("component", "mcp")

var directionEnum = []string{engine.Up, engine.Down, engine.Left, engine.Right}

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Sliding Puzzle",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Sliding Puzzle - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Slide the numbered tiles into ascending order, left to right and top to bottom, with the
blank (_) in the bottom-right corner.

AVAILABLE TOOLS:
- create_session: Create a new puzzle session
- list_sessions / get_session: Inspect sessions
- game_state: Board, status and possible moves
- move: Slide one tile (direction, board index or tile id) - requires intent explanation
- bulk_move: Slide up to 50 tiles in one call - requires intent explanation
- new_game: Reshuffle the board and start over
- move_history: View past move attempts
- list_configs: List available puzzle configurations
- analyze_board: Check any board for solvability and distance to solution
- game_instructions: Rules, direction semantics and strategy

NOTE: The 'intent' parameter on move/bulk_move tools serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID (4 hex characters)",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new puzzle session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Config to use, e.g. classic or mini (optional, see list_configs)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active puzzle sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, status and possible moves",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Slide one tile into the blank. Give exactly one of direction, index or tile_id.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        directionEnum,
					"description": "Direction the tile moves: up slides the tile below the blank up",
				},
				"index": map[string]interface{}{
					"type":        "integer",
					"description": "Row-major board index of the tile to slide (0-based)",
				},
				"tile_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the tile to slide, e.g. tile-7",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this move (serves as a rubber duck to help explain your reasoning)",
				},
				"new_game": map[string]interface{}{
					"type":        "boolean",
					"description": "Start a new game before moving",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: fmt.Sprintf("Slide tiles in sequence (at most %d per call). Stops at the first rejected move or when solved.", engine.MaxBulkMoves),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"moves": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
						"enum": directionEnum,
					},
					"description": "Array of directions",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this sequence of moves (serves as a rubber duck to help explain your reasoning)",
				},
				"new_game": map[string]interface{}{
					"type":        "boolean",
					"description": "Start a new game before moving",
				},
			},
			Required: []string{"session_id", "moves"},
		},
	}, c.handleBulkMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "new_game",
		Description: "Reshuffle the board and start a new game in the same session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleNewGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get move history for a session, including rejected attempts",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Sort order (default desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available puzzle configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "analyze_board",
		Description: "Check a board for validity and solvability and report inversions, misplaced tiles and Manhattan distance. Give board text or values.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"board": map[string]interface{}{
					"type":        "string",
					"description": "Board text, rows separated by newlines, blank as _ or 0",
				},
				"values": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "integer"},
					"description": "Row-major tile values with 0 for the blank",
				},
			},
		},
	}, c.handleAnalyzeBoard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	log.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
		"status": resp.StatusCode,
	}).Debug("api call")

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArgument reads an optional whole-number argument; present reports whether the key was set
func intArgument(args map[string]interface{}, key string) (value int, present bool, err error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, true, fmt.Errorf("%s must be a whole number, got %v", key, v)
		}
		return int(v), true, nil
	case int:
		return v, true, nil
	}
	return 0, true, fmt.Errorf("%s must be a number", key)
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, http.MethodPost, "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s",
		session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, http.MethodGet, "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status, moves := "unknown", 0
		if s.GameState != nil {
			status, moves = string(s.GameState.Status), s.GameState.Moves
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Status: %s, Moves: %d, Created: %s)\n",
			s.ID, s.ConfigName, status, moves, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	var body service.MoveRequest
	body.Direction, _ = args["direction"].(string)
	body.TileID, _ = args["tile_id"].(string)
	body.NewGame, _ = args["new_game"].(bool)
	index, ok, err := intArgument(args, "index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if ok {
		body.Index = &index
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "/move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	movesRaw, _ := args["moves"].([]interface{})
	newGame, _ := args["new_game"].(bool)

	moves := make([]string, 0, len(movesRaw))
	for i, m := range movesRaw {
		move, ok := m.(string)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("move %d is not a direction string: %v", i+1, m)), nil
		}
		moves = append(moves, move)
	}

	body := map[string]interface{}{
		"moves":    moves,
		"new_game": newGame,
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "/bulk-move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, &result)), nil
}

func (c *Client) handleNewGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "/new-game"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	for _, key := range []string{"page", "limit"} {
		n, ok, err := intArgument(args, key)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if ok {
			params.Set(key, fmt.Sprint(n))
		}
	}
	if order, _ := args["order"].(string); order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, http.MethodGet, path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Also fetch current game from live state
	var state engine.GameState
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, "/state"), nil, &state); err != nil {
		// If fetching state fails, still return the history
		return mcp.NewToolResultText(formatHistory(&history)), nil
	}

	result := formatHistory(&history) + "\n" + formatCurrentGame(&state)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, http.MethodGet, "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		start := "manual start"
		if config.AutoStart {
			start = "auto start"
		}
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Grid: %dx%d, %s\n\n",
			config.Name, config.ConfigID, config.Description, config.GridSize, config.GridSize, start)
	}

	return mcp.NewToolResultText(b.String()), nil
}

// analysisResult mirrors the analyze endpoint response
type analysisResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
	engine.Analysis
}

func (c *Client) handleAnalyzeBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]interface{}{}
	if board, _ := args["board"].(string); board != "" {
		body["board"] = board
	}
	if raw, ok := args["values"].([]interface{}); ok {
		values := make([]int, 0, len(raw))
		for _, v := range raw {
			n, ok := v.(float64)
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf("values must be integers, got %v", v)), nil
			}
			values = append(values, int(n))
		}
		body["values"] = values
	}

	var result analysisResult
	if err := c.apiCall(ctx, http.MethodPost, "/api/analyze", body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatAnalysis(&result)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Sliding Puzzle - Complete Instructions

GAME OBJECTIVE:
Arrange the tiles in ascending order reading left to right, top to bottom, with the blank in
the bottom-right corner. On the classic 4x4 board the goal is:

 1  2  3  4
 5  6  7  8
 9 10 11 12
13 14 15  _

GAME MECHANICS:
• A move slides one tile that is orthogonally adjacent to the blank into the blank
• Boards are shuffled so they are always solvable and never start solved
• Rejected moves (not adjacent, unknown tile, bad direction) do not change the board
  but are still recorded in the move history
• Some configs do not auto start: the first new_game (or new_game=true on a move) starts play
• Once solved, moves are rejected until you start a new game

DIRECTIONS (the direction the TILE travels, not the blank):
• up    - the tile below the blank slides up
• down  - the tile above the blank slides down
• left  - the tile right of the blank slides left
• right - the tile left of the blank slides right

ADDRESSING A TILE:
• direction: one of up, down, left, right
• index: row-major board position, 0 is the top-left cell
• tile_id: stable tile identity such as tile-7 (the tile with value 7)

STRATEGY:
• Solve the top row, then the left column, and repeat on the smaller puzzle
• Place the last two tiles of a row together by parking them in a column first
• Use analyze_board to compare Manhattan distance before and after a plan
• Use bulk_move for planned sequences; it stops at the first rejected move

TOOLS:
• create_session: start a session, optionally with config_id
• game_state: board, status, move count and possible moves
• move / bulk_move: slide tiles, always explain your intent
• new_game: reshuffle
• move_history: paginated attempts including rejections
• analyze_board: solvability and distance figures for any board`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\nLast accessed: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		session.LastAccessedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

// boardRows prefers the server rendered grid
func boardRows(state *engine.GameState) []string {
	if len(state.Grid) > 0 {
		return state.Grid
	}
	if len(state.Board) > 0 {
		return state.Board.Rows()
	}
	return nil
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder

	fmt.Fprintf(&result, "Status: %s | Moves: %d | Game #%d | Grid: %dx%d\n",
		state.Status, state.Moves, state.GameNumber, state.GridSize, state.GridSize)
	if state.CompletedGames > 0 {
		fmt.Fprintf(&result, "Solved games: %d | Best: %d moves\n", state.CompletedGames, state.BestMoves)
	}
	result.WriteString("\n")

	for _, row := range boardRows(state) {
		result.WriteString(row)
		result.WriteString("\n")
	}

	if len(state.PossibleMoves) > 0 {
		fmt.Fprintf(&result, "\nPossible moves: %s", strings.Join(state.PossibleMoves, ","))
	}

	if state.Status == engine.StatusCompleted {
		result.WriteString("\nSOLVED!")
	}

	if state.Message != "" {
		fmt.Fprintf(&result, "\nMessage: %s", state.Message)
	}

	return result.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder

	if result.Success {
		if result.Step != nil {
			fmt.Fprintf(&b, "Moved %s (%d) from %d to %d\n",
				result.Step.TileID, result.Step.TileValue, result.Step.From, result.Step.To)
		} else {
			b.WriteString("Move accepted\n")
		}
	} else {
		b.WriteString("Move rejected\n")
		if result.AttemptedTo != nil {
			b.WriteString(formatAttempt(result.AttemptedTo))
			b.WriteString("\n")
		}
	}

	if len(result.Events) > 0 {
		b.WriteString("\nEvents:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	configName, gridSize := "", 0
	if result.GameState != nil {
		configName, gridSize = result.GameState.ConfigName, result.GameState.GridSize
	}
	fmt.Fprintf(&b, "Session: %s • Config: %s • Grid: %dx%d\n", sessionID, configName, gridSize, gridSize)

	fmt.Fprintf(&b, "Executed %d/%d moves (moves %d -> %d)\n",
		result.MovesExecuted, result.RequestedMoves, result.StartMoves, result.EndMoves)
	if result.Truncated {
		fmt.Fprintf(&b, "Request truncated to %d moves\n", result.Limit)
	}
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped on move %d: %s", result.StoppedOnMove, result.StoppedReason)
		if result.StopReasonCode != "" {
			fmt.Fprintf(&b, " [%s]", result.StopReasonCode)
		}
		b.WriteString("\n")
	}

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps (this call):\n")
		for _, step := range result.Steps {
			b.WriteString(formatStepLine(step))
		}
	}

	if result.AttemptedTo != nil {
		b.WriteString("\n")
		b.WriteString(formatAttempt(result.AttemptedTo))
		b.WriteString("\n")
	}

	if len(result.Events) > 0 {
		b.WriteString("\nEvents:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatStepLine(step service.StepInfo) string {
	status := "ok"
	if !step.Success {
		status = "rejected"
	}
	if step.Solved {
		status = "solved"
	}
	dir := step.Dir
	if dir == "" {
		dir = "-"
	}
	return fmt.Sprintf("%d. %-5s %s (%d) %d->%d moves %d->%d %s\n",
		step.Idx, dir, step.TileID, step.TileValue, step.From, step.To,
		step.MovesBefore, step.MovesAfter, status)
}

func formatAttempt(attempt *service.AttemptInfo) string {
	line := fmt.Sprintf("Attempted index %d (row %d, col %d)", attempt.Index, attempt.Row, attempt.Col)
	if attempt.TileID != "" {
		line += fmt.Sprintf(" holding %s (%d)", attempt.TileID, attempt.TileValue)
	}
	return line + ": " + attempt.Reason
}

func formatHistoryEntry(entry engine.MoveHistoryEntry) string {
	outcome := "accepted"
	if !entry.Accepted {
		outcome = "rejected"
	}
	if entry.Solved {
		outcome = "solved"
	}
	tile := entry.TileID
	if tile == "" {
		tile = "-"
	}
	return fmt.Sprintf("#%d %s %s %d->%d %s\n",
		entry.MoveNumber, entry.Action, tile, entry.FromIndex, entry.ToIndex, outcome)
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d, Total: %d moves):\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for _, move := range history.Moves {
		b.WriteString(formatHistoryEntry(move))
	}

	if history.HasNext {
		b.WriteString("\n(more moves on next page)")
	}

	return b.String()
}

func formatCurrentGame(state *engine.GameState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current game #%d: %d attempts, %d accepted moves\n",
		state.GameNumber, state.CurrentMovesCount, state.Moves)
	for _, move := range state.CurrentMoves {
		b.WriteString(formatHistoryEntry(move))
	}
	return b.String()
}

func formatAnalysis(result *analysisResult) string {
	if !result.Valid {
		return "Invalid board: " + result.Error
	}

	var b strings.Builder
	for _, row := range result.Grid {
		b.WriteString(row)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nGrid: %dx%d\n", result.GridSize, result.GridSize)
	fmt.Fprintf(&b, "Solvable: %t\n", result.Solvable)
	fmt.Fprintf(&b, "Solved: %t\n", result.Solved)
	fmt.Fprintf(&b, "Inversions: %d\n", result.Inversions)
	fmt.Fprintf(&b, "Blank row: %d\n", result.BlankRow)
	fmt.Fprintf(&b, "Misplaced tiles: %d\n", result.MisplacedTiles)
	fmt.Fprintf(&b, "Manhattan distance: %d\n", result.ManhattanDistance)
	return b.String()
}
