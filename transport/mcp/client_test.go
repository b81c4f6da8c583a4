package mcp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/slidingpuzzle/api"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/config"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/service"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/session"
)

// recordedRequest captures what a tool sent to the REST API
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]interface{}
}

// recordingBackend answers every request with the same JSON response and records the requests
func recordingBackend(t *testing.T, status int, response interface{}) (*httptest.Server, func() []recordedRequest) {
	t.Helper()

	var (
		mu       sync.Mutex
		requests []recordedRequest
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			json.Unmarshal(data, &rec.Body)
		}
		mu.Lock()
		requests = append(requests, rec)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(response)
	}))
	t.Cleanup(server.Close)

	return server, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), requests...)
	}
}

func toolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "Expected text content in result")
	return text.Text
}

func sampleState() *engine.GameState {
	board := engine.NewOrderedBoard(3)
	board = engine.Swap(board, 7, 8)
	return &engine.GameState{
		Board:         board,
		GridSize:      3,
		Status:        engine.StatusInProgress,
		Moves:         4,
		GameNumber:    2,
		ConfigName:    "mini",
		Message:       "Tile moved",
		PossibleMoves: []string{"down", "right", "left"},
	}
}

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	client := NewClient(baseURL + "/")

	if client == nil {
		t.Fatal("Expected client to be created")
	}

	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, client.baseURL)
	}

	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}

	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server, requests := recordingBackend(t, http.StatusOK, map[string]interface{}{"id": "ab12"})
	client := NewClient(server.URL)

	var response map[string]interface{}
	err := client.apiCall(context.Background(), http.MethodPost, "/api/sessions", map[string]string{"config_id": "mini"}, &response)
	require.NoError(t, err)
	assert.Equal(t, "ab12", response["id"])

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "mini", reqs[0].Body["config_id"])
}

func TestClient_apiCall_Errors(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1")
		assert.Error(t, client.apiCall(context.Background(), http.MethodGet, "/api/health", nil, nil))
	})

	t.Run("error body", func(t *testing.T) {
		server, _ := recordingBackend(t, http.StatusNotFound, map[string]string{"error": "session not found"})
		client := NewClient(server.URL)
		err := client.apiCall(context.Background(), http.MethodGet, "/api/sessions/ffff", nil, nil)
		require.Error(t, err)
		assert.Equal(t, "session not found", err.Error())
	})

	t.Run("status only", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}))
		defer server.Close()

		client := NewClient(server.URL)
		err := client.apiCall(context.Background(), http.MethodGet, "/api/health", nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "500")
	})
}

func TestClient_handleMove_RequestShape(t *testing.T) {
	response := service.MoveResult{Success: true, GameState: sampleState()}

	tests := []struct {
		name string
		args map[string]interface{}
		want map[string]interface{}
	}{
		{
			name: "direction",
			args: map[string]interface{}{"session_id": "ab12", "direction": "left", "intent": "close the gap"},
			want: map[string]interface{}{"direction": "left"},
		},
		{
			name: "index from JSON number",
			args: map[string]interface{}{"session_id": "ab12", "index": float64(7)},
			want: map[string]interface{}{"index": float64(7)},
		},
		{
			name: "tile id with new game",
			args: map[string]interface{}{"session_id": "ab12", "tile_id": "tile-8", "new_game": true},
			want: map[string]interface{}{"tile_id": "tile-8", "new_game": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, requests := recordingBackend(t, http.StatusOK, response)
			client := NewClient(server.URL)

			result, err := client.handleMove(context.Background(), toolRequest("move", tt.args))
			require.NoError(t, err)
			assert.False(t, result.IsError)

			reqs := requests()
			require.Len(t, reqs, 1)
			assert.Equal(t, "/api/sessions/ab12/move", reqs[0].Path)
			assert.Equal(t, tt.want, reqs[0].Body)
		})
	}
}

func TestClient_handleBulkMove_RequestShape(t *testing.T) {
	server, requests := recordingBackend(t, http.StatusOK, service.BulkMoveResult{GameState: sampleState()})
	client := NewClient(server.URL)

	args := map[string]interface{}{
		"session_id": "ab12",
		"moves":      []interface{}{"up", "left"},
		"new_game":   true,
	}
	result, err := client.handleBulkMove(context.Background(), toolRequest("bulk_move", args))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/api/sessions/ab12/bulk-move", reqs[0].Path)
	assert.Equal(t, []interface{}{"up", "left"}, reqs[0].Body["moves"])
	assert.Equal(t, true, reqs[0].Body["new_game"])
}

func TestClient_handleMoveHistory_Query(t *testing.T) {
	server, requests := recordingBackend(t, http.StatusOK, service.HistoryResponse{Page: 2, TotalPages: 3})
	client := NewClient(server.URL)

	args := map[string]interface{}{"session_id": "ab12", "page": float64(2), "limit": float64(5), "order": "asc"}
	result, err := client.handleMoveHistory(context.Background(), toolRequest("move_history", args))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Page 2/3")

	reqs := requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "/api/sessions/ab12/history", reqs[0].Path)
	assert.Equal(t, "limit=5&order=asc&page=2", reqs[0].Query)
	assert.Equal(t, "/api/sessions/ab12/state", reqs[1].Path)
}

type toolHandler = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func TestClient_MalformedArgumentsNeverReachServer(t *testing.T) {
	tests := []struct {
		name    string
		handler func(*Client) toolHandler
		args    map[string]interface{}
		want    string
	}{
		{
			name:    "fractional index",
			handler: func(c *Client) toolHandler { return c.handleMove },
			args:    map[string]interface{}{"session_id": "ab12", "index": 1.5},
			want:    "index must be a whole number",
		},
		{
			name:    "index as string",
			handler: func(c *Client) toolHandler { return c.handleMove },
			args:    map[string]interface{}{"session_id": "ab12", "index": "7"},
			want:    "index must be a number",
		},
		{
			name:    "non-string bulk move",
			handler: func(c *Client) toolHandler { return c.handleBulkMove },
			args:    map[string]interface{}{"session_id": "ab12", "moves": []interface{}{"up", float64(3), "left"}},
			want:    "move 2 is not a direction string",
		},
		{
			name:    "fractional page",
			handler: func(c *Client) toolHandler { return c.handleMoveHistory },
			args:    map[string]interface{}{"session_id": "ab12", "page": 1.5},
			want:    "page must be a whole number",
		},
		{
			name:    "fractional limit",
			handler: func(c *Client) toolHandler { return c.handleMoveHistory },
			args:    map[string]interface{}{"session_id": "ab12", "limit": 2.25},
			want:    "limit must be a whole number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, requests := recordingBackend(t, http.StatusOK, map[string]interface{}{})
			client := NewClient(server.URL)

			result, err := tt.handler(client)(context.Background(), toolRequest("tool", tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.want)
			assert.Empty(t, requests(), "a malformed call must not touch the game")
		})
	}
}

func TestIntArgument(t *testing.T) {
	args := map[string]interface{}{"whole": float64(4), "native": 3, "half": 0.5, "null": nil}

	n, ok, err := intArgument(args, "whole")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, n)

	n, ok, err = intArgument(args, "native")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok, err = intArgument(args, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = intArgument(args, "null")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = intArgument(args, "half")
	assert.Error(t, err)
}

func TestClient_ToolErrorsBecomeResults(t *testing.T) {
	server, _ := recordingBackend(t, http.StatusNotFound, map[string]string{"error": "session not found"})
	client := NewClient(server.URL)

	result, err := client.handleGameState(context.Background(), toolRequest("game_state", map[string]interface{}{"session_id": "ffff"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "session not found")
}

func TestClient_handleAnalyzeBoard_RejectsNonIntegers(t *testing.T) {
	server, requests := recordingBackend(t, http.StatusOK, map[string]interface{}{})
	client := NewClient(server.URL)

	args := map[string]interface{}{"values": []interface{}{float64(1), "two"}}
	result, err := client.handleAnalyzeBoard(context.Background(), toolRequest("analyze_board", args))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Empty(t, requests())
}

func TestFormatGameState(t *testing.T) {
	result := formatGameState(sampleState())

	expected := []string{
		"Status: in_progress | Moves: 4 | Game #2 | Grid: 3x3",
		"1 2 3\n4 5 6\n7 _ 8\n",
		"Possible moves: down,right,left",
		"Message: Tile moved",
	}
	for _, field := range expected {
		if !strings.Contains(result, field) {
			t.Errorf("Expected %q in formatted output, got: %s", field, result)
		}
	}

	if strings.Contains(result, "SOLVED!") {
		t.Errorf("Unexpected solved banner: %s", result)
	}
}

func TestFormatGameState_Completed(t *testing.T) {
	state := sampleState()
	state.Board = engine.NewOrderedBoard(3)
	state.Status = engine.StatusCompleted
	state.CompletedGames = 1
	state.BestMoves = 4

	result := formatGameState(state)
	assert.Contains(t, result, "SOLVED!")
	assert.Contains(t, result, "Solved games: 1 | Best: 4 moves")
	assert.Equal(t, "No game state available", formatGameState(nil))
}

func TestFormatMoveResult_Rejected(t *testing.T) {
	result := formatMoveResult(&service.MoveResult{
		Success:   false,
		GameState: sampleState(),
		AttemptedTo: &service.AttemptInfo{
			Index: 0, Row: 0, Col: 0, TileID: "tile-1", TileValue: 1, Reason: "not_adjacent",
		},
	})

	assert.Contains(t, result, "Move rejected")
	assert.Contains(t, result, "Attempted index 0 (row 0, col 0) holding tile-1 (1): not_adjacent")
}

func TestFormatBulkMoveResult(t *testing.T) {
	result := formatBulkMoveResult("ab12", &service.BulkMoveResult{
		MovesExecuted:  1,
		RequestedMoves: 3,
		StartMoves:     3,
		EndMoves:       4,
		StoppedReason:  "no tile below the blank",
		StopReasonCode: "no_tile",
		StoppedOnMove:  2,
		Steps: []service.StepInfo{
			{Idx: 1, Dir: "left", TileID: "tile-8", TileValue: 8, From: 8, To: 7, MovesBefore: 3, MovesAfter: 4, Success: true},
		},
		GameState: sampleState(),
	})

	assert.Contains(t, result, "Session: ab12 • Config: mini • Grid: 3x3")
	assert.Contains(t, result, "Executed 1/3 moves (moves 3 -> 4)")
	assert.Contains(t, result, "Stopped on move 2: no tile below the blank [no_tile]")
	assert.Contains(t, result, "1. left  tile-8 (8) 8->7 moves 3->4 ok")
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleGameInstructions(context.Background(), toolRequest("game_instructions", nil))
	if err != nil {
		t.Fatalf("handleGameInstructions failed: %v", err)
	}

	text := resultText(t, result)
	expectedContent := []string{
		"Sliding Puzzle - Complete Instructions",
		"GAME OBJECTIVE:",
		"DIRECTIONS (the direction the TILE travels, not the blank):",
		"up    - the tile below the blank slides up",
		"ADDRESSING A TILE:",
		"STRATEGY:",
	}
	for _, content := range expectedContent {
		if !strings.Contains(text, content) {
			t.Errorf("Expected %q in instructions, got: %s", content, text)
		}
	}
}

// orderedSource leaves every shuffle in order
type orderedSource struct{}

func (orderedSource) IntN(n int) int { return n - 1 }

// TestClient_SolveAgainstRealAPI drives the tools against the real REST server. The classic
// puzzle always starts one slide (left) away from solved.
func TestClient_SolveAgainstRealAPI(t *testing.T) {
	configs, err := config.NewManager(t.TempDir())
	require.NoError(t, err)
	classic := engine.DefaultPuzzleConfig()
	classic.MaxShuffleAttempts = 1
	require.NoError(t, configs.SaveConfig("classic", classic))
	require.NoError(t, configs.SetDefault("classic"))

	sessions := session.NewManager()
	sessions.SetSource(orderedSource{})
	svc := service.NewGameService(sessions, configs)

	backend := httptest.NewServer(api.NewServer(svc, nil))
	defer backend.Close()

	client := NewClient(backend.URL)
	ctx := context.Background()

	result, err := client.handleCreateSession(ctx, toolRequest("create_session", map[string]interface{}{"config_id": "classic"}))
	require.NoError(t, err)
	text := resultText(t, result)
	require.False(t, result.IsError, text)
	assert.Contains(t, text, "13 14  _ 15")

	list := sessions.List()
	require.Len(t, list, 1)
	id := list[0].ID

	result, err = client.handleMove(ctx, toolRequest("move", map[string]interface{}{"session_id": id, "tile_id": "tile-1"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "not_adjacent")

	result, err = client.handleMove(ctx, toolRequest("move", map[string]interface{}{"session_id": strings.ToUpper(id), "direction": "left"}))
	require.NoError(t, err)
	text = resultText(t, result)
	assert.Contains(t, text, "tile-15")
	assert.Contains(t, text, "SOLVED!")

	result, err = client.handleBulkMove(ctx, toolRequest("bulk_move", map[string]interface{}{"session_id": id, "moves": []interface{}{"right"}}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "[completed]")

	result, err = client.handleMoveHistory(ctx, toolRequest("move_history", map[string]interface{}{"session_id": id, "order": "asc"}))
	require.NoError(t, err)
	text = resultText(t, result)
	assert.Contains(t, text, "Total: 3 moves")
	assert.Contains(t, text, "solved")

	result, err = client.handleAnalyzeBoard(ctx, toolRequest("analyze_board", map[string]interface{}{"board": "1 2 3\n4 5 6\n8 7 _"}))
	require.NoError(t, err)
	text = resultText(t, result)
	assert.Contains(t, text, "Solvable: false")
	assert.Contains(t, text, "Inversions: 1")

	result, err = client.handleListConfigs(ctx, toolRequest("list_configs", nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "config_id: classic")
}
