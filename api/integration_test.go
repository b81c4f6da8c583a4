package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/config"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/service"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/session"
)

// orderedSource leaves every shuffle in order
type orderedSource struct{}

func (orderedSource) IntN(n int) int { return n - 1 }

type countingNotifier struct {
	mu    sync.Mutex
	count int
}

func (n *countingNotifier) NotifyCompletion(ctx context.Context, c service.Completion) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.count++
	return nil
}

// newIntegrationServer wires the real service over a temp config dir whose classic
// puzzle always starts one slide away from solved
func newIntegrationServer(t *testing.T) (*Server, *countingNotifier) {
	t.Helper()

	configs, err := config.NewManager(t.TempDir())
	require.NoError(t, err)
	classic := engine.DefaultPuzzleConfig()
	classic.MaxShuffleAttempts = 1
	require.NoError(t, configs.SaveConfig("classic", classic))
	require.NoError(t, configs.SetDefault("classic"))

	sessions := session.NewManager()
	sessions.SetSource(orderedSource{})

	notifier := &countingNotifier{}
	svc := service.NewGameService(sessions, configs, service.WithCompletionNotifier(notifier))
	return setupTestServer(t, svc), notifier
}

func TestIntegration_SolveThroughAPI(t *testing.T) {
	server, notifier := newIntegrationServer(t)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions", map[string]string{"config_id": "classic"}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var info service.SessionInfo
	parseResponse(t, w, &info)
	require.True(t, session.ValidSessionID(info.ID))
	assert.Equal(t, "classic", info.ConfigName)
	assert.Equal(t, []string{" 1  2  3  4", " 5  6  7  8", " 9 10 11 12", "13 14  _ 15"}, info.GameState.Grid)

	// tile 1 is nowhere near the blank
	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/"+info.ID+"/move", map[string]any{"tile_id": "tile-1"}))
	require.Equal(t, http.StatusOK, w.Code)
	var result service.MoveResult
	parseResponse(t, w, &result)
	assert.False(t, result.Success)
	assert.Equal(t, "not_adjacent", result.AttemptedTo.Reason)

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/"+info.ID+"/move", map[string]any{"index": 99}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// upper case IDs address the same session
	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/"+upper(info.ID)+"/move", map[string]any{"direction": "left"}))
	require.Equal(t, http.StatusOK, w.Code)
	result = service.MoveResult{}
	parseResponse(t, w, &result)
	assert.True(t, result.Success)
	assert.True(t, result.Completed)
	assert.Equal(t, engine.StatusCompleted, result.GameState.Status)
	assert.Equal(t, 1, notifier.count)

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/"+info.ID+"/bulk-move", map[string]any{"moves": []string{"right"}}))
	require.Equal(t, http.StatusOK, w.Code)
	var bulk service.BulkMoveResult
	parseResponse(t, w, &bulk)
	assert.Equal(t, "completed", bulk.StopReasonCode)
	assert.Equal(t, 0, bulk.MovesExecuted)
	assert.Equal(t, 1, notifier.count)

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/"+info.ID+"/history?order=asc", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var history service.HistoryResponse
	parseResponse(t, w, &history)
	require.Len(t, history.Moves, 3)
	assert.False(t, history.Moves[0].Accepted)
	assert.True(t, history.Moves[1].Solved)
}

func TestIntegration_StatusCodes(t *testing.T) {
	server, _ := newIntegrationServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown config", "POST", "/api/sessions", map[string]string{"config_id": "nope"}, http.StatusNotFound},
		{"unknown session state", "GET", "/api/sessions/ffff/state", nil, http.StatusNotFound},
		{"malformed session id", "GET", "/api/sessions/not-an-id", nil, http.StatusNotFound},
		{"delete unknown session", "DELETE", "/api/sessions/ffff", nil, http.StatusNotFound},
		{"unknown config file", "GET", "/api/configs/nope", nil, http.StatusNotFound},
		{"known config file", "GET", "/api/configs/classic", nil, http.StatusOK},
		{"wrong method", "PUT", "/api/sessions", nil, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest(tt.method, tt.path, tt.body))
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
