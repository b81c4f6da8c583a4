package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/service"
)

// orderedSource leaves every shuffle in order, so engines built with MaxShuffleAttempts 1
// start one slide away from solved: 1..14, blank, 15
type orderedSource struct{}

func (orderedSource) IntN(n int) int { return n - 1 }

// MockSessionManager implements service.SessionManager for testing. Like the real
// manager it is safe for concurrent use.
type MockSessionManager struct {
	mu       sync.Mutex
	sessions map[string]*service.Session
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id string, config *engine.PuzzleConfig) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.create(id, config)
}

func (m *MockSessionManager) create(id string, config *engine.PuzzleConfig) (*service.Session, error) {
	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}

	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	eng, err := engine.NewEngineWithSource(config, orderedSource{})
	if err != nil {
		return nil, err
	}

	session := &service.Session{
		ID:             id,
		Engine:         eng,
		Config:         config,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}

	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, exists := m.sessions[id]
	if !exists {
		return nil, errors.New("session not found")
	}
	return session, nil
}

func (m *MockSessionManager) GetOrCreate(id string, config *engine.PuzzleConfig) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, exists := m.sessions[id]; exists {
		return session, nil
	}
	return m.create(id, config)
}

func (m *MockSessionManager) List() []*service.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; !exists {
		return errors.New("session not found")
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return errors.New("session not found")
}

func (m *MockSessionManager) Save(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; !exists {
		return errors.New("session not found")
	}
	return nil
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.PuzzleConfig
}

func testConfig(name string, autoStart bool) *engine.PuzzleConfig {
	config := engine.DefaultPuzzleConfig()
	config.Name = name
	config.Description = "Test configuration"
	config.AutoStart = autoStart
	config.MaxShuffleAttempts = 1
	return config
}

func NewMockConfigManager() *MockConfigManager {
	return &MockConfigManager{
		configs: map[string]*engine.PuzzleConfig{
			"test":   testConfig("test", true),
			"manual": testConfig("manual", false),
		},
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.PuzzleConfig, error) {
	config, exists := m.configs[name]
	if !exists {
		return nil, errors.New("configuration not found")
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	result := make([]*service.ConfigInfo, 0, len(m.configs))
	for name, config := range m.configs {
		result = append(result, &service.ConfigInfo{
			Filename:    name + ".json",
			ConfigID:    name,
			Name:        config.Name,
			Description: config.Description,
			GridSize:    config.GridSize,
			AutoStart:   config.AutoStart,
		})
	}
	return result, nil
}

func (m *MockConfigManager) GetDefault() *engine.PuzzleConfig {
	return m.configs["test"]
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.PuzzleConfig) error {
	if err := engine.ValidatePuzzleConfig(config); err != nil {
		return err
	}
	m.configs[name] = config
	return nil
}

// recordingNotifier records completions and optionally fails
type recordingNotifier struct {
	mu          sync.Mutex
	completions []service.Completion
	err         error
}

func (n *recordingNotifier) NotifyCompletion(ctx context.Context, c service.Completion) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completions = append(n.completions, c)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.completions)
}

func newTestService(t *testing.T) (service.GameService, *recordingNotifier, string) {
	t.Helper()
	notifier := &recordingNotifier{}
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager(), service.WithCompletionNotifier(notifier))

	info, err := svc.CreateSession(context.Background(), "test")
	require.NoError(t, err)
	require.Equal(t, 14, info.GameState.Board.BlankIndex())
	return svc, notifier, info.ID
}

func intPtr(v int) *int { return &v }

func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager())

	tests := []struct {
		name       string
		configName string
		wantErr    bool
	}{
		{"create with default config", "", false},
		{"create with specific config", "test", false},
		{"create with invalid config", "nonexistent", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := svc.CreateSession(ctx, tt.configName)
			if (err != nil) != tt.wantErr {
				t.Errorf("CreateSession() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				assert.Contains(t, err.Error(), "available configs")
				return
			}
			require.NotNil(t, session)
			assert.Equal(t, "test", session.ConfigName)
			assert.Equal(t, engine.StatusInProgress, session.GameState.Status)
			assert.Len(t, session.GameState.Grid, 4)
		})
	}
}

func TestGameService_MoveSolvesAndNotifiesOnce(t *testing.T) {
	ctx := context.Background()
	svc, notifier, id := newTestService(t)

	result, err := svc.Move(ctx, id, service.MoveRequest{Direction: engine.Left})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.True(t, result.Completed)
	assert.Equal(t, engine.StatusCompleted, result.GameState.Status)
	assert.Equal(t, "Solved in 1 moves!", result.Message)
	require.NotNil(t, result.Step)
	assert.Equal(t, "tile-15", result.Step.TileID)
	assert.Equal(t, 15, result.Step.From)
	assert.Equal(t, 14, result.Step.To)
	assert.True(t, result.Step.Solved)

	var types []string
	for _, ev := range result.Events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{"move", "completed"}, types)

	require.Equal(t, 1, notifier.count())
	completion := notifier.completions[0]
	assert.Equal(t, id, completion.SessionID)
	assert.Equal(t, "test", completion.ConfigName)
	assert.Equal(t, 1, completion.Moves)
	assert.Equal(t, 1, completion.GameNumber)
	assert.NotEmpty(t, completion.ID)

	// further moves are rejected and never notify again
	result, err = svc.Move(ctx, id, service.MoveRequest{Direction: engine.Right})
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.NotNil(t, result.AttemptedTo)
	assert.Equal(t, "completed", result.AttemptedTo.Reason)
	assert.Equal(t, 1, result.GameState.Moves)
	assert.Equal(t, 1, notifier.count())

	// a new game can be solved again and yields a distinct completion
	result, err = svc.Move(ctx, id, service.MoveRequest{TileID: "tile-15", NewGame: true})
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, "new_game", result.Events[0].Type)
	require.Equal(t, 2, notifier.count())
	assert.Equal(t, 2, notifier.completions[1].GameNumber)
	assert.NotEqual(t, notifier.completions[0].ID, notifier.completions[1].ID)
}

func TestGameService_MoveRejected(t *testing.T) {
	ctx := context.Background()
	svc, notifier, id := newTestService(t)

	result, err := svc.Move(ctx, id, service.MoveRequest{Index: intPtr(0)})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Nil(t, result.Step)
	require.NotNil(t, result.AttemptedTo)
	assert.Equal(t, service.AttemptInfo{Index: 0, Row: 0, Col: 0, TileID: "tile-1", TileValue: 1, Reason: "not_adjacent"}, *result.AttemptedTo)
	assert.Equal(t, 0, result.GameState.Moves)
	assert.Equal(t, 14, result.GameState.Board.BlankIndex())

	result, err = svc.Move(ctx, id, service.MoveRequest{Direction: engine.Up})
	require.NoError(t, err)
	assert.Equal(t, "no_tile", result.AttemptedTo.Reason)
	assert.Equal(t, -1, result.AttemptedTo.Row)

	result, err = svc.Move(ctx, id, service.MoveRequest{Direction: "north"})
	require.NoError(t, err)
	assert.Equal(t, "invalid_direction", result.AttemptedTo.Reason)

	assert.Equal(t, 0, notifier.count())
}

func TestGameService_MoveInvalidRequest(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)

	tests := []struct {
		name string
		req  service.MoveRequest
	}{
		{"empty", service.MoveRequest{}},
		{"index below range", service.MoveRequest{Index: intPtr(-1)}},
		{"index above range", service.MoveRequest{Index: intPtr(16)}},
		{"unknown tile", service.MoveRequest{TileID: "tile-99"}},
		{"two targets", service.MoveRequest{Direction: engine.Left, TileID: "tile-15"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Move(ctx, id, tt.req)
			assert.ErrorIs(t, err, service.ErrInvalidMove)
		})
	}

	state, err := svc.GetGameState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, state.Moves)
	assert.Empty(t, state.MoveHistory)

	_, err = svc.Move(ctx, "missing", service.MoveRequest{Direction: engine.Left})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrInvalidMove)
}

func TestGameService_NotStarted(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager())

	info, err := svc.CreateSession(ctx, "manual")
	require.NoError(t, err)
	assert.Equal(t, engine.StatusNotStarted, info.GameState.Status)

	result, err := svc.Move(ctx, info.ID, service.MoveRequest{Direction: engine.Left})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "not_started", result.AttemptedTo.Reason)

	state, err := svc.NewGame(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusInProgress, state.Status)
	assert.Equal(t, 1, state.GameNumber)
	assert.NotEmpty(t, state.PossibleMoves)
}

func TestGameService_BulkMove(t *testing.T) {
	ctx := context.Background()

	t.Run("stops after solving", func(t *testing.T) {
		svc, notifier, id := newTestService(t)

		result, err := svc.BulkMove(ctx, id, []string{engine.Right, engine.Left, engine.Left, engine.Up}, false)
		require.NoError(t, err)

		assert.True(t, result.Success)
		assert.True(t, result.Completed)
		assert.Equal(t, 3, result.MovesExecuted)
		assert.Equal(t, 4, result.RequestedMoves)
		assert.Equal(t, "completed", result.StopReasonCode)
		assert.Equal(t, 4, result.StoppedOnMove)
		assert.Equal(t, 0, result.StartMoves)
		assert.Equal(t, 3, result.EndMoves)
		require.Len(t, result.Steps, 3)
		assert.True(t, result.Steps[2].Solved)
		assert.Equal(t, 1, notifier.count())
	})

	t.Run("stops on rejected move", func(t *testing.T) {
		svc, _, id := newTestService(t)

		result, err := svc.BulkMove(ctx, id, []string{engine.Right, engine.Down, engine.Down, engine.Down, engine.Down}, false)
		require.NoError(t, err)

		// blank climbs to the top row, then nothing is above it
		assert.False(t, result.Success)
		assert.Equal(t, 4, result.MovesExecuted)
		assert.Equal(t, "no_tile", result.StopReasonCode)
		assert.Equal(t, 5, result.StoppedOnMove)
		assert.Equal(t, 4, result.EndMoves)
		require.NotNil(t, result.AttemptedTo)
		assert.True(t, strings.HasPrefix(result.StoppedReason, "move 5 (down) rejected"))
	})

	t.Run("invalid direction", func(t *testing.T) {
		svc, _, id := newTestService(t)

		result, err := svc.BulkMove(ctx, id, []string{"north"}, false)
		require.NoError(t, err)
		assert.Equal(t, "invalid_direction", result.StopReasonCode)
		assert.Equal(t, 0, result.MovesExecuted)
	})

	t.Run("truncates long sequences", func(t *testing.T) {
		svc, _, id := newTestService(t)

		moves := make([]string, 0, 60)
		for i := 0; i < 30; i++ {
			moves = append(moves, engine.Right, engine.Left)
		}

		result, err := svc.BulkMove(ctx, id, moves, false)
		require.NoError(t, err)
		assert.True(t, result.Truncated)
		assert.Equal(t, engine.MaxBulkMoves, result.Limit)
		assert.Equal(t, engine.MaxBulkMoves, result.MovesExecuted)
		assert.Equal(t, 60, result.RequestedMoves)
		assert.True(t, result.Success)
		assert.False(t, result.Completed)
	})

	t.Run("new game first", func(t *testing.T) {
		svc, _, id := newTestService(t)
		_, err := svc.BulkMove(ctx, id, []string{engine.Left}, false)
		require.NoError(t, err)

		result, err := svc.BulkMove(ctx, id, []string{engine.Left}, true)
		require.NoError(t, err)
		assert.Equal(t, "new_game", result.Events[0].Type)
		assert.True(t, result.Completed)
		assert.Equal(t, 2, result.GameState.GameNumber)
	})
}

func TestGameService_NotifierErrorIsNotReturned(t *testing.T) {
	ctx := context.Background()
	svc, notifier, id := newTestService(t)
	notifier.err = errors.New("webhook down")

	result, err := svc.Move(ctx, id, service.MoveRequest{Direction: engine.Left})
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, 1, notifier.count())
}

// blockingNotifier holds every delivery until released and remembers the context it got
type blockingNotifier struct {
	started  chan struct{}
	release  chan struct{}
	ctxErr   error
	deadline bool
}

func (n *blockingNotifier) NotifyCompletion(ctx context.Context, c service.Completion) error {
	close(n.started)
	<-n.release
	n.ctxErr = ctx.Err()
	_, n.deadline = ctx.Deadline()
	return nil
}

func TestGameService_NotifierRunsOutsideLock(t *testing.T) {
	ctx := context.Background()
	notifier := &blockingNotifier{started: make(chan struct{}), release: make(chan struct{})}
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager(), service.WithCompletionNotifier(notifier))

	solving, err := svc.CreateSession(ctx, "test")
	require.NoError(t, err)
	other, err := svc.CreateSession(ctx, "test")
	require.NoError(t, err)

	moved := make(chan error, 1)
	go func() {
		_, err := svc.Move(ctx, solving.ID, service.MoveRequest{Direction: engine.Left})
		moved <- err
	}()
	<-notifier.started

	// a slow notifier must not stall other sessions
	read := make(chan error, 1)
	go func() {
		_, err := svc.GetGameState(ctx, other.ID)
		read <- err
	}()
	select {
	case err := <-read:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Reading another session blocked while a completion was delivered")
	}

	close(notifier.release)
	require.NoError(t, <-moved)
}

func TestGameService_NotifierOutlivesRequest(t *testing.T) {
	notifier := &blockingNotifier{started: make(chan struct{}), release: make(chan struct{})}
	close(notifier.release)
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager(), service.WithCompletionNotifier(notifier))

	info, err := svc.CreateSession(context.Background(), "test")
	require.NoError(t, err)

	// the client went away right after sending the solving move
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.BulkMove(ctx, info.ID, []string{engine.Left}, false)
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.NoError(t, notifier.ctxErr, "delivery must not inherit the request cancellation")
	assert.True(t, notifier.deadline, "delivery must still be bounded")
}

func TestGameService_StateIsSnapshot(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)

	before, err := svc.GetGameState(ctx, id)
	require.NoError(t, err)
	require.Equal(t, engine.StatusInProgress, before.Status)
	boardBefore := before.Board.Values()

	// a later move leaves the earlier snapshot alone
	_, err = svc.Move(ctx, id, service.MoveRequest{Direction: engine.Left})
	require.NoError(t, err)
	assert.Equal(t, engine.StatusInProgress, before.Status)
	assert.Equal(t, 0, before.Moves)
	assert.Equal(t, boardBefore, before.Board.Values())

	// scribbling on a snapshot never reaches the engine
	after, err := svc.GetGameState(ctx, id)
	require.NoError(t, err)
	after.Board[0].Value = 99
	after.Grid = nil
	after.MoveHistory = nil

	again, err := svc.GetGameState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Board[0].Value)
	assert.NotEmpty(t, again.Grid)
	assert.Len(t, again.MoveHistory, 1)
}

func TestGameService_ConcurrentReads(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)

	var wg sync.WaitGroup
	errs := make(chan error, 8*50)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				state, err := svc.GetGameState(ctx, id)
				if err != nil {
					errs <- err
					return
				}
				if len(state.Grid) != state.GridSize || len(state.PossibleMoves) == 0 {
					errs <- fmt.Errorf("incomplete snapshot: grid %v moves %v", state.Grid, state.PossibleMoves)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestGameService_GetMoveHistory(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)

	for i := 0; i < 5; i++ {
		_, err := svc.BulkMove(ctx, id, []string{engine.Right, engine.Left}, false)
		require.NoError(t, err)
	}

	history, err := svc.GetMoveHistory(ctx, id, service.HistoryOptions{Page: 1, Limit: 4, Order: "asc"})
	require.NoError(t, err)
	assert.Equal(t, 10, history.TotalMoves)
	assert.Equal(t, 3, history.TotalPages)
	assert.True(t, history.HasNext)
	assert.False(t, history.HasPrevious)
	require.Len(t, history.Moves, 4)
	assert.Equal(t, 1, history.Moves[0].MoveNumber)
	assert.Equal(t, engine.Right, history.Moves[0].Action)

	history, err = svc.GetMoveHistory(ctx, id, service.HistoryOptions{Page: 3, Limit: 4})
	require.NoError(t, err)
	require.Len(t, history.Moves, 2)
	assert.Equal(t, 2, history.Moves[0].MoveNumber)
	assert.Equal(t, 1, history.Moves[1].MoveNumber)
	assert.False(t, history.HasNext)
}

func TestGameService_Sessions(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)

	sessions, err := svc.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	info, err := svc.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, info.ID)

	require.NoError(t, svc.DeleteSession(ctx, id))
	_, err = svc.GetSession(ctx, id)
	assert.Error(t, err)
	assert.Error(t, svc.DeleteSession(ctx, id))
}

func TestGameService_Configs(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager())

	configs, err := svc.ListConfigs(ctx)
	require.NoError(t, err)
	assert.Len(t, configs, 2)

	config := testConfig("big", true)
	config.GridSize = 5
	require.NoError(t, svc.SaveConfig(ctx, "big", config))

	loaded, err := svc.LoadConfig(ctx, "big")
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.GridSize)

	config.GridSize = 9
	assert.Error(t, svc.SaveConfig(ctx, "huge", config))
}
