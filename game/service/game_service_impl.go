package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
)

var log = logrus.WithField("component", "service")

// notifyTimeout bounds one completion delivery
const notifyTimeout = 10 * time.Second

// Option configures the game service
type Option func(*gameServiceImpl)

// WithCompletionNotifier sets the notifier told about solved puzzles
func WithCompletionNotifier(n CompletionNotifier) Option {
	return func(s *gameServiceImpl) {
		s.notifier = n
	}
}

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	notifier CompletionNotifier
	mu       sync.RWMutex
}

// moveOutcome is the service-level view of one engine move
type moveOutcome struct {
	success   bool
	completed bool
	code      string
	step       StepInfo
	attempt    *AttemptInfo
	completion *Completion
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	// Fallback: return as-is or "default"
	if configName == "" {
		return "default"
	}
	return configName
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Load configuration
	var config *engine.PuzzleConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if strings.Contains(err.Error(), "configuration not found") {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found, available configs %v: %w", configName, configIDs, err)
				}
				return nil, fmt.Errorf("config '%s' not found, use /api/configs to list available configurations: %w", configName, err)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	log.WithFields(logrus.Fields{"session": session.ID, "config": configID}).Info("session created")

	return &SessionInfo{
		ID:             session.ID,
		ConfigName:     configID,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		GameState:      decorate(session.Engine),
		GameConfig:     session.Config,
	}, nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	return &SessionInfo{
		ID:             session.ID,
		ConfigName:     s.getConfigID(session.Config.Name),
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		GameState:      decorate(session.Engine),
		GameConfig:     session.Config,
	}, nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))

	for _, sess := range sessions {
		result = append(result, &SessionInfo{
			ID:             sess.ID,
			ConfigName:     s.getConfigID(sess.Config.Name),
			CreatedAt:      sess.CreatedAt,
			LastAccessedAt: sess.LastAccessedAt,
			GameState:      sess.Engine.Snapshot(),
			GameConfig:     sess.Config,
		})
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	log.WithField("session", sessionID).Info("session deleted")
	return nil
}

// NewGame shuffles a fresh solvable board for the session
func (s *gameServiceImpl) NewGame(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	state := sess.Engine.NewGame()
	log.WithFields(logrus.Fields{
		"session":  sessionID,
		"game":     state.GameNumber,
		"attempts": state.ShuffleAttempts,
	}).Debug("new game started")

	s.save(sessionID, "new game")

	return decorate(sess.Engine), nil
}

// Move executes a single move for a session. A completion is delivered after the
// service lock is released.
func (s *gameServiceImpl) Move(ctx context.Context, sessionID string, req MoveRequest) (*MoveResult, error) {
	result, completion, err := s.move(sessionID, req)
	s.deliverCompletion(ctx, completion)
	return result, err
}

func (s *gameServiceImpl) move(sessionID string, req MoveRequest) (*MoveResult, *Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Get session
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("session not found: %w", err)
	}

	index, err := resolveTarget(sess.Engine.GetState().Board, req)
	if err != nil {
		return nil, nil, err
	}

	// Update last accessed time
	s.sessions.UpdateLastAccessed(sessionID)

	// Collect events
	events := []GameEvent{}

	if req.NewGame {
		state := sess.Engine.NewGame()
		events = append(events, GameEvent{
			Type:      "new_game",
			Message:   fmt.Sprintf("Game %d started", state.GameNumber),
			Timestamp: time.Now(),
		})
		// tile IDs now sit elsewhere on the fresh board
		if index, err = resolveTarget(state.Board, req); err != nil {
			return nil, nil, err
		}
	}

	result := &MoveResult{Success: true}
	var completion *Completion

	if req.Direction != "" || index != nil {
		out := s.executeMove(sess, 1, req.Direction, index)
		completion = out.completion
		result.Success = out.success
		result.Completed = out.completed
		if out.success {
			step := out.step
			result.Step = &step
			events = append(events, moveEvent(step))
		} else {
			result.AttemptedTo = out.attempt
		}
		if out.completed {
			events = append(events, completedEvent(sess.Engine.GetState()))
		}
	}

	state := decorate(sess.Engine)
	result.GameState = state
	result.Message = state.Message
	result.Events = events

	// Auto-save session after move
	s.save(sessionID, "move")

	return result, completion, nil
}

// BulkMove executes multiple direction moves in sequence. A completion is delivered after
// the service lock is released.
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, newGame bool) (*BulkMoveResult, error) {
	result, completion, err := s.bulkMove(sessionID, moves, newGame)
	s.deliverCompletion(ctx, completion)
	return result, err
}

func (s *gameServiceImpl) bulkMove(sessionID string, moves []string, newGame bool) (*BulkMoveResult, *Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("session not found: %w", err)
	}

	// Update last accessed
	s.sessions.UpdateLastAccessed(sessionID)

	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	// Handle new game
	if newGame {
		state := sess.Engine.NewGame()
		result.Events = append(result.Events, GameEvent{
			Type:      "new_game",
			Message:   fmt.Sprintf("Game %d started", state.GameNumber),
			Timestamp: time.Now(),
		})
	}
	result.StartMoves = sess.Engine.Moves()

	// Limit moves to prevent abuse
	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	// Execute moves
	var completion *Completion
	for i, move := range moves {
		out := s.executeMove(sess, i+1, move, nil)

		if !out.success {
			result.Success = false
			result.StopReasonCode = out.code
			result.StoppedReason = fmt.Sprintf("move %d (%s) rejected: %s", i+1, move, sess.Engine.GetState().Message)
			result.StoppedOnMove = i + 1
			result.AttemptedTo = out.attempt
			break
		}

		result.MovesExecuted++
		result.Steps = append(result.Steps, out.step)
		result.Events = append(result.Events, moveEvent(out.step))

		if out.completed {
			completion = out.completion
			result.Completed = true
			result.Events = append(result.Events, completedEvent(sess.Engine.GetState()))
			if i < len(moves)-1 {
				result.StopReasonCode = "completed"
				result.StoppedReason = fmt.Sprintf("puzzle solved on move %d, remaining moves skipped", i+1)
				result.StoppedOnMove = i + 2
			}
			break
		}
	}

	endState := decorate(sess.Engine)
	result.GameState = endState
	result.EndMoves = endState.Moves
	result.Completed = endState.Status == engine.StatusCompleted
	result.Message = endState.Message
	result.PossibleMoves = endState.PossibleMoves
	result.Grid = endState.Grid

	// Auto-save session after bulk moves
	s.save(sessionID, "bulk move")

	return result, completion, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return decorate(sess.Engine), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	// Calculate pagination
	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	// Get the slice of moves, copied so callers never share the engine's history
	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// Reverse order (most recent first)
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else {
		// Normal chronological order
		if start < total {
			moves = append(moves, history[start:end]...)
		}
	}

	// Ensure moves is not nil
	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available puzzle configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific puzzle configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.PuzzleConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a puzzle configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.PuzzleConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// executeMove runs one direction move, or one index move when index is set, and reports
// the transition to completed exactly once. Callers hold s.mu.
func (s *gameServiceImpl) executeMove(sess *Session, idx int, direction string, index *int) moveOutcome {
	eng := sess.Engine
	before := eng.GetState()
	statusBefore := before.Status
	movesBefore := before.Moves
	blank := before.Board.BlankIndex()

	var target int
	known := true
	var success bool
	if index != nil {
		target = *index
		success = eng.MoveTile(target)
	} else {
		target, known = before.TargetIndex(direction)
		success = eng.Move(direction)
	}

	state := eng.GetState()
	if !success {
		code := rejectionCode(statusBefore, known, target)
		return moveOutcome{
			code:    code,
			attempt: buildAttempt(state.Board, target, code),
		}
	}

	tile := state.Board[blank]
	out := moveOutcome{
		success: true,
		step: StepInfo{
			Idx:         idx,
			Dir:         direction,
			TileID:      tile.ID,
			TileValue:   tile.Value,
			From:        target,
			To:          blank,
			MovesBefore: movesBefore,
			MovesAfter:  state.Moves,
			Success:     true,
			Solved:      state.Status == engine.StatusCompleted,
		},
	}

	if statusBefore == engine.StatusInProgress && state.Status == engine.StatusCompleted {
		out.completed = true
		out.completion = s.newCompletion(sess, state)
	}

	return out
}

// newCompletion records a solved game. Callers hold s.mu.
func (s *gameServiceImpl) newCompletion(sess *Session, state *engine.GameState) *Completion {
	completion := Completion{
		ID:          uuid.NewString(),
		SessionID:   sess.ID,
		ConfigName:  s.getConfigID(sess.Config.Name),
		Moves:       state.Moves,
		GameNumber:  state.GameNumber,
		CompletedAt: time.Unix(state.CompletedAt, 0).UTC(),
	}
	if state.StartedAt > 0 && state.CompletedAt >= state.StartedAt {
		completion.Duration = time.Duration(state.CompletedAt-state.StartedAt) * time.Second
	}

	log.WithFields(completionFields(&completion)).Info("puzzle solved")
	return &completion
}

// deliverCompletion hands a solved game to the notifier. It runs without s.mu and on a
// context that outlives the request, so a disconnecting client cannot cancel delivery.
// Failures are logged only.
func (s *gameServiceImpl) deliverCompletion(ctx context.Context, completion *Completion) {
	if completion == nil || s.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := s.notifier.NotifyCompletion(ctx, *completion); err != nil {
		log.WithFields(completionFields(completion)).WithError(err).Warn("completion notification failed")
	}
}

func completionFields(c *Completion) logrus.Fields {
	return logrus.Fields{
		"session":    c.SessionID,
		"config":     c.ConfigName,
		"moves":      c.Moves,
		"game":       c.GameNumber,
		"completion": c.ID,
	}
}

// save persists the session, logging failures
func (s *gameServiceImpl) save(sessionID, after string) {
	if err := s.sessions.Save(sessionID); err != nil {
		log.WithError(err).WithField("session", sessionID).Warnf("failed to persist session after %s", after)
	}
}

// resolveTarget validates a move request. It returns the tile index for index and tile ID
// requests and nil for direction requests or a bare new game.
func resolveTarget(board engine.Board, req MoveRequest) (*int, error) {
	targets := 0
	if req.Direction != "" {
		targets++
	}
	if req.Index != nil {
		targets++
	}
	if req.TileID != "" {
		targets++
	}

	switch {
	case targets > 1:
		return nil, fmt.Errorf("%w: give only one of direction, index or tile_id", ErrInvalidMove)
	case targets == 0 && !req.NewGame:
		return nil, fmt.Errorf("%w: direction, index or tile_id is required", ErrInvalidMove)
	}

	if req.Index != nil {
		if *req.Index < 0 || *req.Index >= len(board) {
			return nil, fmt.Errorf("%w: index %d is outside 0..%d", ErrInvalidMove, *req.Index, len(board)-1)
		}
		index := *req.Index
		return &index, nil
	}

	if req.TileID != "" {
		index := board.IndexOfID(req.TileID)
		if index < 0 {
			return nil, fmt.Errorf("%w: unknown tile %q", ErrInvalidMove, req.TileID)
		}
		return &index, nil
	}

	return nil, nil
}

// rejectionCode classifies a rejected move
func rejectionCode(statusBefore engine.Status, knownDirection bool, target int) string {
	switch {
	case statusBefore == engine.StatusNotStarted:
		return "not_started"
	case statusBefore == engine.StatusCompleted:
		return "completed"
	case !knownDirection:
		return "invalid_direction"
	case target < 0:
		return "no_tile"
	default:
		return "not_adjacent"
	}
}

func buildAttempt(board engine.Board, target int, reason string) *AttemptInfo {
	attempt := &AttemptInfo{Index: target, Row: -1, Col: -1, Reason: reason}
	width := board.Width()
	if target >= 0 && target < len(board) && width > 0 {
		attempt.Row = target / width
		attempt.Col = target % width
		attempt.TileID = board[target].ID
		attempt.TileValue = board[target].Value
	}
	return attempt
}

func moveEvent(step StepInfo) GameEvent {
	return GameEvent{
		Type:      "move",
		Message:   fmt.Sprintf("Tile %d slid from %d to %d", step.TileValue, step.From, step.To),
		Timestamp: time.Now(),
		TileID:    step.TileID,
	}
}

func completedEvent(state *engine.GameState) GameEvent {
	return GameEvent{
		Type:      "completed",
		Message:   state.Message,
		Timestamp: time.Now(),
	}
}

// decorate returns a snapshot of the engine's state with the helper views filled in.
// Callers get a copy they may encode after the lock is released.
func decorate(eng *engine.GameEngine) *engine.GameState {
	return eng.Snapshot()
}
