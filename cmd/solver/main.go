// Command solver plays a sliding puzzle session through the REST API. It creates
// (or resumes) a session, starts a game when needed, plans a solution locally and
// sends it in bulk-move batches, verifying the server agrees after every batch.
//
//	solver --url http://localhost:8080 --config mini
//	solver --continue ab12
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/service"
)

var log = logrus.WithField("component", "solver")

// sessionFile remembers the last session between runs
const sessionFile = ".session"

// Client talks to the puzzle REST API on behalf of one session
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// do sends a JSON request and decodes a JSON response, turning error bodies into errors
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s %s failed: %s", method, path, errResp.Error)
		}
		return fmt.Errorf("%s %s failed: %s", method, path, resp.Status)
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

func (c *Client) CreateSession(ctx context.Context, configID string) (*engine.GameState, error) {
	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", body, &session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	c.sessionID = session.ID
	return session.GameState, nil
}

func (c *Client) GetState(ctx context.Context) (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/state"), nil, &state); err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	return &state, nil
}

func (c *Client) NewGame(ctx context.Context) (*engine.GameState, error) {
	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/new-game"), nil, &response); err != nil {
		return nil, fmt.Errorf("new game: %w", err)
	}
	return response.State, nil
}

func (c *Client) BulkMove(ctx context.Context, directions []string) (*service.BulkMoveResult, error) {
	body := map[string]any{"moves": directions}

	var result service.BulkMoveResult
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/bulk-move"), body, &result); err != nil {
		return nil, fmt.Errorf("bulk move: %w", err)
	}
	return &result, nil
}

// solveOptions tune one solver run
type solveOptions struct {
	BatchSize int
	MaxNodes  int
	Weight    int
	Delay     time.Duration
}

// Solve plans a solution for the session's current board and plays it in batches.
// It returns the number of moves sent.
func Solve(ctx context.Context, c *Client, state *engine.GameState, opts solveOptions) (int, error) {
	if state.Status != engine.StatusInProgress {
		log.WithField("status", state.Status).Info("starting a new game")
		var err error
		if state, err = c.NewGame(ctx); err != nil {
			return 0, err
		}
	}

	strategy := NewStrategy(state.GridSize)
	if opts.MaxNodes > 0 {
		strategy.MaxNodes = opts.MaxNodes
	}
	if opts.Weight > 0 {
		strategy.Weight = opts.Weight
	}

	start := time.Now()
	plan, err := strategy.Solve(state.Board.Values())
	if err != nil {
		return 0, fmt.Errorf("plan solution: %w", err)
	}
	log.WithFields(logrus.Fields{
		"session": c.sessionID,
		"moves":   len(plan),
		"took":    time.Since(start).Round(time.Millisecond),
	}).Info("solution planned")

	batchSize := opts.BatchSize
	if batchSize <= 0 || batchSize > engine.MaxBulkMoves {
		batchSize = engine.MaxBulkMoves
	}

	sent := 0
	for sent < len(plan) {
		end := sent + batchSize
		if end > len(plan) {
			end = len(plan)
		}

		result, err := c.BulkMove(ctx, plan[sent:end])
		if err != nil {
			return sent, err
		}
		sent += result.MovesExecuted
		if !result.Success {
			return sent, fmt.Errorf("server rejected move %d (%s): %s", result.StoppedOnMove, result.StopReasonCode, result.StoppedReason)
		}
		log.WithFields(logrus.Fields{
			"session": c.sessionID,
			"sent":    sent,
			"total":   len(plan),
		}).Debug("batch applied")

		if result.Completed {
			break
		}
		if opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return sent, ctx.Err()
			case <-time.After(opts.Delay):
			}
		}
	}

	final, err := c.GetState(ctx)
	if err != nil {
		return sent, err
	}
	if final.Status != engine.StatusCompleted {
		return sent, fmt.Errorf("plan finished but puzzle is %s", final.Status)
	}
	return sent, nil
}

// resumeOrCreate picks up the requested or remembered session, creating one when that fails
func resumeOrCreate(ctx context.Context, c *Client, sessionID, configID string, remember bool) (*engine.GameState, error) {
	if sessionID == "" && remember {
		if data, err := os.ReadFile(sessionFile); err == nil {
			sessionID = string(bytes.TrimSpace(data))
		}
	}

	if sessionID != "" {
		c.sessionID = sessionID
		state, err := c.GetState(ctx)
		if err == nil {
			log.WithField("session", sessionID).Info("resuming session")
			return state, nil
		}
		log.WithError(err).WithField("session", sessionID).Warn("failed to resume session, creating a new one")
	}

	state, err := c.CreateSession(ctx, configID)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"session": c.sessionID, "config": state.ConfigName}).Info("session created")

	if remember {
		if err := os.WriteFile(sessionFile, []byte(c.sessionID), 0644); err != nil {
			log.WithError(err).Warn("failed to save session ID")
		}
	}
	return state, nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "solver",
		Usage: "Solve a sliding puzzle session through the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Game server URL", Sources: cli.EnvVars("PUZZLE_URL")},
			&cli.StringFlag{Name: "config", Usage: "Config ID for new sessions (classic, mini, ...)"},
			&cli.StringFlag{Name: "continue", Usage: "Resume playing an existing session by ID"},
			&cli.BoolFlag{Name: "no-remember", Usage: "Do not read or write the .session file"},
			&cli.IntFlag{Name: "games", Value: 1, Usage: "Number of games to solve in a row"},
			&cli.IntFlag{Name: "batch", Value: engine.MaxBulkMoves, Usage: "Moves per bulk-move request"},
			&cli.IntFlag{Name: "max-nodes", Usage: "Search node limit per attempt (0 = default)"},
			&cli.IntFlag{Name: "weight", Usage: "Initial heuristic weight (0 = by grid size)"},
			&cli.IntFlag{Name: "delay", Usage: "Delay between batches in milliseconds"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Verbose output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("verbose") {
				logrus.SetLevel(logrus.DebugLevel)
			}

			client := NewClient(cmd.String("url"))
			log.WithField("url", cmd.String("url")).Info("connecting to game server")

			state, err := resumeOrCreate(ctx, client, cmd.String("continue"), cmd.String("config"), !cmd.Bool("no-remember"))
			if err != nil {
				return err
			}

			opts := solveOptions{
				BatchSize: int(cmd.Int("batch")),
				MaxNodes:  int(cmd.Int("max-nodes")),
				Weight:    int(cmd.Int("weight")),
				Delay:     time.Duration(cmd.Int("delay")) * time.Millisecond,
			}

			games := int(cmd.Int("games"))
			for game := 1; game <= games; game++ {
				moves, err := Solve(ctx, client, state, opts)
				if err != nil {
					return fmt.Errorf("game %d: %w", game, err)
				}
				log.WithFields(logrus.Fields{"session": client.sessionID, "game": game, "moves": moves}).Info("puzzle solved")

				if state, err = client.GetState(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.WithError(err).Fatal("solver failed")
	}
}
