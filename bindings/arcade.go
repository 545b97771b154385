// Package bindings exposes the arcade to the desktop frontend. ArcadeModule
// is bound to Wails: the UI calls its methods directly and listens for
// "arcade:state:<game>" events pushed on every engine change.
package bindings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"github.com/MJE43/mindful-arcade/internal/app"
	"github.com/MJE43/mindful-arcade/internal/arcade"
	"github.com/MJE43/mindful-arcade/internal/challenge"
	"github.com/MJE43/mindful-arcade/internal/clock"
	"github.com/MJE43/mindful-arcade/internal/config"
	"github.com/MJE43/mindful-arcade/internal/games"
	"github.com/MJE43/mindful-arcade/internal/store"
)

// EventPrefix prefixes the per-game state event name.
const EventPrefix = "arcade:state:"

var errNotStarted = errors.New("arcade not started")

// ArcadeModule owns the composed arcade and the local HTTP API for the
// lifetime of the desktop window.
type ArcadeModule struct {
	cfg   *config.Config
	token string
	log   *zap.Logger
	clock clock.Clock
	emit  func(ctx context.Context, name string, data ...any)

	mu        sync.RWMutex
	ctx       context.Context
	app       *app.App
	stopServe context.CancelFunc
	served    chan error
}

// NewArcadeModule constructs the module. Nothing is opened until Startup.
func NewArcadeModule(cfg *config.Config, token string, log *zap.Logger) *ArcadeModule {
	if log == nil {
		log = zap.NewNop()
	}
	return &ArcadeModule{
		cfg:   cfg,
		token: token,
		log:   log.Named("bindings"),
		emit:  runtime.EventsEmit,
	}
}

// Startup stores the Wails context, opens the arcade and starts the local
// HTTP API in the background.
func (m *ArcadeModule) Startup(ctx context.Context) error {
	a, err := app.Open(ctx, app.Options{
		Config:   m.cfg,
		Clock:    m.clock,
		Listener: m.publish,
		Logger:   m.log,
		Token:    m.token,
	})
	if err != nil {
		return err
	}

	serveCtx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() {
		err := a.Serve(serveCtx)
		if err != nil {
			m.log.Error("api server stopped", zap.Error(err))
		}
		served <- err
	}()

	m.mu.Lock()
	m.ctx, m.app = ctx, a
	m.stopServe, m.served = cancel, served
	m.mu.Unlock()
	return nil
}

// Shutdown stops the HTTP API and closes the arcade.
func (m *ArcadeModule) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	a, cancel, served := m.app, m.stopServe, m.served
	m.ctx, m.app, m.stopServe, m.served = nil, nil, nil, nil
	m.mu.Unlock()
	if a == nil {
		return nil
	}

	cancel()
	var serveErr error
	select {
	case serveErr = <-served:
	case <-ctx.Done():
		serveErr = ctx.Err()
	}
	return errors.Join(serveErr, a.Close())
}

// publish forwards engine events to the frontend. Events before Startup or
// after Shutdown are dropped.
func (m *ArcadeModule) publish(ev games.Event) {
	m.mu.RLock()
	ctx := m.ctx
	m.mu.RUnlock()
	if ctx == nil {
		return
	}
	m.emit(ctx, EventPrefix+ev.Game, ev)
}

func (m *ArcadeModule) current() (*app.App, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.app == nil {
		return nil, errNotStarted
	}
	return m.app, nil
}

// ------------- Wails binding methods (UI calls) -------------

// ListGames returns the hosted games in display order.
func (m *ArcadeModule) ListGames() ([]games.GameSpec, error) {
	a, err := m.current()
	if err != nil {
		return nil, err
	}
	return a.Arcade().Games(), nil
}

// GetState returns the current view of a game.
func (m *ArcadeModule) GetState(gameID string) (any, error) {
	a, err := m.current()
	if err != nil {
		return nil, err
	}
	return a.Arcade().Snapshot(gameID)
}

// Do dispatches a presentation event by name and returns the new state.
func (m *ArcadeModule) Do(gameID, action string, value int) (any, error) {
	a, err := m.current()
	if err != nil {
		return nil, err
	}
	act, err := arcade.ParseAction(action)
	if err != nil {
		return nil, err
	}
	if err := a.Arcade().Do(gameID, act, value); err != nil {
		return nil, err
	}
	return a.Arcade().Snapshot(gameID)
}

func (m *ArcadeModule) Start(gameID string) (any, error) { return m.Do(gameID, "start", 0) }
func (m *ArcadeModule) Select(gameID string, value int) (any, error) {
	return m.Do(gameID, "select", value)
}
func (m *ArcadeModule) Pause(gameID string) (any, error)  { return m.Do(gameID, "pause", 0) }
func (m *ArcadeModule) Resume(gameID string) (any, error) { return m.Do(gameID, "resume", 0) }
func (m *ArcadeModule) Reset(gameID string) (any, error)  { return m.Do(gameID, "reset", 0) }

// Scores returns the best score per game.
func (m *ArcadeModule) Scores() (map[string]int, error) {
	a, err := m.current()
	if err != nil {
		return nil, err
	}
	return a.Arcade().Scores(), nil
}

// Attempts returns a page of finished attempts, newest first.
func (m *ArcadeModule) Attempts(gameID string, page, perPage int) (*store.AttemptsPage, error) {
	a, err := m.current()
	if err != nil {
		return nil, err
	}
	return a.DB().ListAttempts(m.callContext(), store.AttemptsQuery{Game: gameID, Page: page, PerPage: perPage})
}

// ChallengesView is today's challenge board.
type ChallengesView struct {
	Challenges   []challenge.Status `json:"challenges"`
	TokensEarned decimal.Decimal    `json:"tokensEarned"`
}

// Challenges returns today's challenges and the lifetime token total.
func (m *ArcadeModule) Challenges() (ChallengesView, error) {
	a, err := m.current()
	if err != nil {
		return ChallengesView{}, err
	}
	ctx := m.callContext()
	list, err := a.Tracker().List(ctx)
	if err != nil {
		return ChallengesView{}, err
	}
	total, err := a.Tracker().TokensEarned(ctx)
	if err != nil {
		return ChallengesView{}, err
	}
	return ChallengesView{Challenges: list, TokensEarned: total}, nil
}

// ClaimChallenge takes today's reward for a completed challenge.
func (m *ArcadeModule) ClaimChallenge(id string) (*store.Claim, error) {
	a, err := m.current()
	if err != nil {
		return nil, err
	}
	return a.Tracker().Claim(m.callContext(), id)
}

// Achievements returns every achievement with its unlock state.
func (m *ArcadeModule) Achievements() ([]challenge.AchievementStatus, error) {
	a, err := m.current()
	if err != nil {
		return nil, err
	}
	return a.Tracker().Achievements(m.callContext())
}

// APIInfo describes the local HTTP API for display in the UI.
type APIInfo struct {
	URL          string `json:"url"`
	TokenEnabled bool   `json:"tokenEnabled"`
}

// GetAPIInfo returns the API base URL and whether a token is required.
func (m *ArcadeModule) GetAPIInfo() APIInfo {
	return APIInfo{
		URL:          fmt.Sprintf("http://%s/api/v1", m.cfg.HTTPAddr),
		TokenEnabled: m.token != "",
	}
}

func (m *ArcadeModule) callContext() context.Context {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ctx == nil {
		return context.Background()
	}
	return m.ctx
}
