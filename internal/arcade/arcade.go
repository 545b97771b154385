// Package arcade composes the four mini-game engines behind one host-facing
// surface: presentation events are dispatched by game id, finished attempts
// are recorded, and best scores go to a shared score board.
package arcade

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MJE43/mindful-arcade/internal/clock"
	"github.com/MJE43/mindful-arcade/internal/games"
	"github.com/MJE43/mindful-arcade/internal/games/arithmetic"
	"github.com/MJE43/mindful-arcade/internal/games/breathing"
	"github.com/MJE43/mindful-arcade/internal/games/memory"
	"github.com/MJE43/mindful-arcade/internal/games/reaction"
	"github.com/MJE43/mindful-arcade/internal/rng"
	"github.com/MJE43/mindful-arcade/internal/score"
	"github.com/MJE43/mindful-arcade/internal/store"
)

var (
	// ErrUnknownGame is returned for a game id the arcade does not host.
	ErrUnknownGame = errors.New("arcade: unknown game")
	// ErrUnsupportedAction is returned when a game has no handler for an action.
	ErrUnsupportedAction = errors.New("arcade: unsupported action")
)

// Action is a presentation event name.
type Action string

const (
	ActionStart  Action = "start"
	ActionSelect Action = "select"
	ActionPause  Action = "pause"
	ActionResume Action = "resume"
	ActionReset  Action = "reset"
)

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionStart, ActionSelect, ActionPause, ActionResume, ActionReset:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedAction, s)
}

// AttemptSaver persists finished games. store.SQLiteDB satisfies it.
type AttemptSaver interface {
	SaveAttempt(ctx context.Context, attempt *store.Attempt) error
}

// Config wires an Arcade. Zero values fall back to the real clock, a
// crypto-seeded source, an in-memory board and no attempt log.
//
// When ServerSeed is set and Source is not, every game draws from its own
// HMAC stream keyed by ServerSeed and ClientSeed+":"+game. Each start
// opens a new nonce after Nonces[game], and the round is kept in the
// attempt details so the game can be replayed.
type Config struct {
	Clock       clock.Clock
	Seed        uint64
	Source      rng.Source
	ServerSeed  string
	ClientSeed  string
	Nonces      map[string]uint64
	Board       *score.Board
	Attempts    AttemptSaver
	Listener    games.Listener
	Logger      *zap.Logger
	MemoryPairs int
}

// Arcade owns one engine per game id.
type Arcade struct {
	engines  map[string]games.Engine
	board    *score.Board
	attempts AttemptSaver
	log      *zap.Logger
}

// New builds the four engines.
func New(cfg Config) *Arcade {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Board == nil {
		cfg.Board = score.NewBoard(nil, cfg.Logger)
	}

	a := &Arcade{
		engines:  make(map[string]games.Engine),
		board:    cfg.Board,
		attempts: cfg.Attempts,
		log:      cfg.Logger,
	}
	base := games.Options{
		Clock:    cfg.Clock,
		Reporter: recorder{a},
		Listener: cfg.Listener,
		Logger:   cfg.Logger,
	}

	var shared rng.Source
	optsFor := func(id string) games.Options {
		o := base
		switch {
		case cfg.Source != nil:
			o.Source = cfg.Source
		case cfg.ServerSeed != "":
			o.Source = rng.NewStream(cfg.ServerSeed, cfg.ClientSeed+":"+id, cfg.Nonces[id], 0)
		default:
			if shared == nil {
				shared = rng.New(cfg.Seed)
			}
			o.Source = shared
		}
		return o
	}

	for _, e := range []games.Engine{
		arithmetic.New(optsFor(games.IDFocus)),
		memory.New(optsFor(games.IDMemory), cfg.MemoryPairs),
		reaction.New(optsFor(games.IDReaction)),
		breathing.New(optsFor(games.IDMindful)),
	} {
		a.engines[e.ID()] = e
	}
	return a
}

// recorder receives finished attempts from the engines.
type recorder struct{ a *Arcade }

func (r recorder) Report(gameID string, score int) {
	r.a.record(games.Result{Game: gameID, Score: score})
}

func (r recorder) ReportResult(res games.Result) { r.a.record(res) }

// record updates the board and logs the attempt with the view the engine
// captured when it finished.
func (a *Arcade) record(res games.Result) {
	a.board.Report(res.Game, res.Score)
	if a.attempts == nil {
		return
	}

	attempt := &store.Attempt{Game: res.Game, Score: res.Score}
	if res.View != nil {
		if details, err := json.Marshal(res.View); err == nil {
			attempt.Details = details
		} else {
			a.log.Warn("encode attempt details", zap.String("game", res.Game), zap.Error(err))
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.attempts.SaveAttempt(ctx, attempt); err != nil {
		a.log.Error("save attempt", zap.String("game", res.Game), zap.Int("score", res.Score), zap.Error(err))
		return
	}
	a.log.Info("attempt recorded", zap.String("game", res.Game), zap.Int("score", res.Score), zap.String("id", attempt.ID))
}

// Engine returns the engine for id.
func (a *Arcade) Engine(id string) (games.Engine, error) {
	e, ok := a.engines[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGame, id)
	}
	return e, nil
}

// Do dispatches action to game id. value is used by ActionSelect only.
func (a *Arcade) Do(id string, action Action, value int) error {
	e, err := a.Engine(id)
	if err != nil {
		return err
	}
	switch action {
	case ActionStart:
		e.Start()
	case ActionReset:
		e.Reset()
	case ActionSelect:
		s, ok := e.(games.Selector)
		if !ok {
			return fmt.Errorf("%w: %s on %s", ErrUnsupportedAction, action, id)
		}
		s.Select(value)
	case ActionPause, ActionResume:
		p, ok := e.(games.Pauser)
		if !ok {
			return fmt.Errorf("%w: %s on %s", ErrUnsupportedAction, action, id)
		}
		if action == ActionPause {
			p.Pause()
		} else {
			p.Resume()
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedAction, action)
	}
	return nil
}

// Start is Do(id, ActionStart, 0).
func (a *Arcade) Start(id string) error { return a.Do(id, ActionStart, 0) }

// Select is Do(id, ActionSelect, value).
func (a *Arcade) Select(id string, value int) error { return a.Do(id, ActionSelect, value) }

// Reset is Do(id, ActionReset, 0).
func (a *Arcade) Reset(id string) error { return a.Do(id, ActionReset, 0) }

// Snapshot returns the current view of game id.
func (a *Arcade) Snapshot(id string) (any, error) {
	e, err := a.Engine(id)
	if err != nil {
		return nil, err
	}
	return e.View(), nil
}

// Games lists the hosted games in display order.
func (a *Arcade) Games() []games.GameSpec {
	var out []games.GameSpec
	for _, spec := range games.Catalog() {
		if _, ok := a.engines[spec.ID]; ok {
			out = append(out, spec)
		}
	}
	return out
}

// Scores returns the best score per game.
func (a *Arcade) Scores() map[string]int { return a.board.All() }

// Board returns the shared score board.
func (a *Arcade) Board() *score.Board { return a.board }

// Close resets every engine, cancelling all pending timers.
func (a *Arcade) Close() {
	for _, e := range a.engines {
		e.Reset()
	}
}
