// Package app owns the arcade's process-wide resources: the SQLite store,
// the score board loaded from it, the four engines, the challenge tracker
// and the local HTTP API. The CLI and the desktop host both build one.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MJE43/mindful-arcade/internal/api"
	"github.com/MJE43/mindful-arcade/internal/arcade"
	"github.com/MJE43/mindful-arcade/internal/challenge"
	"github.com/MJE43/mindful-arcade/internal/clock"
	"github.com/MJE43/mindful-arcade/internal/config"
	"github.com/MJE43/mindful-arcade/internal/games"
	"github.com/MJE43/mindful-arcade/internal/score"
	"github.com/MJE43/mindful-arcade/internal/store"
)

// Options configures Open. Config is required.
type Options struct {
	Config   *config.Config
	Clock    clock.Clock
	Listener games.Listener
	Logger   *zap.Logger
	// Token guards mutating API routes. Empty disables the check.
	Token string
}

// App is the composed arcade.
type App struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *store.SQLiteDB
	arcade  *arcade.Arcade
	tracker *challenge.Tracker
	api     *api.Server
}

// Open creates the data directory, migrates the store, restores best scores
// and builds the engines.
func Open(ctx context.Context, opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("app: config is required")
	}
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, err
	}
	db, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("app: open store: %w", err)
	}

	board := score.NewBoard(db, log)
	best, err := db.ListBest(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("app: load best scores: %w", err)
	}
	restored := make(map[string]int, len(best))
	for _, b := range best {
		restored[b.Game] = b.Score
	}
	board.Load(restored)

	var nonces map[string]uint64
	if cfg.ServerSeed != "" {
		if nonces, err = db.MaxNonces(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("app: load nonces: %w", err)
		}
	}

	a := arcade.New(arcade.Config{
		Clock:       opts.Clock,
		Seed:        cfg.Seed,
		ServerSeed:  cfg.ServerSeed,
		ClientSeed:  cfg.ClientSeed,
		Nonces:      nonces,
		Board:       board,
		Attempts:    db,
		Listener:    opts.Listener,
		Logger:      log,
		MemoryPairs: cfg.MemoryPairs,
	})

	tracker, err := challenge.NewTracker(board, db, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("app: build tracker: %w", err)
	}

	log.Info("arcade ready",
		zap.String("db", cfg.DBPath),
		zap.Int("restored_scores", len(restored)),
		zap.Bool("replayable", cfg.ServerSeed != ""),
	)
	return &App{
		cfg:     cfg,
		log:     log,
		db:      db,
		arcade:  a,
		tracker: tracker,
		api: api.NewServer(api.ServerConfig{
			Arcade:         a,
			DB:             db,
			Tracker:        tracker,
			Token:          opts.Token,
			RequestTimeout: cfg.RequestTimeout,
			Logger:         log,
		}),
	}, nil
}

// Arcade returns the engine host.
func (a *App) Arcade() *arcade.Arcade { return a.arcade }
func (a *App) Tracker() *challenge.Tracker { return a.tracker }
func (a *App) DB() *store.SQLiteDB { return a.db }
func (a *App) Handler() http.Handler { return a.api.Routes() }
func (a *App) Config() *config.Config { return a.cfg }

// Serve listens on the configured address until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("app: listen %s: %w", a.cfg.HTTPAddr, err)
	}
	return a.ServeListener(ctx, ln)
}

// ServeListener serves the API on ln until ctx is cancelled, then drains
// in-flight requests for at most ShutdownTimeout.
func (a *App) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("api listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("app: shutdown: %w", err)
		}
		a.log.Info("api stopped")
		return nil
	})
	return g.Wait()
}

// Close cancels every pending engine timer and closes the store.
func (a *App) Close() error {
	a.arcade.Close()
	return a.db.Close()
}
