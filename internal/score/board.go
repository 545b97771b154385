// Package score keeps the best score per game. Board implements
// games.Reporter and optionally mirrors every improvement to a Persister.
package score

import (
	"context"
	"maps"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Persister stores a best score. The store package's SQLiteDB satisfies it.
type Persister interface {
	SaveBest(ctx context.Context, game string, score int) error
}

// persistTimeout bounds a single SaveBest call.
const persistTimeout = 5 * time.Second

// Board is a monotonic-max score table safe for concurrent use.
type Board struct {
	mu      sync.RWMutex
	best    map[string]int
	persist Persister
	log     *zap.Logger
}

// NewBoard returns an empty board. persist and log may be nil.
func NewBoard(persist Persister, log *zap.Logger) *Board {
	if log == nil {
		log = zap.NewNop()
	}
	return &Board{best: make(map[string]int), persist: persist, log: log}
}

// Report records score for gameID if it beats the current best. Negative
// scores are ignored. Persistence failures are logged.
func (b *Board) Report(gameID string, score int) {
	if !b.update(gameID, score) {
		return
	}
	b.log.Debug("new best", zap.String("game", gameID), zap.Int("score", score))
	if b.persist == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := b.persist.SaveBest(ctx, gameID, score); err != nil {
		b.log.Error("persist best score", zap.String("game", gameID), zap.Int("score", score), zap.Error(err))
	}
}

func (b *Board) update(gameID string, score int) bool {
	if score < 0 || gameID == "" {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if prev, ok := b.best[gameID]; ok && score <= prev {
		return false
	}
	b.best[gameID] = score
	return true
}

// Load merges previously stored scores without persisting them again.
func (b *Board) Load(scores map[string]int) {
	for id, s := range scores {
		b.update(id, s)
	}
}

// Best returns the best score for gameID.
func (b *Board) Best(gameID string) (int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.best[gameID]
	return s, ok
}

// All returns a copy of the table.
func (b *Board) All() map[string]int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return maps.Clone(b.best)
}
