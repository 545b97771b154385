// Package memory implements the card-matching game: a shuffled board of
// symbol pairs is shown face-up for a short preview, then hidden, and the
// player uncovers two cards at a time looking for pairs.
package memory

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MJE43/mindful-arcade/internal/clock"
	"github.com/MJE43/mindful-arcade/internal/games"
	"github.com/MJE43/mindful-arcade/internal/rng"
)

// State is the engine's phase.
type State string

const (
	StateIdle      State = "idle"
	StatePreview   State = "preview"
	StatePlaying   State = "playing"
	StateCompleted State = "completed"
)

// Symbol is the face of a card.
type Symbol string

// Symbols is the full glyph set. A board uses the first N of them.
var Symbols = []Symbol{"🌟", "🎯", "🌙", "☀️", "🌸", "🍀", "🔥", "💎"}

const (
	DefaultPairs = 8
	PreviewTicks = 4
	Tick         = time.Second

	// Matches and misses resolve on different delays; keep them distinct.
	MatchDelay    = 500 * time.Millisecond
	MismatchDelay = 1000 * time.Millisecond

	BaseScore     = 1000
	MovePenalty   = 10
	SecondPenalty = 5
	FloorScore    = 100
)

// Card is one tile on the board.
type Card struct {
	ID      int    `json:"id"`
	Symbol  Symbol `json:"symbol"`
	Flipped bool   `json:"flipped"`
	Matched bool   `json:"matched"`
}

// View is the read-only projection hosts render.
type View struct {
	State          State  `json:"state"`
	Cards          []Card `json:"cards"`
	Moves          int    `json:"moves"`
	ElapsedSeconds int    `json:"elapsed_seconds"`
	PreviewLeft    int    `json:"preview_left"`
	Comparing      bool   `json:"comparing"`
	Score          int    `json:"score"`

	// Round is set when the board was dealt from a replayable source.
	Round *rng.Round `json:"round,omitempty"`
}

// Engine is the memory match state machine.
type Engine struct {
	mu      sync.Mutex
	opts    games.Options
	log     *zap.Logger
	out     *games.Outbox
	ticker  *clock.Slot
	resolve *clock.Slot
	pairs   int

	state       State
	round       *rng.Round
	cards       []Card
	tentative   []int
	moves       int
	elapsed     int
	previewLeft int
	comparing   bool
	score       int
}

// New creates an idle engine whose boards hold pairs symbol pairs. pairs is
// clamped to the available symbols; zero means DefaultPairs.
func New(opts games.Options, pairs int) *Engine {
	opts = opts.WithDefaults()
	if pairs <= 0 {
		pairs = DefaultPairs
	}
	if pairs > len(Symbols) {
		pairs = len(Symbols)
	}
	e := &Engine{
		opts:  opts,
		log:   opts.Logger.With(zap.String("game", games.IDMemory)),
		out:   games.NewOutbox(opts.Reporter, opts.Listener),
		pairs: pairs,
		state: StateIdle,
	}
	e.ticker = clock.NewSlot(opts.Clock, &e.mu, e.out.Flush)
	e.resolve = clock.NewSlot(opts.Clock, &e.mu, e.out.Flush)
	return e
}

func (e *Engine) ID() string { return games.IDMemory }

// Score computes the points for a finished board.
func Score(moves, elapsedSeconds int) int {
	score := BaseScore - moves*MovePenalty - elapsedSeconds*SecondPenalty
	if score < FloorScore {
		return FloorScore
	}
	return score
}

// NewBoard builds a shuffled board of pairs symbol pairs, all face-up.
// Card ids follow the unshuffled order.
func NewBoard(src rng.Source, pairs int) []Card {
	cards := make([]Card, 0, pairs*2)
	for copyIdx := 0; copyIdx < 2; copyIdx++ {
		for _, sym := range Symbols[:pairs] {
			cards = append(cards, Card{ID: len(cards), Symbol: sym, Flipped: true})
		}
	}
	rng.Shuffle(src, len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	return cards
}

// Start deals a new board and begins the preview. It is ignored while a
// game is in progress.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.state == StateIdle || e.state == StateCompleted {
		e.round = rng.BeginRound(e.opts.Source)
		e.cards = NewBoard(e.opts.Source, e.pairs)
		e.tentative = e.tentative[:0]
		e.moves = 0
		e.elapsed = 0
		e.score = 0
		e.comparing = false
		e.previewLeft = PreviewTicks
		e.state = StatePreview
		e.ticker.Arm(Tick, e.previewTickLocked)
		e.log.Debug("board dealt", zap.Int("cards", len(e.cards)))
		e.publishLocked()
	}
	e.mu.Unlock()
	e.out.Flush()
}

func (e *Engine) previewTickLocked() {
	if e.state != StatePreview {
		return
	}
	e.previewLeft--
	if e.previewLeft > 0 {
		e.ticker.Arm(Tick, e.previewTickLocked)
		e.publishLocked()
		return
	}

	for i := range e.cards {
		e.cards[i].Flipped = false
	}
	e.state = StatePlaying
	e.ticker.Arm(Tick, e.clockTickLocked)
	e.publishLocked()
}

func (e *Engine) clockTickLocked() {
	if e.state != StatePlaying {
		return
	}
	e.elapsed++
	e.ticker.Arm(Tick, e.clockTickLocked)
	e.publishLocked()
}

// Select flips the card with the given id. Selections are ignored outside
// play, while a pair is being compared, or for cards already face-up.
func (e *Engine) Select(id int) {
	e.mu.Lock()
	e.selectLocked(id)
	e.mu.Unlock()
	e.out.Flush()
}

func (e *Engine) selectLocked(id int) {
	if e.state != StatePlaying || e.comparing || len(e.tentative) >= 2 {
		return
	}
	idx := e.indexOf(id)
	if idx < 0 {
		return
	}
	card := &e.cards[idx]
	if card.Flipped || card.Matched {
		return
	}

	card.Flipped = true
	e.tentative = append(e.tentative, idx)

	if len(e.tentative) == 2 {
		e.comparing = true
		e.moves++
		first, second := e.cards[e.tentative[0]], e.cards[e.tentative[1]]
		if first.Symbol == second.Symbol {
			e.resolve.Arm(MatchDelay, e.resolveMatchLocked)
		} else {
			e.resolve.Arm(MismatchDelay, e.resolveMismatchLocked)
		}
	}
	e.publishLocked()
	e.checkCompleteLocked()
}

func (e *Engine) resolveMatchLocked() {
	for _, idx := range e.tentative {
		e.cards[idx].Matched = true
		e.cards[idx].Flipped = true
	}
	e.endComparisonLocked()
}

func (e *Engine) resolveMismatchLocked() {
	for _, idx := range e.tentative {
		e.cards[idx].Flipped = false
	}
	e.endComparisonLocked()
}

func (e *Engine) endComparisonLocked() {
	e.tentative = e.tentative[:0]
	e.comparing = false
	e.publishLocked()
	e.checkCompleteLocked()
}

func (e *Engine) checkCompleteLocked() {
	if e.state != StatePlaying || len(e.cards) == 0 {
		return
	}
	for _, c := range e.cards {
		if !c.Matched {
			return
		}
	}

	e.ticker.Cancel()
	e.resolve.Cancel()
	e.state = StateCompleted
	e.score = Score(e.moves, e.elapsed)
	e.log.Debug("board cleared",
		zap.Int("moves", e.moves),
		zap.Int("elapsed_seconds", e.elapsed),
		zap.Int("score", e.score),
	)
	e.out.Report(games.IDMemory, e.score, e.viewLocked())
	e.publishLocked()
}

// Reset discards the board and returns to idle.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.ticker.Cancel()
	e.resolve.Cancel()
	e.state = StateIdle
	e.round = nil
	e.cards = nil
	e.tentative = e.tentative[:0]
	e.moves = 0
	e.elapsed = 0
	e.previewLeft = 0
	e.comparing = false
	e.score = 0
	e.publishLocked()
	e.mu.Unlock()
	e.out.Flush()
}

// Snapshot returns the current view. Cards are copied.
func (e *Engine) Snapshot() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

// View implements games.Engine.
func (e *Engine) View() any { return e.Snapshot() }

func (e *Engine) viewLocked() View {
	var cards []Card
	if e.cards != nil {
		cards = make([]Card, len(e.cards))
		copy(cards, e.cards)
	}
	return View{
		State:          e.state,
		Cards:          cards,
		Moves:          e.moves,
		ElapsedSeconds: e.elapsed,
		PreviewLeft:    e.previewLeft,
		Comparing:      e.comparing,
		Score:          e.score,
		Round:          e.round,
	}
}

func (e *Engine) indexOf(id int) int {
	for i := range e.cards {
		if e.cards[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) publishLocked() {
	e.out.Publish(games.IDMemory, string(e.state), e.viewLocked())
}
