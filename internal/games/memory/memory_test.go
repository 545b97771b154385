package memory

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MJE43/mindful-arcade/internal/clock"
	"github.com/MJE43/mindful-arcade/internal/games"
	"github.com/MJE43/mindful-arcade/internal/rng"
)

type recorder struct{ scores []int }

func (r *recorder) Report(gameID string, score int) {
	if gameID == games.IDMemory {
		r.scores = append(r.scores, score)
	}
}

func newEngine(t *testing.T, pairs int) (*Engine, *clock.Manual, *recorder) {
	t.Helper()
	m := clock.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	rec := &recorder{}
	e := New(games.Options{Clock: m, Source: rng.NewPCG(11), Reporter: rec}, pairs)
	return e, m, rec
}

// startPlaying runs the preview to completion.
func startPlaying(t *testing.T, e *Engine, m *clock.Manual) View {
	t.Helper()
	e.Start()
	m.Advance(PreviewTicks * Tick)
	v := e.Snapshot()
	require.Equal(t, StatePlaying, v.State)
	return v
}

// pairsOf groups card ids by symbol.
func pairsOf(cards []Card) map[Symbol][]int {
	out := make(map[Symbol][]int)
	for _, c := range cards {
		out[c.Symbol] = append(out[c.Symbol], c.ID)
	}
	return out
}

func mismatched(cards []Card) (int, int) {
	for _, a := range cards {
		for _, b := range cards {
			if a.Symbol != b.Symbol {
				return a.ID, b.ID
			}
		}
	}
	panic("board has a single symbol")
}

func matchedCount(v View) int {
	n := 0
	for _, c := range v.Cards {
		if c.Matched {
			n++
		}
	}
	return n
}

func TestNewBoard(t *testing.T) {
	cards := NewBoard(rng.NewPCG(3), 8)
	require.Len(t, cards, 16)

	ids := make(map[int]bool)
	for _, c := range cards {
		assert.True(t, c.Flipped)
		assert.False(t, c.Matched)
		ids[c.ID] = true
	}
	assert.Len(t, ids, 16)

	for sym, group := range pairsOf(cards) {
		assert.Len(t, group, 2, "symbol %s", sym)
	}
}

func TestNewBoardDeterministicShuffle(t *testing.T) {
	// All-zero draws rotate the unshuffled deck left by one.
	cards := NewBoard(rng.NewSequence(0), 2)
	got := []int{cards[0].ID, cards[1].ID, cards[2].ID, cards[3].ID}
	assert.Equal(t, []int{1, 2, 3, 0}, got)
}

func TestPreviewThenPlay(t *testing.T) {
	e, m, _ := newEngine(t, 8)
	e.Start()

	v := e.Snapshot()
	require.Equal(t, StatePreview, v.State)
	require.Len(t, v.Cards, 16)
	assert.Equal(t, PreviewTicks, v.PreviewLeft)
	for _, c := range v.Cards {
		assert.True(t, c.Flipped)
	}

	m.Advance(3 * Tick)
	v = e.Snapshot()
	assert.Equal(t, StatePreview, v.State)
	assert.Equal(t, 1, v.PreviewLeft)

	// Selections during preview are ignored.
	e.Select(v.Cards[0].ID)
	assert.Zero(t, e.Snapshot().Moves)

	m.Advance(Tick)
	v = e.Snapshot()
	assert.Equal(t, StatePlaying, v.State)
	for _, c := range v.Cards {
		assert.False(t, c.Flipped, "card %d still face-up", c.ID)
	}
	assert.Zero(t, v.ElapsedSeconds)
}

func TestMatchResolvesAfterShortDelay(t *testing.T) {
	e, m, _ := newEngine(t, 8)
	v := startPlaying(t, e, m)
	pair := pairsOf(v.Cards)[Symbols[0]]

	e.Select(pair[0])
	assert.Zero(t, e.Snapshot().Moves, "single flip must not count a move")
	e.Select(pair[1])

	v = e.Snapshot()
	assert.True(t, v.Comparing)
	assert.Equal(t, 1, v.Moves)
	assert.Zero(t, matchedCount(v))

	m.Advance(MatchDelay - time.Millisecond)
	assert.Zero(t, matchedCount(e.Snapshot()))

	m.Advance(time.Millisecond)
	v = e.Snapshot()
	assert.False(t, v.Comparing)
	assert.Equal(t, 2, matchedCount(v))
}

func TestMismatchFlipsBackAfterLongerDelay(t *testing.T) {
	require.Greater(t, MismatchDelay, MatchDelay)

	e, m, _ := newEngine(t, 8)
	v := startPlaying(t, e, m)
	a, b := mismatched(v.Cards)

	e.Select(a)
	e.Select(b)
	m.Advance(MatchDelay)
	v = e.Snapshot()
	assert.True(t, v.Comparing)

	m.Advance(MismatchDelay - MatchDelay)
	v = e.Snapshot()
	assert.False(t, v.Comparing)
	for _, c := range v.Cards {
		assert.False(t, c.Flipped)
	}
	assert.Equal(t, 1, v.Moves)
}

func TestSelectionsIgnored(t *testing.T) {
	e, m, _ := newEngine(t, 8)
	v := startPlaying(t, e, m)
	a, b := mismatched(v.Cards)

	e.Select(a)
	e.Select(a)
	assert.Zero(t, e.Snapshot().Moves, "re-selecting a face-up card is a no-op")

	e.Select(999)
	e.Select(b)
	require.True(t, e.Snapshot().Comparing)

	for _, c := range v.Cards {
		if c.ID != a && c.ID != b {
			e.Select(c.ID)
			break
		}
	}
	v = e.Snapshot()
	assert.Equal(t, 1, v.Moves)
	flipped := 0
	for _, c := range v.Cards {
		if c.Flipped {
			flipped++
		}
	}
	assert.Equal(t, 2, flipped)
}

func TestFullGameScore(t *testing.T) {
	e, m, rec := newEngine(t, 8)
	v := startPlaying(t, e, m)
	m.Advance(250 * time.Millisecond)

	a, b := mismatched(v.Cards)
	e.Select(a)
	e.Select(b)
	m.Advance(MismatchDelay)

	for _, sym := range Symbols {
		pair := pairsOf(v.Cards)[sym]
		e.Select(pair[0])
		e.Select(pair[1])
		m.Advance(MatchDelay)
	}

	v = e.Snapshot()
	require.Equal(t, StateCompleted, v.State)
	assert.Equal(t, 9, v.Moves)
	assert.Equal(t, 5, v.ElapsedSeconds)
	assert.Equal(t, 1000-9*10-5*5, v.Score)
	assert.Equal(t, []int{885}, rec.scores)

	m.Advance(time.Minute)
	assert.Equal(t, 5, e.Snapshot().ElapsedSeconds, "clock must stop at completion")
	assert.Zero(t, m.Pending())
}

func TestScoreFloor(t *testing.T) {
	assert.Equal(t, 1000, Score(0, 0))
	assert.Equal(t, 100, Score(80, 100))
	assert.Equal(t, 100, Score(90, 0))
	assert.Equal(t, 105, Score(89, 1))
}

func TestRandomPlayInvariants(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		m := clock.NewManual(time.Unix(0, 0))
		src := rng.NewPCG(seed)
		e := New(games.Options{Clock: m, Source: src}, 8)
		startPlaying(t, e, m)

		comparisons := 0
		for step := 0; step < 2000 && e.Snapshot().State == StatePlaying; step++ {
			before := e.Snapshot()
			id := before.Cards[src.IntN(len(before.Cards))].ID
			e.Select(id)
			after := e.Snapshot()
			if !before.Comparing && after.Comparing {
				comparisons++
			}
			if src.IntN(3) == 0 {
				m.Advance(time.Duration(src.IntN(1200)) * time.Millisecond)
			}

			v := e.Snapshot()
			if matchedCount(v)%2 != 0 {
				t.Fatalf("seed %d: odd matched count %d", seed, matchedCount(v))
			}
			if v.Moves != comparisons {
				t.Fatalf("seed %d: moves %d, comparisons %d", seed, v.Moves, comparisons)
			}
			allMatched := matchedCount(v) == len(v.Cards)
			if allMatched != (v.State == StateCompleted) {
				t.Fatalf("seed %d: all matched %v but state %s", seed, allMatched, v.State)
			}
		}
	}
}

func TestResetCancelsPendingComparison(t *testing.T) {
	e, m, rec := newEngine(t, 8)
	v := startPlaying(t, e, m)
	pair := pairsOf(v.Cards)[Symbols[1]]
	e.Select(pair[0])
	e.Select(pair[1])

	e.Reset()
	assert.Zero(t, m.Pending())

	e.Start()
	m.Advance(MatchDelay)
	v = e.Snapshot()
	assert.Equal(t, StatePreview, v.State)
	assert.Zero(t, matchedCount(v))
	assert.Empty(t, rec.scores)
}

func TestResetIdempotent(t *testing.T) {
	e, m, _ := newEngine(t, 8)
	v := startPlaying(t, e, m)
	e.Select(v.Cards[0].ID)

	e.Reset()
	once := e.Snapshot()
	e.Reset()
	if diff := cmp.Diff(once, e.Snapshot()); diff != "" {
		t.Errorf("second reset changed state (-once +twice):\n%s", diff)
	}
	assert.Equal(t, StateIdle, once.State)
	assert.Nil(t, once.Cards)
}

func TestPairsClamped(t *testing.T) {
	e, _, _ := newEngine(t, 20)
	e.Start()
	assert.Len(t, e.Snapshot().Cards, 16)

	e, _, _ = newEngine(t, 2)
	e.Start()
	assert.Len(t, e.Snapshot().Cards, 4)
}

func TestBoardReplaysFromRound(t *testing.T) {
	m := clock.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	src := rng.NewStream("server-seed", "client-seed", 0, 0)
	e := New(games.Options{Clock: m, Source: src}, DefaultPairs)

	e.Start()
	dealt := e.Snapshot()
	require.NotNil(t, dealt.Round)
	assert.Equal(t, uint64(1), dealt.Round.Nonce)

	replayed, err := rng.Replay("server-seed", *dealt.Round)
	require.NoError(t, err)
	if diff := cmp.Diff(NewBoard(replayed, DefaultPairs), dealt.Cards); diff != "" {
		t.Errorf("replayed board mismatch (-replay +dealt):\n%s", diff)
	}

	e.Reset()
	assert.Nil(t, e.Snapshot().Round)
	e.Start()
	assert.Equal(t, uint64(2), e.Snapshot().Round.Nonce, "each deal starts a new round")
}

type resultRecorder struct{ results []games.Result }

func (r *resultRecorder) Report(string, int) {}
func (r *resultRecorder) ReportResult(res games.Result) { r.results = append(r.results, res) }

func TestCompletionReportsFinishedView(t *testing.T) {
	m := clock.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	rec := &resultRecorder{}
	e := New(games.Options{Clock: m, Source: rng.NewPCG(3), Reporter: rec}, 1)

	v := startPlaying(t, e, m)
	for _, ids := range pairsOf(v.Cards) {
		e.Select(ids[0])
		e.Select(ids[1])
	}
	m.Advance(MatchDelay)
	e.Start()

	require.Len(t, rec.results, 1)
	finished, ok := rec.results[0].View.(View)
	require.True(t, ok)
	assert.Equal(t, StateCompleted, finished.State)
	assert.Equal(t, 1, finished.Moves)
	assert.Equal(t, rec.results[0].Score, finished.Score)
	assert.Equal(t, StatePreview, e.Snapshot().State, "restart does not touch the reported view")
}
