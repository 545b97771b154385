package challenge

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MJE43/mindful-arcade/internal/score"
	"github.com/MJE43/mindful-arcade/internal/store"
)

func TestEvaluateProgress(t *testing.T) {
	statuses := Evaluate(map[string]int{"focus": 25, "memory": 950, "mindful": 5})
	require.Len(t, statuses, 4)

	byID := make(map[string]Status)
	for _, s := range statuses {
		byID[s.ID] = s
	}
	assert.Equal(t, 50.0, byID["focus"].Progress)
	assert.False(t, byID["focus"].Completed)
	assert.Equal(t, 100.0, byID["memory"].Progress, "progress is capped")
	assert.True(t, byID["memory"].Completed)
	assert.Zero(t, byID["reaction"].Current)
	assert.True(t, byID["mindful"].Completed)
}

func TestCompletedReward(t *testing.T) {
	got := CompletedReward(map[string]int{"focus": 50, "reaction": 700, "memory": 799})
	assert.True(t, got.Equal(decimal.NewFromInt(18)), "got %s", got)
	assert.True(t, CompletedReward(nil).IsZero())
}

func unlocked(t *testing.T, best map[string]int) map[string]bool {
	t.Helper()
	rules, err := CompileRules(Achievements())
	require.NoError(t, err)
	statuses, err := rules.Evaluate(context.Background(), best)
	require.NoError(t, err)
	out := make(map[string]bool)
	for _, s := range statuses {
		out[s.ID] = s.Unlocked
	}
	return out
}

func TestAchievementsLockedWithoutScores(t *testing.T) {
	for id, ok := range unlocked(t, map[string]int{}) {
		assert.False(t, ok, id)
	}
}

func TestAchievementRules(t *testing.T) {
	got := unlocked(t, map[string]int{"focus": 0})
	assert.True(t, got["first-game"])
	assert.False(t, got["game-master"])

	got = unlocked(t, map[string]int{"focus": 100, "memory": 899, "reaction": 800, "mindful": 4})
	assert.True(t, got["math-expert"])
	assert.False(t, got["memory-master"])
	assert.True(t, got["speed-demon"])
	assert.False(t, got["zen-master"])
	assert.True(t, got["daily-challenger"])
	assert.True(t, got["game-master"])

	got = unlocked(t, map[string]int{"mindful": 4})
	assert.False(t, got["daily-challenger"])
	got = unlocked(t, map[string]int{"mindful": 10})
	assert.True(t, got["daily-challenger"])
	assert.True(t, got["zen-master"])
}

func TestRuleSandbox(t *testing.T) {
	rules, err := CompileRules([]Achievement{{ID: "sneaky", Rule: `typeof require === "undefined" && typeof eval === "undefined"`}})
	require.NoError(t, err)
	statuses, err := rules.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, statuses[0].Unlocked)
}

func TestRuleTimeout(t *testing.T) {
	rules, err := CompileRules([]Achievement{{ID: "spin", Rule: `(function () { while (true) {} })()`}})
	require.NoError(t, err)
	rules.timeout = 20 * time.Millisecond

	_, err = rules.Evaluate(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spin")
}

func TestCompileError(t *testing.T) {
	_, err := CompileRules([]Achievement{{ID: "broken", Rule: `best(`}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func testTracker(t *testing.T) (*Tracker, *score.Board, *time.Time) {
	t.Helper()
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "challenge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	board := score.NewBoard(db, nil)
	tr, err := NewTracker(board, db, nil)
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return now }
	return tr, board, &now
}

func TestClaimFlow(t *testing.T) {
	tr, board, now := testTracker(t)
	ctx := context.Background()

	_, err := tr.Claim(ctx, "nope")
	assert.ErrorIs(t, err, ErrUnknownChallenge)

	_, err = tr.Claim(ctx, "memory")
	assert.ErrorIs(t, err, ErrNotEligible)

	board.Report("memory", 820)
	claim, err := tr.Claim(ctx, "memory")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", claim.Day)
	assert.True(t, claim.Reward.Equal(decimal.NewFromInt(15)))

	_, err = tr.Claim(ctx, "memory")
	assert.True(t, errors.Is(err, ErrAlreadyClaimed), "got %v", err)

	statuses, err := tr.List(ctx)
	require.NoError(t, err)
	for _, s := range statuses {
		assert.Equal(t, s.ID == "memory", s.Claimed, s.ID)
	}

	*now = now.Add(24 * time.Hour)
	_, err = tr.Claim(ctx, "memory")
	require.NoError(t, err, "a new day allows a new claim")

	statuses, err = tr.List(ctx)
	require.NoError(t, err)
	assert.True(t, statuses[1].Claimed)

	total, err := tr.TokensEarned(ctx)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(30)), "got %s", total)
}

func TestTrackerAchievements(t *testing.T) {
	tr, board, _ := testTracker(t)
	board.Report("reaction", 810)

	statuses, err := tr.Achievements(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, len(Achievements()))
	got := make(map[string]bool)
	for _, s := range statuses {
		got[s.ID] = s.Unlocked
	}
	assert.True(t, got["first-game"])
	assert.True(t, got["speed-demon"])
	assert.True(t, got["daily-challenger"])
	assert.False(t, got["game-master"])
}
