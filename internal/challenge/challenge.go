// Package challenge derives daily challenges and achievements from the best
// score table. Challenge rewards are token amounts kept as decimals;
// achievement unlock conditions are small JavaScript predicates.
package challenge

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"github.com/MJE43/mindful-arcade/internal/games"
)

var (
	// ErrUnknownChallenge is returned for an id not in the daily set.
	ErrUnknownChallenge = errors.New("challenge: unknown challenge")
	// ErrNotEligible is returned when claiming a challenge whose target was not met.
	ErrNotEligible = errors.New("challenge: target not reached")
	// ErrAlreadyClaimed is returned when the reward was already taken today.
	ErrAlreadyClaimed = errors.New("challenge: already claimed today")
)

// Difficulty is a display hint.
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// Challenge is a daily target on one game's best score. ID is the game id.
type Challenge struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Target      int             `json:"target"`
	Reward      decimal.Decimal `json:"reward"`
	Difficulty  Difficulty      `json:"difficulty"`
}

// Status is a challenge evaluated against the score table.
type Status struct {
	Challenge
	Current   int     `json:"current"`
	Progress  float64 `json:"progress"`
	Completed bool    `json:"completed"`
	Claimed   bool    `json:"claimed"`
}

// Daily returns the daily challenge set.
func Daily() []Challenge {
	return []Challenge{
		{
			ID:          games.IDFocus,
			Title:       "Math Master",
			Description: "Score 50+ points in Math Lightning",
			Target:      50,
			Reward:      decimal.NewFromInt(10),
			Difficulty:  Medium,
		},
		{
			ID:          games.IDMemory,
			Title:       "Memory Champion",
			Description: "Score 800+ points in Memory Game",
			Target:      800,
			Reward:      decimal.NewFromInt(15),
			Difficulty:  Hard,
		},
		{
			ID:          games.IDReaction,
			Title:       "Lightning Reflexes",
			Description: "Score 700+ points in Reaction Time",
			Target:      700,
			Reward:      decimal.NewFromInt(8),
			Difficulty:  Easy,
		},
		{
			ID:          games.IDMindful,
			Title:       "Mindful Moments",
			Description: "Complete 5 breathing cycles",
			Target:      5,
			Reward:      decimal.NewFromInt(12),
			Difficulty:  Medium,
		},
	}
}

// Find returns the daily challenge with id.
func Find(id string) (Challenge, bool) {
	for _, c := range Daily() {
		if c.ID == id {
			return c, true
		}
	}
	return Challenge{}, false
}

// Evaluate scores every daily challenge against best. Claimed is left false.
func Evaluate(best map[string]int) []Status {
	daily := Daily()
	out := make([]Status, len(daily))
	for i, c := range daily {
		cur := best[c.ID]
		out[i] = Status{
			Challenge: c,
			Current:   cur,
			Progress:  progress(cur, c.Target),
			Completed: cur >= c.Target,
		}
	}
	return out
}

// progress is the percentage of target reached, capped at 100 and rounded.
func progress(current, target int) float64 {
	if target <= 0 {
		return 100
	}
	return math.Round(math.Min(100, float64(current)/float64(target)*100))
}

// CompletedReward sums the rewards of every completed challenge.
func CompletedReward(best map[string]int) decimal.Decimal {
	total := decimal.Zero
	for _, s := range Evaluate(best) {
		if s.Completed {
			total = total.Add(s.Reward)
		}
	}
	return total
}
