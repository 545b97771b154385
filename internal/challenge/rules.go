package challenge

import (
	"context"
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/MJE43/mindful-arcade/internal/games"
)

// Achievement is a badge unlocked when Rule evaluates truthy.
//
// Rules are ES5 expressions evaluated in a sandbox with these globals:
//
//	best(id)    best score for a game id, 0 if never played
//	played      number of games with a recorded score
//	games       array of catalog game ids
//	challenges  array of {id, target} for the daily challenges
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Rule        string `json:"-"`
}

// AchievementStatus pairs an achievement with its unlock state.
type AchievementStatus struct {
	Achievement
	Unlocked bool `json:"unlocked"`
}

// Achievements returns the built-in achievement set.
func Achievements() []Achievement {
	return []Achievement{
		{ID: "first-game", Title: "First Game", Description: "Play your first game", Icon: "🎮",
			Rule: `played > 0`},
		{ID: "math-expert", Title: "Math Expert", Description: "Score 100+ in Math Lightning", Icon: "🧮",
			Rule: `best("focus") >= 100`},
		{ID: "memory-master", Title: "Memory Master", Description: "Score 900+ in Memory Game", Icon: "🧠",
			Rule: `best("memory") >= 900`},
		{ID: "speed-demon", Title: "Speed Demon", Description: "Score 800+ in Reaction Time", Icon: "⚡",
			Rule: `best("reaction") >= 800`},
		{ID: "zen-master", Title: "Zen Master", Description: "Complete 10 breathing cycles", Icon: "🧘",
			Rule: `best("mindful") >= 10`},
		{ID: "daily-challenger", Title: "Daily Challenger", Description: "Complete a daily challenge", Icon: "📅",
			Rule: `challenges.some(function (c) { return best(c.id) >= c.target; })`},
		{ID: "game-master", Title: "Game Master", Description: "Play all 4 games", Icon: "👑",
			Rule: `games.every(function (id) { return best(id) > 0; })`},
	}
}

const ruleTimeout = 250 * time.Millisecond

type compiledRule struct {
	achievement Achievement
	program     *goja.Program
}

// Rules evaluates achievement predicates. Programs are compiled once; each
// evaluation gets a fresh runtime so rules cannot leak state between calls.
type Rules struct {
	rules   []compiledRule
	timeout time.Duration
}

// CompileRules compiles every achievement rule.
func CompileRules(achievements []Achievement) (*Rules, error) {
	r := &Rules{timeout: ruleTimeout}
	for _, a := range achievements {
		prog, err := goja.Compile(a.ID, "("+a.Rule+")", false)
		if err != nil {
			return nil, fmt.Errorf("challenge: compile rule %q: %w", a.ID, err)
		}
		r.rules = append(r.rules, compiledRule{achievement: a, program: prog})
	}
	return r, nil
}

// Evaluate runs every rule against best and reports which are unlocked.
func (r *Rules) Evaluate(ctx context.Context, best map[string]int) ([]AchievementStatus, error) {
	out := make([]AchievementStatus, 0, len(r.rules))
	for _, rule := range r.rules {
		unlocked, err := r.run(ctx, rule, best)
		if err != nil {
			return nil, err
		}
		out = append(out, AchievementStatus{Achievement: rule.achievement, Unlocked: unlocked})
	}
	return out, nil
}

func (r *Rules) run(ctx context.Context, rule compiledRule, best map[string]int) (bool, error) {
	rt := goja.New()
	if err := installFacts(rt, best); err != nil {
		return false, fmt.Errorf("challenge: rule %q: %w", rule.achievement.ID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, func() { rt.Interrupt("rule evaluation timeout") })
	defer stop()

	v, err := rt.RunProgram(rule.program)
	if err != nil {
		return false, fmt.Errorf("challenge: rule %q: %w", rule.achievement.ID, err)
	}
	return v.ToBoolean(), nil
}

func installFacts(rt *goja.Runtime, best map[string]int) error {
	// Block dangerous globals.
	for _, name := range []string{"require", "eval", "Function"} {
		if err := rt.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	if err := rt.Set("best", func(id string) int { return best[id] }); err != nil {
		return err
	}
	if err := rt.Set("played", len(best)); err != nil {
		return err
	}

	ids := games.IDs()
	gameVals := make([]any, len(ids))
	for i, id := range ids {
		gameVals[i] = id
	}
	if err := rt.Set("games", rt.NewArray(gameVals...)); err != nil {
		return err
	}

	daily := Daily()
	chVals := make([]any, len(daily))
	for i, c := range daily {
		obj := rt.NewObject()
		obj.Set("id", c.ID)
		obj.Set("target", c.Target)
		chVals[i] = obj
	}
	return rt.Set("challenges", rt.NewArray(chVals...))
}
