// Package games defines the contracts shared by the mini-game engines and the
// catalog hosts use to list them. The engines themselves live in the
// reaction, memory, arithmetic and breathing subpackages.
package games

import (
	"sort"
	"sync"
)

// Game ids as recorded in the score store.
const (
	IDFocus    = "focus"
	IDMemory   = "memory"
	IDReaction = "reaction"
	IDMindful  = "mindful"
)

// GameSpec describes a game for hosts.
type GameSpec struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	MetricLabel string `json:"metric_label"`
	Order       int    `json:"order"`
	// SelectValue reports whether a select carries a value (a card id or
	// an answer). Games without one treat select as a bare click.
	SelectValue bool `json:"select_value"`
}

// Reporter receives the final score of a finished attempt. Implementations
// keep the maximum score seen per game id.
type Reporter interface {
	Report(gameID string, score int)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(gameID string, score int)

func (f ReporterFunc) Report(gameID string, score int) { f(gameID, score) }

// Discard is a Reporter that drops every score.
var Discard Reporter = ReporterFunc(func(string, int) {})

// Result is a finished attempt together with the engine view taken when it
// finished.
type Result struct {
	Game  string
	Score int
	View  any
}

// ResultReporter is a Reporter that also takes the finished view. Engines
// deliver ReportResult instead of Report when the reporter implements it.
type ResultReporter interface {
	Reporter
	ReportResult(Result)
}

// Event is published after every engine state change.
type Event struct {
	Game  string `json:"game"`
	Seq   uint64 `json:"seq"`
	State string `json:"state"`
	View  any    `json:"view"`
}

// Listener observes engine events. It runs outside the engine lock but must
// not block for long; hosts that render should copy the event and return.
type Listener func(Event)

// Engine is the surface every mini-game exposes to hosts.
type Engine interface {
	ID() string
	Start()
	Reset()
	View() any
}

// Selector is implemented by engines that take a user pick: a click, a card
// id or an answer value.
type Selector interface {
	Select(value int)
}

// Pauser is implemented by engines that can suspend their clock.
type Pauser interface {
	Pause()
	Resume()
}

var (
	catalogMu sync.RWMutex
	catalog   = make(map[string]GameSpec)
)

// Register adds spec to the catalog, replacing any spec with the same id.
func Register(spec GameSpec) {
	catalogMu.Lock()
	defer catalogMu.Unlock()
	catalog[spec.ID] = spec
}

// Lookup returns the GameSpec for id.
func Lookup(id string) (GameSpec, bool) {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	spec, ok := catalog[id]
	return spec, ok
}

// Catalog returns all registered games in display order.
func Catalog() []GameSpec {
	catalogMu.RLock()
	specs := make([]GameSpec, 0, len(catalog))
	for _, spec := range catalog {
		specs = append(specs, spec)
	}
	catalogMu.RUnlock()

	sort.Slice(specs, func(i, j int) bool { return specs[i].Order < specs[j].Order })
	return specs
}

// IDs returns the registered game ids in display order.
func IDs() []string {
	specs := Catalog()
	ids := make([]string, len(specs))
	for i, s := range specs {
		ids[i] = s.ID
	}
	return ids
}

func init() {
	Register(GameSpec{
		ID:          IDFocus,
		Title:       "Math Lightning",
		Description: "Solve math problems as fast as you can",
		MetricLabel: "points",
		Order:       1,
		SelectValue: true,
	})
	Register(GameSpec{
		ID:          IDMemory,
		Title:       "Memory Game",
		Description: "Challenge your memory with card matching",
		MetricLabel: "points",
		Order:       2,
		SelectValue: true,
	})
	Register(GameSpec{
		ID:          IDReaction,
		Title:       "Reaction Time",
		Description: "Test your reflexes and response speed",
		MetricLabel: "points",
		Order:       3,
	})
	Register(GameSpec{
		ID:          IDMindful,
		Title:       "Breathing Exercise",
		Description: "Practice mindful breathing techniques",
		MetricLabel: "cycles",
		Order:       4,
	})
}
