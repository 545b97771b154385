package games

import (
	"go.uber.org/zap"

	"github.com/MJE43/mindful-arcade/internal/clock"
	"github.com/MJE43/mindful-arcade/internal/rng"
)

// Options carries the collaborators every engine is built from.
type Options struct {
	Clock    clock.Clock
	Source   rng.Source
	Reporter Reporter
	Listener Listener
	Logger   *zap.Logger
}

// WithDefaults fills unset fields: the real clock, a crypto-seeded PCG
// source, a discarding reporter and a no-op logger.
func (o Options) WithDefaults() Options {
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	if o.Source == nil {
		o.Source = rng.New(0)
	}
	if o.Reporter == nil {
		o.Reporter = Discard
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}
