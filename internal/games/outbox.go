package games

import "sync"

// Outbox collects side effects produced while an engine holds its lock
// (score reports, listener events) and runs them once the lock is released.
type Outbox struct {
	mu       sync.Mutex
	pending  []func()
	seq      uint64
	listener Listener
	reporter Reporter
}

// NewOutbox returns an outbox delivering to reporter and listener. Either may
// be nil.
func NewOutbox(reporter Reporter, listener Listener) *Outbox {
	if reporter == nil {
		reporter = Discard
	}
	return &Outbox{reporter: reporter, listener: listener}
}

// Report queues a score report. view is the engine view at the moment the
// attempt finished; it must be a copy taken under the engine lock.
func (o *Outbox) Report(gameID string, score int, view any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	res := Result{Game: gameID, Score: score, View: view}
	if rr, ok := o.reporter.(ResultReporter); ok {
		o.pending = append(o.pending, func() { rr.ReportResult(res) })
		return
	}
	r := o.reporter
	o.pending = append(o.pending, func() { r.Report(gameID, score) })
}

// Publish queues an event for the listener. Events are stamped with an
// increasing sequence number so consumers can drop out-of-order deliveries.
func (o *Outbox) Publish(game, state string, view any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.listener == nil {
		return
	}
	o.seq++
	ev := Event{Game: game, Seq: o.seq, State: state, View: view}
	l := o.listener
	o.pending = append(o.pending, func() { l(ev) })
}

// Flush runs queued effects in order. Call it without the engine lock held.
func (o *Outbox) Flush() {
	o.mu.Lock()
	pending := o.pending
	o.pending = nil
	o.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}
