// Package lifecycle tracks stream state transitions across a decoded PAL
// state queue.
package lifecycle

import (
	"github.com/danmuck/memlogctl/internal/record"
	"github.com/danmuck/memlogctl/internal/registry"
	"github.com/rs/zerolog/log"
)

const (
	StateDomain = "stream_state_t"
	StateClosed = "STREAM_CLOSED"
)

// TransitionEvent is one observed stream state change.
type TransitionEvent struct {
	From       string
	To         string
	StreamType string
	Handle     uint64
	Succeeded  bool
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithTransitions enables TransitionEvent emission.
func WithTransitions(enabled bool) Option {
	return func(t *Tracker) {
		t.transitions = enabled
	}
}

// Tracker owns the open stream set and error log of one decode pass.
type Tracker struct {
	reg         *registry.Registry
	transitions bool

	open   []record.Record
	errors []record.Record
	events []TransitionEvent
}

// NewTracker builds a tracker resolving state names through reg.
func NewTracker(reg *registry.Registry, opts ...Option) *Tracker {
	t := &Tracker{reg: reg}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Apply folds one record into the tracker state. The returned event is valid
// only when ok is true.
func (t *Tracker) Apply(rec record.Record) (ev TransitionEvent, ok bool) {
	s := rec.State()

	// Every open entry for the handle is visited; a successful transition
	// supersedes all of them.
	var prior record.Record
	kept := t.open[:0]
	matches := 0
	for _, item := range t.open {
		if item.State().Handle != s.Handle {
			kept = append(kept, item)
			continue
		}
		matches++
		prior = item
		if s.Failed() {
			kept = append(kept, item)
		}
	}
	clearTail(t.open, len(kept))
	t.open = kept
	if matches > 1 {
		log.Warn().Msgf("lifecycle.Tracker.Apply duplicate open entries handle=%#x count=%d", s.Handle, matches)
	}

	if !s.Idle() && !s.Failed() {
		t.open = append(t.open, rec)
	}
	if s.Failed() {
		t.errors = append(t.errors, rec)
	}

	if !t.transitions || (prior == nil && s.Idle()) {
		return TransitionEvent{}, false
	}
	from := StateClosed
	if prior != nil {
		from = t.StateName(prior.State().QueueState)
	}
	ev = TransitionEvent{
		From:       from,
		To:         t.StateName(s.QueueState),
		StreamType: t.reg.ResolveEnum(record.StreamTypeDomain, s.StreamType),
		Handle:     s.Handle,
		Succeeded:  !s.Failed(),
	}
	t.events = append(t.events, ev)
	return ev, true
}

// StateName resolves a queue state, reporting the idle value as closed
// whatever the definitions call it.
func (t *Tracker) StateName(v int64) string {
	if v == 0 {
		return StateClosed
	}
	return t.reg.ResolveEnum(StateDomain, v)
}

// Open returns the still-active streams in insertion order.
func (t *Tracker) Open() []record.Record {
	out := make([]record.Record, len(t.open))
	copy(out, t.open)
	return out
}

// Errors returns every failed transition in log order.
func (t *Tracker) Errors() []record.Record {
	out := make([]record.Record, len(t.errors))
	copy(out, t.errors)
	return out
}

// Events returns the emitted transitions in log order.
func (t *Tracker) Events() []TransitionEvent {
	out := make([]TransitionEvent, len(t.events))
	copy(out, t.events)
	return out
}

// OpenCount is the number of open entries currently held for handle.
func (t *Tracker) OpenCount(handle uint64) int {
	n := 0
	for _, item := range t.open {
		if item.State().Handle == handle {
			n++
		}
	}
	return n
}

func clearTail(s []record.Record, from int) {
	for i := from; i < len(s); i++ {
		s[i] = nil
	}
}
