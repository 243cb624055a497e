// Package tracker keeps the single mutating request slot of a timeline
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/totegamma/mjtimeline/core"
)

// Tracker admits at most one mutating request at a time.
// The phase moves Idle -> Pending -> Settled|Failed; Settled and Failed
// admit the next request like Idle but keep the receipt or error visible
// until that request begins.
type Tracker struct {
	mu      sync.Mutex
	phase   core.Phase
	err     error
	hash    string
	current *Flight
}

// Flight is the handle of the admitted request
type Flight struct {
	tracker *Tracker
	intent  string
	started time.Time
	cancel  context.CancelFunc
	aborted error
}

func New() *Tracker {
	return &Tracker{phase: core.PhaseIdle}
}

// Begin claims the slot for intent. It fails with core.ErrorRequestPending
// while another request is in flight and leaves that request untouched.
func (t *Tracker) Begin(intent string) (*Flight, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.phase == core.PhasePending {
		requestsTotal.WithLabelValues(intent, "rejected").Inc()
		return nil, core.NewErrorRequestPending()
	}

	flight := &Flight{
		tracker: t,
		intent:  intent,
		started: time.Now(),
	}

	t.phase = core.PhasePending
	t.err = nil
	t.hash = ""
	t.current = flight

	requestsInFlight.Inc()

	return flight, nil
}

// Abort fails the in-flight request with err and cancels its context
func (t *Tracker) Abort(err error) bool {
	t.mu.Lock()
	flight := t.current
	if flight == nil {
		t.mu.Unlock()
		return false
	}
	t.current = nil
	t.phase = core.PhaseFailed
	t.err = err
	t.hash = ""
	flight.aborted = err
	cancel := flight.cancel
	flight.observe("aborted")
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return true
}

func (t *Tracker) State() core.RequestState {
	t.mu.Lock()
	defer t.mu.Unlock()

	return core.RequestState{
		Phase:     t.phase,
		IsPending: t.phase == core.PhasePending,
		Error:     t.err,
		Hash:      t.hash,
	}
}

// Bind attaches the cancel function of the request context.
// A flight that was already aborted is cancelled immediately.
func (f *Flight) Bind(cancel context.CancelFunc) {
	t := f.tracker
	t.mu.Lock()
	if t.current != f {
		t.mu.Unlock()
		cancel()
		return
	}
	f.cancel = cancel
	t.mu.Unlock()
}

// Settle records the receipt; it reports false if the flight was aborted
func (f *Flight) Settle(hash string) bool {
	return f.finish(core.PhaseSettled, hash, nil)
}

// Fail records err; it reports false if the flight was aborted
func (f *Flight) Fail(err error) bool {
	return f.finish(core.PhaseFailed, "", err)
}

// Err returns the error the flight was aborted with, if any
func (f *Flight) Err() error {
	f.tracker.mu.Lock()
	defer f.tracker.mu.Unlock()

	return f.aborted
}

func (f *Flight) finish(phase core.Phase, hash string, err error) bool {
	t := f.tracker
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != f {
		return false
	}

	t.current = nil
	t.phase = phase
	t.hash = hash
	t.err = err

	f.observe(phase.String())
	return true
}

func (f *Flight) observe(outcome string) {
	requestsInFlight.Dec()
	requestsTotal.WithLabelValues(f.intent, outcome).Inc()
	settlementSeconds.WithLabelValues(f.intent).Observe(time.Since(f.started).Seconds())
}
