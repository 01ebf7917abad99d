package coordination

import "sync"

// PauseSignal is the toggle described in spec.md §4.4: the admin endpoint
// calls Toggle once to request a pause (or a resume, depending on current
// worker state); a worker observes it by calling Observe, which clears the
// flag, blocks until it is set again, clears it a second time, and
// returns. A single Toggle call only flips the flag once, so if two
// workers both call Observe against the same PauseSignal, whichever
// toggles do or don't align with each worker's own observation point is
// racy by design — this is the open question flagged in spec.md §9: a
// single shared Pause signal does not guarantee both workers pause or
// resume in lockstep. Callers that need per-worker pause control should
// use two PauseSignal instances, one per worker (see orchestrator.go).
type PauseSignal struct {
	mu   sync.Mutex
	cond *sync.Cond
	set  bool
}

// NewPauseSignal creates a cleared PauseSignal.
func NewPauseSignal() *PauseSignal {
	p := &PauseSignal{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Toggle sets the flag and wakes any worker blocked in Observe.
func (p *PauseSignal) Toggle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.set = true
	p.cond.Broadcast()
}

// IsSet reports whether the flag is currently set, without clearing it.
func (p *PauseSignal) IsSet() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.set
}

// Observe implements the worker side of the toggle protocol described in
// spec.md §4.2 step 2: if the flag is set, clear it, emit onPause, block
// until it is set again, clear it, emit onResume, and return. If the flag
// is not set, Observe returns immediately without calling either
// callback.
func (p *PauseSignal) Observe(onPause, onResume func()) {
	p.mu.Lock()
	if !p.set {
		p.mu.Unlock()
		return
	}
	p.set = false
	p.mu.Unlock()

	if onPause != nil {
		onPause()
	}

	p.mu.Lock()
	for !p.set {
		p.cond.Wait()
	}
	p.set = false
	p.mu.Unlock()

	if onResume != nil {
		onResume()
	}
}

// EndSignal is the latching flag observed at every iteration boundary of
// every worker until they terminate. Once Set, it stays set.
type EndSignal struct {
	mu  sync.RWMutex
	set bool
}

// NewEndSignal creates a cleared EndSignal.
func NewEndSignal() *EndSignal {
	return &EndSignal{}
}

// Set latches the flag. Idempotent.
func (e *EndSignal) Set() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.set = true
}

// IsSet reports whether the flag has been latched.
func (e *EndSignal) IsSet() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.set
}
