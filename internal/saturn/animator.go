package saturn

import (
	"context"
	"sync"
	"time"
)

// DefaultFrameInterval approximates one display refresh.
const DefaultFrameInterval = time.Second / 60

// Animator drives Step on a ticker for consumers without their own frame
// scheduler. Start and Stop bound the loop's lifetime.
type Animator struct {
	interval time.Duration

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

// NewAnimator builds a stopped animator seeded with initial.
func NewAnimator(interval time.Duration, initial State) *Animator {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Animator{interval: interval, state: initial}
}

// Start launches the loop. The first frame is emitted immediately. sink runs
// on the loop goroutine, one frame at a time. Start reports false when the
// loop is already running.
func (a *Animator) Start(ctx context.Context, sink func(frame string)) bool {
	a.mu.Lock()
	if a.done != nil {
		a.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.cancel = cancel
	a.done = done
	a.mu.Unlock()

	go a.loop(ctx, done, sink)
	return true
}

// Stop cancels the loop and waits for it to exit. Safe to call repeatedly.
func (a *Animator) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the loop is active.
func (a *Animator) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done != nil
}

// State returns a snapshot of the current renderer state.
func (a *Animator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Update applies fn to the state between frames, e.g. for pointer input.
func (a *Animator) Update(fn func(State) State) {
	a.mu.Lock()
	a.state = fn(a.state)
	a.mu.Unlock()
}

func (a *Animator) loop(ctx context.Context, done chan struct{}, sink func(string)) {
	defer func() {
		a.mu.Lock()
		if a.done == done {
			a.cancel = nil
			a.done = nil
		}
		a.mu.Unlock()
		close(done)
	}()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.tick(sink)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.tick(sink)
		}
	}
}

func (a *Animator) tick(sink func(string)) {
	a.mu.Lock()
	next, text := Step(a.state)
	a.state = next
	a.mu.Unlock()

	if sink != nil {
		sink(text)
	}
}
