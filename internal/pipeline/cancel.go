package pipeline

import (
	"sync"
	"time"
)

// Token is a one-way, idempotent, observable cancellation flag. It is checked
// at stage boundaries by every long-running component and never reset
// mid-run.
type Token struct {
	mu       sync.Mutex
	done     chan struct{}
	fired    bool
	onCancel func()
}

// NewToken constructs an unset cancellation token.
func NewToken() *Token {
	return &Token{done: make(chan struct{})}
}

// OnCancel registers a listener invoked exactly once when the token fires.
// Registration after cancellation invokes the listener immediately.
func (t *Token) OnCancel(fn func()) {
	t.mu.Lock()
	if t.fired {
		t.mu.Unlock()
		if fn != nil {
			fn()
		}
		return
	}
	t.onCancel = fn
	t.mu.Unlock()
}

// Cancel sets the flag. Only the first call has effect; subsequent calls are
// no-ops.
func (t *Token) Cancel() {
	t.mu.Lock()
	if t.fired {
		t.mu.Unlock()
		return
	}
	t.fired = true
	listener := t.onCancel
	t.onCancel = nil
	close(t.done)
	t.mu.Unlock()

	if listener != nil {
		listener()
	}
}

// IsCancelled reports whether Cancel has been called.
func (t *Token) IsCancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

// Done returns a channel closed on cancellation, for select-based waits.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until cancellation or the timeout elapses. It reports true when
// the token was cancelled before the timeout.
func (t *Token) Wait(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-t.done:
		return true
	case <-timer.C:
		return false
	}
}
