package agent

import "sync"

// CancelToken is a propagatable cancellation flag. The runtime creates one
// per external Send or Publish call and threads it through every nested
// dispatch triggered by handlers. Cancelling a token before its envelope is
// dispatched skips the handler; cancellation after dispatch begins is
// advisory and handlers poll the token to honor it early.
type CancelToken struct {
	mu        sync.Mutex
	cancelled bool
	callbacks []func()
}

// NewCancelToken creates an uncancelled token.
func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

// Cancel marks the token cancelled and runs registered callbacks once.
// Subsequent calls are no-ops.
func (t *CancelToken) Cancel() {
	t.mu.Lock()
	if t.cancelled {
		t.mu.Unlock()
		return
	}
	t.cancelled = true
	callbacks := t.callbacks
	t.callbacks = nil
	t.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// Cancelled reports whether Cancel has been called.
func (t *CancelToken) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// OnCancel registers a callback invoked when the token is cancelled.
// If the token is already cancelled the callback runs immediately.
func (t *CancelToken) OnCancel(fn func()) {
	t.mu.Lock()
	if t.cancelled {
		t.mu.Unlock()
		fn()
		return
	}
	t.callbacks = append(t.callbacks, fn)
	t.mu.Unlock()
}
