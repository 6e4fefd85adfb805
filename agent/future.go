package agent

import (
	"context"
	"sync"
)

// FutureState describes the completion state of a Future.
type FutureState int

const (
	// FuturePending means the reply has not been produced yet.
	FuturePending FutureState = iota
	// FutureResolved means the handler returned a reply.
	FutureResolved
	// FutureRejected means the handler returned an error.
	FutureRejected
	// FutureCancelled means the message was cancelled before its handler ran.
	FutureCancelled
)

// Future is the reply promise returned by Send. It completes exactly once:
// resolved with the handler's reply, rejected with the handler's error, or
// cancelled when the envelope's token fired before dispatch. Cancellation is
// a distinct terminal state so callers can tell "the work never ran" apart
// from "the work failed".
type Future struct {
	done chan struct{}

	mu    sync.Mutex
	state FutureState
	value *Message
	err   error
}

// NewFuture creates a pending future. Callers normally obtain futures from
// Runtime.Send rather than constructing them directly.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolve completes the future with a reply. No-op if already completed.
func (f *Future) Resolve(msg *Message) {
	f.complete(FutureResolved, msg, nil)
}

// Reject completes the future with an error. No-op if already completed.
func (f *Future) Reject(err error) {
	f.complete(FutureRejected, nil, err)
}

// Cancel completes the future in the cancelled state. No-op if already
// completed.
func (f *Future) Cancel() {
	f.complete(FutureCancelled, nil, ErrCancelled)
}

func (f *Future) complete(state FutureState, msg *Message, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != FuturePending {
		return
	}
	f.state = state
	f.value = msg
	f.err = err
	close(f.done)
}

// Done returns a channel closed when the future completes.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// State returns the current completion state.
func (f *Future) State() FutureState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Wait blocks until the future completes or ctx is done. It returns the
// reply on resolution, the handler's error on rejection, and ErrCancelled
// when the message was cancelled before dispatch.
func (f *Future) Wait(ctx context.Context) (*Message, error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}
