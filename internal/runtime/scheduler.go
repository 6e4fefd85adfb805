package runtime

import (
	"context"
	"sync"

	"github.com/agentbus-dev/agentbus/agent"
)

// State is the scheduler lifecycle state.
type State int

const (
	Created State = iota
	Running
	Draining
	Stopped
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Running:
		return "running"
	case Draining:
		return "draining"
	default:
		return "stopped"
	}
}

// Scheduler drives envelope dispatch across all mailboxes. One dispatcher
// goroutine scans the instances round-robin and pops one ready envelope at a
// time; each envelope's handler runs in its own tracked goroutine, but at
// most one envelope per instance is in flight, which preserves per-recipient
// FIFO processing while letting a handler block on a nested send without
// stalling other mailboxes.
//
// The aggregate unfinished count (incremented on every mailbox enqueue,
// decremented on every completion) is the idle-detection primitive behind
// StopWhenIdle. A handler's recursive enqueues happen before its own
// completion is recorded, so the count never transiently reaches zero while
// derived work is still pending.
type Scheduler struct {
	// dispatch runs one envelope's handler to completion. Set by the runtime
	// at construction.
	dispatch func(ctx context.Context, inst *instance, env *envelope)

	// sem caps concurrently executing handlers when non-nil.
	sem chan struct{}

	mu         sync.Mutex
	state      State
	ring       []*instance // round-robin order = instance creation order
	cursor     int
	unfinished int
	idle       []waiter
	ready      chan struct{}
	loopCancel context.CancelFunc
	loopDone   chan struct{}

	inflight sync.WaitGroup
}

// NewScheduler creates a scheduler in the Created state.
func NewScheduler(maxConcurrentHandlers int) *Scheduler {
	s := &Scheduler{ready: make(chan struct{}, 1)}
	if maxConcurrentHandlers > 0 {
		s.sem = make(chan struct{}, maxConcurrentHandlers)
	}
	return s
}

// CurrentState reports the lifecycle state.
func (s *Scheduler) CurrentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// addInstance appends a newly created instance to the round-robin ring.
func (s *Scheduler) addInstance(inst *instance) {
	s.mu.Lock()
	s.ring = append(s.ring, inst)
	s.mu.Unlock()
	s.kick()
}

// noteEnqueued is called by a mailbox for every successful Put.
func (s *Scheduler) noteEnqueued() {
	s.mu.Lock()
	s.unfinished++
	s.mu.Unlock()
	s.kick()
}

// noteDone is called by a mailbox for every completed (or discarded) item.
func (s *Scheduler) noteDone() {
	s.mu.Lock()
	s.unfinished--
	if s.unfinished == 0 {
		for _, w := range s.idle {
			w <- struct{}{}
		}
		s.idle = nil
	}
	s.mu.Unlock()
	s.kick()
}

// kick nudges the dispatcher loop without blocking.
func (s *Scheduler) kick() {
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// pickNext pops one ready envelope from a non-busy mailbox, scanning the
// ring from the cursor so no mailbox is starved indefinitely.
func (s *Scheduler) pickNext() (*instance, *envelope, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.ring)
	for i := 0; i < n; i++ {
		inst := s.ring[(s.cursor+i)%n]
		if inst.busy {
			continue
		}
		env, ok := inst.mailbox.tryGet()
		if !ok {
			continue
		}
		inst.busy = true
		s.cursor = (s.cursor + i + 1) % n
		return inst, env, true
	}
	return nil, nil, false
}

// launch runs one envelope's handler in a tracked goroutine and marks the
// mailbox item done when the handler completes, whatever the outcome.
func (s *Scheduler) launch(ctx context.Context, inst *instance, env *envelope) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if s.sem != nil {
			s.sem <- struct{}{}
			defer func() { <-s.sem }()
		}

		s.dispatch(ctx, inst, env)

		s.mu.Lock()
		inst.busy = false
		s.mu.Unlock()
		_ = inst.mailbox.TaskDone()
	}()
}

// run is the dispatcher loop.
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.loopDone)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		inst, env, ok := s.pickNext()
		if !ok {
			select {
			case <-s.ready:
			case <-ctx.Done():
				return
			}
			continue
		}
		s.launch(ctx, inst, env)
	}
}

// Start transitions Created/Stopped to Running and begins consuming
// mailboxes.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == Running || s.state == Draining {
		s.mu.Unlock()
		return agent.ErrRuntimeAlreadyStarted
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.state = Running
	s.loopCancel = cancel
	s.loopDone = make(chan struct{})
	s.mu.Unlock()

	go s.run(loopCtx)
	return nil
}

// ProcessNext dispatches one ready envelope, reporting whether one was
// found. The handler runs asynchronously; callers wanting quiescence use
// StopWhenIdle or the mailbox Join. Usable before Start for single-stepped,
// batch-style processing.
func (s *Scheduler) ProcessNext(ctx context.Context) (bool, error) {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	if state == Draining || state == Stopped {
		return false, agent.ErrQueueShutDown
	}

	inst, env, ok := s.pickNext()
	if !ok {
		return false, nil
	}
	s.launch(ctx, inst, env)
	return true, nil
}

// Stop transitions Running to Draining then Stopped, shutting down every
// mailbox immediately. Pending envelopes are discarded and their reply
// futures rejected with ErrQueueShutDown; in-flight handlers are given until
// ctx expires to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Running {
		s.mu.Unlock()
		return agent.ErrRuntimeNotStarted
	}
	s.state = Draining
	cancel := s.loopCancel
	done := s.loopDone
	ring := make([]*instance, len(s.ring))
	copy(ring, s.ring)
	s.mu.Unlock()

	cancel()
	<-done

	for _, inst := range ring {
		for _, env := range inst.mailbox.Shutdown(true) {
			if env.reply != nil {
				env.reply.Reject(agent.ErrQueueShutDown)
			}
		}
	}

	err := s.waitInflight(ctx)

	s.mu.Lock()
	s.state = Stopped
	s.mu.Unlock()
	return err
}

// StopWhenIdle blocks until the aggregate unfinished count reaches zero,
// including work recursively enqueued by handlers while draining, then stops
// cleanly. Mailboxes are shut down gracefully (they are empty by then).
func (s *Scheduler) StopWhenIdle(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Running {
		s.mu.Unlock()
		return agent.ErrRuntimeNotStarted
	}
	s.mu.Unlock()

	if err := s.waitIdle(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	if s.state != Running {
		// A concurrent Stop won the race.
		s.mu.Unlock()
		return nil
	}
	s.state = Draining
	cancel := s.loopCancel
	done := s.loopDone
	ring := make([]*instance, len(s.ring))
	copy(ring, s.ring)
	s.mu.Unlock()

	cancel()
	<-done

	for _, inst := range ring {
		inst.mailbox.Shutdown(false)
	}

	err := s.waitInflight(ctx)

	s.mu.Lock()
	s.state = Stopped
	s.mu.Unlock()
	return err
}

// waitIdle blocks until unfinished == 0 or ctx is done.
func (s *Scheduler) waitIdle(ctx context.Context) error {
	s.mu.Lock()
	for s.unfinished > 0 {
		w := make(waiter, 1)
		s.idle = append(s.idle, w)
		s.mu.Unlock()

		select {
		case <-w:
			s.mu.Lock()
		case <-ctx.Done():
			s.mu.Lock()
			s.idle = removeWaiter(s.idle, w)
			s.mu.Unlock()
			return ctx.Err()
		}
	}
	s.mu.Unlock()
	return nil
}

// waitInflight waits for dispatched handler goroutines, bounded by ctx.
func (s *Scheduler) waitInflight(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unfinished reports the aggregate count of enqueued-but-not-done envelopes.
func (s *Scheduler) Unfinished() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unfinished
}
