package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentbus-dev/agentbus/agent"
)

// envelope is one message plus routing, cancellation, and reply metadata in
// flight through the router.
type envelope struct {
	msg       *agent.Message
	sender    *agent.AgentID
	recipient agent.AgentID
	topic     *agent.TopicID // set for published messages
	token     *agent.CancelToken
	reply     *agent.Future // nil for publishes
}

// waiter is one blocked Put, Get, or Join caller. Buffered so a signal never
// blocks the signaller; each waiter receives at most one token.
type waiter chan struct{}

// Mailbox is a FIFO queue of envelopes bound to one agent instance. Put
// blocks while a bounded mailbox is full, Get blocks while it is empty, and
// both wake exactly one waiter per freed slot or delivered item, in FIFO
// order. The scheduler handle passed at construction is notified of every
// enqueue and completion, which is what StopWhenIdle's idle detection is
// built on.
type Mailbox struct {
	sched    *Scheduler
	capacity int // 0 = unbounded

	mu         sync.Mutex
	items      []*envelope
	getters    []waiter
	putters    []waiter
	joiners    []waiter
	unfinished int
	shutdown   bool
}

func newMailbox(sched *Scheduler, capacity int) *Mailbox {
	return &Mailbox{sched: sched, capacity: capacity}
}

// Put enqueues an envelope, blocking while the mailbox is full. It fails
// with ErrQueueShutDown once the mailbox has been shut down, and with the
// context error if ctx is done first.
func (m *Mailbox) Put(ctx context.Context, env *envelope) error {
	m.mu.Lock()
	for {
		if m.shutdown {
			m.mu.Unlock()
			return agent.ErrQueueShutDown
		}
		if m.capacity <= 0 || len(m.items) < m.capacity {
			break
		}
		w := make(waiter, 1)
		m.putters = append(m.putters, w)
		m.mu.Unlock()

		select {
		case <-w:
			m.mu.Lock()
		case <-ctx.Done():
			m.mu.Lock()
			m.putters = removeWaiter(m.putters, w)
			// A slot may have been signalled to us concurrently with the
			// cancellation; pass the wake-up on so it is not lost.
			select {
			case <-w:
				m.wakeOne(&m.putters)
			default:
			}
			m.mu.Unlock()
			return ctx.Err()
		}
	}

	m.items = append(m.items, env)
	m.unfinished++
	m.wakeOne(&m.getters)
	m.mu.Unlock()

	if m.sched != nil {
		m.sched.noteEnqueued()
	}
	return nil
}

// Get removes and returns the oldest envelope, blocking while the mailbox is
// empty. After shutdown, queued envelopes remain consumable; Get fails with
// ErrQueueShutDown once the mailbox is shut down and empty.
func (m *Mailbox) Get(ctx context.Context) (*envelope, error) {
	m.mu.Lock()
	for len(m.items) == 0 {
		if m.shutdown {
			m.mu.Unlock()
			return nil, agent.ErrQueueShutDown
		}
		w := make(waiter, 1)
		m.getters = append(m.getters, w)
		m.mu.Unlock()

		select {
		case <-w:
			m.mu.Lock()
		case <-ctx.Done():
			m.mu.Lock()
			m.getters = removeWaiter(m.getters, w)
			select {
			case <-w:
				m.wakeOne(&m.getters)
			default:
			}
			m.mu.Unlock()
			return nil, ctx.Err()
		}
	}

	env := m.popLocked()
	m.mu.Unlock()
	return env, nil
}

// tryGet is the non-blocking pop used by the scheduler's round-robin scan.
func (m *Mailbox) tryGet() (*envelope, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.items) == 0 {
		return nil, false
	}
	return m.popLocked(), true
}

// popLocked removes the head item and frees one putter slot. Caller holds mu.
func (m *Mailbox) popLocked() *envelope {
	env := m.items[0]
	m.items[0] = nil
	m.items = m.items[1:]
	m.wakeOne(&m.putters)
	return env
}

// TaskDone marks one previously dequeued envelope as fully processed. Every
// Put must be balanced by exactly one TaskDone.
func (m *Mailbox) TaskDone() error {
	m.mu.Lock()
	if m.unfinished <= 0 {
		m.mu.Unlock()
		return fmt.Errorf("mailbox: TaskDone called more times than items enqueued")
	}
	m.unfinished--
	if m.unfinished == 0 {
		m.wakeAll(&m.joiners)
	}
	m.mu.Unlock()

	if m.sched != nil {
		m.sched.noteDone()
	}
	return nil
}

// Join blocks until the unfinished count reaches zero: every enqueued
// envelope has been dequeued and marked done (or discarded by an immediate
// shutdown).
func (m *Mailbox) Join(ctx context.Context) error {
	m.mu.Lock()
	for m.unfinished > 0 {
		w := make(waiter, 1)
		m.joiners = append(m.joiners, w)
		m.mu.Unlock()

		select {
		case <-w:
			m.mu.Lock()
		case <-ctx.Done():
			m.mu.Lock()
			m.joiners = removeWaiter(m.joiners, w)
			m.mu.Unlock()
			return ctx.Err()
		}
	}
	m.mu.Unlock()
	return nil
}

// Shutdown closes the mailbox. New Puts fail immediately with
// ErrQueueShutDown. When immediate is true, all pending envelopes are
// drained, their implicit tasks marked done, and the drained envelopes
// returned so the caller can fail their reply futures; otherwise queued
// envelopes remain consumable via Get. All blocked Put and Get callers are
// woken to re-check the shutdown state. Shutdown is idempotent.
func (m *Mailbox) Shutdown(immediate bool) []*envelope {
	m.mu.Lock()
	m.shutdown = true
	var drained []*envelope
	if immediate && len(m.items) > 0 {
		drained = m.items
		m.items = nil
		m.unfinished -= len(drained)
		if m.unfinished <= 0 {
			m.unfinished = 0
			m.wakeAll(&m.joiners)
		}
	}
	m.wakeAll(&m.getters)
	m.wakeAll(&m.putters)
	m.mu.Unlock()

	if m.sched != nil {
		for range drained {
			m.sched.noteDone()
		}
	}
	return drained
}

// Len returns the number of queued envelopes.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Unfinished returns the count of envelopes enqueued but not yet marked done.
func (m *Mailbox) Unfinished() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unfinished
}

// wakeOne signals the longest-waiting waiter in the list. Caller holds mu.
func (m *Mailbox) wakeOne(list *[]waiter) {
	if len(*list) == 0 {
		return
	}
	w := (*list)[0]
	*list = (*list)[1:]
	w <- struct{}{}
}

// wakeAll signals every waiter in the list. Caller holds mu.
func (m *Mailbox) wakeAll(list *[]waiter) {
	for _, w := range *list {
		w <- struct{}{}
	}
	*list = nil
}

func removeWaiter(list []waiter, w waiter) []waiter {
	for i, candidate := range list {
		if candidate == w {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
