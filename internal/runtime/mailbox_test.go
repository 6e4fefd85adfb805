package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentbus-dev/agentbus/agent"
)

func testEnvelope(msgType string) *envelope {
	return &envelope{
		msg:       agent.NewMessage(msgType, nil),
		recipient: agent.NewAgentID("Test", "default"),
		token:     agent.NewCancelToken(),
	}
}

func TestMailboxFIFO(t *testing.T) {
	ctx := context.Background()
	m := newMailbox(nil, 0)

	require.NoError(t, m.Put(ctx, testEnvelope("first")))
	require.NoError(t, m.Put(ctx, testEnvelope("second")))
	require.NoError(t, m.Put(ctx, testEnvelope("third")))
	assert.Equal(t, 3, m.Len())

	for _, want := range []string{"first", "second", "third"} {
		env, err := m.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, env.msg.Type)
	}
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 3, m.Unfinished())
}

func TestMailboxBoundedPutBlocks(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	m := newMailbox(nil, 1)
	require.NoError(t, m.Put(ctx, testEnvelope("first")))

	unblocked := make(chan error, 1)
	go func() {
		unblocked <- m.Put(ctx, testEnvelope("second"))
	}()

	select {
	case err := <-unblocked:
		t.Fatalf("put on a full mailbox returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	env, err := m.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", env.msg.Type)

	select {
	case err := <-unblocked:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("put did not unblock after a slot freed")
	}
}

func TestMailboxPutContextCancelled(t *testing.T) {
	m := newMailbox(nil, 1)
	require.NoError(t, m.Put(context.Background(), testEnvelope("first")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.Put(ctx, testEnvelope("second"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, m.Len())
}

func TestMailboxGetBlocksUntilPut(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	m := newMailbox(nil, 0)
	got := make(chan *envelope, 1)
	go func() {
		env, err := m.Get(ctx)
		if err == nil {
			got <- env
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, m.Put(ctx, testEnvelope("late")))

	select {
	case env := <-got:
		assert.Equal(t, "late", env.msg.Type)
	case <-ctx.Done():
		t.Fatal("get did not observe the put")
	}
}

func TestMailboxShutdownImmediateDiscardsQueued(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	m := newMailbox(nil, 0)
	for i := 0; i < 3; i++ {
		require.NoError(t, m.Put(ctx, testEnvelope("queued")))
	}

	drained := m.Shutdown(true)
	assert.Len(t, drained, 3)
	assert.Equal(t, 0, m.Unfinished())

	// Discarded items count as done, so Join resolves immediately.
	require.NoError(t, m.Join(ctx))

	assert.ErrorIs(t, m.Put(ctx, testEnvelope("rejected")), agent.ErrQueueShutDown)
	_, err := m.Get(ctx)
	assert.ErrorIs(t, err, agent.ErrQueueShutDown)
}

func TestMailboxShutdownGracefulKeepsQueued(t *testing.T) {
	ctx := context.Background()
	m := newMailbox(nil, 0)
	require.NoError(t, m.Put(ctx, testEnvelope("one")))
	require.NoError(t, m.Put(ctx, testEnvelope("two")))

	drained := m.Shutdown(false)
	assert.Empty(t, drained)
	assert.ErrorIs(t, m.Put(ctx, testEnvelope("rejected")), agent.ErrQueueShutDown)

	// Queued envelopes remain consumable after a graceful shutdown.
	env, err := m.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "one", env.msg.Type)
	env, err = m.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "two", env.msg.Type)

	_, err = m.Get(ctx)
	assert.ErrorIs(t, err, agent.ErrQueueShutDown)
}

func TestMailboxJoinWaitsForTaskDone(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	m := newMailbox(nil, 0)
	require.NoError(t, m.Put(ctx, testEnvelope("a")))
	require.NoError(t, m.Put(ctx, testEnvelope("b")))
	_, err := m.Get(ctx)
	require.NoError(t, err)
	_, err = m.Get(ctx)
	require.NoError(t, err)

	joined := make(chan error, 1)
	go func() {
		joined <- m.Join(ctx)
	}()

	select {
	case <-joined:
		t.Fatal("join returned before tasks were marked done")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, m.TaskDone())
	require.NoError(t, m.TaskDone())

	select {
	case err := <-joined:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("join did not resolve")
	}
}

func TestMailboxTaskDoneUnderflow(t *testing.T) {
	m := newMailbox(nil, 0)
	assert.Error(t, m.TaskDone())
}

func waitForPutters(t *testing.T, m *Mailbox, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		m.mu.Lock()
		got := len(m.putters)
		m.mu.Unlock()
		if got == n {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("blocked putters = %d, want %d", got, n)
		}
		time.Sleep(time.Millisecond)
	}
}

// A putter cancelled concurrently with the wakeup for a freed slot must pass
// the signal on, or the next blocked putter is starved with capacity
// available. Loop the race to hit both interleavings.
func TestMailboxCancelledPutterResignalsNext(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		m := newMailbox(nil, 1)
		require.NoError(t, m.Put(ctx, testEnvelope("filler")))

		firstCtx, cancelFirst := context.WithCancel(ctx)
		firstDone := make(chan error, 1)
		secondDone := make(chan error, 1)

		go func() {
			firstDone <- m.Put(firstCtx, testEnvelope("first"))
		}()
		waitForPutters(t, m, 1)
		go func() {
			secondDone <- m.Put(ctx, testEnvelope("second"))
		}()
		waitForPutters(t, m, 2)

		// Race the first putter's cancellation against the slot freed by Get.
		go cancelFirst()
		_, err := m.Get(ctx)
		require.NoError(t, err)

		var firstErr error
		select {
		case firstErr = <-firstDone:
		case <-time.After(5 * time.Second):
			t.Fatal("first putter did not return")
		}
		if firstErr == nil {
			// The first putter won the slot before cancellation landed; free
			// another slot for the second.
			_, err := m.Get(ctx)
			require.NoError(t, err)
		} else {
			require.ErrorIs(t, firstErr, context.Canceled)
		}

		select {
		case err := <-secondDone:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("second putter starved after the first was cancelled")
		}
	}
}
