package agent

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFutureResolve(t *testing.T) {
	fut := NewFuture()
	if fut.State() != FuturePending {
		t.Fatalf("expected pending, got %v", fut.State())
	}

	reply := NewMessage("reply", nil)
	fut.Resolve(reply)

	got, err := fut.Wait(context.Background())
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if got != reply {
		t.Error("expected the resolved message")
	}
	if fut.State() != FutureResolved {
		t.Errorf("expected resolved, got %v", fut.State())
	}
}

func TestFutureReject(t *testing.T) {
	fut := NewFuture()
	boom := errors.New("boom")
	fut.Reject(boom)

	_, err := fut.Wait(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if fut.State() != FutureRejected {
		t.Errorf("expected rejected, got %v", fut.State())
	}
}

func TestFutureCancel(t *testing.T) {
	fut := NewFuture()
	fut.Cancel()

	_, err := fut.Wait(context.Background())
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
	if fut.State() != FutureCancelled {
		t.Errorf("expected cancelled, got %v", fut.State())
	}
}

func TestFutureCompletesOnce(t *testing.T) {
	fut := NewFuture()
	fut.Resolve(NewMessage("first", nil))
	fut.Reject(errors.New("ignored"))
	fut.Cancel()

	got, err := fut.Wait(context.Background())
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if got.Type != "first" {
		t.Errorf("expected first completion to win, got %s", got.Type)
	}
}

func TestFutureWaitContextExpires(t *testing.T) {
	fut := NewFuture()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := fut.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if fut.State() != FuturePending {
		t.Error("an expired wait must not complete the future")
	}
}

func TestFutureDoneChannel(t *testing.T) {
	fut := NewFuture()
	select {
	case <-fut.Done():
		t.Fatal("done channel closed before completion")
	default:
	}

	fut.Resolve(nil)
	select {
	case <-fut.Done():
	case <-time.After(time.Second):
		t.Fatal("done channel not closed after completion")
	}
}
