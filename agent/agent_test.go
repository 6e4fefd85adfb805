package agent

import (
	"context"
	"errors"
	"testing"
)

func muxContext() *MessageContext {
	return NewMessageContext(context.Background(), nil, NewAgentID("Test", "default"), nil, nil, NewCancelToken())
}

func TestHandlerMuxRouting(t *testing.T) {
	mux := NewHandlerMux().
		Handle("ping", func(ctx *MessageContext, msg *Message) (*Message, error) {
			return NewMessage("pong", nil), nil
		}).
		Handle("echo", func(ctx *MessageContext, msg *Message) (*Message, error) {
			return msg, nil
		})

	reply, err := mux.OnMessage(muxContext(), NewMessage("ping", nil))
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if reply.Type != "pong" {
		t.Errorf("expected pong, got %s", reply.Type)
	}
}

func TestHandlerMuxNoHandler(t *testing.T) {
	mux := NewHandlerMux()
	_, err := mux.OnMessage(muxContext(), NewMessage("unknown", nil))
	if !errors.Is(err, ErrNoHandler) {
		t.Errorf("expected ErrNoHandler, got %v", err)
	}
}

func TestHandlerMuxDefault(t *testing.T) {
	mux := NewHandlerMux().HandleDefault(func(ctx *MessageContext, msg *Message) (*Message, error) {
		return NewMessage("fallback", nil), nil
	})

	reply, err := mux.OnMessage(muxContext(), NewMessage("anything", nil))
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if reply.Type != "fallback" {
		t.Errorf("expected fallback, got %s", reply.Type)
	}
}

func TestHandlerMuxDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate handler")
		}
	}()
	NewHandlerMux().
		Handle("ping", func(ctx *MessageContext, msg *Message) (*Message, error) { return nil, nil }).
		Handle("ping", func(ctx *MessageContext, msg *Message) (*Message, error) { return nil, nil })
}
