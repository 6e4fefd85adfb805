package agent

import "fmt"

// Agent is the handler contract imposed on agent business logic. The runtime
// guarantees that OnMessage is never invoked concurrently for the same
// instance and that messages enqueued to one instance are handled in enqueue
// order.
//
// Returning a non-nil reply resolves the sender's future for direct sends;
// for published messages the reply is discarded. Returning an error rejects
// the sender's future; for published messages the error is logged and counted
// but not observable by the publisher.
//
// Instances that hold external resources may additionally implement
// io.Closer; Close is called during runtime shutdown.
type Agent interface {
	OnMessage(ctx *MessageContext, msg *Message) (*Message, error)
}

// Factory creates the agent instance bound to an AgentID. It is invoked
// lazily on the first message addressed to the id (directly or through a
// subscription match) and the result is cached for the runtime's lifetime.
type Factory func(id AgentID) (Agent, error)

// HandlerFunc handles a single message.
type HandlerFunc func(ctx *MessageContext, msg *Message) (*Message, error)

// OnMessage implements Agent, so a bare HandlerFunc can be registered
// directly.
func (f HandlerFunc) OnMessage(ctx *MessageContext, msg *Message) (*Message, error) {
	return f(ctx, msg)
}

// HandlerMux routes messages to handlers by message type. It is the explicit
// Go rendering of per-message-type dispatch: the mapping from type tag to
// handler is built once at registration time, in the manner of http.ServeMux.
//
// HandlerMux itself implements Agent. A mux shared across instances must not
// be mutated after registration.
type HandlerMux struct {
	handlers map[string]HandlerFunc
	fallback HandlerFunc
}

// NewHandlerMux creates an empty mux.
func NewHandlerMux() *HandlerMux {
	return &HandlerMux{handlers: make(map[string]HandlerFunc)}
}

// Handle registers a handler for a message type and returns the mux for
// chaining. Registering the same type twice panics.
func (m *HandlerMux) Handle(msgType string, fn HandlerFunc) *HandlerMux {
	if _, exists := m.handlers[msgType]; exists {
		panic(fmt.Sprintf("agent: duplicate handler for message type %q", msgType))
	}
	m.handlers[msgType] = fn
	return m
}

// HandleDefault registers a fallback handler for message types with no
// explicit handler.
func (m *HandlerMux) HandleDefault(fn HandlerFunc) *HandlerMux {
	m.fallback = fn
	return m
}

// OnMessage dispatches to the handler registered for msg.Type, falling back
// to the default handler, and failing with ErrNoHandler when neither exists.
func (m *HandlerMux) OnMessage(ctx *MessageContext, msg *Message) (*Message, error) {
	if fn, ok := m.handlers[msg.Type]; ok {
		return fn(ctx, msg)
	}
	if m.fallback != nil {
		return m.fallback(ctx, msg)
	}
	return nil, fmt.Errorf("%w: %s", ErrNoHandler, msg.Type)
}
