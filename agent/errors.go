package agent

import "errors"

var (
	// ErrUnknownAgentType is returned when routing resolves to an agent type
	// with no registration.
	ErrUnknownAgentType = errors.New("unknown agent type")

	// ErrDuplicateRegistration is returned when registering an agent type
	// that is already registered.
	ErrDuplicateRegistration = errors.New("agent type already registered")

	// ErrQueueShutDown is returned from mailbox operations after shutdown,
	// and rejects send futures whose envelopes were discarded by Stop.
	ErrQueueShutDown = errors.New("mailbox shut down")

	// ErrCancelled is returned by Future.Wait when the message was cancelled
	// before its handler ran. Distinguish it from a handler failure with
	// errors.Is or Future.State.
	ErrCancelled = errors.New("message cancelled")

	// ErrNoHandler is returned by HandlerMux when no handler is registered
	// for a message type and no default handler is set.
	ErrNoHandler = errors.New("no handler for message type")

	// ErrRuntimeNotStarted is returned when stopping a runtime that is not
	// running.
	ErrRuntimeNotStarted = errors.New("runtime not started")

	// ErrRuntimeAlreadyStarted is returned when starting a running runtime.
	ErrRuntimeAlreadyStarted = errors.New("runtime already started")
)
