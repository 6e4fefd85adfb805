// Package agent provides the public contracts for building agents on the
// agentbus runtime.
//
// This package exports the Agent, Message, and Runtime types that external
// projects need to implement message handlers or drive the bus.
//
// # Basic Usage
//
// To create an agent, implement the Agent interface or compose a HandlerMux:
//
//	mux := agent.NewHandlerMux().
//	    Handle("greet", func(ctx *agent.MessageContext, msg *agent.Message) (*agent.Message, error) {
//	        return agent.NewMessage("greeting", map[string]string{"text": "hello"}), nil
//	    })
//
// Register a factory for the agent type, then send or publish:
//
//	rt := agentbus.New()
//	rt.Register("greeter", func(id agent.AgentID) (agent.Agent, error) {
//	    return mux, nil
//	}, agent.DefaultSubscription())
//	rt.Start(ctx)
//
//	// Request/response: the future resolves with the handler's reply.
//	fut, err := rt.Send(ctx, agent.NewMessage("greet", nil), agent.NewAgentID("greeter", "default"))
//	reply, err := fut.Wait(ctx)
//
//	// Broadcast: every subscriber of the topic type receives the message,
//	// keyed by the topic source. No reply is observed by the publisher.
//	err = rt.Publish(ctx, agent.NewMessage("greet", nil), agent.NewTopicID("greeter", "session-1"))
//
// # Message Format
//
// Messages are the standard unit of communication between agents:
//
//	msg := agent.NewMessage("analysis_request", payload).
//	    WithMetadata("priority", "high")
//
// Agents are instantiated lazily: an instance keyed by (type, key) is created
// on the first message addressed to it and cached for the runtime's lifetime.
package agent
