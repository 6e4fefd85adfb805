package runtime

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/agentbus-dev/agentbus/agent"
)

// Runtime is the single-process implementation of agent.Runtime. All agents
// run in the same Go binary; messages pass through in-memory mailboxes.
//
// Runtime is thread-safe and can be used concurrently.
type Runtime struct {
	config   *Config
	sched    *Scheduler
	registry *Registry
	subs     *SubscriptionIndex
	limiter  *rate.Limiter
}

var _ agent.Runtime = (*Runtime)(nil)

// New creates a Runtime with the given options.
func New(opts ...Option) *Runtime {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	rt := &Runtime{
		config: cfg,
		subs:   NewSubscriptionIndex(),
	}
	rt.sched = NewScheduler(cfg.MaxConcurrentHandlers)
	rt.sched.dispatch = rt.dispatchEnvelope
	rt.registry = NewRegistry(rt.sched, cfg.MailboxCapacity)

	if cfg.IngressLimit > 0 {
		burst := cfg.IngressBurst
		if burst < 1 {
			burst = 1
		}
		rt.limiter = rate.NewLimiter(cfg.IngressLimit, burst)
	}
	return rt
}

// Register stores the factory and subscription list under agentType and
// merges the subscriptions into the subscription index. A duplicate agent
// type fails with ErrDuplicateRegistration and leaves the index untouched.
func (r *Runtime) Register(agentType string, factory agent.Factory, subs ...agent.Subscription) (*agent.Registration, error) {
	if agentType == "" {
		return nil, fmt.Errorf("agent type must not be empty")
	}
	if factory == nil {
		return nil, fmt.Errorf("factory must not be nil")
	}

	bound := make([]agent.Subscription, 0, len(subs))
	for _, sub := range subs {
		if binder, ok := sub.(agent.TypeBinder); ok {
			sub = binder.BindAgentType(agentType)
		}
		bound = append(bound, sub)
	}

	if err := r.registry.Register(agentType, factory, bound); err != nil {
		return nil, err
	}
	for _, sub := range bound {
		r.subs.Add(sub)
	}
	return &agent.Registration{Type: agentType}, nil
}

// AddSubscription records a topic routing rule outside of a registration.
func (r *Runtime) AddSubscription(sub agent.Subscription) error {
	if sub == nil {
		return fmt.Errorf("subscription must not be nil")
	}
	if _, unbound := sub.(agent.TypeBinder); unbound {
		return fmt.Errorf("subscription requires a registration to bind its agent type")
	}
	r.subs.Add(sub)
	return nil
}

// Start launches the dispatcher.
func (r *Runtime) Start(ctx context.Context) error {
	return r.sched.Start(ctx)
}

// Stop shuts down all mailboxes immediately, discarding pending work, and
// closes agent instances that implement io.Closer.
func (r *Runtime) Stop(ctx context.Context) error {
	if err := r.sched.Stop(ctx); err != nil {
		return err
	}
	return r.closeInstances(ctx)
}

// StopWhenIdle blocks until every mailbox reports zero unfinished items,
// then stops cleanly and closes agent instances.
func (r *Runtime) StopWhenIdle(ctx context.Context) error {
	if err := r.sched.StopWhenIdle(ctx); err != nil {
		return err
	}
	return r.closeInstances(ctx)
}

// ProcessNext dispatches one ready envelope, reporting whether one was found.
func (r *Runtime) ProcessNext(ctx context.Context) (bool, error) {
	return r.sched.ProcessNext(ctx)
}

// State reports the scheduler lifecycle state.
func (r *Runtime) State() agent.RuntimeState {
	switch r.sched.CurrentState() {
	case Created:
		return agent.StateCreated
	case Running:
		return agent.StateRunning
	case Draining:
		return agent.StateDraining
	default:
		return agent.StateStopped
	}
}

// Instance returns the cached agent instance for id, if one has been
// created.
func (r *Runtime) Instance(id agent.AgentID) (agent.Agent, bool) {
	inst, ok := r.registry.Instance(id)
	if !ok {
		return nil, false
	}
	return inst.impl, true
}

// Unfinished reports the aggregate count of pending envelopes, for
// diagnostics and metrics polling.
func (r *Runtime) Unfinished() int {
	return r.sched.Unfinished()
}

// closeInstances closes all instances implementing io.Closer, concurrently.
func (r *Runtime) closeInstances(ctx context.Context) error {
	g, _ := errgroup.WithContext(ctx)
	for _, inst := range r.registry.Instances() {
		inst := inst
		closer, ok := inst.impl.(io.Closer)
		if !ok {
			continue
		}
		g.Go(func() error {
			if err := closer.Close(); err != nil {
				return fmt.Errorf("close %s: %w", inst.id, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// waitIngress applies the optional ingress rate limit.
func (r *Runtime) waitIngress(ctx context.Context) error {
	if r.limiter == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}
