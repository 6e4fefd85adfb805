package runtime

import (
	"fmt"
	"sync"

	"github.com/agentbus-dev/agentbus/agent"
)

// registration pairs an agent type's factory with its subscription list.
type registration struct {
	agentType     string
	factory       agent.Factory
	subscriptions []agent.Subscription
}

// instance is the lazily created, cached object bound to one AgentID. It is
// owned exclusively by the registry; the busy flag (guarded by the
// scheduler's mutex) ensures at most one envelope per instance is in flight.
type instance struct {
	id      agent.AgentID
	impl    agent.Agent
	mailbox *Mailbox
	busy    bool
}

// Registry maps agent type names to factories and caches lazily created
// instances keyed by their full (type, key) identity. Instances live for the
// runtime's lifetime.
type Registry struct {
	sched           *Scheduler
	mailboxCapacity int

	mu        sync.RWMutex
	types     map[string]*registration
	instances map[agent.AgentID]*instance
}

// NewRegistry creates an empty registry whose instances report to sched.
func NewRegistry(sched *Scheduler, mailboxCapacity int) *Registry {
	return &Registry{
		sched:           sched,
		mailboxCapacity: mailboxCapacity,
		types:           make(map[string]*registration),
		instances:       make(map[agent.AgentID]*instance),
	}
}

// Register stores the factory and subscriptions under agentType.
func (r *Registry) Register(agentType string, factory agent.Factory, subs []agent.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[agentType]; exists {
		return fmt.Errorf("%w: %s", agent.ErrDuplicateRegistration, agentType)
	}
	r.types[agentType] = &registration{
		agentType:     agentType,
		factory:       factory,
		subscriptions: subs,
	}
	return nil
}

// GetOrCreate returns the cached instance for id, invoking the registered
// factory on first use. Concurrent creations for the same id are serialized
// under the registry lock, so a factory runs at most once per id. Factories
// must not call back into the runtime.
func (r *Registry) GetOrCreate(id agent.AgentID) (*instance, error) {
	r.mu.RLock()
	inst, ok := r.instances[id]
	r.mu.RUnlock()
	if ok {
		return inst, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if inst, ok := r.instances[id]; ok {
		return inst, nil
	}
	reg, ok := r.types[id.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", agent.ErrUnknownAgentType, id.Type)
	}
	impl, err := reg.factory(id)
	if err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", id, err)
	}

	inst = &instance{
		id:      id,
		impl:    impl,
		mailbox: newMailbox(r.sched, r.mailboxCapacity),
	}
	r.instances[id] = inst
	r.sched.addInstance(inst)
	return inst, nil
}

// Instance returns the cached instance for id, if one has been created.
func (r *Registry) Instance(id agent.AgentID) (*instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[id]
	return inst, ok
}

// Instances returns a snapshot of all created instances.
func (r *Registry) Instances() []*instance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instances := make([]*instance, 0, len(r.instances))
	for _, inst := range r.instances {
		instances = append(instances, inst)
	}
	return instances
}
