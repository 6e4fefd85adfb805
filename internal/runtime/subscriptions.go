package runtime

import (
	"sync"

	"github.com/agentbus-dev/agentbus/agent"
)

// SubscriptionIndex holds the topic routing rules. Subscriptions are added
// during the registration phase and never removed, so steady-state Resolve
// calls only take the read lock.
type SubscriptionIndex struct {
	mu   sync.RWMutex
	subs []agent.Subscription
}

// NewSubscriptionIndex creates an empty index.
func NewSubscriptionIndex() *SubscriptionIndex {
	return &SubscriptionIndex{}
}

// Add records a subscription.
func (x *SubscriptionIndex) Add(sub agent.Subscription) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.subs = append(x.subs, sub)
}

// Resolve returns the AgentID of every subscription matching the topic, in
// subscription order, deduplicated. Zero matches returns an empty slice:
// publishing to a topic nobody listens on is deliberately tolerated.
func (x *SubscriptionIndex) Resolve(topic agent.TopicID) []agent.AgentID {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var ids []agent.AgentID
	seen := make(map[agent.AgentID]struct{})
	for _, sub := range x.subs {
		if !sub.Matches(topic) {
			continue
		}
		id := sub.MapTo(topic)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of recorded subscriptions.
func (x *SubscriptionIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.subs)
}
