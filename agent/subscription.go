package agent

// Subscription is a rule mapping published topics to the agent instances
// that should receive their messages. Subscriptions are added at
// registration time and are immutable afterward.
type Subscription interface {
	// Matches reports whether the subscription applies to the topic.
	// Matching is by exact topic-type equality; there are no wildcards.
	Matches(topic TopicID) bool

	// MapTo returns the agent instance that receives messages published on
	// the topic. Only meaningful when Matches(topic) is true.
	MapTo(topic TopicID) AgentID
}

// TypeBinder is implemented by subscriptions whose agent type is resolved at
// registration time (see DefaultSubscription). The runtime calls BindAgentType
// with the registering agent type and uses the returned subscription.
type TypeBinder interface {
	BindAgentType(agentType string) Subscription
}

// TypeSubscription routes every topic whose type equals TopicType to the
// agent type AgentType. The receiving instance is keyed by the topic source,
// so each session or conversation gets its own instance.
type TypeSubscription struct {
	TopicType string
	AgentType string
}

// NewTypeSubscription creates a TypeSubscription.
func NewTypeSubscription(topicType, agentType string) TypeSubscription {
	return TypeSubscription{TopicType: topicType, AgentType: agentType}
}

// Matches reports whether the topic's type equals the subscribed topic type.
func (s TypeSubscription) Matches(topic TopicID) bool {
	return topic.Type == s.TopicType
}

// MapTo keys the receiving instance by the topic source.
func (s TypeSubscription) MapTo(topic TopicID) AgentID {
	return AgentID{Type: s.AgentType, Key: topic.Source}
}

// DefaultSubscription is shorthand binding an agent's own registered type to
// an identically named topic type. The agent type is filled in when the
// subscription is passed to Register; adding it via AddSubscription without a
// registration context is an error.
func DefaultSubscription() Subscription {
	return defaultSubscription{}
}

type defaultSubscription struct {
	agentType string
}

func (s defaultSubscription) Matches(topic TopicID) bool {
	return s.agentType != "" && topic.Type == s.agentType
}

func (s defaultSubscription) MapTo(topic TopicID) AgentID {
	return AgentID{Type: s.agentType, Key: topic.Source}
}

// BindAgentType implements TypeBinder.
func (s defaultSubscription) BindAgentType(agentType string) Subscription {
	s.agentType = agentType
	return s
}
