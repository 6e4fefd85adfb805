package agent

// AgentID identifies one addressable agent instance. Type names the
// registered agent type; Key disambiguates instances of that type
// (a session id, a shard name, etc.). Two AgentIDs are equal iff both
// fields match, so AgentID is usable as a map key.
type AgentID struct {
	Type string
	Key  string
}

// NewAgentID creates an AgentID from an agent type and an instance key.
func NewAgentID(agentType, key string) AgentID {
	return AgentID{Type: agentType, Key: key}
}

// String returns the canonical "type/key" form.
func (id AgentID) String() string {
	return id.Type + "/" + id.Key
}

// TopicID identifies a logical broadcast channel. Type selects which
// subscriptions match; Source disambiguates per-conversation or per-session
// topics that share the same type, and becomes the instance key of the
// subscribing agents.
type TopicID struct {
	Type   string
	Source string
}

// NewTopicID creates a TopicID from a topic type and a source.
func NewTopicID(topicType, source string) TopicID {
	return TopicID{Type: topicType, Source: source}
}

// String returns the canonical "type/source" form.
func (t TopicID) String() string {
	return t.Type + "/" + t.Source
}
