package ecs

// EventType names a world event.
type EventType string

const (
	EventTrapTriggered  EventType = "trap_triggered"
	EventSourceToggled  EventType = "source_toggled"
	EventPlayerDied     EventType = "player_died"
	EventAgentSpawned   EventType = "agent_spawned"
	EventAgentDespawned EventType = "agent_despawned"
	EventAgentAttack    EventType = "agent_attack"
	EventAgentState     EventType = "agent_state"
)

// Event is a world event payload.
type Event struct {
	Type   EventType `json:"type"`
	Entity Entity    `json:"entity,omitempty"`
	Data   any       `json:"data,omitempty"`
}

// EventQueue is a simple FIFO queue.
type EventQueue struct {
	items []Event
}

// Push adds an event.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}
