package service

import "sync"

// EventType defines the type of event
type EventType string

const (
	EventTopologyImported EventType = "topology_imported"
	EventTopologyDeleted  EventType = "topology_deleted"
	EventLayoutComputed   EventType = "layout_computed"
	EventPositionsUpdated EventType = "positions_updated"
	EventDatasetReloaded  EventType = "dataset_reloaded"

	// Discovery progress, forwarded from adapters
	EventDiscoveryStarted  EventType = "discovery_started"
	EventDiscoveryProgress EventType = "discovery_progress"
	EventDiscoveryComplete EventType = "discovery_complete"
)

// Event represents an event that occurred in the system
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// EventBus allows publishing and subscribing to events
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan<- Event
	onDrop      func()
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// OnDrop registers a callback invoked whenever a slow subscriber misses an event
func (eb *EventBus) OnDrop(fn func()) {
	eb.mu.Lock()
	eb.onDrop = fn
	eb.mu.Unlock()
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, ch)
}

// Unsubscribe removes a subscriber. The channel is not closed.
func (eb *EventBus) Unsubscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	for i, sub := range eb.subscribers {
		if sub == ch {
			eb.subscribers = append(eb.subscribers[:i], eb.subscribers[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
			if eb.onDrop != nil {
				eb.onDrop()
			}
		}
	}
}

// PublishDiscoveryEvent lets discovery adapters report progress on the bus
func (eb *EventBus) PublishDiscoveryEvent(eventType string, payload any) {
	eb.Publish(Event{Type: EventType(eventType), Payload: payload})
}
