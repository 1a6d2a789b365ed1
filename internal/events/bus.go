package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventSetupGenerated        EventType = "SETUP_GENERATED"
	EventAuditCompleted        EventType = "AUDIT_COMPLETED"
	EventKillSwitchActivated   EventType = "KILL_SWITCH_ACTIVATED"
	EventKillSwitchDeactivated EventType = "KILL_SWITCH_DEACTIVATED"
	EventRiskStateReset        EventType = "RISK_STATE_RESET"
)

// Event represents a system event
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events
type Subscriber func(Event)

// Bus manages event publishing and subscriptions. External collaborators
// (persistence, observability) subscribe to receive setup and audit
// outcomes; publishing never blocks the core.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[EventType][]Subscriber),
		allSubs:     make([]Subscriber, 0),
	}
}

// Subscribe registers a subscriber for a specific event type
func (b *Bus) Subscribe(eventType EventType, subscriber Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers[eventType] = append(b.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for all events
func (b *Bus) SubscribeAll(subscriber Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.allSubs = append(b.allSubs, subscriber)
}

// Publish sends an event to all subscribers. Each subscriber runs in its
// own goroutine so a slow consumer cannot stall an audit or analysis call.
// Publish on a nil bus is a no-op.
func (b *Bus) Publish(event Event) {
	if b == nil {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if subs, ok := b.subscribers[event.Type]; ok {
		for _, sub := range subs {
			go sub(event)
		}
	}
	for _, sub := range b.allSubs {
		go sub(event)
	}
}

// PublishSetupGenerated publishes a setup generated event
func (b *Bus) PublishSetupGenerated(symbol, direction string, entry, stop, target, quality float64) {
	b.Publish(Event{
		Type: EventSetupGenerated,
		Data: map[string]interface{}{
			"symbol":        symbol,
			"direction":     direction,
			"entry_price":   entry,
			"stop_loss":     stop,
			"target_price":  target,
			"quality_score": quality,
		},
	})
}

// PublishAuditCompleted publishes an audit completed event
func (b *Bus) PublishAuditCompleted(symbol, firewallCode, rating string, allowed bool) {
	b.Publish(Event{
		Type: EventAuditCompleted,
		Data: map[string]interface{}{
			"symbol":        symbol,
			"firewall_code": firewallCode,
			"risk_rating":   rating,
			"allowed":       allowed,
		},
	})
}

// PublishKillSwitchActivated publishes a kill switch activation event
func (b *Bus) PublishKillSwitchActivated(reason string) {
	b.Publish(Event{
		Type: EventKillSwitchActivated,
		Data: map[string]interface{}{
			"reason": reason,
		},
	})
}

// PublishKillSwitchDeactivated publishes a kill switch deactivation event
func (b *Bus) PublishKillSwitchDeactivated() {
	b.Publish(Event{
		Type: EventKillSwitchDeactivated,
		Data: map[string]interface{}{},
	})
}

// PublishRiskStateReset publishes a risk state reset event
func (b *Bus) PublishRiskStateReset(scope string) {
	b.Publish(Event{
		Type: EventRiskStateReset,
		Data: map[string]interface{}{
			"scope": scope,
		},
	})
}
