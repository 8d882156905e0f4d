package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lise-project/lise-desktop/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventAgentStatus EventType = "agent_status" // Agent liveness or state changed
	EventScenario    EventType = "scenario"     // Scenario started/stopped/failed
	EventScenarioLog EventType = "scenario_log" // One scenario log line
	EventConsoleLog  EventType = "console_log"  // One console log line (GUI mirror)
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// AgentStatusEvent carries the agent's state as seen by the status poller.
// Running false means the poll failed; the remaining fields are then zero.
type AgentStatusEvent struct {
	BaseEvent
	Running        bool
	Connected      bool
	DisplayName    string
	OrchestratorIP string
	Scenario       string
	StatusMessage  string
}

// ScenarioAction describes what happened to a scenario.
type ScenarioAction string

const (
	ScenarioStarted ScenarioAction = "started"
	ScenarioStopped ScenarioAction = "stopped"
)

// ScenarioEvent represents scenario lifecycle transitions
type ScenarioEvent struct {
	BaseEvent
	Action ScenarioAction
	Name   string
}

// ScenarioLogEvent carries one log line from the running scenario
type ScenarioLogEvent struct {
	BaseEvent
	Line string
}

// ConsoleLogEvent carries one rendered line from the console's own logger
type ConsoleLogEvent struct {
	BaseEvent
	Line string
}

// NewConsoleLogEvent builds a ConsoleLogEvent stamped with the current time.
func NewConsoleLogEvent(line string) *ConsoleLogEvent {
	return &ConsoleLogEvent{
		BaseEvent: BaseEvent{EventType: EventConsoleLog, Time: time.Now()},
		Line:      line,
	}
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers (non-blocking)
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	// Send to specific type subscribers
	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
			// Successfully sent
		default:
			// Channel full - event dropped
			eb.droppedEvents.Add(1)
		}
	}

	// Send to all-events subscribers
	for _, ch := range eb.all {
		select {
		case ch <- event:
			// Successfully sent
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}

	for _, ch := range eb.all {
		close(ch)
	}
}

// PublishScenario is a convenience method for publishing scenario transitions
func (eb *EventBus) PublishScenario(action ScenarioAction, name string) {
	eb.Publish(&ScenarioEvent{
		BaseEvent: BaseEvent{
			EventType: EventScenario,
			Time:      time.Now(),
		},
		Action: action,
		Name:   name,
	})
}

// PublishScenarioLog is a convenience method for publishing scenario log lines
func (eb *EventBus) PublishScenarioLog(line string) {
	eb.Publish(&ScenarioLogEvent{
		BaseEvent: BaseEvent{
			EventType: EventScenarioLog,
			Time:      time.Now(),
		},
		Line: line,
	})
}

// Unsubscribe removes a subscription channel from a specific event type
// This prevents memory leaks from abandoned subscriptions
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	subscribers := eb.subscribers[eventType]
	for i, subCh := range subscribers {
		if subCh == ch {
			// Remove channel by replacing with last element and truncating
			subscribers[i] = subscribers[len(subscribers)-1]
			eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
			break
		}
	}
}

// GetDroppedEventCount returns the total number of events dropped due to full buffers
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}
