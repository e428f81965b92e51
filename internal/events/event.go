// Package events provides domain event definitions and the in-memory bus
// used for decoupled communication between modules.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is the base interface all domain events must implement.
type Event interface {
	// EventName returns a unique identifier for the event type.
	EventName() string
	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent creates a new base event with the current timestamp.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler processes events of a specific type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc is an adapter to allow ordinary functions to be used as handlers.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls the underlying function.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus is the interface for publishing and subscribing to domain events.
type Bus interface {
	// Publish sends an event to all registered handlers for that event type.
	// Handlers run asynchronously.
	Publish(ctx context.Context, event Event)
	// Subscribe registers a handler for a specific event type.
	Subscribe(eventName string, handler Handler)
}

// =============================================================================
// Auth Domain Events
// =============================================================================

// UserRegistered is published when a new user successfully registers.
type UserRegistered struct {
	BaseEvent
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
}

func (e UserRegistered) EventName() string { return "auth.user.registered" }

// =============================================================================
// Chat Domain Events
// =============================================================================

// EstimateCreated is published when a validated estimate is persisted.
// MissingCategories lists canonical categories the retriever found no
// candidates for, so catalog gaps can be tracked.
type EstimateCreated struct {
	BaseEvent
	SessionID         uuid.UUID `json:"sessionId"`
	UserID            uuid.UUID `json:"userId"`
	EstimateID        uuid.UUID `json:"estimateId"`
	UserInput         string    `json:"userInput"`
	ComponentCount    int       `json:"componentCount"`
	TotalPrice        int64     `json:"totalPrice"`
	MissingCategories []string  `json:"missingCategories"`
}

func (e EstimateCreated) EventName() string { return "chat.estimate.created" }
