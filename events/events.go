package events

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"scratchtrack/models"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeReadingRecorded  EventType = "reading_recorded"
	EventTypeAnomalyDetected  EventType = "anomaly_detected"
	EventTypePackSoldOut      EventType = "pack_sold_out"
	EventTypeInstantDayLocked EventType = "instant_day_locked"
	EventTypeCommissionPosted EventType = "commission_posted"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// ReadingRecordedEvent represents an accepted pack reading
type ReadingRecordedEvent struct {
	ReadingID    int64
	StoreID      int64
	PackID       int64
	TicketNumber int
	SoldDelta    int
}

func (e ReadingRecordedEvent) Type() EventType {
	return EventTypeReadingRecorded
}

// AnomalyDetectedEvent represents a new anomaly awaiting review
type AnomalyDetectedEvent struct {
	AnomalyID   int64
	StoreID     int64
	PackID      int64
	AnomalyType models.AnomalyType
	Severity    models.AnomalySeverity
}

func (e AnomalyDetectedEvent) Type() EventType {
	return EventTypeAnomalyDetected
}

// PackSoldOutEvent represents a pack reaching its last sellable ticket
type PackSoldOutEvent struct {
	PackID  int64
	StoreID int64
}

func (e PackSoldOutEvent) Type() EventType {
	return EventTypePackSoldOut
}

// InstantDayLockedEvent represents a store-date aggregate being frozen
type InstantDayLockedEvent struct {
	StoreID  int64
	Date     time.Time
	LockedBy int64
}

func (e InstantDayLockedEvent) Type() EventType {
	return EventTypeInstantDayLocked
}

// CommissionPostedEvent represents a successful GL posting for a store-date
type CommissionPostedEvent struct {
	StoreID         int64
	Date            time.Time
	EntryID         string
	TotalCommission decimal.Decimal
}

func (e CommissionPostedEvent) Type() EventType {
	return EventTypeCommissionPosted
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Handlers run asynchronously to avoid blocking the caller
	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus stashes events published during a unit of work and
// flushes them to the real bus only after the database commit succeeds.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

// NewTransactionalBus creates a transactional bus backed by a real bus
func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish stashes an event until Flush or Discard
func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events; called after a successful commit.
// A background context is used so event handling outlives the
// request-scoped transaction context.
func (b *TransactionalBus) Flush(ctx context.Context) {
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops pending events; called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
