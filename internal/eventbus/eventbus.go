// Package eventbus implements C8: callback registration with
// add/replace/delete semantics and coalesced event emission for the
// catalog's external subscribers (spec §4.4 step 4, §6 "Events emitted
// to subscribers").
//
// The teacher re-exports a sibling digital.vasic.eventbus module
// behind type aliases (internal/eventbus/eventbus.go); that module is
// not present in the retrieved pack, so this is a native
// reimplementation of the same pub/sub shape rather than
// a reuse of the original package (see DESIGN.md).
package eventbus

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// EventType is a topic name, e.g. "database", "queue".
type EventType string

// Listener event types spec §6 names.
const (
	EventDatabase EventType = "database"
	EventUpdate   EventType = "update"
	EventQueue    EventType = "queue"
	EventRating   EventType = "rating"
	EventPairing  EventType = "pairing"
	EventSpotify  EventType = "spotify"
)

// Event is a single published occurrence.
type Event struct {
	Type    EventType
	Source  string
	Payload interface{}
}

// Handler receives delivered events. Handlers run synchronously on the
// publishing goroutine's behalf via a dedicated dispatch goroutine, so
// a slow handler only delays other subscribers, never the publisher.
type Handler func(Event)

// Filter returns true when an event should be delivered to a handler.
type Filter func(Event) bool

// subscription is a registered (possibly filtered) handler.
type subscription struct {
	id      int64
	evType  EventType
	handler Handler
	filter  Filter
}

// Bus is the in-process publish/subscribe registry. Subscribe/Replace/
// Unsubscribe are add/replace/delete per spec §4.4's "Scheduler hooks"
// wording; Publish enqueues onto a bounded channel served by one
// dispatch goroutine so publishers never block on slow subscribers
// beyond the queue's capacity.
type Bus struct {
	logger *zap.Logger

	mu   sync.RWMutex
	subs map[EventType][]subscription
	next int64

	queue   chan Event
	stopCh  chan struct{}
	wg      sync.WaitGroup
	started int32
}

// New creates a Bus with a bounded dispatch queue. Call Start before
// publishing and Stop during shutdown.
func New(logger *zap.Logger, queueSize int) *Bus {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Bus{
		logger: logger,
		subs:   make(map[EventType][]subscription),
		queue:  make(chan Event, queueSize),
		stopCh: make(chan struct{}),
	}
}

// Start launches the dispatch goroutine. Safe to call once.
func (b *Bus) Start() {
	if !atomic.CompareAndSwapInt32(&b.started, 0, 1) {
		return
	}
	b.wg.Add(1)
	go b.dispatchLoop()
}

// Stop delivers any events already queued, then waits for the dispatch
// goroutine to exit (spec §5 "Clean shutdown").
func (b *Bus) Stop() {
	if !atomic.CompareAndSwapInt32(&b.started, 1, 2) {
		return
	}
	close(b.stopCh)
	b.wg.Wait()
}

func (b *Bus) dispatchLoop() {
	defer b.wg.Done()
	for {
		select {
		case ev := <-b.queue:
			b.deliver(ev)
		case <-b.stopCh:
			// Drain whatever is already queued before exiting.
			for {
				select {
				case ev := <-b.queue:
					b.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) deliver(ev Event) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[ev.Type]...)
	b.mu.RUnlock()

	for _, s := range subs {
		if s.filter != nil && !s.filter(ev) {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("eventbus: handler panicked", zap.Any("recover", r), zap.String("event_type", string(ev.Type)))
				}
			}()
			s.handler(ev)
		}()
	}
}

// Publish enqueues ev for delivery. If the dispatch queue is full, the
// event is dropped and logged at WARN rather than blocking the
// publisher (the publisher is frequently the library/queue thread,
// which must not stall on a slow subscriber).
func (b *Bus) Publish(ev Event) {
	select {
	case b.queue <- ev:
	default:
		b.logger.Warn("eventbus: queue full, dropping event", zap.String("event_type", string(ev.Type)))
	}
}

// Subscribe registers handler for evType, returning a subscription id
// usable with Unsubscribe.
func (b *Bus) Subscribe(evType EventType, filter Filter, handler Handler) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	id := b.next
	b.subs[evType] = append(b.subs[evType], subscription{id: id, evType: evType, handler: handler, filter: filter})
	return id
}

// Replace removes id (if present) and subscribes handler in its place,
// returning the new subscription id. Matches spec §4.4's "add/replace/
// delete semantics" for callback registration.
func (b *Bus) Replace(id int64, evType EventType, filter Filter, handler Handler) int64 {
	b.Unsubscribe(id)
	return b.Subscribe(evType, filter, handler)
}

// Unsubscribe removes a previously registered subscription by id. A
// miss is a no-op.
func (b *Bus) Unsubscribe(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for evType, subs := range b.subs {
		for i, s := range subs {
			if s.id == id {
				b.subs[evType] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}
