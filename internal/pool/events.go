package pool

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type EventType string

const (
	EventJobQueued            EventType = "job_queued"
	EventJobProcessing        EventType = "job_processing"
	EventJobCompleted         EventType = "job_completed"
	EventJobFailed            EventType = "job_failed"
	EventPrinterAdded         EventType = "printer_added"
	EventPrinterRemoved       EventType = "printer_removed"
	EventPrinterStatusChanged EventType = "printer_status_changed"
	EventQueueCleared         EventType = "queue_cleared"
)

// Event is an immutable record of one pool state transition. Events are
// fire-and-forget: no persistence, no replay.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	PrinterID string         `json:"printer_id,omitempty"`
	JobID     string         `json:"job_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

type listenerHandle struct {
	id int
	fn func(Event)
}

// Bus fans events out to subscribed listeners. A listener that panics is
// logged and skipped; it never blocks the emitter or its peers.
type Bus struct {
	mu        sync.Mutex
	nextID    int
	listeners []listenerHandle
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns its unsubscribe function.
func (b *Bus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, listenerHandle{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, h := range b.listeners {
			if h.id == id {
				b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers ev to every listener registered at call time.
func (b *Bus) Emit(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	b.mu.Lock()
	handles := make([]listenerHandle, len(b.listeners))
	copy(handles, b.listeners)
	b.mu.Unlock()

	for _, h := range handles {
		b.deliver(h, ev)
	}
}

func (b *Bus) deliver(h listenerHandle, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"event":    ev.Type,
				"listener": h.id,
				"panic":    r,
			}).Error("Event listener panicked")
		}
	}()
	h.fn(ev)
}
