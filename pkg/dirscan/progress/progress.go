// Package progress delivers scan progress and completion events to any
// number of observers.
//
// Callback observers run synchronously on the goroutine that emits the event,
// in registration order. Channel subscribers receive events through a
// buffered channel; when a subscriber falls behind, events are dropped rather
// than stalling the scan.
package progress

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jamesainslie/dirscan/pkg/dirscan/types"
)

// EventType identifies the kind of event.
type EventType int

const (
	// EventProgress carries updated counters.
	EventProgress EventType = iota
	// EventFinished marks the end of a scan or a load.
	EventFinished
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventProgress:
		return "progress"
	case EventFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Source identifies where a tree came from.
type Source string

const (
	// SourceScan is a live filesystem scan.
	SourceScan Source = "scan"
	// SourceLoad is a tree restored from a saved file.
	SourceLoad Source = "load"
)

// Event is a progress or completion notification.
type Event struct {
	Type  EventType
	Stats types.ScanStats

	// The fields below are only set on EventFinished.

	// Root is the scanned directory or the root path of the loaded tree.
	Root   string
	Source Source

	// Truncated is true when the scan was cancelled before it completed.
	Truncated bool

	// Err is set when the scan could not produce a tree at all.
	Err error
}

// DefaultBufferSize is the channel capacity given to each subscriber.
const DefaultBufferSize = 100

// Subscriber receives events over a channel.
type Subscriber struct {
	ID     string
	Events chan Event
}

type progressFunc struct {
	id string
	fn func(types.ScanStats)
}

type finishedFunc struct {
	id string
	fn func(Event)
}

// Reporter fans events out to callbacks and channel subscribers.
type Reporter struct {
	mu          sync.RWMutex
	onProgress  []progressFunc
	onFinished  []finishedFunc
	subscribers map[string]*Subscriber
	closed      bool
}

// New creates a Reporter with no observers.
func New() *Reporter {
	return &Reporter{
		subscribers: make(map[string]*Subscriber),
	}
}

// OnProgress registers fn for progress events and returns a function that
// removes it again.
func (r *Reporter) OnProgress(fn func(types.ScanStats)) (unregister func()) {
	id := uuid.New().String()

	r.mu.Lock()
	r.onProgress = append(r.onProgress, progressFunc{id: id, fn: fn})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, p := range r.onProgress {
			if p.id == id {
				r.onProgress = append(r.onProgress[:i:i], r.onProgress[i+1:]...)
				return
			}
		}
	}
}

// OnFinished registers fn for finished events and returns a function that
// removes it again. fn runs synchronously on the goroutine that calls
// Finished, which for a scanner.Controller is the scan worker before it
// exits: fn must not wait for that scan to end, and a new scan has to be
// started from another goroutine.
func (r *Reporter) OnFinished(fn func(Event)) (unregister func()) {
	id := uuid.New().String()

	r.mu.Lock()
	r.onFinished = append(r.onFinished, finishedFunc{id: id, fn: fn})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, f := range r.onFinished {
			if f.id == id {
				r.onFinished = append(r.onFinished[:i:i], r.onFinished[i+1:]...)
				return
			}
		}
	}
}

// Subscribe creates a channel subscription. It returns nil after Close.
func (r *Reporter) Subscribe() *Subscriber {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	sub := &Subscriber{
		ID:     uuid.New().String(),
		Events: make(chan Event, DefaultBufferSize),
	}
	r.subscribers[sub.ID] = sub
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (r *Reporter) Unsubscribe(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sub, ok := r.subscribers[id]; ok {
		close(sub.Events)
		delete(r.subscribers, id)
	}
}

// Progress emits a progress event.
func (r *Reporter) Progress(stats types.ScanStats) {
	r.mu.RLock()
	callbacks := make([]progressFunc, len(r.onProgress))
	copy(callbacks, r.onProgress)
	r.mu.RUnlock()

	for _, cb := range callbacks {
		cb.fn(stats)
	}
	r.send(Event{Type: EventProgress, Stats: stats})
}

// Finished emits a finished event. The Type field is set by the reporter.
func (r *Reporter) Finished(ev Event) {
	ev.Type = EventFinished

	r.mu.RLock()
	callbacks := make([]finishedFunc, len(r.onFinished))
	copy(callbacks, r.onFinished)
	r.mu.RUnlock()

	for _, cb := range callbacks {
		cb.fn(ev)
	}
	r.send(ev)
}

// send delivers ev to channel subscribers without blocking.
func (r *Reporter) send(ev Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return
	}

	for _, sub := range r.subscribers {
		select {
		case sub.Events <- ev:
		default:
			// Subscriber is behind; drop the event.
		}
	}
}

// Close closes every subscription. Callbacks stay registered.
func (r *Reporter) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	r.closed = true
	for id, sub := range r.subscribers {
		close(sub.Events)
		delete(r.subscribers, id)
	}
}

// SubscriberCount returns the number of active channel subscribers.
func (r *Reporter) SubscriberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers)
}
