package walker

import (
	"sync"
	"time"

	"github.com/abaveja313/treedex/pkg/types"
)

// EventKind identifies the notification types a scan publishes.
type EventKind string

const (
	// EventFile fires once per emitted entry (files and directories).
	EventFile EventKind = "file"

	// EventProgress fires after each emitted entry with the running count.
	EventProgress EventKind = "progress"

	// EventError fires once per recoverable entry access failure.
	EventError EventKind = "error"

	// EventComplete fires exactly once when a scan finishes naturally.
	// It never fires after cancellation or a fatal error.
	EventComplete EventKind = "complete"
)

// Event is the payload delivered to subscribed handlers. Fields are
// populated according to Kind.
type Event struct {
	Kind EventKind

	// Entry is set for EventFile.
	Entry types.FileEntry

	// Processed is the running entry count (EventProgress, EventComplete).
	Processed int

	// Path is the current entry path (EventProgress) or the failing path
	// (EventError).
	Path string

	// Err is set for EventError; always an *types.EntryAccessError.
	Err error

	// Duration is the total scan time (EventComplete), floored at 1ms.
	Duration time.Duration
}

// emitter is a minimal publish-subscribe hub with handle-based
// unsubscription. Handlers run synchronously on the emitting goroutine;
// the walker only emits from the goroutine driving the scan, so handlers
// never run concurrently with each other.
type emitter struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[EventKind]map[int]func(Event)
}

func newEmitter() *emitter {
	return &emitter{handlers: make(map[EventKind]map[int]func(Event))}
}

// subscribe registers a handler and returns its unsubscribe function.
func (e *emitter) subscribe(kind EventKind, fn func(Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	if e.handlers[kind] == nil {
		e.handlers[kind] = make(map[int]func(Event))
	}
	e.handlers[kind][id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.handlers[kind], id)
	}
}

// emit delivers ev to every handler subscribed to its kind. The handler
// list is snapshotted so a handler may unsubscribe itself.
func (e *emitter) emit(ev Event) {
	e.mu.RLock()
	fns := make([]func(Event), 0, len(e.handlers[ev.Kind]))
	for _, fn := range e.handlers[ev.Kind] {
		fns = append(fns, fn)
	}
	e.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
