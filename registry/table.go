package registry

import (
	"errors"
	"sync"
)

var (
	ErrClosed      = errors.New("instance registry closed")
	ErrLiveEntries = errors.New("instance registry has live entries")
)

// Handle is an opaque reference to a tracked instance.
// Handle 0 is reserved and always invalid.
type Handle uint32

// EventType identifies instance lifecycle events.
type EventType uint8

const (
	EventCreated EventType = iota
	EventFreed
)

// Event is one instance lifecycle notification.
type Event struct {
	Value  any
	Handle Handle
	Type   EventType
}

// Observer receives notifications about instance lifecycle events.
type Observer interface {
	OnInstanceEvent(Event)
}

// Table is a concurrency-safe handle table of live instances.
type Table struct {
	entries   []entry
	freeList  []Handle
	observers []Observer
	mu        sync.RWMutex
	closed    bool
}

type entry struct {
	value any
	valid bool
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		entries:  make([]entry, 0, 8),
		freeList: make([]Handle, 0, 4),
	}
}

// Insert adds a value and returns its handle, or 0 if the table is closed.
func (t *Table) Insert(value any) Handle {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0
	}

	e := entry{value: value, valid: true}
	var handle Handle
	if n := len(t.freeList); n > 0 {
		handle = t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		t.entries[handle-1] = e
	} else {
		t.entries = append(t.entries, e)
		handle = Handle(len(t.entries))
	}
	t.mu.Unlock()

	t.notify(Event{Type: EventCreated, Handle: handle, Value: value})
	return handle
}

// Get retrieves a value by handle.
func (t *Table) Get(handle Handle) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.validLocked(handle) {
		return nil, false
	}
	return t.entries[handle-1].value, true
}

// Remove drops an entry and returns (value, true) if it was live.
func (t *Table) Remove(handle Handle) (any, bool) {
	t.mu.Lock()
	if !t.validLocked(handle) {
		t.mu.Unlock()
		return nil, false
	}
	value := t.entries[handle-1].value
	t.entries[handle-1] = entry{}
	t.freeList = append(t.freeList, handle)
	t.mu.Unlock()

	t.notify(Event{Type: EventFreed, Handle: handle, Value: value})
	return value, true
}

// Len returns the number of live entries.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, e := range t.entries {
		if e.valid {
			n++
		}
	}
	return n
}

// Live returns the values of all live entries in handle order.
func (t *Table) Live() []any {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []any
	for _, e := range t.entries {
		if e.valid {
			out = append(out, e.value)
		}
	}
	return out
}

// Close marks the table closed. It fails if entries are still live; the
// caller must dispose of every instance first.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.entries {
		if e.valid {
			return ErrLiveEntries
		}
	}
	t.closed = true
	return nil
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

func (t *Table) notify(e Event) {
	t.mu.RLock()
	obs := make([]Observer, len(t.observers))
	copy(obs, t.observers)
	t.mu.RUnlock()
	for _, o := range obs {
		o.OnInstanceEvent(e)
	}
}

func (t *Table) validLocked(handle Handle) bool {
	return handle != 0 && int(handle) <= len(t.entries) && t.entries[handle-1].valid
}
