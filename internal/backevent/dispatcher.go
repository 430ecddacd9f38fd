// Package backevent dispatches the platform "back" signal to prioritised handlers
package backevent

import (
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// DefaultPriority runs after every handler registered with an explicit priority
const DefaultPriority = math.MaxInt

// Event is passed to each handler in turn. Setting Handled stops dispatch.
type Event struct {
	Handled bool
}

// Handler reacts to a back event
type Handler func(e *Event)

// Source is an underlying platform signal, e.g. one per top-level window
type Source interface {
	// Subscribe registers fn and returns a func that removes it
	Subscribe(fn func(*Event)) (cancel func())
}

// Registration is the handle returned by Observe
type Registration struct {
	ID       string
	Priority int

	once    sync.Once
	release func()
}

// Release removes the handler from its source's list. Safe to call more than once.
func (r *Registration) Release() {
	if r == nil {
		return
	}
	r.once.Do(r.release)
}

type entry struct {
	id       string
	seq      uint64
	priority int
	handler  Handler
}

type handlerList struct {
	entries []entry
	cancel  func()
}

// Dispatcher keeps an independent ordered handler list per Source
type Dispatcher struct {
	mu    sync.Mutex
	seq   uint64
	lists map[Source]*handlerList
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		lists: make(map[Source]*handlerList),
	}
}

// Observe registers handler on src. Lower priorities run first; equal priorities
// run in registration order.
func (d *Dispatcher) Observe(src Source, handler Handler, priority int) *Registration {
	d.mu.Lock()
	d.seq++
	e := entry{
		id:       uuid.New().String(),
		seq:      d.seq,
		priority: priority,
		handler:  handler,
	}

	list, ok := d.lists[src]
	if !ok {
		list = &handlerList{}
		d.lists[src] = list
	}
	list.entries = append(list.entries, e)
	sort.SliceStable(list.entries, func(i, j int) bool {
		a, b := list.entries[i], list.entries[j]
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		return a.seq < b.seq
	})
	subscribe := !ok
	d.mu.Unlock()

	// Subscribe outside the lock: a source may fire synchronously.
	if subscribe {
		cancel := src.Subscribe(func(ev *Event) { d.dispatch(src, ev) })
		d.mu.Lock()
		if current, ok := d.lists[src]; ok && current == list {
			list.cancel = cancel
			cancel = nil
		}
		d.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	}

	return &Registration{
		ID:       e.id,
		Priority: priority,
		release:  func() { d.remove(src, e.id) },
	}
}

func (d *Dispatcher) remove(src Source, id string) {
	d.mu.Lock()
	list, ok := d.lists[src]
	if !ok {
		d.mu.Unlock()
		return
	}
	for i, e := range list.entries {
		if e.id == id {
			list.entries = append(list.entries[:i:i], list.entries[i+1:]...)
			break
		}
	}

	var cancel func()
	if len(list.entries) == 0 {
		delete(d.lists, src)
		cancel = list.cancel
	}
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// dispatch invokes handlers in order until one marks the event handled
func (d *Dispatcher) dispatch(src Source, ev *Event) {
	d.mu.Lock()
	list, ok := d.lists[src]
	if !ok {
		d.mu.Unlock()
		return
	}
	snapshot := make([]entry, len(list.entries))
	copy(snapshot, list.entries)
	d.mu.Unlock()

	for _, e := range snapshot {
		if ev.Handled {
			return
		}
		e.handler(ev)
	}
}

// Count returns the number of live handlers on src
func (d *Dispatcher) Count(src Source) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if list, ok := d.lists[src]; ok {
		return len(list.entries)
	}
	return 0
}
