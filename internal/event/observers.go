// Package event provides explicit observer registration with release handles
package event

import "sync"

// Subscription is the handle returned by Subscribe. Release removes the observer.
type Subscription struct {
	once    sync.Once
	release func()
}

// Release unregisters the observer. Safe to call more than once.
func (s *Subscription) Release() {
	if s == nil {
		return
	}
	s.once.Do(s.release)
}

type observer[T any] struct {
	id int
	fn func(T)
}

// Observers is a list of callbacks notified in subscription order
type Observers[T any] struct {
	mu     sync.Mutex
	nextID int
	list   []observer[T]
}

// Subscribe registers fn and returns the handle that removes it
func (o *Observers[T]) Subscribe(fn func(T)) *Subscription {
	o.mu.Lock()
	o.nextID++
	id := o.nextID
	o.list = append(o.list, observer[T]{id: id, fn: fn})
	o.mu.Unlock()

	return &Subscription{release: func() { o.remove(id) }}
}

func (o *Observers[T]) remove(id int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, obs := range o.list {
		if obs.id == id {
			o.list = append(o.list[:i:i], o.list[i+1:]...)
			return
		}
	}
}

// Publish calls every current observer with v. Observers run outside the lock,
// so they may subscribe or release during delivery.
func (o *Observers[T]) Publish(v T) {
	o.mu.Lock()
	snapshot := make([]observer[T], len(o.list))
	copy(snapshot, o.list)
	o.mu.Unlock()

	for _, obs := range snapshot {
		obs.fn(v)
	}
}

// Len returns the number of registered observers
func (o *Observers[T]) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.list)
}
