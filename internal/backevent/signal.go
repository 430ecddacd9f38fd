package backevent

import "sync"

// Signal is an in-process Source. Platform adapters call Fire when the user
// presses back (gamepad B, Escape, a remote's back key).
type Signal struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(*Event)
	order  []int
}

// NewSignal creates a signal with no subscribers
func NewSignal() *Signal {
	return &Signal{subs: make(map[int]func(*Event))}
}

// Subscribe implements Source
func (s *Signal) Subscribe(fn func(*Event)) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = fn
	s.order = append(s.order, id)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Fire delivers a new event to every subscriber and reports whether any
// handler marked it handled.
func (s *Signal) Fire() bool {
	s.mu.Lock()
	fns := make([]func(*Event), 0, len(s.order))
	for _, id := range s.order {
		fns = append(fns, s.subs[id])
	}
	s.mu.Unlock()

	ev := &Event{}
	for _, fn := range fns {
		fn(ev)
	}
	return ev.Handled
}

// Subscribers returns the number of live subscriptions
func (s *Signal) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
