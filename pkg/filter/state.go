package filter

import "sync"

// State holds the live browse criteria and notifies subscribers whenever the
// criteria actually change. All methods are safe for concurrent use.
//
// Subscriber callbacks run synchronously on the mutating goroutine, after the
// mutation has been committed, so every callback observes the state it was
// notified about via its argument.
type State struct {
	mu      sync.Mutex
	current Criteria
	subs    map[int]func(Criteria)
	nextID  int
}

// NewState returns a State with empty criteria.
func NewState() *State {
	return &State{}
}

// NewStateWith returns a State seeded with the supplied criteria.
func NewStateWith(c Criteria) *State {
	return &State{current: c}
}

// Current returns a snapshot of the present criteria.
func (s *State) Current() Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Toggle flips the presence of token and returns the resulting snapshot.
// Toggling an empty token leaves the state untouched and notifies nobody.
func (s *State) Toggle(token string) Criteria {
	return s.apply(func(c Criteria) Criteria {
		return c.Toggle(token)
	})
}

// SetSearch replaces the search query and returns the resulting snapshot.
// Setting the query to its current value notifies nobody.
func (s *State) SetSearch(query string) Criteria {
	return s.apply(func(c Criteria) Criteria {
		return c.WithSearch(query)
	})
}

// Clear resets tokens and search together. Subscribers observe the reset as
// a single notification, never an intermediate state with only one of the
// two fields cleared.
func (s *State) Clear() Criteria {
	return s.apply(func(c Criteria) Criteria {
		return Criteria{}
	})
}

// Replace swaps in a fully formed criteria, e.g. one restored from a saved
// browse session.
func (s *State) Replace(c Criteria) Criteria {
	return s.apply(func(Criteria) Criteria {
		return c
	})
}

// Subscribe registers fn to run after every effective change. The returned
// cancel function removes the subscription; it is safe to call more than
// once.
func (s *State) Subscribe(fn func(Criteria)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	if s.subs == nil {
		s.subs = make(map[int]func(Criteria))
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *State) apply(mutate func(Criteria) Criteria) Criteria {
	s.mu.Lock()
	next := mutate(s.current)
	if next.Equal(s.current) {
		cur := s.current
		s.mu.Unlock()
		return cur
	}
	s.current = next
	fns := make([]func(Criteria), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
	return next
}
