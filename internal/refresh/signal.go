package refresh

import "sync"

// Signal is a versioned invalidation trigger. Subscribers are told the new
// version each time Bump is called and refetch their data.
type Signal struct {
	mu      sync.Mutex
	version uint64
	nextID  int
	subs    map[int]chan uint64
}

// NewSignal returns a Signal at version zero.
func NewSignal() *Signal {
	return &Signal{subs: make(map[int]chan uint64)}
}

// Version returns the current version.
func (s *Signal) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Bump increments the version and notifies subscribers. A subscriber that has
// not consumed the previous value only sees the latest version.
func (s *Signal) Bump() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s.version
	}
	return s.version
}

// Subscribe returns a channel of versions and a func that unsubscribes.
func (s *Signal) Subscribe() (<-chan uint64, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	ch := make(chan uint64, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}
