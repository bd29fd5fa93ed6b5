// ABOUTME: Append-only conversation store with copy-on-write snapshots
// ABOUTME: The only mutation is Append; earlier snapshots never observe later writes

package transcript

import "sync"

// Store holds the ordered transcript of one session.
type Store struct {
	mu       sync.RWMutex
	messages []Message
}

// NewStore creates an empty transcript.
func NewStore() *Store {
	return &Store{}
}

// Append adds msg to the end of the transcript and returns the new snapshot.
// The previous snapshot is left untouched.
func (s *Store) Append(msg Message) ([]Message, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Message, len(s.messages), len(s.messages)+1)
	copy(next, s.messages)
	next = append(next, msg)
	s.messages = next
	return next, nil
}

// Messages returns the current snapshot. Callers must not modify it.
func (s *Store) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.messages
}

// Len returns the number of messages appended so far.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
