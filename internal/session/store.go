package session

import (
	"sort"

	"github.com/passdrive/passdrive-cli/internal/api"
)

// Store holds the ordered, deduplicated message view for the active
// conversation. It is confined to the synchronizer's goroutine and therefore
// unlocked.
type Store struct {
	msgs  []api.Message
	index map[string]int // message id -> position in msgs
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// Merge appends messages not already present, keyed by id, and returns only
// the newly added ones in input order. Applying the same batch twice is a
// no-op, which makes snapshot-then-frames layering and broker redelivery
// safe.
func (s *Store) Merge(msgs []api.Message) []api.Message {
	var added []api.Message
	for _, m := range msgs {
		if m.ID == "" {
			continue
		}
		if _, exists := s.index[m.ID]; exists {
			continue
		}
		s.index[m.ID] = len(s.msgs)
		s.msgs = append(s.msgs, m)
		added = append(added, m)
	}
	if len(added) > 0 {
		s.reorder()
	}
	return added
}

// reorder sorts by timestamp, keeping insertion order for equal timestamps.
func (s *Store) reorder() {
	sort.SliceStable(s.msgs, func(i, j int) bool {
		return s.msgs[i].Timestamp.Before(s.msgs[j].Timestamp)
	})
	for i, m := range s.msgs {
		s.index[m.ID] = i
	}
}

// ReplaceOptimistic swaps the placeholder message with the server's durable
// version, keeping its display position. Returns false if no message with
// localID exists or the server id is already present.
func (s *Store) ReplaceOptimistic(localID string, server api.Message) bool {
	i, ok := s.index[localID]
	if !ok {
		return false
	}
	if _, dup := s.index[server.ID]; dup {
		return false
	}
	s.msgs[i] = server
	delete(s.index, localID)
	s.index[server.ID] = i
	return true
}

// Remove deletes a message by id. Used to roll back a failed optimistic send.
func (s *Store) Remove(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.msgs = append(s.msgs[:i], s.msgs[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.msgs); j++ {
		s.index[s.msgs[j].ID] = j
	}
	return true
}

// Contains reports whether a message id is present.
func (s *Store) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Messages returns a copy of the current view in display order.
func (s *Store) Messages() []api.Message {
	out := make([]api.Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// Len returns the number of messages in the view.
func (s *Store) Len() int { return len(s.msgs) }

// Clear empties the store. Called on conversation switch so views never leak
// across conversations.
func (s *Store) Clear() {
	s.msgs = nil
	s.index = make(map[string]int)
}
