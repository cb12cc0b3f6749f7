package messaging

import (
	"context"
	"sync"
)

// InMemoryStore keeps chat messages in memory for tests and local runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	threads map[string][]*Message // conversationID -> messages
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{threads: make(map[string][]*Message)}
}

// Append stores a copy of the message.
func (s *InMemoryStore) Append(ctx context.Context, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *msg
	s.threads[msg.ConversationID] = append(s.threads[msg.ConversationID], &clone)
	return nil
}

// List returns copies of a conversation's messages oldest first.
func (s *InMemoryStore) List(ctx context.Context, conversationID string) ([]*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	thread := s.threads[conversationID]
	msgs := make([]*Message, 0, len(thread))
	for _, msg := range thread {
		clone := *msg
		clone.DeletedBy = append([]string(nil), msg.DeletedBy...)
		msgs = append(msgs, &clone)
	}
	sortMessages(msgs)
	return msgs, nil
}

// MarkDeleted adds the uid to the message's deletedBy set.
func (s *InMemoryStore) MarkDeleted(ctx context.Context, conversationID, messageID, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range s.threads[conversationID] {
		if msg.ID != messageID {
			continue
		}
		if !msg.DeletedFor(uid) {
			msg.DeletedBy = append(msg.DeletedBy, uid)
		}
		return nil
	}
	return ErrMessageNotFound
}
