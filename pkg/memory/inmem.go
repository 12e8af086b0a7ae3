package memory

import (
	"context"
	"sort"
	"sync"
)

// InMemory is a Store for tests and ephemeral runs. Safe for concurrent use.
type InMemory struct {
	mu    sync.Mutex
	chats map[string][]Message
	calls map[string][]CallRecord
}

// NewInMemory creates an empty in-process store.
func NewInMemory() *InMemory {
	return &InMemory{
		chats: map[string][]Message{},
		calls: map[string][]CallRecord{},
	}
}

func (s *InMemory) Append(_ context.Context, agentID string, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[agentID] = trim(append(s.chats[agentID], msgs...))
	return nil
}

func (s *InMemory) History(_ context.Context, agentID string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message{}, s.chats[agentID]...), nil
}

func (s *InMemory) Clear(_ context.Context, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chats, agentID)
	return nil
}

func (s *InMemory) SaveCall(_ context.Context, agentID string, rec CallRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[agentID] = append(s.calls[agentID], rec)
	return nil
}

func (s *InMemory) Calls(_ context.Context, agentID string) ([]CallRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := append([]CallRecord{}, s.calls[agentID]...)
	sortCalls(recs)
	return recs, nil
}

func (s *InMemory) Close() error { return nil }

// sortCalls orders records oldest first.
func sortCalls(recs []CallRecord) {
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].StartedAt.Before(recs[j].StartedAt)
	})
}

var _ Store = (*InMemory)(nil)
