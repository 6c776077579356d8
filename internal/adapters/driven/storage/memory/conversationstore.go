package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore is an in-memory implementation of driven.ConversationStore.
type ConversationStore struct {
	mu    sync.RWMutex
	turns map[string][]domain.Turn
}

// NewConversationStore creates a new in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		turns: make(map[string][]domain.Turn),
	}
}

// LoadTurns returns a copy of the conversation's turns.
func (s *ConversationStore) LoadTurns(_ context.Context, conversationID string) ([]domain.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := s.turns[conversationID]
	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// AppendTurn adds a turn to the conversation.
func (s *ConversationStore) AppendTurn(_ context.Context, conversationID string, turn domain.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[conversationID] = append(s.turns[conversationID], turn)
	return nil
}
