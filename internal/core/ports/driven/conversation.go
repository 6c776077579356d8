package driven

import (
	"context"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

// ConversationStore persists conversation turns.
type ConversationStore interface {
	// LoadTurns returns the turns of a conversation in append order.
	// Unknown conversation IDs yield an empty slice, not an error.
	LoadTurns(ctx context.Context, conversationID string) ([]domain.Turn, error)

	// AppendTurn adds a turn, creating the conversation if needed.
	AppendTurn(ctx context.Context, conversationID string, turn domain.Turn) error
}
