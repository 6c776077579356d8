package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/caselaw/internal/adapters/driven/storage/storetest"
	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
)

func TestConversationStore(t *testing.T) {
	storetest.RunConversationStore(t, func(*testing.T) driven.ConversationStore {
		return NewConversationStore()
	})
}

func TestConversationStore_LoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewConversationStore()
	require.NoError(t, store.AppendTurn(ctx, "c", domain.Turn{Role: domain.RoleUser, Content: "q"}))

	turns, err := store.LoadTurns(ctx, "c")
	require.NoError(t, err)
	turns[0].Content = "changed"

	again, err := store.LoadTurns(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "q", again[0].Content)
}
