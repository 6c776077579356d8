package driving

import (
	"context"

	"github.com/custodia-labs/caselaw/internal/core/domain"
)

// GenerationService produces grounded answers and argument drafts.
type GenerationService interface {
	// GenerateAnswer answers a research question in single-call or multi-step mode.
	GenerateAnswer(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResponse, error)

	// BuildArguments drafts arguments for a case, with related cases and a disclaimer.
	BuildArguments(ctx context.Context, req domain.ArgumentsRequest) (*domain.GenerationResponse, error)
}
