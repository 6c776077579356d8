package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
	"github.com/custodia-labs/caselaw/internal/logger"
)

// ProviderRegistry is the closed set of LLM providers available to generation.
// It is built once at start-up and never modified, so lookups need no lock.
type ProviderRegistry struct {
	providers map[domain.ProviderID]driven.LLMProvider
}

// NewProviderRegistry creates a registry keyed by each provider's ID.
// A later provider with the same ID replaces an earlier one.
func NewProviderRegistry(providers ...driven.LLMProvider) *ProviderRegistry {
	m := make(map[domain.ProviderID]driven.LLMProvider, len(providers))
	for _, p := range providers {
		if p != nil {
			m[p.ID()] = p
		}
	}
	return &ProviderRegistry{providers: m}
}

// Resolve returns the provider registered under id.
// Unknown IDs fail with domain.ErrUnknownProvider before any network call.
func (r *ProviderRegistry) Resolve(id domain.ProviderID) (driven.LLMProvider, error) {
	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, id)
	}
	return p, nil
}

// IDs returns the registered provider IDs in display order.
func (r *ProviderRegistry) IDs() []domain.ProviderID {
	var ids []domain.ProviderID
	for _, id := range domain.AllProviders() {
		if _, ok := r.providers[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// guardedProvider bounds every call with a timeout and an optional rate limit.
type guardedProvider struct {
	inner   driven.LLMProvider
	timeout time.Duration
	limiter *rate.Limiter
}

// GuardProvider wraps p so each call runs under timeout and, when
// requestsPerMinute is positive, waits for a rate limiter token first.
// Deadline expiry is reported as a ProviderError of kind timeout.
func GuardProvider(p driven.LLMProvider, timeout time.Duration, requestsPerMinute int) driven.LLMProvider {
	g := &guardedProvider{inner: p, timeout: timeout}
	if requestsPerMinute > 0 {
		g.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
	}
	return g
}

func (g *guardedProvider) ID() domain.ProviderID {
	return g.inner.ID()
}

func (g *guardedProvider) DefaultModel() string {
	return g.inner.DefaultModel()
}

func (g *guardedProvider) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			// Wait fails early when the token would arrive after the deadline.
			return "", domain.NewProviderError(g.ID(), domain.ProviderErrorRateLimit, 0, err)
		}
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := g.inner.Generate(callCtx, prompt, opts)
	if err == nil {
		logger.Debug("%s responded in %s", g.ID(), time.Since(start).Round(time.Millisecond))
		return out, nil
	}

	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		var pe *domain.ProviderError
		if errors.As(err, &pe) && pe.Kind == domain.ProviderErrorTimeout {
			return "", err
		}
		return "", domain.NewProviderError(g.ID(), domain.ProviderErrorTimeout, 0, err)
	}
	if ctx.Err() != nil {
		return "", err
	}

	var pe *domain.ProviderError
	if !errors.As(err, &pe) {
		return "", domain.NewProviderError(g.ID(), domain.ProviderErrorUnavailable, 0, err)
	}
	return "", err
}
