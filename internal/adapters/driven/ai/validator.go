package ai

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// errNoPing marks providers that have no connectivity check.
var errNoPing = errors.New("no connectivity check")

// Pinger is implemented by providers that can verify connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProviderStatus is the result of checking one provider.
type ProviderStatus struct {
	ID         domain.ProviderID
	Configured bool
	Err        error
}

// OK reports whether the provider is configured and reachable.
func (s ProviderStatus) OK() bool {
	return s.Configured && s.Err == nil
}

// Statuses reports which providers are configured without contacting them.
func (p *Providers) Statuses() []ProviderStatus {
	var out []ProviderStatus
	for _, id := range p.Registry.IDs() {
		status := ProviderStatus{ID: id, Configured: p.Configured(id)}
		if u, ok := p.raw[id].(*unconfigured); ok {
			status.Err = u.err
		}
		out = append(out, status)
	}
	return out
}

// Check pings every registered provider in display order.
// Providers without a Ping method count as reachable once configured.
func (p *Providers) Check(ctx context.Context) []ProviderStatus {
	var out []ProviderStatus
	for _, id := range p.Registry.IDs() {
		status := ProviderStatus{ID: id, Configured: p.Configured(id)}
		provider := p.raw[id]
		if u, ok := provider.(*unconfigured); ok {
			status.Err = u.err
		} else if err := ping(ctx, provider); err != nil && !errors.Is(err, errNoPing) {
			status.Err = err
		}
		out = append(out, status)
	}
	return out
}

// ValidateEmbedding loads the embedding model once and releases it.
// Returns the model's dimensions.
func ValidateEmbedding(ctx context.Context, loader driven.ModelLoader) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	model, err := loader.Load(ctx)
	if err != nil {
		return 0, errors.Join(domain.ErrModelUnavailable, err)
	}
	defer model.Close()
	return model.Dimensions(), nil
}

func ping(ctx context.Context, target any) error {
	pinger, ok := target.(Pinger)
	if !ok {
		return errNoPing
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return pinger.Ping(ctx)
}
