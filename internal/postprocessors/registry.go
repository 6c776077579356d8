package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
)

// StageFunc builds one processor for a chunking configuration.
type StageFunc func(opts domain.ChunkOptions) (driven.PostProcessor, error)

// Registry keeps named stages in the order they run.
type Registry struct {
	order  []string
	stages map[string]StageFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{stages: make(map[string]StageFunc)}
}

// Register appends a stage. Registering a name again replaces the stage
// but keeps its position.
func (r *Registry) Register(name string, fn StageFunc) {
	if _, ok := r.stages[name]; !ok {
		r.order = append(r.order, name)
	}
	r.stages[name] = fn
}

// Names returns the stage names in execution order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Build validates opts and builds every stage into a pipeline.
func (r *Registry) Build(opts domain.ChunkOptions) (*Pipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(r.order) == 0 {
		return nil, fmt.Errorf("%w: no processors registered", domain.ErrInvalidInput)
	}

	stages := make([]driven.PostProcessor, 0, len(r.order))
	for _, name := range r.order {
		proc, err := r.stages[name](opts)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", name, err)
		}
		stages = append(stages, proc)
	}
	return NewPipeline(stages...), nil
}
