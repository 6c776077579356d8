package file

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/caselaw/internal/core/domain"
	"github.com/custodia-labs/caselaw/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// ReasoningFile is the reasoning chain file inside the prompt directory.
const ReasoningFile = "reasoning.yaml"

//go:embed defaults/*.txt defaults/reasoning.yaml
var defaultFS embed.FS

// PromptStore loads prompt templates and the reasoning chain from
// user-editable files, falling back to the embedded defaults.
//
// Initialisation is lazy: the directory and default files are only created
// on first access, never in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	steps     []domain.StepDefinition
	initOnce  sync.Once
	initErr   error
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.caselaw/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".caselaw", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// DefaultPrompt returns the embedded template for name.
func DefaultPrompt(name string) (string, bool) {
	data, err := defaultFS.ReadFile("defaults/" + name + ".txt")
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

// DefaultSteps returns the embedded reasoning chain.
func DefaultSteps() []domain.StepDefinition {
	data, err := defaultFS.ReadFile("defaults/" + ReasoningFile)
	if err != nil {
		panic(fmt.Sprintf("embedded reasoning chain missing: %v", err))
	}
	steps, err := ParseSteps(data)
	if err != nil {
		panic(fmt.Sprintf("embedded reasoning chain invalid: %v", err))
	}
	return steps
}

// Load returns the prompt template for the given name.
// A user file takes precedence over the embedded default.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := DefaultPrompt(name); ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name + ".txt")
	if err != nil {
		if defaultPrompt, ok := DefaultPrompt(name); ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Steps returns the reasoning chain from reasoning.yaml. A missing file
// yields the embedded chain; a malformed one is an error.
func (s *PromptStore) Steps() ([]domain.StepDefinition, error) {
	s.initOnce.Do(s.initialise)

	s.mu.RLock()
	if s.steps != nil {
		steps := s.steps
		s.mu.RUnlock()
		return steps, nil
	}
	s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(s.promptDir, ReasoningFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || s.initErr != nil {
			return DefaultSteps(), nil
		}
		return nil, fmt.Errorf("read reasoning chain: %w", err)
	}

	steps, err := ParseSteps(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Join(s.promptDir, ReasoningFile), err)
	}

	s.mu.Lock()
	s.steps = steps
	s.mu.Unlock()
	return steps, nil
}

// ParseSteps decodes a reasoning chain document.
func ParseSteps(data []byte) ([]domain.StepDefinition, error) {
	var doc struct {
		Steps []domain.StepDefinition `yaml:"steps"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse reasoning chain: %v", domain.ErrInvalidInput, err)
	}
	if len(doc.Steps) == 0 {
		return nil, fmt.Errorf("%w: reasoning chain has no steps", domain.ErrInvalidInput)
	}
	for i, step := range doc.Steps {
		if strings.TrimSpace(step.Name) == "" {
			return nil, fmt.Errorf("%w: reasoning step %d has no name", domain.ErrInvalidInput, i+1)
		}
		if strings.TrimSpace(step.Instructions) == "" {
			return nil, fmt.Errorf("%w: reasoning step %q has no instructions", domain.ErrInvalidInput, step.Name)
		}
	}
	return doc.Steps, nil
}

// Reload clears cached prompts and the reasoning chain.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.steps = nil
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and writes any missing defaults.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	entries, err := defaultFS.ReadDir("defaults")
	if err != nil {
		s.initErr = err
		return
	}
	for _, e := range entries {
		path := filepath.Join(s.promptDir, e.Name())
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			continue
		}
		data, err := defaultFS.ReadFile("defaults/" + e.Name())
		if err != nil {
			s.initErr = err
			return
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			s.initErr = fmt.Errorf("create default prompt %q: %w", e.Name(), err)
			return
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) loadFromFile(file string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, file))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# Caselaw Prompts

Edit these files to change how answers and arguments are generated.
Changes take effect on the next command.

## Files

- system.txt: system instruction sent with every call
- answer.txt: research answers grounded in retrieved passages
- arguments.txt: single-call argument drafting for a case
- step.txt: one step of the multi-step reasoning chain
- case_specific.txt, general.txt: guidance chosen by query classification
- reasoning.yaml: the ordered reasoning steps

## Template fields

Templates use Go text/template syntax, for example {{.Query}}.

- .Query, .Topic, .Context, .History, .Guidance
- .Case.Title, .Case.Topic, .Case.Content (arguments and steps)
- .Step.Name, .Step.Instructions, .StepNumber, .StepCount
- .Previous: earlier steps, each with .Number, .Name and .Output

Delete a file to restore its default.
`
	return os.WriteFile(path, []byte(content), 0600)
}
