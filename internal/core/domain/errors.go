package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrModelUnavailable indicates the configured embedding or generation
	// model cannot be loaded or reached. It is never retried automatically.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrInvalidChunkConfig indicates chunk size and overlap are inconsistent.
	// Overlap must be non-negative and strictly less than the chunk size.
	ErrInvalidChunkConfig = errors.New("invalid chunk config")

	// ErrInvalidQuery indicates a retrieval request violates its constraints,
	// such as a non-positive top-k or an empty query.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrUnknownProvider indicates an LLM provider key is not registered.
	// It is returned before any network call is attempted.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrProviderUnavailable is the class matched by every ProviderError.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrStorageUnavailable indicates the configured storage backend cannot be used.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrUnsupportedFormat indicates no normaliser handles a case file's type.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// ProviderErrorKind classifies a failed LLM provider call.
type ProviderErrorKind string

// Provider error kinds.
const (
	// ProviderErrorRateLimit is returned when the backend throttles the caller.
	ProviderErrorRateLimit ProviderErrorKind = "rate_limit"

	// ProviderErrorAuth is returned for rejected or missing credentials.
	ProviderErrorAuth ProviderErrorKind = "auth"

	// ProviderErrorTimeout is returned when a call exceeds its deadline.
	ProviderErrorTimeout ProviderErrorKind = "timeout"

	// ProviderErrorMalformed is returned when a response cannot be decoded
	// or carries no usable text.
	ProviderErrorMalformed ProviderErrorKind = "malformed"

	// ProviderErrorUnavailable covers transport failures and other non-2xx responses.
	ProviderErrorUnavailable ProviderErrorKind = "unavailable"
)

// Retryable reports whether a caller may retry with backoff.
func (k ProviderErrorKind) Retryable() bool {
	return k == ProviderErrorRateLimit || k == ProviderErrorTimeout
}

// KindForStatus maps a non-2xx HTTP status code to a provider error kind.
func KindForStatus(status int) ProviderErrorKind {
	switch status {
	case 429:
		return ProviderErrorRateLimit
	case 401, 403:
		return ProviderErrorAuth
	default:
		return ProviderErrorUnavailable
	}
}

// ProviderError wraps a backend-specific failure in the uniform taxonomy.
type ProviderError struct {
	// Provider is the registry key of the failing provider.
	Provider ProviderID

	// Kind classifies the failure.
	Kind ProviderErrorKind

	// Status is the HTTP status code, or 0 when no response was received.
	Status int

	// Err is the underlying cause.
	Err error
}

// NewProviderError creates a ProviderError.
func NewProviderError(provider ProviderID, kind ProviderErrorKind, status int, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Status: status, Err: err}
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s provider error (%s", e.Provider, e.Kind)
	if e.Status != 0 {
		fmt.Fprintf(&b, ", status %d", e.Status)
	}
	b.WriteString(")")
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrProviderUnavailable) match any provider failure.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderUnavailable
}

// PartialIngestFailure reports a document whose chunks could not all be stored.
type PartialIngestFailure struct {
	// DocumentID is the document being processed.
	DocumentID string

	// Succeeded lists chunk IDs that were stored before the failure.
	// Empty when the rollback removed them.
	Succeeded []string

	// RolledBack is true when the chunks written by this run were removed.
	RolledBack bool

	// Err is the failure that interrupted the run.
	Err error
}

func (e *PartialIngestFailure) Error() string {
	state := "not rolled back"
	if e.RolledBack {
		state = "rolled back"
	}
	return fmt.Sprintf("partial ingest failure for %s (%d chunks stored, %s): %v",
		e.DocumentID, len(e.Succeeded), state, e.Err)
}

// Unwrap returns the underlying cause.
func (e *PartialIngestFailure) Unwrap() error {
	return e.Err
}

// StepFailure reports a multi-step generation step that failed.
// The remaining steps are not run and no answer is produced.
type StepFailure struct {
	// Step is the 1-based position of the failing step.
	Step int

	// Name is the step name.
	Name string

	// Err is the underlying cause.
	Err error
}

func (e *StepFailure) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.Step, e.Name, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StepFailure) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a provider failure worth retrying
// with backoff. Only rate-limit and timeout failures qualify.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind.Retryable()
	}
	return false
}

// IsUserError reports whether err is caused by caller input rather than
// infrastructure. User errors are surfaced immediately and never retried.
func IsUserError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidChunkConfig) ||
		errors.Is(err, ErrInvalidQuery) ||
		errors.Is(err, ErrUnknownProvider)
}
