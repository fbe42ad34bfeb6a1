package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing required input record.
	ErrNotFound = errors.New("not found")
	// ErrValidation signals missing or malformed required business fields.
	ErrValidation = errors.New("validation failed")
	// ErrProviderError signals an upstream data provider failure.
	ErrProviderError = errors.New("provider error")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrDiscovery signals a non-success status from the competitor discovery provider.
	ErrDiscovery = errors.New("competitor discovery failed")
	// ErrDegraded signals a non-fatal enrichment failure with a fallback result.
	ErrDegraded = errors.New("degraded result")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrCircuitOpen signals that a provider is short-circuited after repeated failures.
	ErrCircuitOpen = errors.New("provider circuit open")
)

// ProviderError is an upstream API failure with its status.
// StatusCode is the HTTP status or the provider's own status code (e.g. 40501).
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Kind       error // sentinel it unwraps to; ErrProviderError when nil
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.kind())
	}
	return fmt.Sprintf("%s: status %d: %s: %s", e.Provider, e.StatusCode, e.Message, e.kind())
}

func (e *ProviderError) kind() error {
	if e.Kind == nil {
		return ErrProviderError
	}
	return e.Kind
}

// Unwrap exposes the sentinel so errors.Is works for both the kind and ErrProviderError.
func (e *ProviderError) Unwrap() []error {
	if e.Kind == nil || e.Kind == ErrProviderError {
		return []error{ErrProviderError}
	}
	return []error{e.Kind, ErrProviderError}
}

// NewProviderError creates a provider error of the generic kind.
func NewProviderError(provider string, status int, msg string) error {
	return &ProviderError{Provider: provider, StatusCode: status, Message: msg}
}

// DegradedResultError reports that an enrichment stage fell back to an
// unranked or unscored result. The accompanying result is still usable.
type DegradedResultError struct {
	Stage string
	Err   error
}

func (e *DegradedResultError) Error() string {
	return fmt.Sprintf("%s: stage %s: %v", ErrDegraded.Error(), e.Stage, e.Err)
}

func (e *DegradedResultError) Unwrap() []error { return []error{ErrDegraded, e.Err} }

// NewDegraded wraps err as a degraded-stage error.
func NewDegraded(stage string, err error) error {
	return &DegradedResultError{Stage: stage, Err: err}
}

// ValidationError names the missing or invalid field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidation creates a validation error for field.
func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
