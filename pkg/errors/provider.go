package errors

import (
	"errors"
	"fmt"
)

// Kind classifies failures reported by external activity providers.
type Kind string

const (
	KindNotFound    Kind = "not_found"
	KindRateLimited Kind = "rate_limited"
	KindEmptyRepo   Kind = "empty_repo"
	KindTransient   Kind = "transient"
	KindValidation  Kind = "validation"
)

// ProviderError is returned by GitHub and LeetCode clients.
type ProviderError struct {
	Provider   string
	Kind       Kind
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s", e.Provider, e.Kind)
}

// Unwrap returns the wrapped error.
func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewProviderError builds a classified provider error.
func NewProviderError(provider string, kind Kind, status int, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, StatusCode: status, Err: err}
}

// KindOf extracts the provider failure kind. Unclassified errors are transient.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindTransient
}

// IsNotFound reports whether err is a definitive upstream not-found.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// Retryable reports whether a failure of this kind must not be remembered as permanent.
func (k Kind) Retryable() bool {
	return k == KindRateLimited || k == KindTransient
}

// Retryable reports whether err must not be remembered as a permanent failure.
func Retryable(err error) bool {
	return KindOf(err).Retryable()
}
