package sources

import (
	"errors"
	"fmt"
)

// ErrorCategory normalizes provider failures so the aggregator can treat an
// HTTP timeout, a refused connection, and an out-of-stock item uniformly.
type ErrorCategory string

const (
	// CategoryTimeout indicates the provider took too long to respond.
	CategoryTimeout ErrorCategory = "timeout"

	// CategoryUnavailable indicates the provider has no usable price for the
	// item right now (outage, out of stock, zero quote).
	CategoryUnavailable ErrorCategory = "unavailable"

	// CategoryNotFound indicates the provider does not carry the item.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryBadData indicates the provider returned malformed data.
	CategoryBadData ErrorCategory = "bad_data"

	// CategoryRateLimited indicates too many requests.
	CategoryRateLimited ErrorCategory = "rate_limited"

	// CategoryInternal indicates an unexpected provider-side error.
	CategoryInternal ErrorCategory = "internal"
)

// ProviderError wraps a provider failure with its normalized category.
type ProviderError struct {
	Category   ErrorCategory
	ProviderID string
	Message    string
	Underlying error
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.ProviderID, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.ProviderID, e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewProviderError creates a normalized provider error.
func NewProviderError(category ErrorCategory, providerID, message string, underlying error) *ProviderError {
	return &ProviderError{
		Category:   category,
		ProviderID: providerID,
		Message:    message,
		Underlying: underlying,
	}
}

// CategoryOf extracts the category from an error.
func CategoryOf(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return CategoryInternal
}

// ErrNoSources means every configured price provider was filtered out. This
// is the only aggregator failure: without a single price anchor no reference
// price exists and the evaluation must stop rather than guess.
var ErrNoSources = errors.New("no price sources available")
