// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrOptimisticLock         = errors.New("optimistic lock failure")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")

	// Worker errors
	ErrWorkerFailure = errors.New("worker failure")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "learner", "path", "adaptation"
	Op      string // Operation that failed, e.g., "Generate", "Update"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Learner domain errors
var (
	ErrInvalidProfile     = NewDomainError("learner", "Validate", ErrInvalidInput, "learner profile is missing or malformed")
	ErrProfileNotFound    = NewDomainError("learner", "Find", ErrNotFound, "learner profile not found")
	ErrInvalidNeurotype   = NewDomainError("learner", "Validate", ErrInvalidInput, "unknown neurodivergent type")
	ErrInvalidLevel       = NewDomainError("learner", "Validate", ErrValueOutOfRange, "invalid proficiency level")
	ErrInvalidLearnSpeed  = NewDomainError("learner", "Validate", ErrInvalidInput, "invalid learning speed")
	ErrEmptyHistory       = NewDomainError("learner", "Score", ErrEmptyValue, "performance history is empty")
	ErrInvalidScore       = NewDomainError("learner", "Record", ErrValueOutOfRange, "score must be between 0 and 1")
)

// Path domain errors
var (
	ErrPathNotFound       = NewDomainError("path", "Find", ErrNotFound, "learning path not found")
	ErrPathAlreadyExists  = NewDomainError("path", "Create", ErrAlreadyExists, "learning path already exists for user and domain")
	ErrContentNotFound    = NewDomainError("path", "Update", ErrNotFound, "content item not found in path")
	ErrInvalidDomain      = NewDomainError("path", "Validate", ErrEmptyValue, "content domain is required")
	ErrBrokenPrerequisite = NewDomainError("path", "Verify", ErrInvalidState, "prerequisite references a later or unknown item")
	ErrPathVersionStale   = NewDomainError("path", "Save", ErrOptimisticLock, "path was modified concurrently")
)

// Adaptation domain errors
var (
	ErrAdaptationWorker  = NewDomainError("adaptation", "Offload", ErrWorkerFailure, "adaptation worker failed")
	ErrAdaptationTimeout = NewDomainError("adaptation", "Offload", ErrTimeout, "adaptation request timed out")
	ErrPoolClosed        = NewDomainError("adaptation", "Submit", ErrInvalidState, "worker pool is closed")
	ErrNilContent        = NewDomainError("adaptation", "Adapt", ErrEmptyValue, "content item is required")
)

// Catalog (external content source) errors
var (
	ErrCatalogUnavailable = NewDomainError("catalog", "Fetch", ErrServiceUnavailable, "content catalog is unreachable")
	ErrCatalogEmpty       = NewDomainError("catalog", "Fetch", ErrNotFound, "catalog returned no items for domain and level")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsRetryable checks if the operation can be retried by the calling layer.
// Per the propagation policy, only catalog outages and timeouts qualify;
// validation and not-found errors never do.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
