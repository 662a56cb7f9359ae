package entity

import (
	"errors"
	"fmt"
)

// ValidationError signals malformed input (bad address/hash format, unsupported
// network). Always fatal; retrying the same input cannot succeed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// NotFoundError signals that every provider reported the record absent.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// ProviderError signals that all provider attempts errored (timeouts,
// rate limits, 5xx). Terminal for the lookup that produced it.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed during %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// PartialDataError marks a provider record missing optional fields.
// Non-fatal: missing fields default to zero values.
type PartialDataError struct {
	Provider string
	Missing  []string
}

func (e *PartialDataError) Error() string {
	return fmt.Sprintf("provider %s returned partial data, missing %v", e.Provider, e.Missing)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
