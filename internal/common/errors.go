// Package common defines shared sentinel errors and small helpers used
// across the server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Validation errors (bad or missing client input).
	ErrValidation = errors.New("validation error")

	// Cache-level errors. A miss is the normal cold-path signal; unavailable
	// means the cache backend could not be reached at all. Neither may be
	// surfaced to API clients.
	ErrCacheMiss        = errors.New("cache miss")
	ErrCacheUnavailable = errors.New("cache unavailable")

	// Provisioning errors.
	ErrProvisionTimeout = errors.New("group provisioning timed out")

	// ErrIntegrity marks a data-corruption condition, e.g. a user row
	// referencing a group that does not exist.
	ErrIntegrity = errors.New("integrity violation")

	// Service-level errors (generic/internal flow control).
	ErrInternal = errors.New("internal error")
)
