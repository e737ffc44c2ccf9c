// Package common defines shared constants and sentinel errors used across
// chipverify components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrCounterConflict is returned by the conditional counter update when
	// the stored counter no longer matches the expected prior value.
	ErrCounterConflict = errors.New("counter conflict")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Request validation errors. These reject the request before any
	// authenticity classification is attempted.
	ErrMissingParams = errors.New("missing params")
	ErrBadCounter    = errors.New("bad counter")
)
